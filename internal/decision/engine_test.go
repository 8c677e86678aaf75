package decision

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/copybet/internal/domain"
)

func sampleTrade(wallet string, amount float64) domain.ParsedTrade {
	return domain.ParsedTrade{
		Market:        "Will Bitcoin hit $100k by Dec?",
		Side:          domain.SideYes,
		Amount:        decimal.NewFromFloat(amount),
		Price:         decimal.NewFromFloat(0.65),
		WalletAddress: wallet,
		Signature:     "sig-1",
		Timestamp:     time.Now(),
	}
}

func setting(trader string, active bool, alloc, pct float64) domain.CopySetting {
	return domain.CopySetting{
		FollowerID:     "follower-1",
		TraderID:       trader,
		IsActive:       active,
		AllocationUSD:  decimal.NewFromFloat(alloc),
		MaxPositionPct: decimal.NewFromFloat(pct),
	}
}

func TestDecide(t *testing.T) {
	eng := NewEngine()

	t.Run("not followed", func(t *testing.T) {
		dec := eng.Decide(sampleTrade("W", 50), []domain.CopySetting{setting("other-wallet", true, 100, 25)})
		assert.False(t, dec.ShouldCopy)
		assert.Equal(t, domain.ReasonNotFollowed, dec.Reason)
	})

	t.Run("no settings at all", func(t *testing.T) {
		dec := eng.Decide(sampleTrade("W", 50), nil)
		assert.False(t, dec.ShouldCopy)
		assert.Equal(t, domain.ReasonNotFollowed, dec.Reason)
	})

	t.Run("paused", func(t *testing.T) {
		dec := eng.Decide(sampleTrade("W", 50), []domain.CopySetting{setting("W", false, 100, 25)})
		assert.False(t, dec.ShouldCopy)
		assert.Equal(t, domain.ReasonPaused, dec.Reason)
	})

	t.Run("too small", func(t *testing.T) {
		dec := eng.Decide(sampleTrade("W", 50), []domain.CopySetting{setting("W", true, 100, 0)})
		assert.False(t, dec.ShouldCopy)
		assert.Equal(t, domain.ReasonTooSmall, dec.Reason)
	})

	t.Run("caps at allocation share", func(t *testing.T) {
		// min(50, 100*25/100) = 25
		dec := eng.Decide(sampleTrade("W", 50), []domain.CopySetting{setting("W", true, 100, 25)})
		require.True(t, dec.ShouldCopy)
		assert.True(t, dec.PositionSize.Equal(decimal.NewFromInt(25)), "got %s", dec.PositionSize)
		require.NotNil(t, dec.Settings)
		assert.Equal(t, "W", dec.Settings.TraderID)
	})

	t.Run("small trade copied in full", func(t *testing.T) {
		dec := eng.Decide(sampleTrade("W", 10), []domain.CopySetting{setting("W", true, 100, 25)})
		require.True(t, dec.ShouldCopy)
		assert.True(t, dec.PositionSize.Equal(decimal.NewFromInt(10)))
	})

	t.Run("first matching setting wins", func(t *testing.T) {
		settings := []domain.CopySetting{
			setting("W", true, 100, 10),
			setting("W", true, 1000, 50),
		}
		dec := eng.Decide(sampleTrade("W", 50), settings)
		require.True(t, dec.ShouldCopy)
		assert.True(t, dec.PositionSize.Equal(decimal.NewFromInt(10)))
	})
}

func TestDecideDeterministic(t *testing.T) {
	eng := NewEngine()
	trade := sampleTrade("W", 50)
	settings := []domain.CopySetting{setting("W", true, 100, 25)}

	first := eng.Decide(trade, settings)
	for i := 0; i < 100; i++ {
		again := eng.Decide(trade, settings)
		require.Equal(t, first.ShouldCopy, again.ShouldCopy)
		require.True(t, first.PositionSize.Equal(again.PositionSize))
	}
}

// Property: whenever the engine copies, the position size respects both
// the trade amount and the allocation share.
func TestSizingBoundProperty(t *testing.T) {
	eng := NewEngine()

	property := func(amountCents, allocCents int64, pct uint8) bool {
		// constrain to sane inputs
		amount := decimal.NewFromInt(amountCents % 1_000_000).Div(decimal.NewFromInt(100)).Abs()
		alloc := decimal.NewFromInt(allocCents % 10_000_000).Div(decimal.NewFromInt(100)).Abs()
		maxPct := decimal.NewFromInt(int64(pct) % 101)

		trade := sampleTrade("W", 0)
		trade.Amount = amount
		settings := []domain.CopySetting{{
			FollowerID:     "f",
			TraderID:       "W",
			IsActive:       true,
			AllocationUSD:  alloc,
			MaxPositionPct: maxPct,
		}}

		dec := eng.Decide(trade, settings)
		if !dec.ShouldCopy {
			return true
		}
		bound := alloc.Mul(maxPct).Div(decimal.NewFromInt(100))
		return dec.PositionSize.LessThanOrEqual(bound) &&
			dec.PositionSize.LessThanOrEqual(trade.Amount) &&
			dec.PositionSize.GreaterThan(decimal.Zero)
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
}
