package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/events"
)

type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemDedup() *memDedup { return &memDedup{seen: map[string]bool{}} }

func (d *memDedup) SetIfAbsent(ctx context.Context, sig string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen[sig] {
		return false, nil
	}
	d.seen[sig] = true
	return true, nil
}

type staticSettings struct {
	settings []domain.CopySetting
	err      error
}

func (s *staticSettings) ListByTrader(ctx context.Context, wallet string) ([]domain.CopySetting, error) {
	return s.settings, s.err
}

type copyAllDecider struct{}

func (copyAllDecider) Decide(trade domain.ParsedTrade, settings []domain.CopySetting) domain.CopyDecision {
	if len(settings) == 0 {
		return domain.CopyDecision{ShouldCopy: false, Reason: domain.ReasonNotFollowed}
	}
	return domain.CopyDecision{ShouldCopy: true, PositionSize: trade.Amount, Settings: &settings[0]}
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []domain.ParsedTrade
}

func (e *recordingExecutor) Execute(ctx context.Context, trade domain.ParsedTrade, decision domain.CopyDecision) *domain.ExecutedTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, trade)
	return &domain.ExecutedTrade{
		ID:            "exec-1",
		OriginalTrade: trade,
		Decision:      decision,
		Status:        domain.StatusExecuted,
		MatchedTicker: "TICKER-1",
		IsSimulation:  true,
	}
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func tradeEvent(sig string) events.IncomingEvent {
	return events.IncomingEvent{
		Signature:   sig,
		FeePayer:    "TrackedWallet",
		Description: "Bought YES on Will Trump win the 2024 election",
		Timestamp:   1735689600,
	}
}

func followSettings() []domain.CopySetting {
	return []domain.CopySetting{{
		FollowerID:     "f1",
		TraderID:       "TrackedWallet",
		IsActive:       true,
		AllocationUSD:  decimal.NewFromInt(100),
		MaxPositionPct: decimal.NewFromInt(25),
	}}
}

func newTestIngestor(dedup Deduper, settings SettingsSource, exec Executor) *Ingestor {
	return NewIngestor(NewClassifier(DefaultClassifierConfig()), NewParser(), dedup, settings, copyAllDecider{}, exec)
}

func TestProcessBatch(t *testing.T) {
	t.Run("happy path executes once", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{settings: followSettings()}, exec)

		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		assert.Equal(t, 1, sum.Processed)
		assert.Equal(t, 0, sum.Skipped)
		require.Len(t, sum.Trades, 1)
		assert.Equal(t, "sig-1", sum.Trades[0].Signature)
		assert.Equal(t, string(domain.StatusExecuted), sum.Trades[0].Status)
		assert.Equal(t, 1, exec.count())
	})

	t.Run("redelivery is skipped", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{settings: followSettings()}, exec)

		first := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		second := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		assert.Equal(t, 1, first.Processed)
		assert.Equal(t, 1, second.Skipped)
		assert.Equal(t, 0, second.Processed)
		assert.Equal(t, 1, exec.count(), "a redelivered signature must not execute again")
	})

	t.Run("duplicate inside one batch", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{settings: followSettings()}, exec)

		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1"), tradeEvent("sig-1")})
		assert.Equal(t, 1, sum.Processed)
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 1, exec.count())
	})

	t.Run("non-trade skipped after dedup claim", func(t *testing.T) {
		exec := &recordingExecutor{}
		dedup := newMemDedup()
		in := newTestIngestor(dedup, &staticSettings{settings: followSettings()}, exec)

		ev := events.IncomingEvent{Signature: "sig-x", FeePayer: "W", Description: "transferred SOL"}
		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{ev})
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 0, exec.count())
		assert.True(t, dedup.seen["sig-x"], "signature is claimed before classification")
	})

	t.Run("no copy settings", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{}, exec)

		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 0, exec.count())
	})

	t.Run("settings lookup failure degrades to no copy", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{err: errors.New("db down")}, exec)

		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 0, exec.count())
	})

	t.Run("dedup outage skips without executing", func(t *testing.T) {
		exec := &recordingExecutor{}
		dedup := newMemDedup()
		dedup.err = errors.New("badger closed")
		in := newTestIngestor(dedup, &staticSettings{settings: followSettings()}, exec)

		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{tradeEvent("sig-1")})
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 0, exec.count(), "no execution when at-most-once cannot be guaranteed")
	})

	t.Run("missing signature skipped", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{settings: followSettings()}, exec)

		ev := tradeEvent("")
		sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{ev})
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, 0, exec.count())
	})

	t.Run("one bad event does not abort the batch", func(t *testing.T) {
		exec := &recordingExecutor{}
		in := newTestIngestor(newMemDedup(), &staticSettings{settings: followSettings()}, exec)

		batch := []events.IncomingEvent{
			{Signature: "sig-a", FeePayer: "W", Description: "transferred SOL"},
			tradeEvent("sig-b"),
			tradeEvent("sig-b"),
			tradeEvent("sig-c"),
		}
		sum := in.ProcessBatch(context.Background(), batch)
		assert.Equal(t, 2, sum.Processed)
		assert.Equal(t, 2, sum.Skipped)
		assert.Len(t, sum.Trades, 2)
	})
}
