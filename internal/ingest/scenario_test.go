package ingest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/copybet/internal/decision"
	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/events"
	"github.com/betbot/copybet/internal/execution"
	"github.com/betbot/copybet/internal/matching"
)

type memRecorder struct {
	records []*domain.ExecutedTrade
}

func (r *memRecorder) Insert(ctx context.Context, trade *domain.ExecutedTrade) error {
	r.records = append(r.records, trade)
	return nil
}

type simMode struct{}

func (simMode) Simulation() bool { return true }

// Full pipeline with real components: classifier, parser, decision engine,
// matcher over a warmed cache, executor in simulation mode. Only the
// stores are in-memory.
func TestScenarioEndToEnd(t *testing.T) {
	cache := matching.NewCandidateCache(nil, 0)
	cache.Warm([]matching.Candidate{
		{Ticker: "BTC-100K-DEC", Title: "Will Bitcoin hit $100k by Dec?"},
		{Ticker: "FED-DEC25", Title: "Fed cuts rates in December 2025?"},
	})
	matcher := matching.NewMatcher(cache, matching.DefaultGazetteer())

	rec := &memRecorder{}
	executor := execution.NewExecutor(
		matcher,
		&execution.SimulatedOrderPort{},
		&execution.LiveOrderPort{API: nil},
		simMode{},
		rec,
	)

	settings := &staticSettings{settings: []domain.CopySetting{{
		FollowerID:     "follower-1",
		TraderID:       "W",
		IsActive:       true,
		AllocationUSD:  decimal.NewFromInt(100),
		MaxPositionPct: decimal.NewFromInt(25),
	}}}

	in := NewIngestor(
		NewClassifier(DefaultClassifierConfig()),
		NewParser(),
		newMemDedup(),
		settings,
		decision.NewEngine(),
		executor,
	)

	ev := events.IncomingEvent{
		Signature:   "sig-1",
		FeePayer:    "W",
		Description: "Will Bitcoin hit $100k by Dec?",
		Side:        "yes",
		Amount:      50,
		Timestamp:   1735689600,
	}

	sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{ev})
	require.Equal(t, 1, sum.Processed)
	require.Len(t, rec.records, 1)

	out := rec.records[0]
	assert.Equal(t, domain.StatusExecuted, out.Status)
	assert.True(t, out.IsSimulation)
	assert.Equal(t, "BTC-100K-DEC", out.MatchedTicker)
	assert.True(t, out.Decision.PositionSize.Equal(decimal.NewFromInt(25)), "min(50, 25), got %s", out.Decision.PositionSize)
	assert.Equal(t, domain.SideYes, out.OriginalTrade.Side)

	// redelivery of the same signature changes nothing
	sum = in.ProcessBatch(context.Background(), []events.IncomingEvent{ev})
	assert.Equal(t, 1, sum.Skipped)
	assert.Len(t, rec.records, 1)
}

// With no candidate scoring at threshold the executor must record a
// distinguishable failure, not drop the trade.
func TestScenarioNoMarketMatch(t *testing.T) {
	cache := matching.NewCandidateCache(nil, 0)
	cache.Warm([]matching.Candidate{
		{Ticker: "FED-DEC25", Title: "Fed cuts rates in December 2025?"},
	})
	matcher := matching.NewMatcher(cache, matching.DefaultGazetteer())

	rec := &memRecorder{}
	executor := execution.NewExecutor(matcher, &execution.SimulatedOrderPort{}, &execution.LiveOrderPort{}, simMode{}, rec)

	settings := &staticSettings{settings: []domain.CopySetting{{
		FollowerID:     "follower-1",
		TraderID:       "W",
		IsActive:       true,
		AllocationUSD:  decimal.NewFromInt(100),
		MaxPositionPct: decimal.NewFromInt(25),
	}}}

	in := NewIngestor(NewClassifier(DefaultClassifierConfig()), NewParser(), newMemDedup(), settings, decision.NewEngine(), executor)

	ev := events.IncomingEvent{
		Signature:   "sig-2",
		FeePayer:    "W",
		Description: "Bought YES on Will Trump win the 2024 election",
		Amount:      50,
	}
	sum := in.ProcessBatch(context.Background(), []events.IncomingEvent{ev})
	require.Equal(t, 1, sum.Processed)
	require.Len(t, rec.records, 1)

	out := rec.records[0]
	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureNoMarketMatch, out.FailureKind)
	assert.Contains(t, out.Error, "No matching market")
	assert.Empty(t, out.MatchedTicker)
}
