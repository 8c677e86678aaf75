package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/matching"
	"github.com/betbot/copybet/pkg/logger"
)

// DefaultTimeout bounds one execution attempt. A timeout resolves to a
// FAILED record, never a trade stuck in PENDING.
const DefaultTimeout = 30 * time.Second

// TickerResolver maps free-text market descriptions to exchange tickers.
type TickerResolver interface {
	Match(ctx context.Context, sourceText string) matching.Result
}

// TradeRecorder persists every terminal ExecutedTrade.
type TradeRecorder interface {
	Insert(ctx context.Context, trade *domain.ExecutedTrade) error
}

// ModeFlag reports whether execution runs in simulation mode. It is
// consulted once per execution so the flag can be flipped at runtime.
type ModeFlag interface {
	Simulation() bool
}

// Executor is the trade execution state machine:
// PENDING -> EXECUTED | FAILED, one attempt per call, every outcome
// persisted. The caller guarantees it is invoked at most once per
// signature (the dedup claim upstream).
type Executor struct {
	resolver TickerResolver
	sim      OrderPort
	live     OrderPort
	mode     ModeFlag
	recorder TradeRecorder
	timeout  time.Duration
	log      *logrus.Entry
}

func NewExecutor(resolver TickerResolver, sim, live OrderPort, mode ModeFlag, recorder TradeRecorder) *Executor {
	return &Executor{
		resolver: resolver,
		sim:      sim,
		live:     live,
		mode:     mode,
		recorder: recorder,
		timeout:  DefaultTimeout,
		log:      logger.WithField("component", "executor"),
	}
}

// Execute runs one decision to a terminal state and returns the persisted
// record. Failures are first-class records, not errors: the only error
// path left to the caller is a logged persistence problem.
func (e *Executor) Execute(ctx context.Context, trade domain.ParsedTrade, decision domain.CopyDecision) *domain.ExecutedTrade {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rec := &domain.ExecutedTrade{
		ID:            uuid.NewString(),
		OriginalTrade: trade,
		Decision:      decision,
		Status:        domain.StatusPending,
	}

	match := e.resolver.Match(ctx, trade.Market)
	if match.Ticker == "" {
		e.fail(ctx, rec, domain.FailureNoMarketMatch,
			fmt.Sprintf("No matching market found for: %s", trade.Market))
		return rec
	}
	rec.MatchedTicker = match.Ticker

	contracts := int(decision.PositionSize.Ceil().IntPart())
	intent := OrderIntent{Ticker: match.Ticker, Side: trade.Side, Contracts: contracts}

	port := e.live
	simulated := e.mode.Simulation()
	if simulated {
		port = e.sim
	}

	fill, err := port.Place(ctx, intent)
	if err != nil {
		kind := domain.FailureExchangeError
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			kind = domain.FailureInsufficientBalance
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			kind = domain.FailureUnknown
		}
		rec.IsSimulation = simulated
		e.fail(ctx, rec, kind, err.Error())
		return rec
	}

	now := time.Now().UTC()
	rec.Status = domain.StatusExecuted
	rec.ExecutedAt = &now
	rec.OrderID = fill.OrderID
	rec.IsSimulation = fill.Simulated
	e.persist(ctx, rec)

	e.log.WithFields(logrus.Fields{
		"signature": trade.Signature,
		"ticker":    match.Ticker,
		"contracts": contracts,
		"orderId":   fill.OrderID,
		"simulated": fill.Simulated,
	}).Info("copy trade executed")
	return rec
}

func (e *Executor) fail(ctx context.Context, rec *domain.ExecutedTrade, kind domain.FailureKind, msg string) {
	rec.Status = domain.StatusFailed
	rec.FailureKind = kind
	rec.Error = msg
	e.persist(ctx, rec)

	e.log.WithFields(logrus.Fields{
		"signature": rec.OriginalTrade.Signature,
		"kind":      string(kind),
	}).Warnf("copy trade failed: %s", msg)
}

func (e *Executor) persist(ctx context.Context, rec *domain.ExecutedTrade) {
	// persistence must survive an expired execution context
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := e.recorder.Insert(ctx, rec); err != nil {
		e.log.WithError(err).WithField("signature", rec.OriginalTrade.Signature).Error("failed to persist executed trade")
	}
}
