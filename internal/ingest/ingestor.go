package ingest

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/events"
	"github.com/betbot/copybet/pkg/logger"
)

// SkipReason says why an event did not produce an executed trade.
type SkipReason string

const (
	SkipDuplicate  SkipReason = "duplicate"
	SkipNotTrade   SkipReason = "not_prediction_trade"
	SkipParse      SkipReason = "parse_failed"
	SkipNoCopy     SkipReason = "no_copy"
	SkipDedupError SkipReason = "dedup_unavailable"
)

// Outcome is the per-event pipeline result. Skips are data, not errors:
// one bad event never aborts the batch.
type Outcome struct {
	Signature string
	Skipped   bool
	Reason    SkipReason
	Trade     *domain.ExecutedTrade
}

// Summary is returned to the webhook caller.
type Summary struct {
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Trades    []TradeSummary `json:"trades"`
}

// TradeSummary is the short per-trade echo in the webhook response.
type TradeSummary struct {
	Signature string `json:"signature"`
	Wallet    string `json:"wallet"`
	Market    string `json:"market"`
	Status    string `json:"status"`
	Ticker    string `json:"ticker,omitempty"`
}

// Deduper claims a signature atomically. first is true only for the one
// caller that claimed it.
type Deduper interface {
	SetIfAbsent(ctx context.Context, signature string) (first bool, err error)
}

// SettingsSource lists copy settings for a tracked wallet.
type SettingsSource interface {
	ListByTrader(ctx context.Context, wallet string) ([]domain.CopySetting, error)
}

// Decider turns a parsed trade plus settings into a sizing decision.
type Decider interface {
	Decide(trade domain.ParsedTrade, settings []domain.CopySetting) domain.CopyDecision
}

// Executor runs one decision to a terminal ExecutedTrade.
type Executor interface {
	Execute(ctx context.Context, trade domain.ParsedTrade, decision domain.CopyDecision) *domain.ExecutedTrade
}

// Ingestor orchestrates the per-event pipeline:
// dedup claim -> classify -> parse -> decide -> execute.
type Ingestor struct {
	classifier *Classifier
	parser     *Parser
	dedup      Deduper
	settings   SettingsSource
	decider    Decider
	executor   Executor
	log        *logrus.Entry
}

func NewIngestor(classifier *Classifier, parser *Parser, dedup Deduper, settings SettingsSource, decider Decider, executor Executor) *Ingestor {
	return &Ingestor{
		classifier: classifier,
		parser:     parser,
		dedup:      dedup,
		settings:   settings,
		decider:    decider,
		executor:   executor,
		log:        logger.WithField("component", "ingestor"),
	}
}

// ProcessBatch runs every event of one webhook delivery independently and
// accumulates the summary. It never returns an error for a single bad
// event; the caller has already authenticated the batch.
func (in *Ingestor) ProcessBatch(ctx context.Context, batch []events.IncomingEvent) Summary {
	var sum Summary
	for i := range batch {
		out := in.processEvent(ctx, &batch[i])
		if out.Skipped {
			sum.Skipped++
			continue
		}
		sum.Processed++
		if out.Trade != nil {
			ts := TradeSummary{
				Signature: out.Trade.OriginalTrade.Signature,
				Wallet:    out.Trade.OriginalTrade.WalletAddress,
				Market:    out.Trade.OriginalTrade.Market,
				Status:    string(out.Trade.Status),
				Ticker:    out.Trade.MatchedTicker,
			}
			sum.Trades = append(sum.Trades, ts)
		}
	}
	in.log.WithFields(logrus.Fields{
		"events":    len(batch),
		"processed": sum.Processed,
		"skipped":   sum.Skipped,
		"trades":    len(sum.Trades),
	}).Info("webhook batch processed")
	return sum
}

func (in *Ingestor) processEvent(ctx context.Context, ev *events.IncomingEvent) Outcome {
	out := Outcome{Signature: ev.Signature}

	if ev.Signature == "" {
		out.Skipped, out.Reason = true, SkipParse
		return out
	}

	// Claim the signature before any side effect. The claim is a single
	// conditional write, so concurrent deliveries of the same signature
	// resolve to exactly one winner.
	first, err := in.dedup.SetIfAbsent(ctx, ev.Signature)
	if err != nil {
		in.log.WithError(err).WithField("signature", ev.Signature).Error("dedup store unavailable, skipping event")
		out.Skipped, out.Reason = true, SkipDedupError
		return out
	}
	if !first {
		out.Skipped, out.Reason = true, SkipDuplicate
		return out
	}

	if !in.classifier.IsPredictionTrade(ev) {
		out.Skipped, out.Reason = true, SkipNotTrade
		return out
	}

	trade, ok := in.parser.Parse(ev)
	if !ok {
		out.Skipped, out.Reason = true, SkipParse
		return out
	}

	settings, err := in.settings.ListByTrader(ctx, trade.WalletAddress)
	if err != nil {
		in.log.WithError(err).WithField("wallet", trade.WalletAddress).Error("settings lookup failed")
		settings = nil
	}

	decision := in.decider.Decide(trade, settings)
	if !decision.ShouldCopy {
		in.log.WithFields(logrus.Fields{
			"signature": trade.Signature,
			"wallet":    trade.WalletAddress,
			"reason":    decision.Reason,
		}).Debug("trade not copied")
		out.Skipped, out.Reason = true, SkipNoCopy
		return out
	}

	out.Trade = in.executor.Execute(ctx, trade, decision)
	return out
}
