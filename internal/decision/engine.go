package decision

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/copybet/internal/domain"
)

// Engine turns a parsed trade plus the follower's settings into a sizing
// decision. No I/O, no randomness: same inputs, same decision. This is
// the natural unit-test surface of the pipeline.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Decide picks the first setting tracking the trade's wallet and sizes
// the mirrored position as min(trade amount, allocation * maxPct / 100).
func (e *Engine) Decide(trade domain.ParsedTrade, settings []domain.CopySetting) domain.CopyDecision {
	var setting *domain.CopySetting
	for i := range settings {
		if settings[i].TraderID == trade.WalletAddress {
			setting = &settings[i]
			break
		}
	}
	if setting == nil {
		return domain.CopyDecision{ShouldCopy: false, Reason: domain.ReasonNotFollowed}
	}
	if !setting.IsActive {
		return domain.CopyDecision{ShouldCopy: false, Reason: domain.ReasonPaused}
	}

	size := decimal.Min(trade.Amount, setting.MaxPosition())
	if size.LessThanOrEqual(decimal.Zero) {
		return domain.CopyDecision{ShouldCopy: false, Reason: domain.ReasonTooSmall}
	}

	return domain.CopyDecision{
		ShouldCopy:   true,
		PositionSize: size,
		Settings:     setting,
	}
}
