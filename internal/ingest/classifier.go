package ingest

import (
	"strings"

	"github.com/betbot/copybet/internal/events"
)

// ClassifierConfig holds the heuristic tables the classifier matches
// against. They are plain data so tests can swap them out.
type ClassifierConfig struct {
	// KnownSources are webhook provider source labels that identify a
	// prediction-market platform directly.
	KnownSources map[string]bool
	// PredictionPrograms is the allow-list of on-chain program IDs known
	// to belong to prediction-market protocols.
	PredictionPrograms map[string]bool
	// Keywords match anywhere in the lower-cased description.
	Keywords []string
	// StableMints are mints treated as stable-value tokens. A swap whose
	// output is anything else is assumed to buy an outcome token.
	StableMints map[string]bool
}

// DefaultClassifierConfig returns the production heuristic tables.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		KnownSources: map[string]bool{
			"POLYMARKET":      true,
			"MONACO_PROTOCOL": true,
			"DRIFT_BET":       true,
			"HEDGEHOG":        true,
		},
		PredictionPrograms: map[string]bool{
			"monacoUXKtUi6vKsQwaLyxmXKSievfNWEcYXTgkbCih9": true,
			"DRiP2Pn2K6fuMLKQmt5rZWyHiUZ6WK3GChEySUpHSS4x": true,
			"hedgehogXP1eVkJ9uYs1sVneu9eCkfWN3CZ9o7BGmSkf": true,
		},
		Keywords: []string{
			"swap", "trade", "market", "bet", "wager",
			"yes", "no", "outcome", "contract",
			"election", "president", "wins", "nominee",
		},
		StableMints: map[string]bool{
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
			"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
		},
	}
}

// Classifier decides whether an inbound transaction looks like a
// prediction-market trade. Any single condition is sufficient; this is a
// union of heuristics, not a weighted score.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// IsPredictionTrade reports whether ev should enter the copy pipeline.
// Pure predicate, no I/O.
func (c *Classifier) IsPredictionTrade(ev *events.IncomingEvent) bool {
	if c.cfg.KnownSources[strings.ToUpper(ev.Source)] {
		return true
	}

	for _, ins := range ev.Instructions {
		if c.cfg.PredictionPrograms[ins.ProgramID] {
			return true
		}
	}

	desc := strings.ToLower(ev.Description)
	if desc != "" {
		for _, kw := range c.cfg.Keywords {
			if strings.Contains(desc, kw) {
				return true
			}
		}
	}

	// A swap that outputs a non-stable token is assumed to buy an outcome
	// token. Coarse, but platform program IDs rotate faster than mints.
	if ev.Events != nil && ev.Events.Swap != nil {
		for _, out := range ev.Events.Swap.TokenOutputs {
			if out.Mint != "" && !c.cfg.StableMints[out.Mint] {
				return true
			}
		}
	}

	return false
}
