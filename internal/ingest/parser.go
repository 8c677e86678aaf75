package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/events"
)

const (
	// UnknownMarket is the market text used when the event carries no
	// description at all.
	UnknownMarket = "Unknown market"
)

var (
	// defaultAmount and placeholderPrice are known simplifications carried
	// over from the reference system: there is no live quote feed, so the
	// parser fills in a fixed notional and price when the event does not
	// provide them. Do not treat these as market data.
	defaultAmount    = decimal.NewFromInt(100)
	placeholderPrice = decimal.NewFromFloat(0.65)

	// standalone "no" token, e.g. "bought NO on ...". Substring matching
	// would trip on "november", "nominee" etc.
	noTokenRe = regexp.MustCompile(`(?i)\bno\b`)
)

// Parser extracts a structured trade from a raw transaction event.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse derives a ParsedTrade from ev. The bool result is false only when
// required fields (signature, fee payer) are missing; everything else is
// defaulted. Pure function.
func (p *Parser) Parse(ev *events.IncomingEvent) (domain.ParsedTrade, bool) {
	if ev == nil || ev.Signature == "" || ev.FeePayer == "" {
		return domain.ParsedTrade{}, false
	}

	market := strings.TrimSpace(ev.Description)
	if market == "" {
		market = UnknownMarket
	}

	side := domain.SideYes
	if noTokenRe.MatchString(ev.Description) {
		side = domain.SideNo
	}
	// Explicit side field always wins over the text heuristic.
	switch strings.ToLower(strings.TrimSpace(ev.Side)) {
	case "no":
		side = domain.SideNo
	case "yes":
		side = domain.SideYes
	}

	amount := defaultAmount
	if len(ev.TokenTransfers) > 0 && ev.TokenTransfers[0].TokenAmount > 0 {
		amount = decimal.NewFromFloat(ev.TokenTransfers[0].TokenAmount)
	} else if ev.Amount > 0 {
		amount = decimal.NewFromFloat(ev.Amount)
	}

	return domain.ParsedTrade{
		Market:        market,
		Side:          side,
		Amount:        amount,
		Price:         placeholderPrice,
		WalletAddress: ev.FeePayer,
		Signature:     ev.Signature,
		Timestamp:     time.Unix(ev.Timestamp, 0).UTC(),
	}, true
}
