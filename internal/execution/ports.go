package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/pkg/exchange"
)

// ErrInsufficientBalance marks a live placement refused before reaching
// the exchange because the balance check failed.
var ErrInsufficientBalance = errors.New("insufficient balance")

// OrderIntent is the resolved order the executor wants filled.
type OrderIntent struct {
	Ticker    string
	Side      domain.Side
	Contracts int
}

// Fill is the terminal result of a successful placement, simulated or live.
type Fill struct {
	OrderID   string
	Raw       string
	Simulated bool
}

// OrderPort places one order. The two implementations keep the executor's
// state machine identical across simulation and live mode.
type OrderPort interface {
	Place(ctx context.Context, intent OrderIntent) (Fill, error)
}

// ExchangeAPI is the slice of the exchange client the live port needs.
type ExchangeAPI interface {
	GetBalance(ctx context.Context) (exchange.Balance, error)
	CreateOrder(ctx context.Context, req exchange.OrderRequest) (exchange.Order, error)
}

// SimulatedOrderPort synthesizes deterministic fills without touching the
// exchange. The artificial delay keeps simulated timings roughly honest.
type SimulatedOrderPort struct {
	Delay time.Duration
}

func (p *SimulatedOrderPort) Place(ctx context.Context, intent OrderIntent) (Fill, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return Fill{}, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return Fill{
		OrderID:   "sim-" + uuid.NewString(),
		Raw:       fmt.Sprintf(`{"simulated":true,"ticker":%q,"count":%d}`, intent.Ticker, intent.Contracts),
		Simulated: true,
	}, nil
}

// LiveOrderPort checks balance then places a market buy on the exchange.
type LiveOrderPort struct {
	API ExchangeAPI
	// CostPerContractCents is the conservative worst-case cost estimate
	// used by the pre-placement balance check (a binary contract settles
	// at 100 cents).
	CostPerContractCents int64
}

func (p *LiveOrderPort) Place(ctx context.Context, intent OrderIntent) (Fill, error) {
	cost := p.CostPerContractCents
	if cost <= 0 {
		cost = 100
	}

	bal, err := p.API.GetBalance(ctx)
	if err != nil {
		return Fill{}, errors.Wrap(err, "balance check")
	}
	required := int64(intent.Contracts) * cost
	if bal.BalanceCents < required {
		return Fill{}, errors.Wrapf(ErrInsufficientBalance, "have %d¢, need %d¢", bal.BalanceCents, required)
	}

	side := exchange.OrderSideYes
	if intent.Side == domain.SideNo {
		side = exchange.OrderSideNo
	}
	order, err := p.API.CreateOrder(ctx, exchange.OrderRequest{
		Ticker:        intent.Ticker,
		Action:        exchange.ActionBuy,
		Side:          side,
		Count:         intent.Contracts,
		Type:          exchange.OrderTypeMarket,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return Fill{}, err
	}
	return Fill{
		OrderID: order.OrderID,
		Raw:     fmt.Sprintf(`{"order_id":%q,"status":%q}`, order.OrderID, order.Status),
	}, nil
}
