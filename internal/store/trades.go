package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/copybet/internal/domain"
)

// TradeStore is the append-only audit log of executed (and failed) copy
// trades. Terminal records are never updated.
type TradeStore struct {
	db *sql.DB
}

func NewTradeStore(db *sql.DB) *TradeStore {
	return &TradeStore{db: db}
}

// Insert persists one terminal ExecutedTrade.
func (s *TradeStore) Insert(ctx context.Context, t *domain.ExecutedTrade) error {
	var executedAt interface{}
	if t.ExecutedAt != nil {
		executedAt = t.ExecutedAt.UTC().Format(time.RFC3339Nano)
	}
	sim := 0
	if t.IsSimulation {
		sim = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO executed_trades
  (id, signature, wallet, market, side, amount, price, trade_ts, position_size,
   status, failure_kind, error, order_id, matched_ticker, is_simulation, executed_at, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`,
		t.ID,
		t.OriginalTrade.Signature,
		t.OriginalTrade.WalletAddress,
		t.OriginalTrade.Market,
		string(t.OriginalTrade.Side),
		t.OriginalTrade.Amount.String(),
		t.OriginalTrade.Price.String(),
		t.OriginalTrade.Timestamp.UTC().Format(time.RFC3339Nano),
		t.Decision.PositionSize.String(),
		string(t.Status),
		string(t.FailureKind),
		t.Error,
		t.OrderID,
		t.MatchedTicker,
		sim,
		executedAt,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListRecent returns the newest trades first, up to limit.
func (s *TradeStore) ListRecent(ctx context.Context, limit int) ([]domain.ExecutedTrade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, signature, wallet, market, side, amount, price, trade_ts, position_size,
       status, failure_kind, error, order_id, matched_ticker, is_simulation, executed_at
FROM executed_trades ORDER BY created_at DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ExecutedTrade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountBySignature reports how many audit records exist for a signature.
// The dedup invariant keeps this at 0 or 1; the idempotency tests assert it.
func (s *TradeStore) CountBySignature(ctx context.Context, signature string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM executed_trades WHERE signature=?`, signature).Scan(&n)
	return n, err
}

func scanTrade(rows *sql.Rows) (domain.ExecutedTrade, error) {
	var t domain.ExecutedTrade
	var side, amount, price, tradeTS, posSize, status, failureKind string
	var sim int
	var executedAt sql.NullString
	if err := rows.Scan(&t.ID, &t.OriginalTrade.Signature, &t.OriginalTrade.WalletAddress,
		&t.OriginalTrade.Market, &side, &amount, &price, &tradeTS, &posSize,
		&status, &failureKind, &t.Error, &t.OrderID, &t.MatchedTicker, &sim, &executedAt); err != nil {
		return t, err
	}
	t.OriginalTrade.Side = domain.Side(side)
	t.OriginalTrade.Amount, _ = decimal.NewFromString(amount)
	t.OriginalTrade.Price, _ = decimal.NewFromString(price)
	t.OriginalTrade.Timestamp, _ = time.Parse(time.RFC3339Nano, tradeTS)
	t.Decision.PositionSize, _ = decimal.NewFromString(posSize)
	t.Decision.ShouldCopy = true
	t.Status = domain.TradeStatus(status)
	t.FailureKind = domain.FailureKind(failureKind)
	t.IsSimulation = sim != 0
	if executedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, executedAt.String)
		if err == nil {
			t.ExecutedAt = &ts
		}
	}
	return t, nil
}
