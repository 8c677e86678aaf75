package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/copybet/internal/domain"
)

// SettingsStore reads and writes per-wallet copy configurations. The
// pipeline only reads; writes exist for the operational API and tests.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// ListByTrader returns every copy setting tracking the given wallet, in
// insertion order.
func (s *SettingsStore) ListByTrader(ctx context.Context, wallet string) ([]domain.CopySetting, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT follower_id, trader_id, is_active, allocation_usd, max_position_pct
FROM copy_settings WHERE trader_id=? ORDER BY created_at, follower_id
`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CopySetting
	for rows.Next() {
		var cs domain.CopySetting
		var active int
		var alloc, pct string
		if err := rows.Scan(&cs.FollowerID, &cs.TraderID, &active, &alloc, &pct); err != nil {
			return nil, err
		}
		cs.IsActive = active != 0
		if cs.AllocationUSD, err = decimal.NewFromString(alloc); err != nil {
			return nil, err
		}
		if cs.MaxPositionPct, err = decimal.NewFromString(pct); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces one (follower, trader) setting.
func (s *SettingsStore) Upsert(ctx context.Context, cs domain.CopySetting) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	active := 0
	if cs.IsActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO copy_settings (follower_id, trader_id, is_active, allocation_usd, max_position_pct, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT(follower_id, trader_id) DO UPDATE SET
  is_active=excluded.is_active,
  allocation_usd=excluded.allocation_usd,
  max_position_pct=excluded.max_position_pct,
  updated_at=excluded.updated_at
`, cs.FollowerID, cs.TraderID, active, cs.AllocationUSD.String(), cs.MaxPositionPct.String(), now, now)
	return err
}

// SetActive pauses or resumes one setting.
func (s *SettingsStore) SetActive(ctx context.Context, followerID, traderID string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE copy_settings SET is_active=?, updated_at=? WHERE follower_id=? AND trader_id=?
`, v, time.Now().UTC().Format(time.RFC3339Nano), followerID, traderID)
	return err
}
