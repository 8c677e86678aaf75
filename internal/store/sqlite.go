package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the relational store holding copy
// settings and the executed-trade audit log.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir db dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`
CREATE TABLE IF NOT EXISTS copy_settings (
  follower_id TEXT NOT NULL,
  trader_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  allocation_usd TEXT NOT NULL,
  max_position_pct TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (follower_id, trader_id)
);`,
		`CREATE INDEX IF NOT EXISTS idx_copy_settings_trader ON copy_settings(trader_id);`,
		`
CREATE TABLE IF NOT EXISTS executed_trades (
  id TEXT PRIMARY KEY,
  signature TEXT NOT NULL,
  wallet TEXT NOT NULL,
  market TEXT NOT NULL,
  side TEXT NOT NULL,
  amount TEXT NOT NULL,
  price TEXT NOT NULL,
  trade_ts TEXT NOT NULL,
  position_size TEXT NOT NULL,
  status TEXT NOT NULL,
  failure_kind TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  order_id TEXT NOT NULL DEFAULT '',
  matched_ticker TEXT NOT NULL DEFAULT '',
  is_simulation INTEGER NOT NULL DEFAULT 0,
  executed_at TEXT,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_executed_trades_signature ON executed_trades(signature);`,
		`CREATE INDEX IF NOT EXISTS idx_executed_trades_wallet ON executed_trades(wallet);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate: %.40s", stmt)
		}
	}
	return nil
}
