package store

import (
	"context"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const dedupPrefix = "seen:"

// DedupStore is the persisted existence check for transaction signatures,
// backed by Badger. The whole point of the store is SetIfAbsent: one
// conditional write that crowns exactly one winner per signature, however
// many concurrent deliveries race for it.
type DedupStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenDedup opens the dedup database at path. ttl of zero keeps
// signatures forever; a positive ttl lets old entries expire once the
// upstream can no longer redeliver them.
func OpenDedup(path string, ttl time.Duration) (*DedupStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("dedup: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open dedup db")
	}
	return &DedupStore{db: db, ttl: ttl}, nil
}

func (s *DedupStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetIfAbsent atomically claims a signature. first is true only for the
// single caller whose transaction created the entry.
func (s *DedupStore) SetIfAbsent(ctx context.Context, signature string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := []byte(dedupPrefix + signature)

	claim := func() (bool, error) {
		first := false
		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			if err == nil {
				return nil // already seen
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			entry := badger.NewEntry(key, []byte{1})
			if s.ttl > 0 {
				entry = entry.WithTTL(s.ttl)
			}
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
			first = true
			return nil
		})
		return first, err
	}

	first, err := claim()
	if errors.Is(err, badger.ErrConflict) {
		// the racing claimant won; re-run to observe the entry
		first, err = claim()
	}
	if err != nil {
		return false, errors.Wrap(err, "dedup claim")
	}
	return first, nil
}

// Has reports whether a signature has been seen, without claiming it.
func (s *DedupStore) Has(ctx context.Context, signature string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(dedupPrefix + signature))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Forget removes a signature so the source event can be redelivered on
// purpose. This is the manual recovery path; nothing in the pipeline
// calls it.
func (s *DedupStore) Forget(ctx context.Context, signature string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(dedupPrefix + signature))
	})
}
