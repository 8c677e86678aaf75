package matching

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/betbot/copybet/pkg/logger"
)

// DefaultCandidateTTL is how long a fetched candidate set stays fresh.
const DefaultCandidateTTL = 60 * time.Second

// CandidateFetcher loads the open markets from the exchange.
type CandidateFetcher interface {
	FetchOpenMarkets(ctx context.Context) ([]Candidate, error)
}

// CandidateCache holds the open-market snapshot with a TTL. Concurrent
// callers during a miss share one refresh, and a fetch failure falls back
// to whatever is cached (possibly nothing) instead of failing the caller:
// the matcher treats an empty set as "no match".
type CandidateCache struct {
	fetcher CandidateFetcher
	ttl     time.Duration

	sf singleflight.Group

	mu        sync.RWMutex
	snapshot  []Candidate
	fetchedAt time.Time
}

func NewCandidateCache(fetcher CandidateFetcher, ttl time.Duration) *CandidateCache {
	if ttl <= 0 {
		ttl = DefaultCandidateTTL
	}
	return &CandidateCache{fetcher: fetcher, ttl: ttl}
}

// Get returns the cached candidates, refreshing when stale or empty.
// Never returns an error: staleness beats blocking the pipeline.
func (c *CandidateCache) Get(ctx context.Context) []Candidate {
	c.mu.RLock()
	fresh := time.Since(c.fetchedAt) < c.ttl && c.snapshot != nil
	snap := c.snapshot
	c.mu.RUnlock()
	if fresh {
		return snap
	}

	v, _, _ := c.sf.Do("markets", func() (interface{}, error) {
		fetched, err := c.fetcher.FetchOpenMarkets(ctx)
		if err != nil {
			logger.WithField("component", "matcher").WithError(err).Warn("market fetch failed, serving stale candidates")
			c.mu.RLock()
			stale := c.snapshot
			c.mu.RUnlock()
			return stale, nil
		}
		c.mu.Lock()
		c.snapshot = fetched
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return fetched, nil
	})
	if v == nil {
		return nil
	}
	return v.([]Candidate)
}

// Warm replaces the snapshot out of band, e.g. from the exchange market
// feed, resetting the TTL clock.
func (c *CandidateCache) Warm(candidates []Candidate) {
	c.mu.Lock()
	c.snapshot = candidates
	c.fetchedAt = time.Now()
	c.mu.Unlock()
}

// Len reports the current snapshot size.
func (c *CandidateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}
