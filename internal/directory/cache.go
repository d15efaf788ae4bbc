// Package directory caches the health-system reference directory.
package directory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/attendee-enrich/internal/resilience"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// DefaultTTL is how long a snapshot is served without a refresh attempt.
const DefaultTTL = 24 * time.Hour

// DefaultPageLimit caps the number of records fetched per refresh.
const DefaultPageLimit = 7000

// Fetcher is the subset of the directory client the cache needs.
type Fetcher interface {
	GetAllPaged(ctx context.Context, limit int) ([]definitive.Record, error)
}

// Cache holds a time-stamped snapshot of the directory. A snapshot older than
// the TTL triggers a refresh on next access; if the refresh fails, the stale
// snapshot is served rather than an error. Concurrent refreshes collapse into
// a single fetch.
type Cache struct {
	fetcher   Fetcher
	ttl       time.Duration
	pageLimit int
	retry     resilience.RetryConfig
	now       func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	records   []definitive.Record
	fetchedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPageLimit overrides the per-refresh record cap.
func WithPageLimit(limit int) Option {
	return func(c *Cache) {
		c.pageLimit = limit
	}
}

// WithRetry overrides the refresh retry policy.
func WithRetry(retry resilience.RetryConfig) Option {
	return func(c *Cache) {
		c.retry = retry
	}
}

// WithClock injects a clock for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a directory cache around the given fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("directory", "get_all_paged")

	c := &Cache{
		fetcher:   fetcher,
		ttl:       DefaultTTL,
		pageLimit: DefaultPageLimit,
		retry:     retry,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAll returns the directory snapshot, refreshing it first when stale.
// It never returns an error: a failed refresh falls back to the prior
// snapshot, or to an empty slice when nothing was ever fetched.
func (c *Cache) GetAll(ctx context.Context) []definitive.Record {
	c.mu.RLock()
	records, fetchedAt := c.records, c.fetchedAt
	c.mu.RUnlock()

	if !fetchedAt.IsZero() && c.now().Sub(fetchedAt) < c.ttl {
		return records
	}

	// Collapse concurrent refreshes into one fetch; every waiter gets the
	// same outcome.
	fresh, err, _ := c.group.Do("refresh", func() (any, error) {
		recs, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]definitive.Record, error) {
			return c.fetcher.GetAllPaged(ctx, c.pageLimit)
		})
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.records = recs
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return recs, nil
	})
	if err != nil {
		zap.L().Warn("directory: refresh failed, serving stale snapshot",
			zap.Time("fetched_at", fetchedAt),
			zap.Int("stale_records", len(records)),
			zap.Error(err),
		)
		return records
	}

	return fresh.([]definitive.Record)
}

// Len returns the size of the current snapshot without triggering a refresh.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// FetchedAt returns when the current snapshot was taken (zero if never).
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
