// internal/statuscache/statuscache.go
//
// Per-domain activation-status cache.
//
// Context
// -------
// Hosted client sites poll "am I active?" on every page load, and the
// public renewal endpoints must answer that cheaply and keep answering
// during a store outage.  The cache keys by domain and stores
// {active, fetchedAt}; entries are fresh for one TTL, concurrent misses
// for the same domain are coalesced through singleflight, and the entry
// count is bounded by an LRU.
//
// Failure policy: a failed fetch serves the last-known value when one
// exists, and defaults to active when nothing is cached.  Suspending a
// site a few minutes late is recoverable; blanking a paying client's site
// because the database blinked is not.
package statuscache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/salminhosting/hostadmin/internal/cache"
	"github.com/salminhosting/hostadmin/internal/metrics"
)

// Fetcher resolves a domain to its current activation status.
type Fetcher func(ctx context.Context, domain string) (bool, error)

type entry struct {
	active    bool
	fetchedAt time.Time
}

// Cache answers activation-status lookups with TTL freshness and
// stale-on-error fallback.  Safe for concurrent use.
type Cache struct {
	fetch Fetcher
	ttl   time.Duration
	sfg   singleflight.Group
	now   func() time.Time

	mu  sync.Mutex
	lru *cache.LRU[string, entry]
}

// New builds a Cache over fetch.  ttl governs freshness; maxEntries bounds
// memory.
func New(fetch Fetcher, ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
		lru:   cache.New[string, entry](maxEntries),
	}
}

// Active reports whether the domain's site should be served.  It never
// returns an error; the failure policy above decides the fallback.
func (c *Cache) Active(ctx context.Context, domain string) bool {
	c.mu.Lock()
	e, ok := c.lru.Get(domain)
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		metrics.StatusCacheHitsTotal.Inc()
		return e.active
	}

	metrics.StatusCacheMissesTotal.Inc()

	v, err, _ := c.sfg.Do(domain, func() (any, error) {
		active, err := c.fetch(ctx, domain)
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.lru.Add(domain, entry{active: active, fetchedAt: c.now()})
		c.mu.Unlock()
		return active, nil
	})
	if err == nil {
		return v.(bool)
	}

	// Fetch failed: last-known value wins, otherwise fail open.
	if ok {
		metrics.StatusCacheStaleTotal.Inc()
		return e.active
	}
	return true
}

// Invalidate drops a domain so the next lookup re-fetches.  Called after
// writes that change activation so the public check converges immediately.
func (c *Cache) Invalidate(domain string) {
	c.mu.Lock()
	c.lru.Remove(domain)
	c.mu.Unlock()
}
