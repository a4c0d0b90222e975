// Package auditcache keeps finished reports for a bounded time and
// coalesces concurrent requests for the same audit into one computation.
package auditcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/report"
)

// Key builds the cache key for one audit. Profile is part of the key so
// a summary audit never shadows a full one.
func Key(url string, profile config.Profile) string {
	return string(profile) + "|" + url
}

type entry struct {
	report    *report.Report
	expiresAt time.Time
}

// Cache stores reports with a per-entry TTL. Expired entries are
// dropped lazily on lookup.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	group singleflight.Group

	now func() time.Time
}

func New() *Cache {
	return &Cache{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

// Get returns the cached report for key if present and unexpired.
func (c *Cache) Get(key string) (*report.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.report, true
}

// GetOrCompute returns the cached report for key, or runs compute once
// for all concurrent callers. Successful results are stored for ttl;
// a failed compute is returned to every waiter and never cached, so the
// next request retries.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (*report.Report, error)) (*report.Report, bool, error) {
	if r, ok := c.Get(key); ok {
		return r, true, nil
	}

	type outcome struct {
		report    *report.Report
		fromCache bool
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if r, ok := c.Get(key); ok {
			return outcome{report: r, fromCache: true}, nil
		}
		r, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, r, ttl)
		return outcome{report: r}, nil
	})
	if err != nil {
		return nil, false, err
	}
	o := v.(outcome)
	return o.report, o.fromCache, nil
}

func (c *Cache) store(key string, r *report.Report, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{report: r, expiresAt: c.now().Add(ttl)}
}

// Len reports how many entries are held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
