// Package cache holds short-lived upstream snapshots keyed by request.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crashcompass/compass/pkg/metrics"
)

// Observer is notified of lookups and size changes.
type Observer interface {
	CacheHit()
	CacheMiss()
	Entries(n int)
}

type entry[T any] struct {
	val T
	exp time.Time
}

// Cache is a TTL map safe for concurrent use. Expired entries are never
// returned and are removed by Sweep.
type Cache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration
	obs Observer
	now func() time.Time

	sweepInterval time.Duration
}

// New creates a cache whose entries live for ttl. A non-positive ttl
// disables caching: every Get misses.
func New[T any](name string, ttl time.Duration, opts ...Option) *Cache[T] {
	cfg := options{
		obs:           metricsObserver(name),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[T]{
		m:             make(map[string]entry[T]),
		ttl:           ttl,
		obs:           cfg.obs,
		now:           cfg.now,
		sweepInterval: cfg.sweepInterval,
	}
}

// Get returns the live value for key.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.exp) {
		c.obs.CacheMiss()
		return zero, false
	}
	c.obs.CacheHit()
	return e.val, true
}

// Set stores v under key for the cache TTL.
func (c *Cache[T]) Set(key string, v T) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, exp: c.now().Add(c.ttl)}
	n := len(c.m)
	c.mu.Unlock()
	c.obs.Entries(n)
}

// GetOrLoad returns the cached value for key or calls load and caches its
// result. Errors are not cached.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete removes key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	n := len(c.m)
	c.mu.Unlock()
	c.obs.Entries(n)
}

// Len returns the number of stored entries, live or not yet swept.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	n := len(c.m)
	c.mu.Unlock()
	c.obs.Entries(n)
	return removed
}

// Run sweeps periodically until ctx is done.
func (c *Cache[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

type promObserver string

func metricsObserver(name string) Observer { return promObserver(name) }

func (o promObserver) CacheHit()     { metrics.RecordCacheHit(string(o)) }
func (o promObserver) CacheMiss()    { metrics.RecordCacheMiss(string(o)) }
func (o promObserver) Entries(n int) { metrics.UpdateCacheEntries(string(o), n) }
