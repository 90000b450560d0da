// Package cache implements the process-local key-value cache with per-entry
// expiry that sits in front of the news providers.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/newsaggr/internal/logger"
)

// DefaultTTL is used when New receives a non-positive TTL.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache usage.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Option mutates cache configuration.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Cache maps string keys to values of type V. An entry stops being visible once
// its TTL has elapsed, whether or not it has been physically removed yet.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   func() time.Time
	hits    int64
	misses  int64
}

// New creates an empty cache whose entries live for ttl unless Set overrides it.
func New[V any](ttl time.Duration, optionsProto ...Option) *Cache[V] {
	opts := &options{clock: time.Now}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache[V]{
		entries: map[string]entry[V]{},
		ttl:     ttl,
		clock:   opts.clock,
	}
}

// Get returns the value stored under key if it has not expired.
// An expired entry is evicted on the way out.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && !c.clock().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}

	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return e.value, true
}

// Set stores value under key. The optional ttl overrides the default one;
// only the first value is used.
func (c *Cache[V]) Set(key string, value V, ttl ...time.Duration) {
	lifetime := c.ttl
	if len(ttl) > 0 && ttl[0] > 0 {
		lifetime = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.clock().Add(lifetime),
	}
}

// Clear drops all entries and resets the hit and miss counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]entry[V]{}
	c.hits = 0
	c.misses = 0
}

// Stats reports the number of stored entries, expired ones included until they
// are swept, and the hit and miss counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (c *Cache[V]) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				logger.Log.Debugw("swept expired cache entries", "removed", removed)
			}
		}
	}
}
