// Package cache holds small keyed caches with explicit expiry. The in-memory
// TTLCache is constructed once per process and passed by reference; RedisCache
// offers the same contract for multi-instance deployments.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/clock"
)

// Cache is a keyed store of values that may expire.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Delete(ctx context.Context, key string)
}

type item[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache is an in-memory Cache. Entries older than the TTL are treated as
// absent and dropped on read.
type TTLCache[V any] struct {
	mu    sync.Mutex
	items map[string]item[V]
	ttl   time.Duration
	clock clock.Clock
}

var _ Cache[int] = (*TTLCache[int])(nil)

// NewTTL creates an in-memory cache whose entries live for ttl.
func NewTTL[V any](ttl time.Duration, clk clock.Clock) *TTLCache[V] {
	if clk == nil {
		clk = clock.New()
	}
	return &TTLCache[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		clock: clk,
	}
}

// Get returns the value for key if present and fresh.
func (c *TTLCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	it, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.expired(it) {
		delete(c.items, key)
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, stamped with the current time.
func (c *TTLCache[V]) Set(_ context.Context, key string, value V) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, storedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Delete removes key.
func (c *TTLCache[V]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Prune drops every expired entry and returns how many were removed.
func (c *TTLCache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, it := range c.items {
		if c.expired(it) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, fresh or not.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *TTLCache[V]) expired(it item[V]) bool {
	return c.clock.Now().Sub(it.storedAt) >= c.ttl
}
