// Package cache provides a generic TTL cache
package cache

import (
	"sync"
	"time"
)

// item wraps a cached value with the time it was stored
type item[T any] struct {
	value    T
	storedAt time.Time
}

// Cache is a generic thread-safe cache with TTL expiration.
// Expired entries stay readable through Peek until overwritten, so callers
// can still show a stale value and say that it is stale.
type Cache[T any] struct {
	items map[string]item[T]
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// Entry is a cached value with its age
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
	Age      time.Duration
	Fresh    bool
}

// New creates a cache with the specified TTL
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns how long a value stays fresh
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a value, returning (value, true) if found and not expired
func (c *Cache[T]) Get(key string) (T, bool) {
	entry, ok := c.Peek(key)
	if !ok || !entry.Fresh {
		var zero T
		return zero, false
	}
	return entry.Value, true
}

// Peek retrieves a value regardless of expiry, reporting its age
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return Entry[T]{}, false
	}

	age := c.now().Sub(it.storedAt)
	return Entry[T]{
		Value:    it.value,
		StoredAt: it.storedAt,
		Age:      age,
		Fresh:    age <= c.ttl,
	}, true
}

// Set stores a value, restarting its TTL
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:    value,
		storedAt: c.now(),
	}
}
