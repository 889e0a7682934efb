// Package cache provides a small in-memory TTL cache shared by the
// quote fetcher and the insight dispatcher.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached value with its freshness metadata. An entry is
// fresh iff now − InsertedAt < TTL. Expired entries are kept until
// overwritten or removed so callers can fall back to stale values.
type Entry[T any] struct {
	Value      T
	InsertedAt time.Time
	TTL        time.Duration
}

// Cache is a concurrency-safe TTL cache. All access is synchronized;
// a read never observes a partially-written entry.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	now     func() time.Time
}

// New creates an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		now:     time.Now,
	}
}

// SetClock replaces the cache clock, for tests.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Put stores value under key with the given ttl, superseding any
// previous entry.
func (c *Cache[T]) Put(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry[T]{Value: value, InsertedAt: c.now(), TTL: ttl}
	c.mu.Unlock()
}

// Get returns the value for key iff the entry is still fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.fresh(entry) {
		var zero T
		return zero, false
	}
	return entry.Value, true
}

// GetStale returns the most recent value for key regardless of
// freshness. The second return reports whether the entry was fresh.
func (c *Cache[T]) GetStale(key string) (T, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false, false
	}
	return entry.Value, c.fresh(entry), true
}

// Drop removes the entry for key if present.
func (c *Cache[T]) Drop(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DropExpired removes the entry for key iff it exists and is no longer
// fresh. Used by caches with no stale-fallback semantics, where expiry
// is collected lazily on lookup.
func (c *Cache[T]) DropExpired(key string) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && !c.fresh(entry) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Len returns the number of entries, fresh or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) fresh(entry Entry[T]) bool {
	return c.now().Sub(entry.InsertedAt) < entry.TTL
}
