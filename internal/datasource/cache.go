package datasource

import (
	"sync"
	"time"
)

// CacheEntry holds a cached value with its fetch time.
type CacheEntry struct {
	Value     any
	FetchedAt time.Time
}

// Cache is a thread-safe in-memory cache keyed by string. A TTL of zero
// means entries never expire (process-lifetime caching). The clock is
// injectable so hit/miss behavior can be tested deterministically.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL. ttl <= 0 disables expiry.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the cache's clock. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get retrieves a value. Returns nil, false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && now.Sub(entry.FetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value. Last writer wins; fetched content for a given key is
// immutable, so concurrent writers storing the same key are harmless.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{Value: value, FetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes a key. This is the manual-refresh hook; nothing in the
// pipeline invalidates mid-session on its own.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}
