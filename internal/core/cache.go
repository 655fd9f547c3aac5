package core

// cache.go implements the read-side cache and its invalidation sink.
//
// Cached reads are keyed by strings like "profile:u1" or
// "documents:project:p2". Invalidation takes a key pattern and marks
// every matching entry stale: a pattern matches a key exactly or as a
// segment prefix, so Invalidate("documents") covers both "documents" and
// "documents:project:p2" without touching "documentsarchive".

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	value    any
	stale    bool
	storedAt time.Time
}

// Cache is an in-process cache for read-side records fetched from the
// upstream services. Consumers never mutate cached values.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached value for key. A stale or absent entry is a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.value, true
}

// Put stores a fresh value for key.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
}

// Invalidate marks every entry matching the pattern as stale and returns
// how many entries were affected. Matching entries stay in the map so a
// later Put refreshes them in place.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if !e.stale && matchesPattern(key, pattern) {
			e.stale = true
			c.entries[key] = e
			n++
		}
	}
	return n
}

// Len returns the number of entries, fresh and stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// matchesPattern reports whether key equals the pattern or extends it by
// a ":"-separated segment.
func matchesPattern(key, pattern string) bool {
	if key == pattern {
		return true
	}
	return strings.HasPrefix(key, pattern+":")
}
