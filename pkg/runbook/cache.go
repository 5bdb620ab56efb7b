// Package runbook fetches operator runbooks referenced by alerts: URL
// validation, GitHub raw URL translation, TTL caching, and a size cap.
package runbook

import (
	"sync"
	"time"
)

type cacheEntry struct {
	content   string
	fetchedAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. Expired entries are removed
// lazily on Get, there is no background sweeper.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns cached content if present and not expired.
func (c *Cache) Get(url string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if time.Since(entry.fetchedAt) > c.ttl {
		// Re-check under the write lock: a concurrent Set may have stored a
		// fresh entry between the RUnlock above and the Lock here.
		c.mu.Lock()
		if current, ok := c.entries[url]; ok && time.Since(current.fetchedAt) > c.ttl {
			delete(c.entries, url)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.content, true
}

// Set stores content stamped with the current time.
func (c *Cache) Set(url string, content string) {
	c.mu.Lock()
	c.entries[url] = cacheEntry{content: content, fetchedAt: time.Now()}
	c.mu.Unlock()
}
