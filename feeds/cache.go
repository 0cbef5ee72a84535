package feeds

import (
	"sync"
	"time"

	"luminor/models"
)

type cacheEntry struct {
	capturedAt time.Time
	payload    *models.GroupFeeds
}

// Cache is a process-wide store of aggregated feed documents keyed by
// group id. The key space equals the configured group ids, so entries are
// only ever overwritten, never evicted.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached payload for key if it was captured less than one
// TTL before now.
func (c *Cache) Get(key string, now time.Time) (*models.GroupFeeds, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.capturedAt) >= c.ttl {
		return nil, false
	}
	return entry.payload, true
}

// Set stores payload for key, overwriting any previous entry.
func (c *Cache) Set(key string, payload *models.GroupFeeds, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		capturedAt: now,
		payload:    payload,
	}
}
