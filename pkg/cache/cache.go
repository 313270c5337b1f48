package cache

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ansebmr/surveydash/pkg/models"
)

// Cache is an exact-match response cache keyed by resolved request. Entries
// live in process memory only and expire after a fixed TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
	ttl     time.Duration
	hits    atomic.Int64
	misses  atomic.Int64

	// now is overridable in tests to step past the TTL without sleeping.
	now func() time.Time
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]models.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// HashKey computes a deterministic key from the endpoint path and query
// parameters. url.Values.Encode sorts parameters by name, so logically equal
// filters always hash identically.
func HashKey(endpoint string, params url.Values) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(params.Encode()))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached payload. Returns false if absent or expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.CreatedAt) > c.ttl {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.Payload, true
}

// Put stores a payload with the current timestamp.
func (c *Cache) Put(key string, payload []byte) {
	c.mu.Lock()
	c.entries[key] = models.CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: c.now(),
	}
	c.mu.Unlock()
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() models.CacheStats {
	c.mu.RLock()
	entries := int64(len(c.entries))
	c.mu.RUnlock()

	return models.CacheStats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Clear removes cache entries. If expiredOnly is true, only expired entries
// are removed.
func (c *Cache) Clear(expiredOnly bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !expiredOnly {
		c.entries = make(map[string]models.CacheEntry)
		return
	}
	for key, entry := range c.entries {
		if c.now().Sub(entry.CreatedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}
