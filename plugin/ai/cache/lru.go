package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is a size-bounded cache whose entries expire individually.
// The underlying expirable LRU enforces the default TTL; shorter per-entry
// TTLs are checked on read.
type LRUCache struct {
	defaultTTL time.Duration
	lru        *expirable.LRU[string, entry]
	now        func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache(capacity int, defaultTTL time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LRUCache{
		defaultTTL: defaultTTL,
		lru:        expirable.NewLRU[string, entry](capacity, nil, defaultTTL),
		now:        time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value in the cache.
func (c *LRUCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 || ttl > c.defaultTTL {
		ttl = c.defaultTTL
	}
	c.lru.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
}

// Invalidate removes entries matching the pattern.
// Supports * wildcard at the end (e.g., "session:*").
func (c *LRUCache) Invalidate(pattern string) int {
	if !strings.HasSuffix(pattern, "*") {
		if c.lru.Remove(pattern) {
			return 1
		}
		return 0
	}

	prefix := strings.TrimSuffix(pattern, "*")
	count := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			count++
		}
	}
	return count
}

// Size returns the number of entries in the cache.
func (c *LRUCache) Size() int {
	return c.lru.Len()
}

// Clear removes all entries from the cache.
func (c *LRUCache) Clear() {
	c.lru.Purge()
}
