package courtside

import (
	"encoding/json"
	"sync"
	"time"
)

// ResultCache maps (tool name, canonical arguments) to a previously computed
// ToolResult. Entries expire after a fixed TTL measured from insertion, and
// the resident entry count never exceeds a hard ceiling: an insertion past
// the ceiling evicts the oldest surviving entry first.
//
// The cache is the only state shared across concurrent requests; all
// operations are safe under concurrent use.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cacheEntry
	seq     uint64 // monotonic insertion counter

	now func() time.Time // swapped in tests
}

type cacheEntry struct {
	value     ToolResult
	expiresAt time.Time
	seq       uint64 // insertion order; refreshes keep the original position
}

// NewResultCache creates a cache with the given TTL and entry ceiling.
// Non-positive values fall back to DefaultCacheTTL and DefaultCacheSize.
func NewResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &ResultCache{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the live cached result for the call, if any. An expired entry
// behaves as a miss and is removed.
func (c *ResultCache) Get(name string, args json.RawMessage) (ToolResult, bool) {
	key := dedupKey(name, args)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return ToolResult{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return ToolResult{}, false
	}
	return e.value, true
}

// Set stores a result under the call's canonical key. When the ceiling is
// reached, the oldest surviving entry is evicted to make room.
func (c *ResultCache) Set(name string, args json.RawMessage, result ToolResult) {
	key := dedupKey(name, args)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.entries[key]; exists {
		// Refresh in place; the key keeps its original insertion position.
		c.entries[key] = cacheEntry{value: result, expiresAt: c.now().Add(c.ttl), seq: e.seq}
		return
	}
	if len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.seq++
	c.entries[key] = cacheEntry{value: result, expiresAt: c.now().Add(c.ttl), seq: c.seq}
}

// Len returns the resident entry count, expired entries included until read
// or evicted.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the resident entry with the smallest insertion
// sequence. Entries already removed by expiry-read never shadow a survivor:
// only resident entries are scanned.
func (c *ResultCache) evictOldestLocked() {
	var oldest string
	var oldestSeq uint64
	for key, e := range c.entries {
		if oldest == "" || e.seq < oldestSeq {
			oldest = key
			oldestSeq = e.seq
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
	}
}
