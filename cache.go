package requestgovernor

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// resultCache memoizes successful results for maxAge. Expired entries are removed when a lookup
// finds them, never by a background sweep.
type resultCache struct {
	mu      sync.Mutex
	clock   clock.PassiveClock
	maxAge  time.Duration
	entries map[string]cacheEntry
}

func newResultCache(clk clock.PassiveClock, maxAge time.Duration) *resultCache {
	return &resultCache{
		clock:   clk,
		maxAge:  maxAge,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Since(entry.storedAt) >= c.maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *resultCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.clock.Now()}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// len counts stored entries, including expired ones no lookup has evicted yet.
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
