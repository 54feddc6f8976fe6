package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Counters exposes hit/miss/eviction totals for observability.
type Counters struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry struct {
	value      any
	expiresAt  time.Time
	lastAccess time.Time
}

// Cache memoizes completed provider calls. It is advisory: a miss only
// costs quota, never correctness, and nothing survives a restart.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	counters   Counters
	now        func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New builds a cache holding at most maxEntries values. When sweepEvery
// is positive a background sweeper evicts expired entries first, then
// least-recently-used ones beyond the size cap; Close stops it.
func New(maxEntries int, sweepEvery time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	c := &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if sweepEvery > 0 {
		go func() {
			ticker := time.NewTicker(sweepEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sweep()
				case <-c.stop:
					return
				}
			}
		}()
	}

	return c
}

// Key builds the canonical, order-independent cache key for a call.
func Key(provider, operation string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(provider)
	sb.WriteByte('|')
	sb.WriteString(operation)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// Get returns the memoized value for the call, if any. A read past the
// entry's expiry is a miss and evicts the entry, never a stale hit.
func (c *Cache) Get(provider, operation string, params map[string]string) (any, bool) {
	key := Key(provider, operation, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.counters.Misses++
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.counters.Evictions++
		c.counters.Misses++
		return nil, false
	}

	e.lastAccess = c.now()
	c.counters.Hits++
	return e.value, true
}

// Put memoizes a completed call's value for ttl.
func (c *Cache) Put(provider, operation string, params map[string]string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := Key(provider, operation, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry{value: value, expiresAt: now.Add(ttl), lastAccess: now}
}

// Counters returns hit/miss/eviction totals.
func (c *Cache) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			c.counters.Evictions++
		}
	}

	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for key, e := range c.entries {
			if oldestKey == "" || e.lastAccess.Before(oldest) {
				oldestKey = key
				oldest = e.lastAccess
			}
		}
		delete(c.entries, oldestKey)
		c.counters.Evictions++
	}
}
