package cache

import (
	"sync"
	"time"
)

// ResponseCache holds rendered JSON payloads for a fixed TTL. The dashboard
// series only change when the nightly aggregation runs, so short-lived
// caching absorbs most of the read traffic.
type ResponseCache struct {
	ttl     time.Duration
	entries map[string]entry
	mu      sync.RWMutex
	now     func() time.Time
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// NewResponseCache creates a response cache with the given TTL
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached payload for key, or nil when absent or expired
func (c *ResponseCache) Get(key string) []byte {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil
	}
	return e.payload
}

// Set stores a payload under key for the cache TTL
func (c *ResponseCache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, expiresAt: c.now().Add(c.ttl)}
}

// Purge drops every entry, expired or not
func (c *ResponseCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]entry)
	return n
}

// Size returns the current number of cached entries
func (c *ResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
