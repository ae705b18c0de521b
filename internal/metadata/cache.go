package metadata

import (
	"sync"
	"sync/atomic"
	"time"
)

// CacheEntry represents a cached key-value entry
type CacheEntry struct {
	Value     string
	ExpiresAt time.Time
}

// CacheStats is a point in time view of a KVCache
type CacheStats struct {
	Entries int     `json:"entries"`
	Expired int     `json:"expired"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	TTL     float64 `json:"ttl_seconds"`
}

// KVCache is a read-through TTL cache in front of the etcd backend.
// A non-positive TTL disables caching.
type KVCache struct {
	mu       sync.RWMutex
	entries  map[string]*CacheEntry
	ttl      time.Duration
	hits     atomic.Uint64
	misses   atomic.Uint64
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKVCache creates a cache and starts its cleanup goroutine
func NewKVCache(ttl time.Duration) *KVCache {
	cache := &KVCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	if ttl > 0 {
		go cache.cleanup(cleanupInterval(ttl))
	}
	return cache
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// Get retrieves a live value
func (c *KVCache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// Set stores a value
func (c *KVCache) Set(key, value string) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a key
func (c *KVCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// cleanup periodically removes expired entries
func (c *KVCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (c *KVCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Stats returns cache statistics
func (c *KVCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	now := time.Now()
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expired++
		}
	}

	return CacheStats{
		Entries: len(c.entries),
		Expired: expired,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		TTL:     c.ttl.Seconds(),
	}
}
