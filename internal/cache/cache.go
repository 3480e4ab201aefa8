// SPDX-License-Identifier: MIT

// Package cache stores rendered report documents keyed by dataset
// fingerprint, row range and format, with TTL expiry. Backends: in-process
// memory, Redis and Badger.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a byte-valued TTL cache. Implementations are safe for concurrent
// use.
type Cache interface {
	// Get returns the cached document, or false when absent or expired.
	Get(key string) ([]byte, bool)
	// Set stores a document under key for ttl.
	Set(key string, value []byte, ttl time.Duration)
	// Delete removes one key.
	Delete(key string)
	// Clear removes everything, e.g. after a dataset reset.
	Clear()
	// Stats returns counters since startup.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
	}
}

type entry struct {
	value      []byte
	expiration time.Time
}

func (e entry) expired(now time.Time) bool { return now.After(e.expiration) }

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	counters counters

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemory creates an in-memory cache. When cleanupInterval > 0 a background
// janitor evicts expired entries; Close stops it.
func NewMemory(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.expired(time.Now()) {
		c.counters.misses.Add(1)
		return nil, false
	}
	c.counters.hits.Add(1)
	return e.value, true
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiration: time.Now().Add(ttl)}
	c.mu.Unlock()
	c.counters.sets.Add(1)
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *memoryCache) Stats() Stats {
	stats := c.counters.snapshot()
	c.mu.RLock()
	stats.CurrentSize = len(c.entries)
	c.mu.RUnlock()
	return stats
}

func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *memoryCache) deleteExpired() {
	now := time.Now()
	c.mu.Lock()
	var evicted int64
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	c.mu.Unlock()
	c.counters.evictions.Add(evicted)
}

func (c *memoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}
