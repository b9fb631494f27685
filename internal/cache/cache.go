// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/nazca360/nazca360/internal/metrics"
)

// cleanupInterval is how often the background sweep removes expired entries.
const cleanupInterval = 5 * time.Minute

// Entry represents a cached item with expiration
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache provides a thread-safe in-memory cache with TTL support.
// Each cache carries a name that labels its Prometheus series, so the
// availability and catalog caches report hit rates independently.
type Cache struct {
	name     string
	mu       sync.RWMutex
	entries  map[string]Entry
	ttl      time.Duration
	stats    Stats
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Stats tracks cache performance metrics
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a thread-safe in-memory cache with automatic expiration.
//
// The name labels the cache's Prometheus series (cache_hits_total,
// cache_misses_total, cache_entries, cache_evictions_total) and should be
// a short identifier like "availability" or "catalog". A background
// goroutine sweeps expired entries every five minutes; call Close to stop
// it on shutdown.
//
// Thread Safety:
//   - Safe for concurrent access from multiple goroutines
//   - Uses sync.RWMutex for read/write locking
//
// Example:
//
//	catalog := cache.New("catalog", 5*time.Minute)
//	defer catalog.Close()
//	catalog.Set(key, videos)
//	if data, ok := catalog.Get(key); ok {
//	    // Use cached data
//	}
func New(name string, ttl time.Duration) *Cache {
	c := &Cache{
		name:    name,
		entries: make(map[string]Entry),
		ttl:     ttl,
		stats: Stats{
			LastCleanup: time.Now(),
		},
		stopCh: make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get retrieves a value from the cache by key with automatic expiration
// checking.
//
// Behavior:
//   - Returns (nil, false) if the key doesn't exist
//   - Returns (nil, false) if the entry has expired (the entry is deleted)
//   - Returns (data, true) if the entry is valid
//
// Statistics: hits, misses, and expiry evictions are counted in both the
// local Stats and the Prometheus series.
//
// Example:
//
//	if data, ok := c.Get(key); ok {
//	    return data.(*models.AvailabilityResponse), nil
//	}
//	// Cache miss, build from the database
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// replaced the expired entry with a fresh one.
		if current, ok := c.entries[key]; ok && current.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
			c.stats.mu.Lock()
			c.stats.Evictions++
			c.stats.TotalKeys = int64(len(c.entries))
			c.stats.mu.Unlock()
			metrics.RecordCacheEviction(c.name)
			metrics.UpdateCacheSize(c.name, len(c.entries))
		}
		c.mu.Unlock()

		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value in the cache with the default TTL configured at
// cache creation. Overwrites any existing entry with the same key.
//
// Example:
//
//	c.Set(cache.GenerateKey("availability", date), response)
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(size)
	c.stats.mu.Unlock()
	metrics.UpdateCacheSize(c.name, size)
}

// Delete removes a specific cache entry by key. Safe to call with keys
// that are not present; only an actual removal counts as an eviction.
//
// Example:
//
//	// A booking mutation invalidates that date's availability
//	c.Delete(cache.GenerateKey("availability", date))
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if existed {
		c.recordEviction()
	}

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(size)
	c.stats.mu.Unlock()
	metrics.UpdateCacheSize(c.name, size)
}

// Clear removes all entries from the cache in a single atomic operation.
// Typically called after a write that invalidates everything cached, such
// as an admin video mutation clearing the catalog cache.
//
// Performance: O(1) map replacement, not per-entry deletion.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
	metrics.UpdateCacheSize(c.name, 0)
}

// GetStats returns a snapshot of current cache performance statistics.
// The returned Stats struct is a copy, safe to read without holding locks.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Close stops the background cleanup goroutine. Idempotent.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// cleanupLoop periodically removes expired entries until Close is called.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()

	evictions := int64(0)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evictions++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	for i := int64(0); i < evictions; i++ {
		metrics.RecordCacheEviction(c.name)
	}
	metrics.UpdateCacheSize(c.name, size)

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = int64(size)
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

// recordHit increments the hit counter
func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.RecordCacheHit(c.name)
}

// recordMiss increments the miss counter
func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.RecordCacheMiss(c.name)
}

// recordEviction increments the eviction counter
func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
	metrics.RecordCacheEviction(c.name)
}

// GenerateKey creates a cache key from a prefix and parameters. Parameters
// are JSON-serialized and hashed so structurally equal requests share a key
// regardless of field ordering in the caller.
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", prefix, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
