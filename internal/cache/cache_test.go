// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := New("test", ttl)
	t.Cleanup(c.Close)
	return c
}

func TestCacheBasicOperations(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("availability:2026-09-01", "grid")
	value, exists := c.Get("availability:2026-09-01")
	if !exists {
		t.Error("Expected cached key to exist")
	}
	if value != "grid" {
		t.Errorf("Expected grid, got %v", value)
	}

	_, exists = c.Get("availability:2026-09-02")
	if exists {
		t.Error("Expected missing key to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := newTestCache(t, 100*time.Millisecond)

	c.Set("key1", "value1")

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, exists := c.Get("key1")
	if exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheDeleteMissingKey(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	before := c.GetStats().Evictions

	// Deleting a key that was never set is a no-op, not an eviction
	c.Delete("never-set")

	if got := c.GetStats().Evictions; got != before {
		t.Errorf("Expected evictions to stay at %d, got %d", before, got)
	}
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()

	for _, key := range []string{"key1", "key2", "key3"} {
		_, exists := c.Get(key)
		if exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestCacheStats(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()

	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expectedHitRate := 66.66666666666667 // 2/3 * 100
	if hitRate < expectedHitRate-0.01 || hitRate > expectedHitRate+0.01 {
		t.Errorf("Expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, hitRate)
	}
}

func TestCacheSetWithTTLOverridesDefault(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)

	c.SetWithTTL("long-key", "long-value", 200*time.Millisecond)
	c.Set("short-key", "short-value")

	time.Sleep(75 * time.Millisecond)

	if _, exists := c.Get("short-key"); exists {
		t.Error("Expected short key to be expired")
	}

	if _, exists := c.Get("long-key"); !exists {
		t.Error("Expected long key to still exist")
	}
}

func TestCacheHitRateZeroOperations(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	if hitRate := c.HitRate(); hitRate != 0.0 {
		t.Errorf("Expected 0%% hit rate with no operations, got %.2f%%", hitRate)
	}
}

func TestCacheHitRateOnlyHits(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Get("key1")
	c.Get("key1")
	c.Get("key1")

	if hitRate := c.HitRate(); hitRate != 100.0 {
		t.Errorf("Expected 100%% hit rate with only hits, got %.2f%%", hitRate)
	}
}

func TestCacheEvictionCounterOnDelete(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	before := c.GetStats().Evictions

	c.Delete("key1")

	if got := c.GetStats().Evictions; got != before+1 {
		t.Errorf("Expected evictions to increase by 1, got %d", got-before)
	}
}

func TestCacheEvictionCounterOnClear(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	before := c.GetStats().Evictions

	c.Clear()

	stats := c.GetStats()
	if stats.Evictions != before+3 {
		t.Errorf("Expected %d evictions, got %d", before+3, stats.Evictions)
	}
	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 total keys after clear, got %d", stats.TotalKeys)
	}
}

func TestCacheEvictionCounterOnExpiration(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)

	c.Set("key1", "value1")

	before := c.GetStats().Evictions

	time.Sleep(100 * time.Millisecond)

	// Access expired key (triggers eviction)
	c.Get("key1")

	if got := c.GetStats().Evictions; got <= before {
		t.Error("Expected evictions to increase when accessing expired key")
	}
}

func TestCacheTotalKeysCounter(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	c.Set("key1", "value1")
	if got := c.GetStats().TotalKeys; got != 1 {
		t.Errorf("Expected 1 total key, got %d", got)
	}

	c.Set("key2", "value2")
	if got := c.GetStats().TotalKeys; got != 2 {
		t.Errorf("Expected 2 total keys, got %d", got)
	}

	// Overwrite existing key (should not increase count)
	c.Set("key1", "new-value1")
	if got := c.GetStats().TotalKeys; got != 2 {
		t.Errorf("Expected 2 total keys after overwrite, got %d", got)
	}

	// Delete keeps the counter current
	c.Delete("key2")
	if got := c.GetStats().TotalKeys; got != 1 {
		t.Errorf("Expected 1 total key after delete, got %d", got)
	}
}

func TestCacheManualCleanup(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	if _, exists := c.Get("key1"); !exists {
		t.Error("Expected key1 to exist")
	}

	time.Sleep(100 * time.Millisecond)

	c.cleanup()

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 total keys after cleanup, got %d", stats.TotalKeys)
	}
	if stats.LastCleanup.IsZero() {
		t.Error("Expected LastCleanup to be set")
	}
}

func TestCachePartialExpiration(t *testing.T) {
	c := newTestCache(t, 100*time.Millisecond)

	c.SetWithTTL("short-lived", "value1", 50*time.Millisecond)
	c.SetWithTTL("long-lived", "value2", 200*time.Millisecond)

	time.Sleep(75 * time.Millisecond)

	c.cleanup()

	if _, exists := c.Get("short-lived"); exists {
		t.Error("Expected short-lived key to be cleaned up")
	}
	if _, exists := c.Get("long-lived"); !exists {
		t.Error("Expected long-lived key to still exist")
	}

	if got := c.GetStats().TotalKeys; got != 1 {
		t.Errorf("Expected 1 total key, got %d", got)
	}
}

func TestCacheEntryOverwriteResetsExpiration(t *testing.T) {
	c := newTestCache(t, 200*time.Millisecond)

	c.Set("key1", "value1")

	time.Sleep(50 * time.Millisecond)

	// Overwrite resets the expiration window
	c.Set("key1", "value2")

	// Past the original deadline (200ms from first set) but inside the reset one
	time.Sleep(100 * time.Millisecond)

	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected overwritten key to have reset expiration")
	}
	if value != "value2" {
		t.Errorf("Expected value2, got %v", value)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New("test", time.Minute)

	c.Close()
	c.Close()

	// The cache remains usable after Close; only the sweep stops
	c.Set("key1", "value1")
	if _, exists := c.Get("key1"); !exists {
		t.Error("Expected cache to stay usable after Close")
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			for j := 0; j < 100; j++ {
				key := "key"
				c.Set(key, id)
				c.Get(key)
				if j%10 == 0 {
					c.Delete(key)
				}
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	stats := c.GetStats()
	if stats.Hits == 0 && stats.Misses == 0 {
		t.Error("Expected some cache activity from concurrent operations")
	}
}

// ===================================================================================================
// GenerateKey Tests
// ===================================================================================================

func TestGenerateKey(t *testing.T) {
	type availabilityParams struct {
		Date string
	}

	params1 := availabilityParams{Date: "2026-09-01"}
	params2 := availabilityParams{Date: "2026-09-01"}
	params3 := availabilityParams{Date: "2026-09-02"}

	key1 := GenerateKey("availability", params1)
	key2 := GenerateKey("availability", params2)
	key3 := GenerateKey("availability", params3)

	if key1 != key2 {
		t.Error("Expected same params to generate same key")
	}
	if key1 == key3 {
		t.Error("Expected different params to generate different key")
	}
	if !strings.HasPrefix(key1, "availability:") {
		t.Errorf("Expected key to carry its prefix, got: %s", key1)
	}
}

func TestGenerateKeyComplexStructures(t *testing.T) {
	type catalogParams struct {
		PremiumOnly bool
		Search      string
		Paging      struct {
			Limit  int
			Offset int
		}
	}

	params1 := catalogParams{PremiumOnly: true, Search: "nazca"}
	params1.Paging.Limit = 20
	params1.Paging.Offset = 0

	params2 := catalogParams{PremiumOnly: true, Search: "nazca"}
	params2.Paging.Limit = 20
	params2.Paging.Offset = 0

	params3 := catalogParams{PremiumOnly: false, Search: "ballestas"}
	params3.Paging.Limit = 50
	params3.Paging.Offset = 20

	key1 := GenerateKey("catalog", params1)
	key2 := GenerateKey("catalog", params2)
	key3 := GenerateKey("catalog", params3)

	if key1 != key2 {
		t.Error("Expected identical complex params to generate same key")
	}
	if key1 == key3 {
		t.Error("Expected different complex params to generate different key")
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	// Channels cannot be marshaled to JSON, so the fallback key applies
	type unmarshalableParams struct {
		Ch chan int
	}

	key := GenerateKey("fallback", unmarshalableParams{Ch: make(chan int)})

	if key == "" {
		t.Error("Expected non-empty key even with unmarshalable data")
	}
	if !strings.HasPrefix(key, "fallback:") {
		t.Errorf("Expected key to carry its prefix, got: %s", key)
	}
}

func TestGenerateKeyNilParams(t *testing.T) {
	key := GenerateKey("nil-params", nil)

	if key == "" {
		t.Error("Expected non-empty key with nil params")
	}
	if !strings.HasPrefix(key, "nil-params:") {
		t.Errorf("Expected key to carry its prefix, got: %s", key)
	}
}

// ===================================================================================================
// Scale and Benchmarks
// ===================================================================================================

func TestCacheLargeNumberOfEntries(t *testing.T) {
	c := newTestCache(t, 1*time.Minute)

	numEntries := 10000
	for i := 0; i < numEntries; i++ {
		c.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))
	}

	if got := c.GetStats().TotalKeys; got != int64(numEntries) {
		t.Errorf("Expected %d total keys, got %d", numEntries, got)
	}

	for i := 0; i < 100; i++ {
		idx := i * 100
		key := fmt.Sprintf("key-%d", idx)
		expectedValue := fmt.Sprintf("value-%d", idx)

		value, exists := c.Get(key)
		if !exists {
			t.Errorf("Expected key %s to exist", key)
		}
		if value != expectedValue {
			t.Errorf("Expected value %s, got %v", expectedValue, value)
		}
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New("bench", 1*time.Minute)
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key", "value")
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New("bench", 1*time.Minute)
	defer c.Close()
	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkGenerateKey(b *testing.B) {
	type availabilityParams struct {
		Date  string
		Cabin int
	}

	params := availabilityParams{Date: "2026-09-01", Cabin: 2}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateKey("availability", params)
	}
}
