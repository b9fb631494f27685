// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package cache provides thread-safe in-memory caching with TTL support.

The API handler keeps two named caches: one for the video catalog and one
for slot availability. Named caches report their hit rates through
separate Prometheus series (cache_hits_total{cache_type}, and friends),
so an availability-cache problem is visible independently of the catalog.

# Overview

The cache provides:
  - Thread-safe concurrent access (sync.RWMutex)
  - Time-to-live expiration, checked on Get and by a background sweep
  - Per-cache Prometheus instrumentation keyed by the cache name
  - Deterministic keys for parameterized lookups via GenerateKey

# Usage

	catalog := cache.New("catalog", 5*time.Minute)
	defer catalog.Close()

	key := cache.GenerateKey("videos", filter)
	if cached, ok := catalog.Get(key); ok {
	    videos := cached.([]models.Video)
	    // serve from cache
	}
	catalog.Set(key, videos)

# Invalidation

Two strategies, both used by the API layer:

  - TTL expiration: the catalog cache holds entries for five minutes,
    the availability cache for thirty seconds.
  - Manual invalidation: admin catalog mutations call Clear on the
    catalog cache, and reservation mutations clear the availability
    cache, so writes are visible on the next read.

# Key Conventions

GenerateKey hashes the parameter struct with SHA-256 so filter
combinations produce stable, bounded-length keys:

	videos:3f1a...       // catalog filtered by category/premium
	availability:9c04... // slot grid for a date

# Limitations

Intentional for the deployment's scale (one site, a three-cabin grid,
a catalog of dozens of videos):

  - No maximum size limit or LRU eviction
  - In-memory only, per instance
  - interface{} values; callers own the type assertion

# See Also

  - internal/api: the handlers that read through these caches
  - internal/metrics: the Prometheus series the caches feed
*/
package cache
