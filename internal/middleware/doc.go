// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package middleware provides transport-agnostic HTTP middleware shared by
the API router.

Components:

  - Compression: gzip response encoding, skipped for WebSocket upgrades
    and clients without Accept-Encoding: gzip.
  - PrometheusMetrics: per-request duration and status instrumentation
    feeding the internal/metrics collectors.
  - PerformanceMonitor: an in-process rolling window of request
    latencies with per-endpoint percentile stats (p50/p95/p99) and a
    slow-request reporter the supervisor polls.

The router adapts the http.HandlerFunc-shaped middleware to Chi's
func(http.Handler) http.Handler form, so the usual stack is:

	r.Use(chiMiddleware(middleware.Compression))
	r.Use(perf.Middleware)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Performance monitoring:

	perf := middleware.NewPerformanceMonitor(1000)
	r.Use(perf.Middleware)

	stats := perf.GetStats()       // per-endpoint latency percentiles
	perf.LogSlowRequests(500)      // log requests over the threshold

All components are safe for concurrent use: Compression pools gzip
writers, the monitor guards its ring buffer with a mutex, and the
Prometheus collectors are atomic.

See also internal/auth for the authentication middleware and
internal/api for the route tree that composes this package.
*/
package middleware
