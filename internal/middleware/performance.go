// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nazca360/nazca360/internal/logging"
)

// slowRequestMS is the inline warning threshold. Anything slower gets a
// log line as it happens, independent of the periodic reporter.
const slowRequestMS = 1000

// RequestMetrics is one observed request in the rolling window.
type RequestMetrics struct {
	Route      string
	Method     string
	Status     int
	DurationMS int64
	Timestamp  time.Time
}

// PerformanceMonitor keeps a rolling window of request latencies and
// aggregates them per route. It complements the Prometheus collectors
// with percentile stats that are cheap to read in-process.
type PerformanceMonitor struct {
	mu         sync.RWMutex
	window     []RequestMetrics
	maxWindow  int
	totalCount map[string]int64
}

// EndpointStats aggregates the window for one method+route pair.
type EndpointStats struct {
	Route        string
	RequestCount int64
	AvgDuration  float64
	P50Duration  int64
	P95Duration  int64
	P99Duration  int64
	MinDuration  int64
	MaxDuration  int64
}

// NewPerformanceMonitor creates a monitor keeping the last maxWindow
// requests.
func NewPerformanceMonitor(maxWindow int) *PerformanceMonitor {
	return &PerformanceMonitor{
		window:     make([]RequestMetrics, 0, maxWindow),
		maxWindow:  maxWindow,
		totalCount: make(map[string]int64),
	}
}

// RecordRequest appends one observation, evicting the oldest when the
// window is full.
func (pm *PerformanceMonitor) RecordRequest(metric *RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.window = append(pm.window, *metric)
	if len(pm.window) > pm.maxWindow {
		pm.window = pm.window[1:]
	}
	pm.totalCount[metric.Method+" "+metric.Route]++
}

// GetStats returns per-route latency aggregates over the current
// window, busiest routes first.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	byRoute := make(map[string][]int64)
	for _, m := range pm.window {
		key := m.Method + " " + m.Route
		byRoute[key] = append(byRoute[key], m.DurationMS)
	}

	stats := make([]EndpointStats, 0, len(byRoute))
	for route, durations := range byRoute {
		sorted := make([]int64, len(durations))
		copy(sorted, durations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, d := range sorted {
			sum += d
		}

		stats = append(stats, EndpointStats{
			Route:        route,
			RequestCount: int64(len(sorted)),
			AvgDuration:  float64(sum) / float64(len(sorted)),
			P50Duration:  percentile(sorted, 0.50),
			P95Duration:  percentile(sorted, 0.95),
			P99Duration:  percentile(sorted, 0.99),
			MinDuration:  sorted[0],
			MaxDuration:  sorted[len(sorted)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].RequestCount > stats[j].RequestCount
	})
	return stats
}

// GetRecentMetrics returns up to the n most recent observations.
func (pm *PerformanceMonitor) GetRecentMetrics(n int) []RequestMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if n > len(pm.window) {
		n = len(pm.window)
	}
	recent := make([]RequestMetrics, n)
	copy(recent, pm.window[len(pm.window)-n:])
	return recent
}

// LogSlowRequests emits a warning for every windowed request over the
// threshold. The supervisor calls this on an interval.
func (pm *PerformanceMonitor) LogSlowRequests(thresholdMS int64) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, m := range pm.window {
		if m.DurationMS > thresholdMS {
			logging.Warn().
				Str("method", m.Method).
				Str("route", m.Route).
				Int("status", m.Status).
				Int64("duration_ms", m.DurationMS).
				Int64("threshold_ms", thresholdMS).
				Msg("Slow request detected")
		}
	}
}

// Middleware records every non-upgrade request into the window.
// WebSocket upgrades pass through unwrapped so the hijacked connection
// keeps its raw ResponseWriter.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		duration := time.Since(start).Milliseconds()

		pm.RecordRequest(&RequestMetrics{
			Route:      routePattern(r),
			Method:     r.Method,
			Status:     wrapper.statusCode,
			DurationMS: duration,
			Timestamp:  time.Now(),
		})

		if duration > slowRequestMS {
			logging.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", duration).
				Msg("Slow request detected")
		}
	})
}

// routePattern keys metrics by the matched Chi pattern so per-ID paths
// collapse into one bucket. The route context is populated by the time
// the handler returns; raw paths only appear for unmatched requests.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// percentile reads the p-th percentile from an ascending-sorted slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

// responseWriter captures the status code for recording.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
