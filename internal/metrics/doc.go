// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Database query performance (DuckDB)
  - Payment flows, webhook deliveries, and revenue
  - Reservation lifecycle transitions and hold expiry
  - Cache hit/miss rates (availability and catalog caches)
  - WebSocket connection counts
  - Event bus publish/consume throughput
  - Email delivery outcomes

Auth-specific counters live in internal/auth and authorization decision
metrics in internal/authz; this package holds everything shared across
the request path and the background workers.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Requests currently in flight (gauge)
  - api_rate_limit_hits_total: Rate limiter rejections (counter)
    Labels: endpoint

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type (timeout, constraint, not_found, other)
  - duckdb_connection_pool_size: Connections in use (gauge)

Payment Metrics:
  - payments_initiated_total: Transactions created (counter)
    Labels: provider, purpose
  - payments_finalized_total: Transactions reaching a terminal state (counter)
    Labels: provider, purpose, outcome (paid, failed, expired)
  - payment_revenue_cents_total: Revenue from paid transactions (counter)
    Labels: provider, purpose
  - payment_webhook_events_total: Webhook deliveries (counter)
    Labels: provider, result
  - payment_provider_call_duration_seconds: Outbound provider calls (histogram)
    Labels: provider, operation

Reservation Metrics:
  - reservation_transitions_total: Status transitions (counter)
    Labels: status
  - reservation_holds_expired_total: Holds released by the expiry worker (counter)

Cache Metrics:
  - cache_hits_total, cache_misses_total, cache_evictions_total (counters)
    Labels: cache_type (availability, catalog)
  - cache_entries: Current entry count (gauge)
    Labels: cache_type

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total, websocket_messages_received_total (counters)
  - websocket_errors_total (counter), Labels: error_type

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge, 0=closed, 1=half-open, 2=open)
    Labels: name
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

Event Bus Metrics:
  - events_published_total, event_publish_failures_total (counters), Labels: topic
  - events_consumed_total (counter), Labels: topic, result
  - event_processing_duration_seconds (histogram), Labels: topic

# Usage Example

Recording API metrics with middleware:

	func Prometheus(next http.Handler) http.Handler {
	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	        start := time.Now()
	        metrics.TrackActiveRequest(true)
	        defer metrics.TrackActiveRequest(false)

	        ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
	        next.ServeHTTP(ww, r)

	        metrics.RecordAPIRequest(r.Method, routePattern(r), strconv.Itoa(ww.Status()), time.Since(start))
	    })
	}

Recording a database query:

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "reservations", time.Since(start), err)

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'nazca360'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# API request rate
	rate(api_requests_total[5m])

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Revenue per hour by provider
	rate(payment_revenue_cents_total[1h]) * 3600

	# Availability cache hit rate
	sum(rate(cache_hits_total{cache_type="availability"}[5m]))
	/
	(sum(rate(cache_hits_total{cache_type="availability"}[5m])) + sum(rate(cache_misses_total{cache_type="availability"}[5m])))

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels use chi route patterns, not raw URLs, so path
    parameters collapse into one series per route
  - Database error types are bucketed into four fixed categories
  - Provider, purpose, status, and topic labels are closed enums
  - User-specific labels are avoided everywhere

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/auth: authentication counters (login attempts, sessions, OAuth)
  - internal/authz: authorization decision metrics
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
