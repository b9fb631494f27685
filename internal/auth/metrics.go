// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authentication metrics. Registered on the default registry and exposed
// through /metrics.

var (
	// LoginAttempts counts credential checks at the login endpoint.
	// Labels:
	//   - provider: "local", "google", "session"
	//   - outcome: "success", "failure", "error"
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"provider", "outcome"},
	)

	// SessionsCreated counts server-side sessions established.
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_created_total",
			Help: "Total number of sessions created",
		},
		[]string{"provider"},
	)

	// SessionsTerminated counts sessions removed.
	// Labels:
	//   - reason: "logout", "expired", "idle", "password_reset"
	SessionsTerminated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_terminated_total",
			Help: "Total number of sessions terminated",
		},
		[]string{"reason"},
	)

	// TokenValidationErrors counts rejected access tokens by cause.
	// Labels:
	//   - error_type: "expired", "invalid"
	TokenValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validation_errors_total",
			Help: "Total number of access token validation errors",
		},
		[]string{"error_type"},
	)

	// OAuthFlows counts Google sign-in flows by stage outcome.
	// Labels:
	//   - outcome: "started", "completed", "state_rejected", "exchange_failed"
	OAuthFlows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_oauth_flows_total",
			Help: "Total number of Google sign-in flow events",
		},
		[]string{"outcome"},
	)

	// GatewayRequests counts session gateway resolution attempts.
	// Labels:
	//   - outcome: "success", "failure", "rejected_session", "rejected_open"
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gateway_requests_total",
			Help: "Total number of session gateway resolution attempts",
		},
		[]string{"outcome"},
	)

	// GatewayBreakerState tracks the gateway circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	GatewayBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_gateway_breaker_state",
			Help: "Session gateway circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// RateLimitedLogins counts requests refused by the per-IP login limiter.
	RateLimitedLogins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_logins_total",
			Help: "Total number of login requests refused by the per-IP rate limiter",
		},
	)
)

// recordGatewayBreakerState maps a gobreaker state onto the gauge.
func recordGatewayBreakerState(state gobreaker.State) {
	switch state {
	case gobreaker.StateClosed:
		GatewayBreakerState.Set(0)
	case gobreaker.StateHalfOpen:
		GatewayBreakerState.Set(1)
	case gobreaker.StateOpen:
		GatewayBreakerState.Set(2)
	}
}
