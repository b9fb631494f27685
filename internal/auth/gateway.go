// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/logging"
)

// Gateway errors.
var (
	// ErrGatewayDisabled indicates the session gateway is not configured.
	ErrGatewayDisabled = errors.New("session gateway disabled")

	// ErrGatewayRejected indicates the gateway knows nothing about the
	// presented session. Maps to 401 at the API layer.
	ErrGatewayRejected = errors.New("session gateway rejected the session")

	// ErrGatewayUnavailable indicates the gateway could not be reached or
	// the circuit is open. Maps to 503 at the API layer.
	ErrGatewayUnavailable = errors.New("session gateway unavailable")
)

// GatewayIdentity is the visitor identity the on-site gateway vouches
// for. The gateway authenticates visitors already inside a VR cabin; the
// API exchanges its session identifier for platform credentials.
type GatewayIdentity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// GatewayClient resolves cabin session identifiers against the session
// gateway. All calls go through a circuit breaker: when the gateway is
// down, requests fail fast with ErrGatewayUnavailable instead of tying up
// handler goroutines on timeouts.
//
// A nil *GatewayClient is valid and reports ErrGatewayDisabled, so
// callers need no separate enabled flag.
type GatewayClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*GatewayIdentity]
}

// NewGatewayClient creates a gateway client from configuration. Returns
// nil when the gateway is disabled.
func NewGatewayClient(cfg *config.SessionGatewayConfig) *GatewayClient {
	if !cfg.Enabled || cfg.BaseURL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*GatewayIdentity](gobreaker.Settings{
		Name:        "session-gateway",
		MaxRequests: 3,               // Probes allowed in half-open state
		Interval:    time.Minute,     // Closed-state count reset window
		Timeout:     2 * time.Minute, // Open-state hold before half-open

		// Open when failure rate reaches 60% over at least 10 requests.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		// A rejected session is a completed round trip, not a gateway
		// failure; only connectivity problems should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGatewayRejected)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			recordGatewayBreakerState(to)
		},
	})

	return &GatewayClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Resolve exchanges a gateway session identifier for the visitor
// identity behind it.
func (c *GatewayClient) Resolve(ctx context.Context, sessionID string) (*GatewayIdentity, error) {
	if c == nil {
		return nil, ErrGatewayDisabled
	}
	if sessionID == "" {
		return nil, ErrGatewayRejected
	}

	identity, err := c.cb.Execute(func() (*GatewayIdentity, error) {
		return c.resolve(ctx, sessionID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			GatewayRequests.WithLabelValues("rejected_open").Inc()
			return nil, fmt.Errorf("%w: circuit open", ErrGatewayUnavailable)
		}
		if errors.Is(err, ErrGatewayRejected) {
			GatewayRequests.WithLabelValues("rejected_session").Inc()
			return nil, err
		}
		GatewayRequests.WithLabelValues("failure").Inc()
		return nil, err
	}

	GatewayRequests.WithLabelValues("success").Inc()
	return identity, nil
}

func (c *GatewayClient) resolve(ctx context.Context, sessionID string) (*GatewayIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Decoded below
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return nil, ErrGatewayRejected
	default:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var identity GatewayIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: decode gateway response: %v", ErrGatewayUnavailable, err)
	}

	if identity.Email == "" {
		return nil, fmt.Errorf("%w: gateway response carries no email", ErrGatewayUnavailable)
	}

	return &identity, nil
}
