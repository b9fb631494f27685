// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
)

// CircuitBreakerProvider wraps a Provider with a gobreaker circuit
// breaker so a dead payment processor fails fast instead of stacking up
// blocked checkout requests.
type CircuitBreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps a provider in a circuit breaker named after it.
func WithBreaker(inner Provider) *CircuitBreakerProvider {
	name := "payments-" + inner.Name()

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
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

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(providerBreakerStateValue(to))
		},
	})

	return &CircuitBreakerProvider{inner: inner, cb: cb}
}

// Name implements Provider.
func (p *CircuitBreakerProvider) Name() string {
	return p.inner.Name()
}

// CreateCheckout implements Provider through the breaker.
func (p *CircuitBreakerProvider) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	result, err := p.execute(ctx, "create_checkout", func() (any, error) {
		return p.inner.CreateCheckout(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Checkout), nil
}

// CheckoutStatus implements Provider through the breaker.
func (p *CircuitBreakerProvider) CheckoutStatus(ctx context.Context, sessionID string) (*Status, error) {
	result, err := p.execute(ctx, "checkout_status", func() (any, error) {
		return p.inner.CheckoutStatus(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Status), nil
}

func (p *CircuitBreakerProvider) execute(ctx context.Context, operation string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := p.cb.Execute(fn)
	metrics.RecordProviderCall(p.inner.Name(), operation, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.CtxWarn(ctx).
				Str("component", "payments").
				Str("provider", p.inner.Name()).
				Str("operation", operation).
				Msg("Provider call rejected by open circuit breaker")
			return nil, fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
		}
		return nil, err
	}

	return result, nil
}

func providerBreakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
