// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Payment errors.
var (
	// ErrPaymentsDisabled means checkout is turned off in configuration.
	ErrPaymentsDisabled = errors.New("payments are disabled")
	// ErrUnknownProvider means the requested provider is not configured.
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrUnknownPlan means the plan type has no catalog entry.
	ErrUnknownPlan = errors.New("unknown subscription plan")
	// ErrProviderUnavailable means the provider call was rejected by an
	// open circuit breaker.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrNotPayable means the referenced row is not awaiting payment.
	ErrNotPayable = errors.New("reference is not awaiting payment")
	// ErrWrongOwner means the referenced row belongs to another user.
	ErrWrongOwner = errors.New("reference belongs to another user")
)

// Provider-neutral checkout states. Providers map their own session and
// order statuses onto these; Finalize consumes them.
const (
	// StatePaid means the provider confirmed payment.
	StatePaid = "paid"
	// StatePending means the session exists but is not yet decided.
	StatePending = "pending"
	// StateFailed means the provider reported a failed or voided payment.
	StateFailed = "failed"
	// StateExpired means the checkout session lapsed unpaid.
	StateExpired = "expired"
)

// CheckoutRequest describes one charge to create with a provider.
type CheckoutRequest struct {
	UserID      uuid.UUID
	Purpose     string // models.PurposeSubscription or PurposeReservation
	ReferenceID uuid.UUID
	AmountCents int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Checkout is a created provider session the client gets redirected to.
type Checkout struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Status is a snapshot of a provider-side checkout session.
type Status struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// Provider creates checkout sessions and reports their state with one
// external payment processor.
type Provider interface {
	// Name returns the provider identifier (models.PaymentProviderStripe
	// or PaymentProviderPayPal).
	Name() string

	// CreateCheckout opens a provider checkout session for the request.
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error)

	// CheckoutStatus retrieves the current state of a session. Providers
	// that settle in two steps (PayPal order capture) complete the
	// settlement here when the payer has approved.
	CheckoutStatus(ctx context.Context, sessionID string) (*Status, error)
}

// formatDecimal renders an amount in cents as a major-unit decimal
// string ("2590" -> "25.90"). PayPal's API wants decimals; Stripe wants
// cents.
func formatDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
