// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment provider constants.
const (
	// PaymentProviderStripe identifies Stripe Checkout transactions.
	PaymentProviderStripe = "stripe"

	// PaymentProviderPayPal identifies PayPal order transactions.
	PaymentProviderPayPal = "paypal"
)

// ValidPaymentProviders contains all valid payment providers.
var ValidPaymentProviders = []string{PaymentProviderStripe, PaymentProviderPayPal}

// IsValidPaymentProvider checks if a payment provider name is valid.
func IsValidPaymentProvider(provider string) bool {
	for _, p := range ValidPaymentProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// Payment purpose constants. The purpose decides what finalization applies:
// a subscription activation or a reservation confirmation.
const (
	// PurposeSubscription pays for a plan period.
	PurposeSubscription = "subscription"

	// PurposeReservation pays for a single cabin session.
	PurposeReservation = "reservation"
)

// ValidPaymentPurposes contains all valid payment purposes.
var ValidPaymentPurposes = []string{PurposeSubscription, PurposeReservation}

// IsValidPaymentPurpose checks if a payment purpose is valid.
func IsValidPaymentPurpose(purpose string) bool {
	for _, p := range ValidPaymentPurposes {
		if p == purpose {
			return true
		}
	}
	return false
}

// Payment transaction status constants.
const (
	// PaymentInitiated means the checkout session was created.
	PaymentInitiated = "initiated"

	// PaymentPending means the provider reports the session as in progress.
	PaymentPending = "pending"

	// PaymentPaid means the provider confirmed payment. Terminal.
	PaymentPaid = "paid"

	// PaymentFailed means the provider reported failure. Terminal.
	PaymentFailed = "failed"

	// PaymentExpired means the checkout session lapsed unpaid. Terminal.
	PaymentExpired = "expired"
)

// ValidPaymentStatuses contains all valid payment transaction statuses.
var ValidPaymentStatuses = []string{
	PaymentInitiated,
	PaymentPending,
	PaymentPaid,
	PaymentFailed,
	PaymentExpired,
}

// IsValidPaymentStatus checks if a payment status is valid.
func IsValidPaymentStatus(status string) bool {
	for _, s := range ValidPaymentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PaymentTransaction records one checkout attempt with an external provider.
//
// CheckoutSessionID is the provider-side identifier (Stripe session ID or
// PayPal order ID) and is unique across all transactions; both the webhook
// and the status-poll path locate the transaction by it. ReferenceID points
// at the row the payment is for: a subscription ID or a reservation ID,
// depending on Purpose.
//
// A transaction in a terminal status is never modified again. Finalization
// checks the current status first, which makes duplicate webhook deliveries
// and poll/webhook races no-ops.
type PaymentTransaction struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Provider          string    `json:"provider"`
	Purpose           string    `json:"purpose"`
	ReferenceID       uuid.UUID `json:"reference_id"`
	CheckoutSessionID string    `json:"checkout_session_id"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsTerminal reports whether the transaction reached a final status.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.Status {
	case PaymentPaid, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}
