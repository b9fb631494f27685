// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription status constants.
const (
	// SubscriptionInitiated means checkout was created but not yet paid.
	SubscriptionInitiated = "initiated"

	// SubscriptionActive means the subscription is paid and within its period.
	SubscriptionActive = "active"

	// SubscriptionExpired means the paid period has ended.
	SubscriptionExpired = "expired"

	// SubscriptionCancelled means the subscription was cancelled.
	SubscriptionCancelled = "cancelled"
)

// ValidSubscriptionStatuses contains all valid subscription statuses.
var ValidSubscriptionStatuses = []string{
	SubscriptionInitiated,
	SubscriptionActive,
	SubscriptionExpired,
	SubscriptionCancelled,
}

// IsValidSubscriptionStatus checks if a subscription status is valid.
func IsValidSubscriptionStatus(status string) bool {
	for _, s := range ValidSubscriptionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Subscription represents a paid plan period for a user.
//
// Rows are created in `initiated` together with their payment transaction
// when checkout starts. Payment finalization (webhook or status poll,
// whichever lands first) activates the row exactly once: status becomes
// `active`, StartsAt is stamped, EndsAt is StartsAt plus the plan duration,
// and the user's plan is upgraded.
type Subscription struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	PlanType          string     `json:"plan_type"`
	Status            string     `json:"status"`
	AmountCents       int64      `json:"amount_cents"`
	Currency          string     `json:"currency"`
	PaymentProvider   string     `json:"payment_provider"`
	CheckoutSessionID string     `json:"checkout_session_id"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsCurrentlyActive reports whether the subscription grants premium access
// at the given instant. A row still marked `active` past its EndsAt does not.
func (s *Subscription) IsCurrentlyActive(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	if s.EndsAt == nil {
		return false
	}
	return now.Before(*s.EndsAt)
}
