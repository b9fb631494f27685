// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package models defines data structures for the Nazca360 application.

This package contains all data models used throughout the application:
database records, API request/response structures and the constants that
define the domain vocabulary (roles, plans, categories, statuses). It serves
as the single source of truth for data structure definitions.

Model Categories:

1. Database Records:
  - User: Platform account (local, Google or session-gateway provisioned)
  - Video: 360° catalog entry with premium gating
  - Subscription: Paid plan period
  - PaymentTransaction: One checkout attempt with Stripe or PayPal
  - Reservation: On-site cabin session booking with hold lifecycle

2. API Request/Response Models:
  - APIResponse: Standard response wrapper
  - APIError: Error details with machine-readable codes
  - Metadata: Response metadata (timestamp, query time)
  - Request DTOs with validator tags (RegisterRequest, CheckoutRequest, ...)

3. Domain Constants:
  - Roles: user, staff, admin (Casbin hierarchy in internal/authz)
  - Plans: basic, premium
  - Video categories: nasca, palpa, museum
  - Status sets for subscriptions, payments and reservations

Status Lifecycles:

Reservations move through a payment-gated lifecycle: a new booking starts in
pending_payment and holds its slot until HoldExpiresAt; payment finalization
confirms it and issues the QR code; the expiry worker moves lapsed holds to
expired. CanTransitionTo encodes the allowed moves, and terminal states are
immutable. Payment transactions are terminal once paid, failed or expired,
which is what makes webhook/poll finalization idempotent.

Usage Example - API Response:

	import "github.com/nazca360/nazca360/internal/models"

	response := models.APIResponse{
	    Status: "success",
	    Data:   reservation,
	    Metadata: models.Metadata{
	        Timestamp:   time.Now(),
	        QueryTimeMS: 4,
	    },
	}

	// Error response
	errorResponse := models.APIResponse{
	    Status: "error",
	    Error: &models.APIError{
	        Code:    "SLOT_TAKEN",
	        Message: "The selected time slot is no longer available",
	    },
	}

Thread Safety:

All models are plain data structures: safe for concurrent reads, no internal
mutexes. Copy before mutating anything shared.

See Also:

  - internal/database: Persistence for these records
  - internal/api: Handlers returning these models
  - internal/booking: Reservation lifecycle rules built on these statuses
*/
package models
