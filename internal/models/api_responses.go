// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"id": "...", "plan": "premium"},
//	  "metadata": {
//	    "timestamp": "2026-08-23T12:00:00Z",
//	    "query_time_ms": 4
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "SLOT_TAKEN",
//	    "message": "The selected time slot is no longer available"
//	  },
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Database query execution time in milliseconds (0 if cached)
//   - Cached: Whether response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - EMAIL_TAKEN: Registration email already in use
//   - INVALID_CREDENTIALS: Login rejected
//   - OAUTH_ACCOUNT: Password login on an OAuth-provisioned account
//   - EMAIL_NOT_VERIFIED: Login before email verification
//   - PREMIUM_REQUIRED: Premium video requested on the basic plan
//   - SLOT_TAKEN: Reservation conflict
//   - INVALID_TRANSITION: Disallowed reservation status change
//   - PAYMENT_ERROR: Provider call failed
//   - SERVICE_UNAVAILABLE: Dependency down (circuit open)
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo contains offset pagination metadata for admin list endpoints.
// TotalCount is optional because counting can be expensive on large tables.
type PaginationInfo struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
	TotalCount *int `json:"total_count,omitempty"`
}

// ServiceBanner is returned by the root endpoint.
type ServiceBanner struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MessageResponse wraps endpoints that return only a human-readable outcome
// (registration, verification, password flows, logout, cancellation).
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest creates a local email/password account.
//
// Password strength beyond the minimum length is enforced by the password
// policy in internal/config, which produces field-level messages.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
}

// LoginRequest authenticates a local account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by successful login and OAuth flows.
//
// Example:
//
//	{
//	  "access_token": "eyJhbGciOiJIUzI1NiIs...",
//	  "token_type": "bearer",
//	  "expires_at": "2026-08-24T12:00:00Z",
//	  "user": {"id": "...", "email": "...", "plan": "basic"}
//	}
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        PublicUser `json:"user"`
}

// ForgotPasswordRequest starts the password reset flow. The response is the
// same whether or not the address exists.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// SessionResponse is returned by the session-gateway login used by the
// on-site cabins. The token is also set as an HTTP-only cookie.
type SessionResponse struct {
	User         PublicUser `json:"user"`
	SessionToken string     `json:"session_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// CheckoutRequest starts a subscription purchase.
//
// OriginURL is the frontend origin the provider redirects back to after
// checkout; success/cancel URLs are derived from it.
type CheckoutRequest struct {
	PlanType  string `json:"plan_type" validate:"required"`
	Provider  string `json:"provider" validate:"omitempty,oneof=stripe paypal"`
	OriginURL string `json:"origin_url" validate:"required,url"`
}

// CheckoutResponse carries the provider redirect for a created checkout.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// SubscriptionStatusResponse reports the provider-side payment state for a
// checkout session, plus the subscription row once activated.
type SubscriptionStatusResponse struct {
	PaymentStatus string        `json:"payment_status"`
	Subscription  *Subscription `json:"subscription,omitempty"`
}

// ReservationRequest books a cabin slot.
//
// Cabin is optional; when omitted the lowest free cabin is assigned.
// Provider selects the payment provider for the session fee and defaults to
// the first enabled one.
type ReservationRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	Cabin     *int   `json:"cabin,omitempty" validate:"omitempty,min=1"`
	Provider  string `json:"provider" validate:"omitempty,oneof=stripe paypal"`
	OriginURL string `json:"origin_url" validate:"omitempty,url"`
}

// ReservationResponse wraps a created reservation with its payment redirect.
// CheckoutURL and SessionID are empty when payments are disabled and the
// reservation was confirmed immediately.
type ReservationResponse struct {
	Reservation Reservation `json:"reservation"`
	CheckoutURL string      `json:"checkout_url,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
}

// AvailabilitySlot describes one bookable time slot on a date.
type AvailabilitySlot struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	FreeCabins []int  `json:"free_cabins"`
	Available  bool   `json:"available"`
}

// AvailabilityResponse lists the slot grid for a date.
type AvailabilityResponse struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}

// UpdateReservationStatusRequest transitions a reservation (staff/admin).
type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled expired no_show"`
}

// UpdateRoleRequest assigns a role to a user (admin).
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user staff admin"`
}

// VideoCreateRequest creates a catalog entry (admin).
type VideoCreateRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	Category        string `json:"category" validate:"required,oneof=nasca palpa museum"`
	VideoURL        string `json:"video_url" validate:"required,url"`
	ThumbnailURL    string `json:"thumbnail_url" validate:"omitempty,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"required,min=1"`
	IsPremium       bool   `json:"is_premium"`
	Published       bool   `json:"published"`
}

// VideoUpdateRequest updates a catalog entry (admin). Nil fields are left
// unchanged.
type VideoUpdateRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category        *string `json:"category,omitempty" validate:"omitempty,oneof=nasca palpa museum"`
	VideoURL        *string `json:"video_url,omitempty" validate:"omitempty,url"`
	ThumbnailURL    *string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	DurationSeconds *int    `json:"duration_seconds,omitempty" validate:"omitempty,min=1"`
	IsPremium       *bool   `json:"is_premium,omitempty"`
	Published       *bool   `json:"published,omitempty"`
}

// UsersListResponse pages through accounts for the admin back-office.
type UsersListResponse struct {
	Users      []PublicUser   `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// ReservationsListResponse lists reservations for the admin back-office.
type ReservationsListResponse struct {
	Reservations []Reservation  `json:"reservations"`
	Pagination   PaginationInfo `json:"pagination"`
}

// SubscriptionsListResponse lists subscriptions for the admin back-office.
type SubscriptionsListResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Pagination    PaginationInfo `json:"pagination"`
}
