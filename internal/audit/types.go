// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authentication events
	EventTypeAuthFailure EventType = "auth.failure"

	// User management events
	EventTypeRoleAssigned EventType = "user.role_assigned"

	// Catalog management events
	EventTypeVideoCreated EventType = "video.created"
	EventTypeVideoUpdated EventType = "video.updated"
	EventTypeVideoDeleted EventType = "video.deleted"

	// Reservation events
	EventTypeReservationStatusChanged EventType = "reservation.status_changed"

	// Payment events
	EventTypePaymentFinalized EventType = "payment.finalized"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one row of the append-only trail. The shape is deliberately flat:
// it mirrors the audit_events table column for column, so persistence needs
// no mapping layer and the trail stays queryable with plain SQL.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// OccurredAt is when the event happened.
	OccurredAt time.Time `json:"occurred_at"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Severity of the event.
	Severity Severity `json:"severity"`

	// Outcome indicates success or failure.
	Outcome Outcome `json:"outcome"`

	// ActorID is the user ID of whoever performed the action, or "system"
	// for actions taken by background workers.
	ActorID string `json:"actor_id"`

	// ActorEmail identifies the actor in human terms. Kept denormalized so
	// the trail stays readable after the account is gone.
	ActorEmail string `json:"actor_email,omitempty"`

	// TargetType names what was acted on (user, video, reservation, payment).
	TargetType string `json:"target_type,omitempty"`

	// TargetID is the acted-on entity's ID.
	TargetID string `json:"target_id,omitempty"`

	// Detail carries event-specific fields as a JSON document.
	Detail json.RawMessage `json:"detail,omitempty"`

	// IP is the client address the action came from.
	IP string `json:"ip,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query retrieves events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the retention period.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty"`

	// Outcomes filters by outcome.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	// ActorID filters by actor ID.
	ActorID string `json:"actor_id,omitempty"`

	// TargetType filters by target type.
	TargetType string `json:"target_type,omitempty"`

	// TargetID filters by target ID.
	TargetID string `json:"target_id,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`

	// OrderDesc sorts newest-first when true.
	OrderDesc bool `json:"order_desc,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Limit:     100,
		OrderDesc: true,
	}
}
