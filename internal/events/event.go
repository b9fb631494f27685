// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version. Increment when making
// breaking changes to Event or any payload type.
const SchemaVersion = 1

// Event types. The type doubles as the subject suffix on the wire, so a
// subscriber on "<prefix>.user.*" sees every user lifecycle event.
const (
	// TypeUserRegistered is emitted after a new account is created.
	TypeUserRegistered = "user.registered"
	// TypePaymentCompleted is emitted after a payment reaches the paid state.
	TypePaymentCompleted = "payment.completed"
	// TypeReservationConfirmed is emitted when a cabin reservation is
	// confirmed and its QR code issued.
	TypeReservationConfirmed = "reservation.confirmed"
	// TypeReservationExpired is emitted when an unpaid hold lapses and the
	// slot is released.
	TypeReservationExpired = "reservation.expired"
)

// Event is the canonical domain event envelope published to JetStream.
// Payload holds the type-specific body; consumers unmarshal it based on
// Type. Events carry everything a consumer needs so handlers never go
// back to the database.
type Event struct {
	SchemaVersion int             `json:"schema_version,omitempty"`
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	UserID        uuid.UUID       `json:"user_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// UserRegisteredPayload is the body of a user.registered event. VerifyURL
// is set when the account still needs email verification; when empty the
// account is already active and consumers send a plain welcome.
type UserRegisteredPayload struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	VerifyURL string `json:"verify_url,omitempty"`
	VerifyTTL string `json:"verify_ttl,omitempty"`
}

// PaymentCompletedPayload is the body of a payment.completed event.
type PaymentCompletedPayload struct {
	PaymentID   string `json:"payment_id"`
	Provider    string `json:"provider"`
	Purpose     string `json:"purpose"`
	PlanType    string `json:"plan_type,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ExpiresAt   string `json:"expires_at,omitempty"` // Subscription end date, YYYY-MM-DD
	Email       string `json:"email"`
	Name        string `json:"name"`
}

// ReservationConfirmedPayload is the body of a reservation.confirmed event.
type ReservationConfirmedPayload struct {
	ReservationID string `json:"reservation_id"`
	QRCode        string `json:"qr_code"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Cabin         int    `json:"cabin"`
	Email         string `json:"email"`
	Name          string `json:"name"`
}

// ReservationExpiredPayload is the body of a reservation.expired event.
type ReservationExpiredPayload struct {
	ReservationID string `json:"reservation_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	Email         string `json:"email"`
	Name          string `json:"name"`
}

// newEvent builds the envelope with a fresh ID and timestamp.
func newEvent(eventType string, userID uuid.UUID, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Type:          eventType,
		OccurredAt:    time.Now().UTC(),
		UserID:        userID,
		Payload:       data,
	}, nil
}

// NewUserRegistered creates a user.registered event.
func NewUserRegistered(userID uuid.UUID, payload UserRegisteredPayload) (*Event, error) {
	return newEvent(TypeUserRegistered, userID, payload)
}

// NewPaymentCompleted creates a payment.completed event.
func NewPaymentCompleted(userID uuid.UUID, payload PaymentCompletedPayload) (*Event, error) {
	return newEvent(TypePaymentCompleted, userID, payload)
}

// NewReservationConfirmed creates a reservation.confirmed event.
func NewReservationConfirmed(userID uuid.UUID, payload ReservationConfirmedPayload) (*Event, error) {
	return newEvent(TypeReservationConfirmed, userID, payload)
}

// NewReservationExpired creates a reservation.expired event.
func NewReservationExpired(userID uuid.UUID, payload ReservationExpiredPayload) (*Event, error) {
	return newEvent(TypeReservationExpired, userID, payload)
}

// Topic returns the NATS subject for this event under the given prefix.
// Format: <prefix>.<type>, e.g. "nazca.reservation.confirmed".
func (e *Event) Topic(prefix string) string {
	return prefix + "." + e.Type
}

// Validate checks required envelope fields.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id: required")
	}
	if e.Type == "" {
		return fmt.Errorf("type: required")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at: required")
	}
	return nil
}

// Serialize converts the event to JSON bytes after validation.
func Serialize(event *Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Deserialize parses JSON bytes into an event. Events without an explicit
// schema version are treated as version 1.
func Deserialize(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.SchemaVersion == 0 {
		event.SchemaVersion = 1
	}
	return &event, nil
}
