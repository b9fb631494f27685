// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package audit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// RetentionDays is how long to keep audit events.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RetentionDays:   365,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// Logger records audit events asynchronously. Log never blocks the request
// path: events go through a buffered channel to a single writer goroutine,
// and a full buffer drops the event with a warning rather than stalling
// the handler.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewLogger creates a new audit logger and starts its writer goroutine.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event to the store.
func (l *Logger) writeEvent(event *Event) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to save audit event")
	}
}

// Log records an audit event.
func (l *Logger) Log(event *Event) {
	if !l.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	case <-l.stopChan:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Close shuts down the logger gracefully, draining buffered events.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// RunCleanup deletes events past the retention window until the context is
// cancelled. Runs under the supervisor tree, not a self-started goroutine.
func (l *Logger) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -l.config.RetentionDays)
			count, err := l.store.Delete(ctx, cutoff)
			if err != nil {
				logging.Error().Err(err).Msg("Audit cleanup error")
			} else if count > 0 {
				logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
			}
		}
	}
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Actor identifies who performed an action for the typed helpers below.
type Actor struct {
	ID    string
	Email string
	IP    string
}

// SystemActor represents actions taken by background workers.
func SystemActor() Actor {
	return Actor{ID: "system"}
}

// Typed helpers for the events this platform audits. Every admin mutation
// and payment finalization goes through one of these.

// RoleAssigned records an admin changing a user's role.
func (l *Logger) RoleAssigned(ctx context.Context, actor Actor, targetUserID, oldRole, newRole string) {
	l.Log(&Event{
		Type:       EventTypeRoleAssigned,
		Severity:   SeverityWarning,
		Outcome:    OutcomeSuccess,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		TargetType: "user",
		TargetID:   targetUserID,
		Detail:     mustJSON(map[string]string{"old_role": oldRole, "new_role": newRole}),
		IP:         actor.IP,
		RequestID:  logging.RequestIDFromContext(ctx),
	})
}

// VideoCreated records an admin adding a catalog entry.
func (l *Logger) VideoCreated(ctx context.Context, actor Actor, videoID, title string) {
	l.logVideoEvent(ctx, EventTypeVideoCreated, actor, videoID, title)
}

// VideoUpdated records an admin editing a catalog entry.
func (l *Logger) VideoUpdated(ctx context.Context, actor Actor, videoID, title string) {
	l.logVideoEvent(ctx, EventTypeVideoUpdated, actor, videoID, title)
}

// VideoDeleted records an admin removing a catalog entry.
func (l *Logger) VideoDeleted(ctx context.Context, actor Actor, videoID, title string) {
	l.logVideoEvent(ctx, EventTypeVideoDeleted, actor, videoID, title)
}

func (l *Logger) logVideoEvent(ctx context.Context, eventType EventType, actor Actor, videoID, title string) {
	l.Log(&Event{
		Type:       eventType,
		Severity:   SeverityInfo,
		Outcome:    OutcomeSuccess,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		TargetType: "video",
		TargetID:   videoID,
		Detail:     mustJSON(map[string]string{"title": title}),
		IP:         actor.IP,
		RequestID:  logging.RequestIDFromContext(ctx),
	})
}

// ReservationStatusChanged records a staff/admin reservation transition.
func (l *Logger) ReservationStatusChanged(ctx context.Context, actor Actor, reservationID, oldStatus, newStatus string) {
	l.Log(&Event{
		Type:       EventTypeReservationStatusChanged,
		Severity:   SeverityInfo,
		Outcome:    OutcomeSuccess,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		TargetType: "reservation",
		TargetID:   reservationID,
		Detail:     mustJSON(map[string]string{"old_status": oldStatus, "new_status": newStatus}),
		IP:         actor.IP,
		RequestID:  logging.RequestIDFromContext(ctx),
	})
}

// PaymentFinalized records a payment transaction reaching a terminal state,
// whether via webhook or status poll.
func (l *Logger) PaymentFinalized(ctx context.Context, transactionID, provider, purpose, status string, amountCents int64) {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if status != "paid" {
		outcome = OutcomeFailure
		severity = SeverityWarning
	}
	l.Log(&Event{
		Type:       EventTypePaymentFinalized,
		Severity:   severity,
		Outcome:    outcome,
		ActorID:    "system",
		TargetType: "payment",
		TargetID:   transactionID,
		Detail: mustJSON(map[string]interface{}{
			"provider":     provider,
			"purpose":      purpose,
			"status":       status,
			"amount_cents": amountCents,
		}),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// AuthFailure records a failed login or webhook signature rejection.
func (l *Logger) AuthFailure(ctx context.Context, email, ip, reason string) {
	l.Log(&Event{
		Type:       EventTypeAuthFailure,
		Severity:   SeverityWarning,
		Outcome:    OutcomeFailure,
		ActorEmail: email,
		Detail:     mustJSON(map[string]string{"reason": reason}),
		IP:         ip,
		RequestID:  logging.RequestIDFromContext(ctx),
	})
}

// mustJSON converts a value to JSON, returning an empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// ClientIP extracts the originating client address from a request,
// preferring proxy headers when present.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
