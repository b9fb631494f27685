// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package authz

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nazca360/nazca360/internal/logging"
)

// DecisionEvent captures one authorization decision for the structured
// decision log. This is operational logging, distinct from the persisted
// admin action trail in internal/audit.
type DecisionEvent struct {
	// ID uniquely identifies the event; generated when empty.
	ID string `json:"id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RequestID links the event to an HTTP request.
	RequestID string `json:"request_id,omitempty"`

	// SubjectID is the user the decision was made for.
	SubjectID string `json:"subject_id"`

	// Email is the subject's email address.
	Email string `json:"email,omitempty"`

	// Role is the effective role used for the decision.
	Role string `json:"role,omitempty"`

	// Object is the logical resource ("videos", "reservations").
	Object string `json:"object"`

	// Action is the operation ("read", "write").
	Action string `json:"action"`

	// Allowed is the decision outcome.
	Allowed bool `json:"allowed"`

	// Reason provides context, mainly for denials.
	Reason string `json:"reason,omitempty"`
}

// DecisionLogConfig configures the decision log.
type DecisionLogConfig struct {
	// Enabled controls whether decisions are logged at all.
	Enabled bool

	// LogAllowed controls whether allowed decisions are logged. Denials
	// are controlled separately so operators can keep only the security
	// signal.
	LogAllowed bool

	// LogDenied controls whether denied decisions are logged.
	LogDenied bool

	// SampleRate is the fraction of allowed decisions to log (0.0 to
	// 1.0). Denials are never sampled.
	SampleRate float64

	// BufferSize is the async buffer capacity. Events are dropped, not
	// blocked on, when the buffer is full.
	BufferSize int
}

// DefaultDecisionLogConfig returns production defaults: everything
// logged, no sampling.
func DefaultDecisionLogConfig() *DecisionLogConfig {
	return &DecisionLogConfig{
		Enabled:    true,
		LogAllowed: true,
		LogDenied:  true,
		SampleRate: 1.0,
		BufferSize: 1000,
	}
}

// DecisionLog writes authorization decisions to the structured log
// asynchronously. Recording never blocks the request path; under
// sustained overload events are dropped and counted.
type DecisionLog struct {
	config  *DecisionLogConfig
	events  chan DecisionEvent
	dropped atomic.Int64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDecisionLog creates the decision log. A nil config uses defaults.
func NewDecisionLog(config *DecisionLogConfig) *DecisionLog {
	if config == nil {
		config = DefaultDecisionLogConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.SampleRate <= 0 || config.SampleRate > 1.0 {
		config.SampleRate = 1.0
	}

	dl := &DecisionLog{
		config:   config,
		events:   make(chan DecisionEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		dl.wg.Add(1)
		go dl.processEvents()
	}
	return dl
}

// Record queues a decision event. Non-blocking; safe on a nil receiver.
func (dl *DecisionLog) Record(event DecisionEvent) {
	if dl == nil || !dl.config.Enabled {
		return
	}

	if event.Allowed {
		if !dl.config.LogAllowed {
			return
		}
		if dl.config.SampleRate < 1.0 {
			// Deterministic sampling keyed on the event ID so repeated
			// runs are reproducible.
			if event.ID == "" {
				event.ID = uuid.New().String()
			}
			if int(event.ID[0])%100 >= int(dl.config.SampleRate*100) {
				return
			}
		}
	} else if !dl.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case dl.events <- event:
	default:
		dl.dropped.Add(1)
	}
}

func (dl *DecisionLog) processEvents() {
	defer dl.wg.Done()

	for {
		select {
		case <-dl.stopChan:
			dl.drainEvents()
			return
		case event := <-dl.events:
			dl.writeEvent(event)
		}
	}
}

// drainEvents flushes whatever is still buffered during shutdown.
func (dl *DecisionLog) drainEvents() {
	for {
		select {
		case event := <-dl.events:
			dl.writeEvent(event)
		default:
			return
		}
	}
}

func (dl *DecisionLog) writeEvent(event DecisionEvent) {
	var logEvent *zerolog.Event
	if event.Allowed {
		logEvent = logging.Info()
	} else {
		// Denials surface at warn level for alerting.
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("component", "authz_decisions").
		Str("event_type", "authz_decision").
		Str("decision_id", event.ID).
		Time("decision_at", event.Timestamp).
		Str("subject_id", event.SubjectID).
		Str("object", event.Object).
		Str("action", event.Action).
		Bool("allowed", event.Allowed)

	if event.Email != "" {
		logEvent = logEvent.Str("email", event.Email)
	}
	if event.Role != "" {
		logEvent = logEvent.Str("role", event.Role)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}

	if event.Allowed {
		logEvent.Msg("Authorization allowed")
	} else {
		logEvent.Msg("Authorization denied")
	}
}

// Close stops the log and flushes buffered events. Safe on a nil
// receiver and safe to call more than once.
func (dl *DecisionLog) Close() {
	if dl == nil {
		return
	}
	dl.stopOnce.Do(func() {
		close(dl.stopChan)
	})
	dl.wg.Wait()
}

// Stats reports buffer state for the health endpoint.
func (dl *DecisionLog) Stats() DecisionLogStats {
	if dl == nil {
		return DecisionLogStats{}
	}
	return DecisionLogStats{
		Enabled:    dl.config.Enabled,
		BufferSize: dl.config.BufferSize,
		BufferUsed: len(dl.events),
		Dropped:    dl.dropped.Load(),
	}
}

// DecisionLogStats describes decision log buffer state.
type DecisionLogStats struct {
	Enabled    bool  `json:"enabled"`
	BufferSize int   `json:"buffer_size"`
	BufferUsed int   `json:"buffer_used"`
	Dropped    int64 `json:"dropped"`
}
