// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nazca360/nazca360/internal/logging"
)

// Publisher emits domain events. Implementations must be safe for
// concurrent use. Callers treat publishing as best-effort: the primary
// state change has already committed, so publish failures are logged and
// never rolled back.
type Publisher interface {
	PublishEvent(ctx context.Context, event *Event) error
	Close() error
}

// NoopPublisher discards events. Used when event processing is disabled
// so callers never branch on whether NATS is configured.
type NoopPublisher struct {
	logger zerolog.Logger
}

// NewNoopPublisher creates a publisher that logs and drops every event.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{logger: logging.WithComponent("events")}
}

// PublishEvent logs the event at debug level and drops it.
func (p *NoopPublisher) PublishEvent(_ context.Context, event *Event) error {
	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("type", event.Type).
		Msg("Event processing disabled, event dropped")
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
