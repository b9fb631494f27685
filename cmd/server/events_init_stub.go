// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build !nats

package main

import (
	"context"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
)

// EventComponents is a stub for builds without NATS support.
type EventComponents struct {
	publisher events.Publisher
}

// InitEvents returns a no-op event backbone. Domain services publish into
// the NoopPublisher, which logs at debug level and drops the event.
func InitEvents(_ context.Context, cfg *config.Config) (*EventComponents, error) {
	if cfg.Events.Enabled {
		logging.Warn().Msg("EVENTS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return &EventComponents{publisher: events.NewNoopPublisher()}, nil
}

// Publisher returns the no-op publisher. Never nil.
func (c *EventComponents) Publisher() events.Publisher {
	return c.publisher
}

// Subscriber returns nil; non-NATS builds have no consumer path.
func (c *EventComponents) Subscriber() *events.Subscriber {
	return nil
}

// Topic returns an empty topic for non-NATS builds.
func (c *EventComponents) Topic() string {
	return ""
}

// Shutdown is a no-op for non-NATS builds.
func (c *EventComponents) Shutdown(_ context.Context) {}
