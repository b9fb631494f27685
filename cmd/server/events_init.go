// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build nats

package main

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
)

// EventComponents bundles the JetStream pieces main wires together:
// the optional embedded broker, the stream, the publisher handed to the
// domain services, and the subscriber feeding the notification consumer.
type EventComponents struct {
	server     *events.EmbeddedServer
	conn       *natsgo.Conn
	publisher  events.Publisher
	subscriber *events.Subscriber
	topic      string
}

// InitEvents brings up the event backbone when EVENTS_ENABLED=true.
// Disabled deployments get a NoopPublisher so the domain services never
// branch on event availability.
func InitEvents(ctx context.Context, cfg *config.Config) (*EventComponents, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Domain events disabled (EVENTS_ENABLED=false)")
		return &EventComponents{publisher: events.NewNoopPublisher()}, nil
	}

	opts := events.OptionsFromConfig(cfg.Events)
	components := &EventComponents{topic: opts.SubjectPrefix + ".>"}

	if opts.Embedded {
		server, err := events.NewEmbeddedServer(opts)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		opts.URL = server.ClientURL()
		logging.Info().Str("url", opts.URL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", opts.URL).Msg("Using external NATS server")
	}

	// The stream must exist before the publisher's first write: the
	// publisher binds with AutoProvision disabled.
	nc, err := natsgo.Connect(opts.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(opts.MaxReconnects),
		natsgo.ReconnectWait(opts.ReconnectWait),
	)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.conn = nc

	stream, err := events.NewStreamManager(nc, opts)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("create stream manager: %w", err)
	}
	if _, err := stream.EnsureStream(ctx); err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("ensure event stream: %w", err)
	}

	publisher, err := events.NewNATSPublisher(opts, nil)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	components.publisher = publisher

	subscriber, err := events.NewSubscriber(opts, nil)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("create event subscriber: %w", err)
	}
	components.subscriber = subscriber

	logging.Info().
		Str("stream", opts.StreamName).
		Str("subjects", components.topic).
		Msg("Event backbone initialized")
	return components, nil
}

// Publisher returns the domain event publisher. Never nil.
func (c *EventComponents) Publisher() events.Publisher {
	return c.publisher
}

// Subscriber returns the JetStream subscriber, or nil when events are
// disabled.
func (c *EventComponents) Subscriber() *events.Subscriber {
	return c.subscriber
}

// Topic returns the wildcard subject the notification consumer reads.
func (c *EventComponents) Topic() string {
	return c.topic
}

// Shutdown tears the event backbone down in reverse dependency order.
func (c *EventComponents) Shutdown(ctx context.Context) {
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event subscriber")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event publisher")
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error stopping embedded NATS server")
		}
	}
}
