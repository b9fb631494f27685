// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build !nats

package events

import (
	"context"
	"fmt"
)

// NATSPublisher is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable JetStream publishing.
type NATSPublisher struct{}

// NewNATSPublisher returns an error when NATS dependencies are not
// compiled in. Build with -tags=nats to enable JetStream publishing.
func NewNATSPublisher(opts Options, logger interface{}) (*NATSPublisher, error) {
	return nil, fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// PublishEvent is a stub that returns an error.
func (p *NATSPublisher) PublishEvent(ctx context.Context, event *Event) error {
	return fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// Close is a no-op stub.
func (p *NATSPublisher) Close() error {
	return nil
}
