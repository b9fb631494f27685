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

// Subscriber is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable JetStream consumption.
type Subscriber struct{}

// NewSubscriber returns an error when NATS dependencies are not compiled
// in. Build with -tags=nats to enable JetStream consumption.
func NewSubscriber(opts Options, logger interface{}) (*Subscriber, error) {
	return nil, fmt.Errorf("NATS subscriber not available: build with -tags=nats")
}

// Run is a stub that returns an error.
func (s *Subscriber) Run(ctx context.Context, topic string, handler EventHandler) error {
	return fmt.Errorf("NATS subscriber not available: build with -tags=nats")
}

// Close is a no-op stub.
func (s *Subscriber) Close() error {
	return nil
}
