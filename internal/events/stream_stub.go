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

// StreamManager is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable JetStream stream management.
type StreamManager struct{}

// NewStreamManager returns an error when NATS dependencies are not
// compiled in. Build with -tags=nats to enable stream management.
func NewStreamManager(nc interface{}, opts Options) (*StreamManager, error) {
	return nil, fmt.Errorf("NATS stream manager not available: build with -tags=nats")
}

// EnsureStream is a stub that returns an error.
func (m *StreamManager) EnsureStream(ctx context.Context) (interface{}, error) {
	return nil, fmt.Errorf("NATS stream manager not available: build with -tags=nats")
}
