// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package events

import (
	"time"

	"github.com/nazca360/nazca360/internal/config"
)

// Options holds the resolved NATS JetStream settings shared by the
// publisher, subscriber, stream manager, and embedded server.
type Options struct {
	// URL is the NATS server connection URL. Ignored when Embedded is set:
	// the embedded server's client URL is used instead.
	URL      string
	Embedded bool
	StoreDir string

	// StreamName is the JetStream stream holding all domain events.
	StreamName string
	// SubjectPrefix roots every subject; the stream captures
	// "<SubjectPrefix>.>".
	SubjectPrefix string

	MaxMemory int64
	MaxStore  int64
	MaxAge    time.Duration
	// DuplicateWindow is the JetStream deduplication window for
	// Nats-Msg-Id based exactly-once publishing.
	DuplicateWindow time.Duration

	// Connection resilience.
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int

	// Consumer settings.
	SubscribersCount int
	QueueGroup       string
	DurableName      string
	MaxDeliver       int
	MaxAckPending    int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
}

// DefaultOptions returns options suitable for a single-instance deployment
// with an embedded server.
func DefaultOptions() Options {
	return Options{
		URL:              "nats://127.0.0.1:4222",
		Embedded:         true,
		StoreDir:         "./data/nats",
		StreamName:       "NAZCA_EVENTS",
		SubjectPrefix:    "nazca",
		MaxMemory:        256 * 1024 * 1024,
		MaxStore:         1024 * 1024 * 1024,
		MaxAge:           7 * 24 * time.Hour,
		DuplicateWindow:  2 * time.Minute,
		MaxReconnects:    -1, // Retry forever
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		SubscribersCount: 2,
		QueueGroup:       "nazca-workers",
		DurableName:      "nazca-notifications",
		MaxDeliver:       5,
		MaxAckPending:    256,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
	}
}

// OptionsFromConfig layers the application configuration over the defaults.
func OptionsFromConfig(cfg config.EventsConfig) Options {
	opts := DefaultOptions()
	if cfg.URL != "" {
		opts.URL = cfg.URL
	}
	opts.Embedded = cfg.Embedded
	if cfg.StoreDir != "" {
		opts.StoreDir = cfg.StoreDir
	}
	if cfg.StreamName != "" {
		opts.StreamName = cfg.StreamName
	}
	if cfg.SubjectPrefix != "" {
		opts.SubjectPrefix = cfg.SubjectPrefix
	}
	if cfg.MaxMemory > 0 {
		opts.MaxMemory = cfg.MaxMemory
	}
	if cfg.MaxStore > 0 {
		opts.MaxStore = cfg.MaxStore
	}
	if cfg.Subscribers > 0 {
		opts.SubscribersCount = cfg.Subscribers
	}
	return opts
}

// Subjects returns the stream subject filters.
func (o Options) Subjects() []string {
	return []string{o.SubjectPrefix + ".>"}
}
