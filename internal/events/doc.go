// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package events publishes and consumes domain events over NATS
// JetStream using Watermill.
//
// # Event Flow
//
//	registration / payments / booking
//	        │ PublishEvent
//	        ▼
//	NATSPublisher ──► JetStream stream (subjects "<prefix>.>")
//	        ▲                 │
//	  circuit breaker         ▼
//	                    Subscriber (durable, queue group)
//	                          │
//	                          ▼
//	                 NotificationConsumer ──► mail.Sender
//
// Events carry their recipient details in the payload, so consumers never
// read the database. The event ID is used as the Nats-Msg-Id, letting
// JetStream deduplicate retried publishes within the stream's duplicate
// window.
//
// # Build Tags
//
// NATS support is compiled in with -tags=nats. Without the tag, the
// publisher, subscriber, stream manager, and embedded server are stubs
// that return errors, and deployments fall back to NewNoopPublisher.
// The embedded server keeps single-instance deployments self-contained;
// set events.embedded=false to connect to an external broker instead.
package events
