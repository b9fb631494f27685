// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package main is the entry point for the Nazca360 server application.

Nazca360 powers a VR sightseeing center in Nasca, Peru. Visitors stream
360° flight-over videos of the Nasca Lines, subscribe for premium
content, and reserve on-site VR cabins in 20-minute slots.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("nazca360")
	├── JobsSupervisor ("jobs-layer")
	│   ├── hold-sweeper (expires unpaid reservation holds)
	│   ├── subscription-sweeper (lapses ended subscriptions)
	│   ├── session-cleanup (evicts expired sessions)
	│   ├── audit-cleanup (audit retention policy)
	│   └── slow-request-report (periodic latency report)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── availability-hub (WebSocket broadcasts)
	│   └── event-consumer (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API + WebSocket upgrade)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with the catalog seeded on first run
 4. Sessions: Badger-backed (or in-memory) session and OAuth state stores
 5. Authentication: JWT, email tokens, Google OAuth, session gateway
 6. Authorization: Casbin RBAC with startup admin bootstrap
 7. Events: NATS JetStream backbone (optional, -tags nats)
 8. Domain services: booking, payments, transactional mail, audit trail
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	PORT=8360                    # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Security
	JWT_SECRET=<32+ chars>       # Required
	ADMIN_EMAILS=a@b.pe,c@d.pe   # Promoted to admin at startup

	# Sessions
	SESSION_STORE=badger         # badger or memory
	SESSION_STORE_PATH=./data/sessions

	# Payments (optional)
	PAYMENTS_ENABLED=true
	STRIPE_ENABLED=true
	STRIPE_SECRET_KEY=sk_live_...
	STRIPE_WEBHOOK_SECRET=whsec_...
	PAYPAL_ENABLED=true
	PAYPAL_CLIENT_ID=...
	PAYPAL_CLIENT_SECRET=...

	# Google sign-in (optional)
	GOOGLE_OAUTH_ENABLED=true
	GOOGLE_CLIENT_ID=...
	GOOGLE_CLIENT_SECRET=...

	# Transactional email (optional)
	EMAIL_ENABLED=true
	SMTP_HOST=smtp.example.pe
	SMTP_USERNAME=...
	SMTP_PASSWORD=...

See .env.example for the complete configuration reference.

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server               # Standard build
	go build -tags nats ./cmd/server    # Enable NATS JetStream events

The nats tag adds the embedded JetStream broker, the domain event
publisher, and the notification consumer that sends transactional email
off the event stream. Without it, events are dropped by a no-op
publisher.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (10s timeout)
 3. Stops sweepers, the availability hub, and the event consumer
 4. Closes the event backbone, audit logger, and session stores
 5. Flushes pending writes and closes the database
 6. Reports any services that failed to stop

# API Documentation

Swagger documentation is available at /swagger/index.html when the
server is running. The API is organized into categories:

  - Auth: registration, login, email verification, password reset
  - Videos: the 360° catalog with premium gating
  - Subscriptions: plans, checkout, billing history
  - Reservations: availability, holds, confirmation, QR check-in
  - Webhooks: signed Stripe and PayPal callbacks
  - Admin: catalog, reservations, users, audit trail
  - Realtime: the /ws/availability WebSocket

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/booking: Cabin reservation scheduler
  - internal/payments: Stripe and PayPal processing
*/
package main
