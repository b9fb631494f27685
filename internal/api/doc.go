// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package api provides the HTTP surface of the Nazca360 platform.
//
// Routing uses Chi with per-group middleware stacks (rate limits tuned per
// endpoint class, security headers, Prometheus instrumentation, JWT/session
// authentication). Handlers are split by concern:
//
//   - handlers.go: Handler struct, constructor, service banner, WebSocket upgrade
//   - handlers_auth.go: registration, login, email verification, password
//     reset, Google sign-in, cabin gateway session exchange
//   - handlers_videos.go: public 360° catalog with premium gating
//   - handlers_subscriptions.go: plan checkout and payment status polling
//   - handlers_reservations.go: availability grid, cabin booking, QR tickets
//   - handlers_webhooks.go: Stripe and PayPal webhook ingestion
//   - handlers_admin.go: back-office users/roles/videos/metrics
//   - handlers_health.go: liveness, readiness and component health
//
// All JSON endpoints share the models.APIResponse envelope; errors carry a
// stable machine-readable code alongside the human message.
package api
