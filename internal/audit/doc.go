// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package audit provides the append-only trail of privileged actions.
//
// Every admin mutation (role changes, catalog writes, staff reservation
// transitions), every payment finalization, and every rejected credential
// produces one Event row in the audit_events table. The trail answers
// "who changed what, when, from where" after the fact; operational logging
// stays in internal/logging.
//
// # Event Types
//
// Authentication:
//   - auth.failure: rejected logins and webhook signature failures
//
// Administration:
//   - user.role_assigned: role changes via the admin API
//   - video.created, video.updated, video.deleted: catalog writes
//   - reservation.status_changed: staff/admin reservation transitions
//
// Payments:
//   - payment.finalized: a transaction reaching paid, failed, or expired
//
// # Architecture
//
// The logger uses a producer-consumer pattern:
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> Store
//	                     |                      |
//	                 Non-blocking           Background goroutine
//
// Log never blocks a request handler. A full buffer drops the event with a
// warning; Close drains whatever is buffered before returning.
//
// # Usage Example
//
//	store := audit.NewDuckDBStore(db.Conn())
//	logger := audit.NewLogger(store, audit.DefaultConfig())
//	defer logger.Close()
//
//	actor := audit.Actor{ID: subject.ID, Email: subject.Email, IP: audit.ClientIP(r)}
//	logger.RoleAssigned(ctx, actor, targetID, "user", "staff")
//
// Querying the trail:
//
//	events, err := logger.Query(ctx, audit.QueryFilter{
//	    Types:     []audit.EventType{audit.EventTypePaymentFinalized},
//	    StartTime: &since,
//	    Limit:     100,
//	    OrderDesc: true,
//	})
//
// # Retention
//
// RunCleanup deletes events older than RetentionDays at CleanupInterval;
// it runs as a supervised service, not a self-started goroutine.
//
// # See Also
//
//   - internal/database: creates the audit_events table
//   - internal/api: admin handlers that record these events
package audit
