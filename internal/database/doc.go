// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package database provides the data layer between Nazca360 and DuckDB.
//
// # Overview
//
// All persistence for accounts, the 360° catalog, subscriptions, payment
// transactions, cabin reservations, and the audit trail goes through this
// package. It owns the schema, versioned migrations, and every SQL query;
// the rest of the application works with models and errors, never SQL.
//
// # Architecture
//
// The package is organized into a small set of files:
//
// Core lifecycle:
//   - database.go: connection, pool configuration, prepared statement cache
//   - database_schema.go: table and index creation (single source of truth)
//   - migrations.go: versioned post-release migrations (schema_migrations)
//   - database_utils.go: checkpointing, context helpers, record counts
//   - errors.go: close helpers and error classification
//
// Per-entity CRUD:
//   - crud_users.go, crud_videos.go, crud_subscriptions.go,
//     crud_payments.go, crud_reservations.go
//   - crud_stats.go: admin dashboard aggregates
//   - seed.go: first-start catalog seeding
//
// # Database Technology
//
// DuckDB via the CGO driver (github.com/duckdb/duckdb-go/v2). The database
// is embedded, which fits a single-process deployment at the visitor center:
// no external database service, one file on disk, WAL checkpointed on close.
// The schema sticks to core types (no extensions), so startup never depends
// on extension downloads.
//
// # Concurrency Model
//
// Exported methods are safe for concurrent use. Three primitives carry the
// correctness-critical races:
//
//   - InsertReservation re-checks slot occupancy inside its transaction, so
//     a slot can never be double-booked past the availability read.
//   - TransitionPaymentStatus only moves non-terminal rows and reports
//     whether the caller won the transition, which makes duplicate webhook
//     deliveries and webhook/poll races no-ops.
//   - The expiry sweeps (reservations, subscriptions) guard every row
//     update with its expected status, so a row that changed underneath is
//     left alone rather than overwritten.
//
// # Error Handling
//
// Missing rows map to per-entity sentinel errors (ErrUserNotFound,
// ErrReservationNotFound, ...) that callers test with errors.Is. Unique
// constraint violations map to domain errors (ErrEmailTaken,
// ErrCheckoutSessionExists, ErrSlotTaken). Everything else is wrapped with
// fmt.Errorf("%w") and propagated.
//
// # See Also
//
//   - internal/models: the structs these methods read and write
//   - internal/booking: slot grid arithmetic on top of the reservation CRUD
//   - internal/audit: persists its own table via Conn()
package database
