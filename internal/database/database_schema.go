// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
database_schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management.

Tables:
  - users: platform accounts (local, Google, session-gateway provisioned)
  - videos: the 360° experience catalog
  - subscriptions: paid plan periods
  - payment_transactions: one row per provider checkout attempt
  - reservations: cabin session bookings with their payment-hold lifecycle
  - audit_events: append-only trail written by the audit package

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statements. After the
first public release, schema changes go through versioned migrations in
migrations.go instead.

Index Strategy:
Unique indexes that enforce integrity (one account per email, one
transaction per provider checkout session) are created together with the
tables. Query-performance indexes (catalog category filters, slot
conflict checks, hold-expiry sweeps) are created afterwards.

Timestamps are stored as plain TIMESTAMP holding UTC instants. TIMESTAMPTZ
needs the icu extension, which this schema deliberately avoids so startup
never depends on extension availability.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	queries := []string{
		// Users table
		// password_hash is NULL for accounts provisioned by Google or the
		// on-site session gateway; those providers reject password login.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL,
			password_hash TEXT,
			picture TEXT,
			provider TEXT NOT NULL DEFAULT 'local',
			plan TEXT NOT NULL DEFAULT 'basic',
			role TEXT NOT NULL DEFAULT 'user',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Videos table - the 360° experience catalog.
		// Media files live on an external CDN; only URLs are stored here.
		`CREATE TABLE IF NOT EXISTS videos (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			video_url TEXT NOT NULL,
			thumbnail_url TEXT,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			published BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Subscriptions table - one row per checkout attempt for a plan period.
		// starts_at/ends_at stay NULL until payment finalization activates the row.
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			plan_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'initiated',
			amount_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'usd',
			payment_provider TEXT,
			checkout_session_id TEXT,
			starts_at TIMESTAMP,
			ends_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Payment transactions table.
		// checkout_session_id is the provider-side identifier (Stripe session ID
		// or PayPal order ID); webhooks and status polls both locate the
		// transaction by it, so it carries a unique index.
		`CREATE TABLE IF NOT EXISTS payment_transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			provider TEXT NOT NULL,
			purpose TEXT NOT NULL,
			reference_id UUID NOT NULL,
			checkout_session_id TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'initiated',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Reservations table - cabin session bookings.
		// date ("2006-01-02") and start_time/end_time ("15:04") are stored as
		// text in the site timezone; slot arithmetic happens in the booking
		// package. hold_expires_at is set while status is pending_payment.
		`CREATE TABLE IF NOT EXISTS reservations (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			cabin INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending_payment',
			qr_code TEXT,
			amount_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'usd',
			hold_expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Audit events table - append-only trail of admin mutations, payment
		// finalizations, and auth failures. detail holds a JSON document as
		// text so reads never depend on the json extension.
		`CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			event_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			outcome TEXT NOT NULL,
			actor_id TEXT,
			actor_email TEXT,
			target_type TEXT,
			target_id TEXT,
			detail TEXT,
			ip_address TEXT
		);`,
	}

	// Integrity indexes: created with the tables so uniqueness holds from the
	// first insert, independent of createIndexes().
	queries = append(queries,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_checkout_session ON payment_transactions(checkout_session_id);`,
	)

	return queries
}

// createIndexes creates database indexes for query optimization
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := db.getIndexQueries()

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		// Catalog filters
		`CREATE INDEX IF NOT EXISTS idx_videos_category ON videos(category);`,

		// Slot conflict checks and per-user reservation lists
		`CREATE INDEX IF NOT EXISTS idx_reservations_slot ON reservations(date, start_time);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);`,

		// Hold-expiry worker sweep
		`CREATE INDEX IF NOT EXISTS idx_reservations_expiry ON reservations(status, hold_expires_at);`,

		// Subscription lookups and the period-expiry sweep
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status, ends_at);`,

		// Per-user payment history
		`CREATE INDEX IF NOT EXISTS idx_payments_user ON payment_transactions(user_id);`,

		// Audit trail browsing
		`CREATE INDEX IF NOT EXISTS idx_audit_events_occurred ON audit_events(occurred_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);`,
	}
}
