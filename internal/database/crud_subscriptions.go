// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

// Subscription errors
var ErrSubscriptionNotFound = errors.New("subscription not found")

// CreateSubscription inserts a subscription row. Rows start in `initiated`
// alongside their payment transaction when checkout begins.
func (db *DB) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.UpdatedAt = sub.CreatedAt
	if sub.Status == "" {
		sub.Status = models.SubscriptionInitiated
	}

	query := `INSERT INTO subscriptions (
		id, user_id, plan_type, status, amount_cents, currency,
		payment_provider, checkout_session_id, starts_at, ends_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanType, sub.Status, sub.AmountCents, sub.Currency,
		nullString(sub.PaymentProvider), nullString(sub.CheckoutSessionID), sub.StartsAt, sub.EndsAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetSubscription retrieves a subscription by ID.
func (db *DB) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := subscriptionSelectColumns + ` FROM subscriptions WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanSubscriptionRow(row.Scan)
}

// GetActiveSubscription returns the user's current active subscription, or
// ErrSubscriptionNotFound when none is live at the given instant.
func (db *DB) GetActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	query := subscriptionSelectColumns + ` FROM subscriptions
	WHERE user_id = ? AND status = ? AND ends_at > ?
	ORDER BY ends_at DESC
	LIMIT 1`

	row := db.conn.QueryRowContext(ctx, query, userID, models.SubscriptionActive, now.UTC())
	return scanSubscriptionRow(row.Scan)
}

// ListSubscriptionsForUser retrieves all subscription rows of one user,
// newest first.
func (db *DB) ListSubscriptionsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	query := subscriptionSelectColumns + ` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListSubscriptions retrieves subscription rows for the admin view,
// newest first.
func (db *DB) ListSubscriptions(ctx context.Context, limit, offset int) ([]models.Subscription, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := subscriptionSelectColumns + ` FROM subscriptions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// CountSubscriptions returns the total number of subscription rows.
func (db *DB) CountSubscriptions(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

// ActivateSubscription moves an initiated subscription to active and stamps
// its paid period. Calling it again for an already-active row is a no-op, so
// payment finalization stays idempotent.
func (db *DB) ActivateSubscription(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error {
	query := `UPDATE subscriptions SET
		status = ?, starts_at = ?, ends_at = ?, updated_at = ?
	WHERE id = ? AND status = ?`

	result, err := db.conn.ExecContext(ctx, query,
		models.SubscriptionActive, startsAt.UTC(), endsAt.UTC(), time.Now().UTC(),
		id, models.SubscriptionInitiated,
	)
	if err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from one already past `initiated`.
		if _, getErr := db.GetSubscription(ctx, id); getErr != nil {
			return getErr
		}
		return nil
	}

	return nil
}

// UpdateSubscriptionStatus sets a subscription status directly. Used for
// cancellations and for marking checkout rows that never got paid.
func (db *DB) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// ExpireSubscriptions marks active subscriptions whose period ended as
// expired and returns the rows that actually transitioned, so the caller can
// downgrade the affected user plans. The per-row status guard keeps
// concurrent sweeps from reporting the same row twice.
func (db *DB) ExpireSubscriptions(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	query := subscriptionSelectColumns + ` FROM subscriptions
	WHERE status = ? AND ends_at IS NOT NULL AND ends_at <= ?
	ORDER BY ends_at, id`

	rows, err := db.conn.QueryContext(ctx, query, models.SubscriptionActive, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring subscriptions: %w", err)
	}

	candidates, err := collectSubscriptions(rows)
	closeQuietly(rows)
	if err != nil {
		return nil, err
	}

	expired := make([]models.Subscription, 0, len(candidates))
	for _, sub := range candidates {
		result, err := db.conn.ExecContext(ctx,
			`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			models.SubscriptionExpired, now.UTC(), sub.ID, models.SubscriptionActive,
		)
		if err != nil {
			return expired, fmt.Errorf("failed to expire subscription %s: %w", sub.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return expired, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			sub.Status = models.SubscriptionExpired
			expired = append(expired, sub)
		}
	}

	return expired, nil
}

// subscriptionSelectColumns is the shared column list for subscription scans.
const subscriptionSelectColumns = `SELECT
	id, user_id, plan_type, status, amount_cents, currency,
	payment_provider, checkout_session_id, starts_at, ends_at, created_at, updated_at`

func scanSubscriptionRow(scan func(dest ...any) error) (*models.Subscription, error) {
	var sub models.Subscription
	var provider, checkoutSessionID sql.NullString
	var startsAt, endsAt sql.NullTime

	err := scan(
		&sub.ID, &sub.UserID, &sub.PlanType, &sub.Status, &sub.AmountCents, &sub.Currency,
		&provider, &checkoutSessionID, &startsAt, &endsAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	if provider.Valid {
		sub.PaymentProvider = provider.String
	}
	if checkoutSessionID.Valid {
		sub.CheckoutSessionID = checkoutSessionID.String
	}
	if startsAt.Valid {
		sub.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		sub.EndsAt = &endsAt.Time
	}

	return &sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]models.Subscription, error) {
	subs := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscriptionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}
