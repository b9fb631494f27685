// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nazca360/nazca360/internal/models"
)

// GetAdminMetrics computes the back-office dashboard numbers in one pass.
// Revenue sums paid transactions only.
func (db *DB) GetAdminMetrics(ctx context.Context) (*models.AdminMetrics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	metrics := &models.AdminMetrics{
		ReservationsByStatus: make(map[string]int),
		RevenueByPurpose:     make(map[string]int64),
	}

	userTotals := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE is_verified),
		COUNT(*) FILTER (WHERE plan = ?)
	FROM users`
	err := db.conn.QueryRowContext(ctx, userTotals, models.PlanPremium).
		Scan(&metrics.TotalUsers, &metrics.VerifiedUsers, &metrics.PremiumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate users: %w", err)
	}

	activeSubs := `SELECT COUNT(*) FROM subscriptions WHERE status = ? AND ends_at > ?`
	err = db.conn.QueryRowContext(ctx, activeSubs, models.SubscriptionActive, time.Now().UTC()).
		Scan(&metrics.ActiveSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to count active subscriptions: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reservations: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("failed to scan reservation count: %w", err)
		}
		metrics.ReservationsByStatus[status] = count
		metrics.TotalReservations += count
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, fmt.Errorf("error iterating reservation counts: %w", err)
	}
	closeQuietly(rows)

	if metrics.TotalVideos, err = db.CountVideos(ctx); err != nil {
		return nil, err
	}

	revenueRows, err := db.conn.QueryContext(ctx,
		`SELECT purpose, SUM(amount_cents) FROM payment_transactions WHERE status = ? GROUP BY purpose`,
		models.PaymentPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	for revenueRows.Next() {
		var purpose string
		var cents int64
		if err := revenueRows.Scan(&purpose, &cents); err != nil {
			closeQuietly(revenueRows)
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		metrics.RevenueByPurpose[purpose] = cents
		metrics.TotalRevenueCents += cents
	}
	if err := revenueRows.Err(); err != nil {
		closeQuietly(revenueRows)
		return nil, fmt.Errorf("error iterating revenue: %w", err)
	}
	closeQuietly(revenueRows)

	return metrics, nil
}
