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

// Payment errors
var (
	ErrPaymentNotFound       = errors.New("payment transaction not found")
	ErrCheckoutSessionExists = errors.New("a transaction for this checkout session already exists")
)

// CreatePaymentTransaction records a new checkout attempt. The unique index
// on checkout_session_id guarantees at most one transaction per provider
// session.
func (db *DB) CreatePaymentTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	txn.UpdatedAt = txn.CreatedAt
	if txn.Status == "" {
		txn.Status = models.PaymentInitiated
	}

	query := `INSERT INTO payment_transactions (
		id, user_id, provider, purpose, reference_id, checkout_session_id,
		amount_cents, currency, status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Provider, txn.Purpose, txn.ReferenceID, txn.CheckoutSessionID,
		txn.AmountCents, txn.Currency, txn.Status, txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCheckoutSessionExists
		}
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// GetPayment retrieves a payment transaction by ID.
func (db *DB) GetPayment(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	query := paymentSelectColumns + ` FROM payment_transactions WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanPaymentRow(row.Scan)
}

// GetPaymentByCheckoutSession retrieves a payment transaction by its
// provider-side session identifier. Webhooks and the status-poll path both
// locate the transaction this way.
func (db *DB) GetPaymentByCheckoutSession(ctx context.Context, checkoutSessionID string) (*models.PaymentTransaction, error) {
	query := paymentSelectColumns + ` FROM payment_transactions WHERE checkout_session_id = ?`

	row := db.conn.QueryRowContext(ctx, query, checkoutSessionID)
	return scanPaymentRow(row.Scan)
}

// TransitionPaymentStatus moves a payment transaction to a new status and
// reports whether this call performed the transition. Terminal rows are never
// modified, so when a webhook delivery and a status poll race, exactly one
// caller sees won=true and runs the side effects; the other sees a no-op.
func (db *DB) TransitionPaymentStatus(ctx context.Context, id uuid.UUID, status string) (won bool, err error) {
	query := `UPDATE payment_transactions SET status = ?, updated_at = ?
	WHERE id = ? AND status NOT IN (?, ?, ?)`

	result, err := db.conn.ExecContext(ctx, query,
		status, time.Now().UTC(),
		id, models.PaymentPaid, models.PaymentFailed, models.PaymentExpired,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the row is missing or it already reached a terminal status.
		if _, getErr := db.GetPayment(ctx, id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}

	return true, nil
}

// ListPaymentsForUser retrieves a user's payment history, newest first.
func (db *DB) ListPaymentsForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error) {
	query := paymentSelectColumns + ` FROM payment_transactions WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]models.PaymentTransaction, 0)
	for rows.Next() {
		txn, err := scanPaymentRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		txns = append(txns, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment transactions: %w", err)
	}

	return txns, nil
}

// paymentSelectColumns is the shared column list for payment scans.
const paymentSelectColumns = `SELECT
	id, user_id, provider, purpose, reference_id, checkout_session_id,
	amount_cents, currency, status, created_at, updated_at`

func scanPaymentRow(scan func(dest ...any) error) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction

	err := scan(
		&txn.ID, &txn.UserID, &txn.Provider, &txn.Purpose, &txn.ReferenceID, &txn.CheckoutSessionID,
		&txn.AmountCents, &txn.Currency, &txn.Status, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
	}

	return &txn, nil
}
