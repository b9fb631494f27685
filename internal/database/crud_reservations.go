// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
crud_reservations.go - Reservation Persistence

A slot is the triple (cabin, date, start_time). A reservation occupies its
slot while it is confirmed, or while it is pending_payment with a live hold
(hold_expires_at in the future). Everything here that answers "is this slot
free" uses that single predicate, so the availability grid, the conflict
check at insert, and the expiry sweep can never disagree.

InsertReservation re-runs the conflict check inside its insert transaction.
The booking service additionally serializes Reserve calls, so the check-then-
insert window is closed in-process; the in-transaction re-check keeps the
invariant even if a second writer ever appears.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
	"github.com/nazca360/nazca360/internal/models"
)

// Reservation errors
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrSlotTaken           = errors.New("the requested slot is already taken")
	ErrReservationConflict = errors.New("reservation was modified concurrently")
)

// activeHoldPredicate matches rows that currently occupy their slot.
// Bind order: confirmed status, pending status, now.
const activeHoldPredicate = `(status = ? OR (status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at > ?))`

// CountActiveReservations counts reservations occupying the given
// (cabin, date, start) slot at the given instant. Zero means the slot is
// free. This is the availability hot path, so it goes through the prepared
// statement cache.
func (db *DB) CountActiveReservations(ctx context.Context, cabin int, date, startTime string, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM reservations
	WHERE cabin = ? AND date = ? AND start_time = ? AND ` + activeHoldPredicate

	stmt, err := db.stmt(ctx, query)
	if err != nil {
		return 0, err
	}

	var count int
	start := time.Now()
	err = stmt.QueryRowContext(ctx, cabin, date, startTime,
		models.ReservationConfirmed, models.ReservationPendingPayment, now.UTC()).Scan(&count)
	metrics.RecordDBQuery("select", "reservations", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count active reservations: %w", err)
	}
	return count, nil
}

// TakenCabins returns the cabins occupied for (date, start) at the given
// instant, in ascending order. The booking service assigns the lowest free
// cabin from this.
func (db *DB) TakenCabins(ctx context.Context, date, startTime string, now time.Time) ([]int, error) {
	query := `SELECT DISTINCT cabin FROM reservations
	WHERE date = ? AND start_time = ? AND ` + activeHoldPredicate + `
	ORDER BY cabin`

	rows, err := db.conn.QueryContext(ctx, query, date, startTime,
		models.ReservationConfirmed, models.ReservationPendingPayment, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query taken cabins: %w", err)
	}
	defer rows.Close()

	cabins := make([]int, 0)
	for rows.Next() {
		var cabin int
		if err := rows.Scan(&cabin); err != nil {
			return nil, fmt.Errorf("failed to scan cabin: %w", err)
		}
		cabins = append(cabins, cabin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taken cabins: %w", err)
	}

	return cabins, nil
}

// SlotOccupancy returns a start_time -> occupied-cabin-list map for one
// date, in a single query. The availability endpoint builds its grid from
// this.
func (db *DB) SlotOccupancy(ctx context.Context, date string, now time.Time) (map[string][]int, error) {
	query := `SELECT start_time, cabin FROM reservations
	WHERE date = ? AND ` + activeHoldPredicate + `
	ORDER BY start_time, cabin`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, date,
		models.ReservationConfirmed, models.ReservationPendingPayment, now.UTC())
	metrics.RecordDBQuery("select", "reservations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot occupancy: %w", err)
	}
	defer rows.Close()

	occupancy := make(map[string][]int)
	for rows.Next() {
		var startTime string
		var cabin int
		if err := rows.Scan(&startTime, &cabin); err != nil {
			return nil, fmt.Errorf("failed to scan slot occupancy: %w", err)
		}
		occupancy[startTime] = append(occupancy[startTime], cabin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot occupancy: %w", err)
	}

	return occupancy, nil
}

// InsertReservation inserts a reservation after re-checking the slot inside
// the insert transaction. Returns ErrSlotTaken when another reservation
// occupies the (cabin, date, start) slot at the given instant.
func (db *DB) InsertReservation(ctx context.Context, res *models.Reservation, now time.Time) (err error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now.UTC()
	}
	res.UpdatedAt = res.CreatedAt
	if res.Status == "" {
		res.Status = models.ReservationPendingPayment
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Reservation insert rollback failed")
			}
		}
	}()

	countQuery := `SELECT COUNT(*) FROM reservations
	WHERE cabin = ? AND date = ? AND start_time = ? AND ` + activeHoldPredicate

	var count int
	err = tx.QueryRowContext(ctx, countQuery, res.Cabin, res.Date, res.StartTime,
		models.ReservationConfirmed, models.ReservationPendingPayment, now.UTC()).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to re-check slot: %w", err)
	}
	if count > 0 {
		err = ErrSlotTaken
		return err
	}

	insertQuery := `INSERT INTO reservations (
		id, user_id, cabin, date, start_time, end_time, status,
		qr_code, amount_cents, currency, hold_expires_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = tx.ExecContext(ctx, insertQuery,
		res.ID, res.UserID, res.Cabin, res.Date, res.StartTime, res.EndTime, res.Status,
		nullString(res.QRCode), res.AmountCents, res.Currency, res.HoldExpiresAt, res.CreatedAt, res.UpdatedAt,
	)
	metrics.RecordDBQuery("insert", "reservations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	return nil
}

// GetReservation retrieves a reservation by ID.
func (db *DB) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := reservationSelectColumns + ` FROM reservations WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanReservationRow(row.Scan)
}

// ConfirmReservation moves a pending_payment reservation to confirmed,
// stores its QR code, and clears the hold. Reports whether this call
// performed the transition; a reservation no longer pending (already
// confirmed, cancelled, or expired) is left untouched.
func (db *DB) ConfirmReservation(ctx context.Context, id uuid.UUID, qrCode string) (won bool, err error) {
	query := `UPDATE reservations SET
		status = ?, qr_code = ?, hold_expires_at = NULL, updated_at = ?
	WHERE id = ? AND status = ?`

	result, err := db.conn.ExecContext(ctx, query,
		models.ReservationConfirmed, qrCode, time.Now().UTC(),
		id, models.ReservationPendingPayment,
	)
	if err != nil {
		return false, fmt.Errorf("failed to confirm reservation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := db.GetReservation(ctx, id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}

	return true, nil
}

// UpdateReservationStatus transitions a reservation from one status to
// another. The from-status guard turns lost races into
// ErrReservationConflict instead of silently overwriting; callers validate
// the transition against the lifecycle first.
func (db *DB) UpdateReservationStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := db.conn.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := db.GetReservation(ctx, id); getErr != nil {
			return getErr
		}
		return ErrReservationConflict
	}

	return nil
}

// ListReservationsForUser retrieves one user's reservations, most recent
// session first.
func (db *DB) ListReservationsForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	query := reservationSelectColumns + ` FROM reservations
	WHERE user_id = ?
	ORDER BY date DESC, start_time DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListReservations retrieves reservations for the admin view, optionally
// filtered by date and status, most recent session first.
func (db *DB) ListReservations(ctx context.Context, date, status string, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := reservationSelectColumns + ` FROM reservations WHERE 1=1`

	args := []any{}
	if date != "" {
		query += " AND date = ?"
		args = append(args, date)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY date DESC, start_time DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// CountReservations returns the number of reservations matching the
// optional date and status filters.
func (db *DB) CountReservations(ctx context.Context, date, status string) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE 1=1`

	args := []any{}
	if date != "" {
		query += " AND date = ?"
		args = append(args, date)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	var count int
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

// ExpireLapsedReservations marks pending_payment reservations whose hold
// lapsed as expired and returns the rows that actually transitioned, so the
// caller can free slots in the availability feed and notify. The per-row
// status guard means a reservation confirmed between the select and the
// update is left alone.
func (db *DB) ExpireLapsedReservations(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	query := reservationSelectColumns + ` FROM reservations
	WHERE status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?
	ORDER BY hold_expires_at, id`

	rows, err := db.conn.QueryContext(ctx, query, models.ReservationPendingPayment, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query lapsed reservations: %w", err)
	}

	candidates, err := collectReservations(rows)
	closeQuietly(rows)
	if err != nil {
		return nil, err
	}

	expired := make([]models.Reservation, 0, len(candidates))
	for _, res := range candidates {
		result, err := db.conn.ExecContext(ctx,
			`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			models.ReservationExpired, now.UTC(), res.ID, models.ReservationPendingPayment,
		)
		if err != nil {
			return expired, fmt.Errorf("failed to expire reservation %s: %w", res.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return expired, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			res.Status = models.ReservationExpired
			expired = append(expired, res)
		}
	}

	return expired, nil
}

// reservationSelectColumns is the shared column list for reservation scans.
const reservationSelectColumns = `SELECT
	id, user_id, cabin, date, start_time, end_time, status,
	qr_code, amount_cents, currency, hold_expires_at, created_at, updated_at`

func scanReservationRow(scan func(dest ...any) error) (*models.Reservation, error) {
	var res models.Reservation
	var qrCode sql.NullString
	var holdExpiresAt sql.NullTime

	err := scan(
		&res.ID, &res.UserID, &res.Cabin, &res.Date, &res.StartTime, &res.EndTime, &res.Status,
		&qrCode, &res.AmountCents, &res.Currency, &holdExpiresAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}

	if qrCode.Valid {
		res.QRCode = qrCode.String
	}
	if holdExpiresAt.Valid {
		res.HoldExpiresAt = &holdExpiresAt.Time
	}

	return &res, nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		res, err := scanReservationRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	return reservations, nil
}
