// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
reservation.go - Cabin Reservation Models

This file defines the reservation record for the on-site VR cabins and its
status lifecycle.

Lifecycle:

	pending_payment -> confirmed -> completed
	       |              |------> cancelled
	       |              '------> no_show
	       |-----> cancelled
	       '-----> expired   (hold lapsed unpaid)

A pending_payment reservation holds its slot only until HoldExpiresAt; the
expiry worker and the availability predicate both treat a lapsed hold as free.
Terminal states (completed, cancelled, expired, no_show) are immutable.
*/

package models

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reservation status constants.
const (
	// ReservationPendingPayment holds the slot until payment or hold expiry.
	ReservationPendingPayment = "pending_payment"

	// ReservationConfirmed means payment landed; the QR code is issued.
	ReservationConfirmed = "confirmed"

	// ReservationCompleted means the session took place. Terminal.
	ReservationCompleted = "completed"

	// ReservationCancelled means the visitor or staff cancelled. Terminal.
	ReservationCancelled = "cancelled"

	// ReservationExpired means the payment hold lapsed. Terminal.
	ReservationExpired = "expired"

	// ReservationNoShow means the visitor did not arrive. Terminal.
	ReservationNoShow = "no_show"
)

// ValidReservationStatuses contains all valid reservation statuses.
var ValidReservationStatuses = []string{
	ReservationPendingPayment,
	ReservationConfirmed,
	ReservationCompleted,
	ReservationCancelled,
	ReservationExpired,
	ReservationNoShow,
}

// IsValidReservationStatus checks if a reservation status is valid.
func IsValidReservationStatus(status string) bool {
	for _, s := range ValidReservationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// reservationTransitions maps each status to the statuses it may move to.
// Terminal statuses have no entries.
var reservationTransitions = map[string][]string{
	ReservationPendingPayment: {ReservationConfirmed, ReservationCancelled, ReservationExpired},
	ReservationConfirmed:      {ReservationCompleted, ReservationCancelled, ReservationNoShow},
}

// Reservation represents one cabin session booking.
//
// Date and times are stored as strings in the site timezone: Date as
// "2006-01-02", StartTime and EndTime as "15:04". Cabin numbering is
// 1-based. QRCode is empty until the reservation is confirmed.
type Reservation struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Cabin         int        `json:"cabin"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	QRCode        string     `json:"qr_code,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CanTransitionTo reports whether the reservation may move to the target status.
func (r *Reservation) CanTransitionTo(target string) bool {
	for _, s := range reservationTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the reservation reached a final status.
func (r *Reservation) IsTerminal() bool {
	return len(reservationTransitions[r.Status]) == 0 && IsValidReservationStatus(r.Status)
}

// HoldLapsed reports whether a pending_payment hold has expired at the given
// instant. Confirmed and terminal reservations never lapse.
func (r *Reservation) HoldLapsed(now time.Time) bool {
	if r.Status != ReservationPendingPayment {
		return false
	}
	if r.HoldExpiresAt == nil {
		return false
	}
	return now.After(*r.HoldExpiresAt)
}

// HoldsSlot reports whether the reservation occupies its (cabin, date, start)
// slot at the given instant. Confirmed reservations always hold their slot;
// pending_payment reservations hold it while the hold is live.
func (r *Reservation) HoldsSlot(now time.Time) bool {
	switch r.Status {
	case ReservationConfirmed:
		return true
	case ReservationPendingPayment:
		return !r.HoldLapsed(now)
	}
	return false
}

// NewQRCode derives the entry code for a confirmed reservation from its ID:
// "QR-" plus the first 8 hex characters of the UUID, uppercased.
func NewQRCode(id uuid.UUID) string {
	return "QR-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}
