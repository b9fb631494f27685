// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"testing"
	"time"

	"github.com/nazca360/nazca360/internal/models"
)

func TestGetAdminMetrics(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	// Two accounts, one upgraded and verified.
	basic := createTestUser(t, db, "metrics-basic@example.com")
	premium := createTestUser(t, db, "metrics-premium@example.com")
	if err := db.UpdateUserPlan(ctx, premium.ID, models.PlanPremium); err != nil {
		t.Fatalf("Failed to upgrade user: %v", err)
	}
	if err := db.MarkUserVerified(ctx, premium.ID); err != nil {
		t.Fatalf("Failed to verify user: %v", err)
	}

	// One live subscription and one checkout that never completed.
	active := newTestSubscription(premium.ID, "cs_metrics_active")
	stale := newTestSubscription(basic.ID, "cs_metrics_stale")
	for _, sub := range []*models.Subscription{active, stale} {
		if err := db.CreateSubscription(ctx, sub); err != nil {
			t.Fatalf("Failed to create subscription: %v", err)
		}
	}
	if err := db.ActivateSubscription(ctx, active.ID, now.AddDate(0, 0, -1), now.AddDate(0, 0, 29)); err != nil {
		t.Fatalf("Failed to activate subscription: %v", err)
	}

	// One confirmed and two pending reservations.
	confirmed := pendingReservation(premium.ID, 1, "2026-10-01", "09:00", "09:20", now)
	pendingA := pendingReservation(basic.ID, 2, "2026-10-01", "09:00", "09:20", now)
	pendingB := pendingReservation(basic.ID, 1, "2026-10-01", "09:20", "09:40", now)
	for _, res := range []*models.Reservation{confirmed, pendingA, pendingB} {
		if err := db.InsertReservation(ctx, res, now); err != nil {
			t.Fatalf("Failed to insert reservation: %v", err)
		}
	}
	if _, err := db.ConfirmReservation(ctx, confirmed.ID, models.NewQRCode(confirmed.ID)); err != nil {
		t.Fatalf("Failed to confirm reservation: %v", err)
	}

	if err := db.SeedCatalog(ctx); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	// Revenue: one paid subscription, one paid reservation, one initiated
	// checkout that must not count.
	paidSub := newTestPayment(premium.ID, "cs_metrics_pay1")
	paidRes := newTestPayment(basic.ID, "cs_metrics_pay2")
	paidRes.Purpose = models.PurposeReservation
	paidRes.AmountCents = 1500
	open := newTestPayment(basic.ID, "cs_metrics_pay3")
	open.AmountCents = 9999
	for _, txn := range []*models.PaymentTransaction{paidSub, paidRes, open} {
		if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
			t.Fatalf("Failed to create payment: %v", err)
		}
	}
	for _, txn := range []*models.PaymentTransaction{paidSub, paidRes} {
		if _, err := db.TransitionPaymentStatus(ctx, txn.ID, models.PaymentPaid); err != nil {
			t.Fatalf("Failed to mark payment paid: %v", err)
		}
	}

	metrics, err := db.GetAdminMetrics(ctx)
	if err != nil {
		t.Fatalf("GetAdminMetrics() error = %v", err)
	}

	if metrics.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", metrics.TotalUsers)
	}
	if metrics.VerifiedUsers != 1 {
		t.Errorf("VerifiedUsers = %d, want 1", metrics.VerifiedUsers)
	}
	if metrics.PremiumUsers != 1 {
		t.Errorf("PremiumUsers = %d, want 1", metrics.PremiumUsers)
	}
	if metrics.ActiveSubscriptions != 1 {
		t.Errorf("ActiveSubscriptions = %d, want 1", metrics.ActiveSubscriptions)
	}
	if metrics.TotalReservations != 3 {
		t.Errorf("TotalReservations = %d, want 3", metrics.TotalReservations)
	}
	if got := metrics.ReservationsByStatus[models.ReservationConfirmed]; got != 1 {
		t.Errorf("ReservationsByStatus[confirmed] = %d, want 1", got)
	}
	if got := metrics.ReservationsByStatus[models.ReservationPendingPayment]; got != 2 {
		t.Errorf("ReservationsByStatus[pending_payment] = %d, want 2", got)
	}
	if metrics.TotalVideos != 5 {
		t.Errorf("TotalVideos = %d, want 5", metrics.TotalVideos)
	}
	if metrics.TotalRevenueCents != 4000 {
		t.Errorf("TotalRevenueCents = %d, want 4000", metrics.TotalRevenueCents)
	}
	if got := metrics.RevenueByPurpose[models.PurposeSubscription]; got != 2500 {
		t.Errorf("RevenueByPurpose[subscription] = %d, want 2500", got)
	}
	if got := metrics.RevenueByPurpose[models.PurposeReservation]; got != 1500 {
		t.Errorf("RevenueByPurpose[reservation] = %d, want 1500", got)
	}
}

func TestGetAdminMetrics_EmptyDatabase(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	metrics, err := db.GetAdminMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetAdminMetrics() error = %v", err)
	}

	if metrics.TotalUsers != 0 || metrics.TotalReservations != 0 || metrics.TotalVideos != 0 {
		t.Errorf("metrics on empty database = %+v, want zeros", metrics)
	}
	if metrics.TotalRevenueCents != 0 {
		t.Errorf("TotalRevenueCents = %d, want 0", metrics.TotalRevenueCents)
	}
	if len(metrics.ReservationsByStatus) != 0 {
		t.Errorf("ReservationsByStatus = %v, want empty", metrics.ReservationsByStatus)
	}
}
