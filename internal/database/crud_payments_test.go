// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

// newTestPayment builds an initiated Stripe subscription payment.
func newTestPayment(userID uuid.UUID, sessionID string) *models.PaymentTransaction {
	return &models.PaymentTransaction{
		UserID:            userID,
		Provider:          models.PaymentProviderStripe,
		Purpose:           models.PurposeSubscription,
		ReferenceID:       uuid.New(),
		CheckoutSessionID: sessionID,
		AmountCents:       2500,
		Currency:          "usd",
	}
}

func TestCreatePaymentTransaction(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com")

	txn := newTestPayment(user.ID, "cs_test_001")
	if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
		t.Fatalf("CreatePaymentTransaction() error = %v", err)
	}

	if txn.ID == uuid.Nil {
		t.Error("CreatePaymentTransaction() did not set ID")
	}
	if txn.Status != models.PaymentInitiated {
		t.Errorf("CreatePaymentTransaction() status = %v, want %v", txn.Status, models.PaymentInitiated)
	}

	got, err := db.GetPayment(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if got.CheckoutSessionID != "cs_test_001" {
		t.Errorf("GetPayment() checkout_session_id = %v, want cs_test_001", got.CheckoutSessionID)
	}
	if got.AmountCents != 2500 {
		t.Errorf("GetPayment() amount_cents = %d, want 2500", got.AmountCents)
	}
}

func TestCreatePaymentTransaction_DuplicateSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := createTestUser(t, db, "dup-payer@example.com")

	first := newTestPayment(user.ID, "cs_test_dup")
	if err := db.CreatePaymentTransaction(ctx, first); err != nil {
		t.Fatalf("Failed to create first transaction: %v", err)
	}

	second := newTestPayment(user.ID, "cs_test_dup")
	err := db.CreatePaymentTransaction(ctx, second)
	if !errors.Is(err, ErrCheckoutSessionExists) {
		t.Errorf("CreatePaymentTransaction() with duplicate session error = %v, want %v", err, ErrCheckoutSessionExists)
	}
}

func TestGetPaymentByCheckoutSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := createTestUser(t, db, "session-payer@example.com")

	txn := newTestPayment(user.ID, "cs_test_lookup")
	txn.Provider = models.PaymentProviderPayPal
	txn.Purpose = models.PurposeReservation
	if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	t.Run("existing session", func(t *testing.T) {
		got, err := db.GetPaymentByCheckoutSession(ctx, "cs_test_lookup")
		if err != nil {
			t.Fatalf("GetPaymentByCheckoutSession() error = %v", err)
		}
		if got.ID != txn.ID {
			t.Errorf("GetPaymentByCheckoutSession() id = %v, want %v", got.ID, txn.ID)
		}
		if got.Provider != models.PaymentProviderPayPal {
			t.Errorf("GetPaymentByCheckoutSession() provider = %v, want %v", got.Provider, models.PaymentProviderPayPal)
		}
		if got.Purpose != models.PurposeReservation {
			t.Errorf("GetPaymentByCheckoutSession() purpose = %v, want %v", got.Purpose, models.PurposeReservation)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := db.GetPaymentByCheckoutSession(ctx, "cs_test_missing")
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Errorf("GetPaymentByCheckoutSession() error = %v, want %v", err, ErrPaymentNotFound)
		}
	})
}

func TestTransitionPaymentStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := createTestUser(t, db, "transition@example.com")

	txn := newTestPayment(user.ID, "cs_test_transition")
	if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	// First finalizer wins the transition.
	won, err := db.TransitionPaymentStatus(ctx, txn.ID, models.PaymentPaid)
	if err != nil {
		t.Fatalf("TransitionPaymentStatus() error = %v", err)
	}
	if !won {
		t.Error("TransitionPaymentStatus() won = false, want true on first call")
	}

	// Duplicate webhook delivery: already terminal, no error, no transition.
	won, err = db.TransitionPaymentStatus(ctx, txn.ID, models.PaymentPaid)
	if err != nil {
		t.Fatalf("TransitionPaymentStatus() repeat error = %v", err)
	}
	if won {
		t.Error("TransitionPaymentStatus() won = true on repeat, want false")
	}

	// A terminal status is never overwritten, even by a different outcome.
	won, err = db.TransitionPaymentStatus(ctx, txn.ID, models.PaymentFailed)
	if err != nil {
		t.Fatalf("TransitionPaymentStatus() to failed error = %v", err)
	}
	if won {
		t.Error("TransitionPaymentStatus() overwrote a terminal status")
	}

	got, err := db.GetPayment(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if got.Status != models.PaymentPaid {
		t.Errorf("status = %v, want %v", got.Status, models.PaymentPaid)
	}

	_, err = db.TransitionPaymentStatus(ctx, uuid.New(), models.PaymentPaid)
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("TransitionPaymentStatus() for missing id error = %v, want %v", err, ErrPaymentNotFound)
	}
}

func TestTransitionPaymentStatus_NonTerminalSteps(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := createTestUser(t, db, "pending@example.com")

	txn := newTestPayment(user.ID, "cs_test_pending")
	if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	// initiated -> pending -> paid walks through both non-terminal states.
	for _, status := range []string{models.PaymentPending, models.PaymentPaid} {
		won, err := db.TransitionPaymentStatus(ctx, txn.ID, status)
		if err != nil {
			t.Fatalf("TransitionPaymentStatus(%s) error = %v", status, err)
		}
		if !won {
			t.Errorf("TransitionPaymentStatus(%s) won = false, want true", status)
		}
	}
}

func TestListPaymentsForUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	payer := createTestUser(t, db, "history@example.com")
	other := createTestUser(t, db, "other-history@example.com")

	for i, sessionID := range []string{"cs_test_h1", "cs_test_h2"} {
		txn := newTestPayment(payer.ID, sessionID)
		txn.AmountCents = int64(1000 * (i + 1))
		if err := db.CreatePaymentTransaction(ctx, txn); err != nil {
			t.Fatalf("Failed to create transaction: %v", err)
		}
	}
	foreign := newTestPayment(other.ID, "cs_test_foreign")
	if err := db.CreatePaymentTransaction(ctx, foreign); err != nil {
		t.Fatalf("Failed to create foreign transaction: %v", err)
	}

	got, err := db.ListPaymentsForUser(ctx, payer.ID)
	if err != nil {
		t.Fatalf("ListPaymentsForUser() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListPaymentsForUser() returned %d rows, want 2", len(got))
	}
	for _, txn := range got {
		if txn.UserID != payer.ID {
			t.Errorf("ListPaymentsForUser() returned transaction for user %v", txn.UserID)
		}
	}
}
