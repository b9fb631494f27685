// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
service.go - Payment Orchestration

Checkout starts with the provider: only after the provider session
exists are the local rows written, so every local transaction always
has a provider session behind it. Finalization runs from two racing
paths, the webhook and the status poll; TransitionPaymentStatus picks
a single winner and only the winner applies side effects (subscription
activation, reservation confirmation, the payment.completed event).
*/

//nolint:staticcheck // File documentation, not package doc
package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/booking"
	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
	"github.com/nazca360/nazca360/internal/models"
)

// ErrNotFound mirrors the store's not-found error.
var ErrNotFound = database.ErrPaymentNotFound

// Store is the persistence surface the payment service needs.
// Implemented by *database.DB.
type Store interface {
	CreatePaymentTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	GetPayment(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	GetPaymentByCheckoutSession(ctx context.Context, checkoutSessionID string) (*models.PaymentTransaction, error)
	TransitionPaymentStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)
	ListPaymentsForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error)

	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	ListSubscriptionsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ActivateSubscription(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status string) error
	ExpireSubscriptions(ctx context.Context, now time.Time) ([]models.Subscription, error)

	UpdateUserPlan(ctx context.Context, id uuid.UUID, plan string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

// ReservationConfirmer confirms a reservation once its payment settles.
// Implemented by *booking.Service.
type ReservationConfirmer interface {
	Confirm(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

// CheckoutIntent is what the API returns when checkout starts: where to
// send the user and how to find the transaction afterwards.
type CheckoutIntent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Provider      string    `json:"provider"`
	SessionID     string    `json:"session_id"`
	CheckoutURL   string    `json:"checkout_url"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
}

// Service orchestrates checkout and finalization across providers.
type Service struct {
	store        Store
	reservations ReservationConfirmer
	publisher    events.Publisher
	auditor      *audit.Logger

	providers map[string]Provider
	stripe    *StripeProvider
	paypal    *PayPalProvider

	plans       map[string]config.PlanConfig
	frontendURL string

	sweepInterval time.Duration
	now           func() time.Time

	// Serializes side effects of finalization per process. The DB winner
	// guard is the real gate; this only keeps log and event ordering sane.
	mu sync.Mutex
}

// NewService creates the payment service. Providers are built from
// configuration; when payments are disabled the service still answers
// queries but refuses to start checkout.
func NewService(store Store, cfg *config.Config, reservations ReservationConfirmer, publisher events.Publisher, auditor *audit.Logger) (*Service, error) {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}

	providers := make(map[string]Provider)
	var stripeProvider *StripeProvider
	var paypalProvider *PayPalProvider

	if cfg.Payments.Enabled {
		if cfg.Payments.Stripe.Enabled {
			p, err := NewStripeProvider(cfg.Payments.Stripe)
			if err != nil {
				return nil, fmt.Errorf("stripe provider: %w", err)
			}
			stripeProvider = p
			providers[p.Name()] = WithBreaker(p)
		}
		if cfg.Payments.PayPal.Enabled {
			p, err := NewPayPalProvider(cfg.Payments.PayPal)
			if err != nil {
				return nil, fmt.Errorf("paypal provider: %w", err)
			}
			paypalProvider = p
			providers[p.Name()] = WithBreaker(p)
		}
	}

	return &Service{
		store:         store,
		reservations:  reservations,
		publisher:     publisher,
		auditor:       auditor,
		providers:     providers,
		stripe:        stripeProvider,
		paypal:        paypalProvider,
		plans:         cfg.Payments.Plans,
		frontendURL:   strings.TrimRight(cfg.Server.FrontendURL, "/"),
		sweepInterval: time.Hour,
		now:           time.Now,
	}, nil
}

// Enabled reports whether at least one provider can take checkout.
func (s *Service) Enabled() bool {
	return len(s.providers) > 0
}

// ProviderNames lists the configured providers, sorted.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stripe returns the raw Stripe provider for webhook verification, or
// nil when Stripe is disabled.
func (s *Service) Stripe() *StripeProvider {
	return s.stripe
}

// PayPal returns the raw PayPal provider for webhook verification, or
// nil when PayPal is disabled.
func (s *Service) PayPal() *PayPalProvider {
	return s.paypal
}

// StartSubscriptionCheckout opens provider checkout for a plan and
// records the subscription and payment transaction in `initiated`.
func (s *Service) StartSubscriptionCheckout(ctx context.Context, userID uuid.UUID, planType, providerName, originURL string) (*CheckoutIntent, error) {
	provider, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	plan, ok := s.plans[planType]
	if !ok || !models.IsValidPlan(planType) || planType == models.PlanBasic {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, planType)
	}

	subscriptionID := uuid.New()
	checkout, err := provider.CreateCheckout(ctx, &CheckoutRequest{
		UserID:      userID,
		Purpose:     models.PurposeSubscription,
		ReferenceID: subscriptionID,
		AmountCents: plan.AmountCents,
		Currency:    plan.Currency,
		Description: "Suscripción Nazca360 " + planType,
		SuccessURL:  s.returnURL(originURL, "/pago/exito"),
		CancelURL:   s.returnURL(originURL, "/pago/cancelado"),
	})
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:                subscriptionID,
		UserID:            userID,
		PlanType:          planType,
		Status:            models.SubscriptionInitiated,
		AmountCents:       plan.AmountCents,
		Currency:          plan.Currency,
		PaymentProvider:   provider.Name(),
		CheckoutSessionID: checkout.SessionID,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return s.recordCheckout(ctx, provider.Name(), models.PurposeSubscription, userID, subscriptionID, plan.AmountCents, plan.Currency, checkout)
}

// StartReservationCheckout opens provider checkout for a reservation
// hold the user already placed.
func (s *Service) StartReservationCheckout(ctx context.Context, userID, reservationID uuid.UUID, providerName, originURL string) (*CheckoutIntent, error) {
	provider, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	res, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrWrongOwner
	}
	if res.Status != models.ReservationPendingPayment {
		return nil, fmt.Errorf("%w: reservation is %s", ErrNotPayable, res.Status)
	}

	checkout, err := provider.CreateCheckout(ctx, &CheckoutRequest{
		UserID:      userID,
		Purpose:     models.PurposeReservation,
		ReferenceID: res.ID,
		AmountCents: res.AmountCents,
		Currency:    res.Currency,
		Description: fmt.Sprintf("Reserva de cabina VR %s %s", res.Date, res.StartTime),
		SuccessURL:  s.returnURL(originURL, "/reservas/exito"),
		CancelURL:   s.returnURL(originURL, "/reservas"),
	})
	if err != nil {
		return nil, err
	}

	return s.recordCheckout(ctx, provider.Name(), models.PurposeReservation, userID, res.ID, res.AmountCents, res.Currency, checkout)
}

func (s *Service) recordCheckout(ctx context.Context, providerName, purpose string, userID, referenceID uuid.UUID, amountCents int64, currency string, checkout *Checkout) (*CheckoutIntent, error) {
	txn := &models.PaymentTransaction{
		UserID:            userID,
		Provider:          providerName,
		Purpose:           purpose,
		ReferenceID:       referenceID,
		CheckoutSessionID: checkout.SessionID,
		AmountCents:       amountCents,
		Currency:          currency,
		Status:            models.PaymentInitiated,
	}
	if err := s.store.CreatePaymentTransaction(ctx, txn); err != nil {
		return nil, err
	}

	metrics.RecordPaymentInitiated(providerName, purpose)
	logging.CtxInfo(ctx).
		Str("component", "payments").
		Str("provider", providerName).
		Str("purpose", purpose).
		Str("transaction_id", txn.ID.String()).
		Str("checkout_session_id", checkout.SessionID).
		Int64("amount_cents", amountCents).
		Msg("Checkout started")

	return &CheckoutIntent{
		TransactionID: txn.ID,
		Provider:      providerName,
		SessionID:     checkout.SessionID,
		CheckoutURL:   checkout.RedirectURL,
		AmountCents:   amountCents,
		Currency:      currency,
	}, nil
}

// Finalize applies a provider outcome to the transaction behind a
// checkout session. Paid runs the purpose's side effects exactly once;
// failed and expired close the transaction; pending is a no-op. Safe to
// call from the webhook and the poll path concurrently.
func (s *Service) Finalize(ctx context.Context, checkoutSessionID, state string) (*models.PaymentTransaction, error) {
	txn, err := s.store.GetPaymentByCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}

	switch state {
	case StatePaid:
		return s.finalizePaid(ctx, txn)
	case StateFailed:
		return s.finalizeClosed(ctx, txn, models.PaymentFailed)
	case StateExpired:
		return s.finalizeClosed(ctx, txn, models.PaymentExpired)
	case StatePending:
		return txn, nil
	default:
		return nil, fmt.Errorf("unknown checkout state %q", state)
	}
}

func (s *Service) finalizePaid(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	won, err := s.store.TransitionPaymentStatus(ctx, txn.ID, models.PaymentPaid)
	if err != nil {
		return nil, err
	}
	if !won {
		// The other path got here first. Return the settled row.
		return s.store.GetPayment(ctx, txn.ID)
	}
	txn.Status = models.PaymentPaid

	metrics.RecordPaymentFinalized(txn.Provider, txn.Purpose, models.PaymentPaid, txn.AmountCents)
	if s.auditor != nil {
		s.auditor.PaymentFinalized(ctx, txn.ID.String(), txn.Provider, txn.Purpose, models.PaymentPaid, txn.AmountCents)
	}

	var expiresAt, planType string
	switch txn.Purpose {
	case models.PurposeSubscription:
		expiresAt, planType, err = s.activateSubscription(ctx, txn)
	case models.PurposeReservation:
		err = s.confirmReservation(ctx, txn)
	default:
		err = fmt.Errorf("unknown payment purpose %q", txn.Purpose)
	}
	if err != nil {
		// The money moved; the follow-up failed. Log loudly, keep the
		// transaction paid, and let support reconcile.
		logging.CtxErr(ctx, err).
			Str("component", "payments").
			Str("transaction_id", txn.ID.String()).
			Str("purpose", txn.Purpose).
			Msg("Payment settled but finalization side effect failed")
		return txn, nil
	}

	s.publishCompleted(ctx, txn, planType, expiresAt)

	logging.CtxInfo(ctx).
		Str("component", "payments").
		Str("transaction_id", txn.ID.String()).
		Str("provider", txn.Provider).
		Str("purpose", txn.Purpose).
		Int64("amount_cents", txn.AmountCents).
		Msg("Payment finalized")

	return txn, nil
}

func (s *Service) finalizeClosed(ctx context.Context, txn *models.PaymentTransaction, status string) (*models.PaymentTransaction, error) {
	won, err := s.store.TransitionPaymentStatus(ctx, txn.ID, status)
	if err != nil {
		return nil, err
	}
	if !won {
		return s.store.GetPayment(ctx, txn.ID)
	}
	txn.Status = status

	metrics.RecordPaymentFinalized(txn.Provider, txn.Purpose, status, txn.AmountCents)
	if s.auditor != nil {
		s.auditor.PaymentFinalized(ctx, txn.ID.String(), txn.Provider, txn.Purpose, status, txn.AmountCents)
	}

	// An unpaid subscription row never activates; close it out. Unpaid
	// reservation holds are released by the booking hold sweeper.
	if txn.Purpose == models.PurposeSubscription {
		if err := s.store.UpdateSubscriptionStatus(ctx, txn.ReferenceID, models.SubscriptionCancelled); err != nil {
			logging.CtxErr(ctx, err).
				Str("component", "payments").
				Str("subscription_id", txn.ReferenceID.String()).
				Msg("Failed to close unpaid subscription")
		}
	}

	return txn, nil
}

// activateSubscription stamps the paid period and upgrades the user.
func (s *Service) activateSubscription(ctx context.Context, txn *models.PaymentTransaction) (expiresAt, planType string, err error) {
	sub, err := s.store.GetSubscription(ctx, txn.ReferenceID)
	if err != nil {
		return "", "", err
	}

	days := 30
	if plan, ok := s.plans[sub.PlanType]; ok && plan.DurationDays > 0 {
		days = plan.DurationDays
	}

	startsAt := s.now().UTC()
	endsAt := startsAt.AddDate(0, 0, days)

	if err := s.store.ActivateSubscription(ctx, sub.ID, startsAt, endsAt); err != nil {
		return "", "", err
	}
	if err := s.store.UpdateUserPlan(ctx, txn.UserID, sub.PlanType); err != nil {
		return "", "", err
	}

	return endsAt.Format("2006-01-02"), sub.PlanType, nil
}

// confirmReservation hands the paid reservation to the booking service.
func (s *Service) confirmReservation(ctx context.Context, txn *models.PaymentTransaction) error {
	if s.reservations == nil {
		return errors.New("no reservation confirmer configured")
	}

	_, err := s.reservations.Confirm(ctx, txn.ReferenceID)
	if errors.Is(err, booking.ErrInvalidTransition) {
		// The hold expired before the payment landed and the sweeper
		// already released the slot. The charge needs a manual refund.
		logging.CtxWarn(ctx).
			Str("component", "payments").
			Str("transaction_id", txn.ID.String()).
			Str("reservation_id", txn.ReferenceID.String()).
			Msg("Payment settled for an expired reservation hold; refund required")
		return nil
	}
	return err
}

// PollStatus queries the provider for a session's state and finalizes
// when it is decided. The success-page poll path.
func (s *Service) PollStatus(ctx context.Context, checkoutSessionID string) (*models.PaymentTransaction, error) {
	txn, err := s.store.GetPaymentByCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return txn, nil
	}

	provider, err := s.provider(txn.Provider)
	if err != nil {
		return nil, err
	}

	status, err := provider.CheckoutStatus(ctx, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	if status.State == StatePending {
		return txn, nil
	}

	return s.Finalize(ctx, checkoutSessionID, status.State)
}

// GetPayment retrieves one payment transaction.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return s.store.GetPayment(ctx, id)
}

// ListForUser retrieves a user's payment history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error) {
	return s.store.ListPaymentsForUser(ctx, userID)
}

// CurrentSubscription returns the user's live subscription, or nil when
// the user is on the basic tier.
func (s *Service) CurrentSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.store.GetActiveSubscription(ctx, userID, s.now())
	if errors.Is(err, database.ErrSubscriptionNotFound) {
		return nil, nil
	}
	return sub, err
}

// ExpireSubscriptions downgrades users whose paid period ended. Returns
// how many subscriptions expired.
func (s *Service) ExpireSubscriptions(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for i := range expired {
		sub := &expired[i]

		// Only downgrade when no other subscription still covers the user.
		if _, err := s.store.GetActiveSubscription(ctx, sub.UserID, s.now()); err == nil {
			continue
		} else if !errors.Is(err, database.ErrSubscriptionNotFound) {
			return len(expired), err
		}

		if err := s.store.UpdateUserPlan(ctx, sub.UserID, models.PlanBasic); err != nil {
			logging.CtxErr(ctx, err).
				Str("component", "payments").
				Str("user_id", sub.UserID.String()).
				Msg("Failed to downgrade user after subscription expiry")
		}
	}

	if len(expired) > 0 {
		logging.CtxInfo(ctx).
			Str("component", "payments").
			Int("expired", len(expired)).
			Msg("Expired lapsed subscriptions")
	}

	return len(expired), nil
}

// RunSubscriptionSweeper expires lapsed subscriptions on an interval
// until context cancellation. Run under the supervisor.
func (s *Service) RunSubscriptionSweeper(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	logging.Info().
		Str("component", "payments").
		Dur("interval", s.sweepInterval).
		Msg("Subscription sweeper started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.ExpireSubscriptions(ctx); err != nil {
				logging.CtxErr(ctx, err).
					Str("component", "payments").
					Msg("Subscription sweep failed")
			}
		}
	}
}

func (s *Service) provider(name string) (Provider, error) {
	if len(s.providers) == 0 {
		return nil, ErrPaymentsDisabled
	}
	if name == "" {
		// Single-provider deployments can omit the choice.
		names := s.ProviderNames()
		if len(names) == 1 {
			return s.providers[names[0]], nil
		}
		return nil, fmt.Errorf("%w: provider is required", ErrUnknownProvider)
	}

	provider, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return provider, nil
}

// returnURL builds a redirect target, preferring the origin the browser
// came from and falling back to the configured frontend URL.
func (s *Service) returnURL(originURL, path string) string {
	base := strings.TrimRight(originURL, "/")
	if base == "" {
		base = s.frontendURL
	}
	return base + path
}

// publishCompleted emits payment.completed, enriched with the recipient
// so the mail consumer needs no lookup.
func (s *Service) publishCompleted(ctx context.Context, txn *models.PaymentTransaction, planType, expiresAt string) {
	user, err := s.store.GetUserByID(ctx, txn.UserID)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "payments").
			Str("transaction_id", txn.ID.String()).
			Msg("Failed to load user for payment event")
		return
	}

	event, err := events.NewPaymentCompleted(txn.UserID, events.PaymentCompletedPayload{
		PaymentID:   txn.ID.String(),
		Provider:    txn.Provider,
		Purpose:     txn.Purpose,
		PlanType:    planType,
		AmountCents: txn.AmountCents,
		Currency:    txn.Currency,
		ExpiresAt:   expiresAt,
		Email:       user.Email,
		Name:        user.FullName,
	})
	if err == nil {
		err = s.publisher.PublishEvent(ctx, event)
	}
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "payments").
			Str("transaction_id", txn.ID.String()).
			Msg("Failed to publish payment.completed")
	}
}
