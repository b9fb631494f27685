// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/models"
)

// WebhookEvent is a provider webhook delivery reduced to what Finalize
// needs: which session, and what happened to it.
type WebhookEvent struct {
	Provider  string `json:"provider"`
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// StripeProvider implements Provider over Stripe Checkout Sessions.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates the Stripe provider from configuration.
func NewStripeProvider(cfg config.StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// Name implements Provider.
func (p *StripeProvider) Name() string {
	return models.PaymentProviderStripe
}

// CreateCheckout opens a Checkout Session in payment mode with a single
// line item. The success URL gets Stripe's session placeholder appended
// so the frontend can poll the result without its own bookkeeping.
func (p *StripeProvider) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(appendSessionPlaceholder(req.SuccessURL)),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ReferenceID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	params.AddMetadata("user_id", req.UserID.String())
	params.AddMetadata("purpose", req.Purpose)
	params.AddMetadata("reference_id", req.ReferenceID.String())

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}

	return &Checkout{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// CheckoutStatus retrieves a Checkout Session and maps its state.
func (p *StripeProvider) CheckoutStatus(ctx context.Context, sessionID string) (*Status, error) {
	sess, err := p.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stripe checkout session: %w", err)
	}

	return &Status{SessionID: sess.ID, State: stripeSessionState(sess)}, nil
}

// VerifyWebhook checks the Stripe-Signature header and reduces the event
// to a WebhookEvent. Event types outside the checkout session lifecycle
// return (nil, nil): acknowledged, nothing to do.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}

	var state string
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		state = StatePaid
	case "checkout.session.async_payment_failed":
		state = StateFailed
	case "checkout.session.expired":
		state = StateExpired
	default:
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode stripe checkout session payload: %w", err)
	}

	// A completed session can still be unpaid while an async method
	// settles; the async_payment_succeeded event follows later.
	if state == StatePaid && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		state = StatePending
	}

	return &WebhookEvent{
		Provider:  models.PaymentProviderStripe,
		SessionID: sess.ID,
		State:     state,
	}, nil
}

func stripeSessionState(sess *stripe.CheckoutSession) string {
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return StatePaid
	}
	if sess.Status == stripe.CheckoutSessionStatusExpired {
		return StateExpired
	}
	return StatePending
}

// appendSessionPlaceholder adds Stripe's literal {CHECKOUT_SESSION_ID}
// placeholder, which Stripe substitutes on redirect.
func appendSessionPlaceholder(successURL string) string {
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}
