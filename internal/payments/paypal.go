// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/plutov/paypal/v4"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/models"
)

// PayPal order statuses consumed here. The REST API reports orders as
// CREATED -> APPROVED -> COMPLETED, or VOIDED when cancelled.
const (
	paypalOrderApproved  = "APPROVED"
	paypalOrderCompleted = "COMPLETED"
	paypalOrderVoided    = "VOIDED"
)

// PayPalProvider implements Provider over the PayPal Orders API. The
// checkout session ID is the PayPal order ID; the approve link is the
// redirect URL.
type PayPalProvider struct {
	client    *paypal.Client
	webhookID string
}

// NewPayPalProvider creates the PayPal provider from configuration.
// APIBase defaults to the sandbox.
func NewPayPalProvider(cfg config.PayPalConfig) (*PayPalProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("paypal client id and secret are required")
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = paypal.APIBaseSandBox
	}

	c, err := paypal.NewClient(cfg.ClientID, cfg.ClientSecret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}

	return &PayPalProvider{client: c, webhookID: cfg.WebhookID}, nil
}

// Name implements Provider.
func (p *PayPalProvider) Name() string {
	return models.PaymentProviderPayPal
}

// CreateCheckout creates an order with intent CAPTURE and returns its
// approve link for the redirect.
func (p *PayPalProvider) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture,
		[]paypal.PurchaseUnitRequest{
			{
				ReferenceID: req.ReferenceID.String(),
				Description: req.Description,
				Amount: &paypal.PurchaseUnitAmount{
					Currency: normalizeCurrency(req.Currency),
					Value:    formatDecimal(req.AmountCents),
				},
			},
		},
		nil,
		&paypal.ApplicationContext{
			BrandName: "Nazca360",
			ReturnURL: req.SuccessURL,
			CancelURL: req.CancelURL,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal order: %w", err)
	}

	approveURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		return nil, errors.New("paypal order has no approve link")
	}

	return &Checkout{SessionID: order.ID, RedirectURL: approveURL}, nil
}

// CheckoutStatus retrieves the order and, when the payer has approved
// it, captures the payment. Capture is what actually moves the money;
// an approved-but-uncaptured order is still pending from our side.
func (p *PayPalProvider) CheckoutStatus(ctx context.Context, sessionID string) (*Status, error) {
	order, err := p.client.GetOrder(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve paypal order: %w", err)
	}

	switch order.Status {
	case paypalOrderCompleted:
		return &Status{SessionID: sessionID, State: StatePaid}, nil
	case paypalOrderVoided:
		return &Status{SessionID: sessionID, State: StateFailed}, nil
	case paypalOrderApproved:
		capture, err := p.client.CaptureOrder(ctx, sessionID, paypal.CaptureOrderRequest{})
		if err != nil {
			return nil, fmt.Errorf("failed to capture paypal order: %w", err)
		}
		if capture.Status == paypalOrderCompleted {
			return &Status{SessionID: sessionID, State: StatePaid}, nil
		}
		return &Status{SessionID: sessionID, State: StatePending}, nil
	default:
		return &Status{SessionID: sessionID, State: StatePending}, nil
	}
}

// VerifyWebhook validates a webhook delivery against PayPal's
// verification endpoint and reduces it to a WebhookEvent. Deliveries
// outside the checkout lifecycle return (nil, nil).
func (p *PayPalProvider) VerifyWebhook(ctx context.Context, r *http.Request, eventType, orderID string) (*WebhookEvent, error) {
	if p.webhookID == "" {
		return nil, errors.New("paypal webhook id is not configured")
	}

	resp, err := p.client.VerifyWebhookSignature(ctx, r, p.webhookID)
	if err != nil {
		return nil, fmt.Errorf("paypal webhook verification call failed: %w", err)
	}
	if resp.VerificationStatus != "SUCCESS" {
		return nil, fmt.Errorf("paypal webhook signature verification failed: %s", resp.VerificationStatus)
	}

	var state string
	switch eventType {
	case "CHECKOUT.ORDER.APPROVED":
		// Approval is not settlement; the poll path captures.
		state = StatePending
	case "PAYMENT.CAPTURE.COMPLETED":
		state = StatePaid
	case "PAYMENT.CAPTURE.DENIED":
		state = StateFailed
	case "CHECKOUT.ORDER.VOIDED":
		state = StateExpired
	default:
		return nil, nil
	}

	return &WebhookEvent{
		Provider:  models.PaymentProviderPayPal,
		SessionID: orderID,
		State:     state,
	}, nil
}
