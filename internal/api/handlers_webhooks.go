// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
	"github.com/nazca360/nazca360/internal/payments"
)

// webhookBodyLimit caps provider webhook payloads. Stripe events sit well
// under 64KiB.
const webhookBodyLimit = 64 * 1024

// StripeWebhook handles POST /webhooks/stripe. The route carries no auth;
// the Stripe-Signature header is the authentication.
//
//	@Summary	Stripe webhook receiver
//	@Tags		webhooks
//	@Success	200	{object}	models.APIResponse
//	@Failure	400	{object}	models.APIResponse
//	@Router		/api/v1/webhooks/stripe [post]
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	stripe := h.payments.Stripe()
	if stripe == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Stripe is not enabled", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read webhook body", err)
		return
	}

	event, err := stripe.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.RecordWebhookEvent("stripe", "rejected")
		logging.CtxWarn(r.Context()).Err(err).Msg("Stripe webhook rejected")
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Webhook signature verification failed", nil)
		return
	}

	h.finalizeWebhook(w, r, "stripe", event)
}

// paypalWebhookPayload is the slice of a PayPal webhook delivery the
// handler needs before signature verification: the event type and the
// order the resource belongs to.
type paypalWebhookPayload struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// PayPalWebhook handles POST /webhooks/paypal. Deliveries are verified
// against PayPal's webhook verification endpoint before finalization.
//
//	@Summary	PayPal webhook receiver
//	@Tags		webhooks
//	@Success	200	{object}	models.APIResponse
//	@Failure	400	{object}	models.APIResponse
//	@Router		/api/v1/webhooks/paypal [post]
func (h *Handler) PayPalWebhook(w http.ResponseWriter, r *http.Request) {
	paypal := h.payments.PayPal()
	if paypal == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "PayPal is not enabled", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read webhook body", err)
		return
	}
	// Verification reads the request body again.
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload paypalWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid webhook payload", err)
		return
	}

	// Capture resources reference their order; order resources are the
	// order itself. The order ID is our checkout session id.
	orderID := payload.Resource.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = payload.Resource.ID
	}

	event, err := paypal.VerifyWebhook(r.Context(), r, payload.EventType, orderID)
	if err != nil {
		metrics.RecordWebhookEvent("paypal", "rejected")
		logging.CtxWarn(r.Context()).Err(err).Msg("PayPal webhook rejected")
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Webhook signature verification failed", nil)
		return
	}

	h.finalizeWebhook(w, r, "paypal", event)
}

// finalizeWebhook applies a verified provider event. Unmatched sessions
// are acknowledged so the provider stops retrying; finalization itself is
// idempotent, so replays of a paid session are no-ops.
func (h *Handler) finalizeWebhook(w http.ResponseWriter, r *http.Request, provider string, event *payments.WebhookEvent) {
	if event == nil {
		metrics.RecordWebhookEvent(provider, "ignored")
		respondMessage(w, http.StatusOK, "Event ignored")
		return
	}

	txn, err := h.payments.Finalize(r.Context(), event.SessionID, event.State)
	if err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			metrics.RecordWebhookEvent(provider, "unmatched")
			logging.CtxWarn(r.Context()).
				Str("session_id", sanitizeLogValue(event.SessionID)).
				Msg("Webhook for unknown checkout session")
			respondMessage(w, http.StatusOK, "No matching checkout session")
			return
		}
		metrics.RecordWebhookEvent(provider, "error")
		respondError(w, http.StatusInternalServerError, "PAYMENT_ERROR", "Failed to finalize payment", err)
		return
	}

	metrics.RecordWebhookEvent(provider, "processed")
	logging.CtxInfo(r.Context()).
		Str("provider", provider).
		Str("transaction_id", txn.ID.String()).
		Str("status", txn.Status).
		Msg("Webhook finalized payment")

	respondMessage(w, http.StatusOK, "Processed")
}
