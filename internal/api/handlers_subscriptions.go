// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
	"github.com/nazca360/nazca360/internal/payments"
)

// CheckoutSubscription handles POST /subscriptions/checkout.
//
//	@Summary	Start subscription checkout
//	@Tags		subscriptions
//	@Accept		json
//	@Param		body	body		models.CheckoutRequest	true	"checkout"
//	@Success	201		{object}	models.APIResponse{data=models.CheckoutResponse}
//	@Failure	400		{object}	models.APIResponse
//	@Failure	503		{object}	models.APIResponse
//	@Router		/api/v1/subscriptions/checkout [post]
func (h *Handler) CheckoutSubscription(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	intent, err := h.payments.StartSubscriptionCheckout(r.Context(), hctx.UserID, req.PlanType, req.Provider, req.OriginURL)
	if err != nil {
		h.respondPaymentError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, models.CheckoutResponse{
		CheckoutURL: intent.CheckoutURL,
		SessionID:   intent.SessionID,
	})
}

// SubscriptionStatus handles GET /subscriptions/status/{session_id}: the
// success-page poll. Finalization is idempotent, so racing the webhook is
// harmless.
func (h *Handler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing session id", nil)
		return
	}

	txn, err := h.payments.PollStatus(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Checkout session not found", nil)
			return
		}
		h.respondPaymentError(w, r, err)
		return
	}

	if txn.UserID != hctx.UserID && !hctx.IsAdmin() {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Checkout session belongs to another account", nil)
		return
	}

	resp := models.SubscriptionStatusResponse{PaymentStatus: txn.Status}
	if txn.Purpose == models.PurposeSubscription && txn.Status == models.PaymentPaid {
		if sub, err := h.db.GetSubscription(r.Context(), txn.ReferenceID); err == nil {
			resp.Subscription = sub
		} else {
			logging.CtxWarn(r.Context()).Err(err).Msg("Paid transaction without subscription row")
		}
	}

	respondData(w, http.StatusOK, resp)
}

// MySubscription handles GET /subscriptions/me: the user's live
// subscription, or the basic default when there is none.
func (h *Handler) MySubscription(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	sub, err := h.payments.CurrentSubscription(r.Context(), hctx.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load subscription", err)
		return
	}

	plan := models.PlanBasic
	if sub != nil && sub.IsCurrentlyActive(time.Now().UTC()) {
		plan = sub.PlanType
	}

	respondData(w, http.StatusOK, map[string]any{
		"plan":         plan,
		"subscription": sub,
	})
}

// respondPaymentError translates payment service errors into API errors.
func (h *Handler) respondPaymentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payments.ErrUnknownPlan):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown subscription plan", nil)
	case errors.Is(err, payments.ErrUnknownProvider):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown payment provider", nil)
	case errors.Is(err, payments.ErrPaymentsDisabled):
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Payments are disabled", nil)
	case errors.Is(err, payments.ErrProviderUnavailable):
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Payment provider unavailable, try again shortly", err)
	case errors.Is(err, payments.ErrWrongOwner):
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Reservation belongs to another account", nil)
	case errors.Is(err, payments.ErrNotPayable):
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", "Reservation is not awaiting payment", nil)
	default:
		logging.CtxErr(r.Context(), err).Msg("Payment operation failed")
		respondError(w, http.StatusBadGateway, "PAYMENT_ERROR", "Payment processing failed", err)
	}
}
