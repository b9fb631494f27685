// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"errors"
	"net/http"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/nazca360/nazca360/internal/booking"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
)

const qrImageSize = 256

// GetAvailability handles GET /reservations/availability?date=.
//
//	@Summary	Slot availability for a date
//	@Tags		reservations
//	@Param		date	query		string	true	"YYYY-MM-DD"
//	@Success	200		{object}	models.APIResponse{data=models.AvailabilityResponse}
//	@Failure	400		{object}	models.APIResponse
//	@Router		/api/v1/reservations/availability [get]
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing date parameter", nil)
		return
	}

	if entry, ok := h.availability.Get(date); ok {
		if resp, ok := entry.(models.AvailabilityResponse); ok {
			respondCached(w, http.StatusOK, resp, true)
			return
		}
	}

	slots, err := h.booking.Availability(r.Context(), date)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidSlot) || errors.Is(err, booking.ErrOutsideWindow) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or out-of-window date", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load availability", err)
		return
	}

	resp := models.AvailabilityResponse{
		Date:  date,
		Slots: make([]models.AvailabilitySlot, 0, len(slots)),
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, models.AvailabilitySlot{
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			FreeCabins: s.FreeCabins,
			Available:  s.Available,
		})
	}

	h.availability.Set(date, resp)
	respondCached(w, http.StatusOK, resp, false)
}

// CreateReservation handles POST /reservations: places a slot hold and,
// when payments are enabled, opens checkout for the session fee.
//
//	@Summary	Reserve a cabin slot
//	@Tags		reservations
//	@Accept		json
//	@Param		body	body		models.ReservationRequest	true	"reservation"
//	@Success	201		{object}	models.APIResponse{data=models.ReservationResponse}
//	@Failure	409		{object}	models.APIResponse
//	@Router		/api/v1/reservations [post]
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	var req models.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	cabin := 0
	if req.Cabin != nil {
		cabin = *req.Cabin
	}

	res, err := h.booking.Reserve(r.Context(), hctx.UserID, req.Date, req.StartTime, cabin)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	h.invalidateAvailability(res.Date)

	resp := models.ReservationResponse{Reservation: *res}
	if res.Status == models.ReservationPendingPayment {
		intent, err := h.payments.StartReservationCheckout(r.Context(), hctx.UserID, res.ID, req.Provider, req.OriginURL)
		if err != nil {
			// The hold stays in place until its TTL frees the slot.
			logging.CtxErr(r.Context(), err).
				Str("reservation_id", res.ID.String()).
				Msg("Reservation checkout failed after hold")
			h.respondPaymentError(w, r, err)
			return
		}
		resp.CheckoutURL = intent.CheckoutURL
		resp.SessionID = intent.SessionID
	}

	respondData(w, http.StatusCreated, resp)
}

// MyReservations handles GET /reservations/me, newest first.
func (h *Handler) MyReservations(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	reservations, err := h.booking.ListForUser(r.Context(), hctx.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load reservations", err)
		return
	}

	respondData(w, http.StatusOK, reservations)
}

// GetReservation handles GET /reservations/{id}: own or admin.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadOwnReservation(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, res)
}

// ReservationQR handles GET /reservations/{id}/qr: renders the entry code
// as a PNG. Only confirmed reservations carry a valid code.
func (h *Handler) ReservationQR(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadOwnReservation(w, r)
	if !ok {
		return
	}

	if res.Status != models.ReservationConfirmed {
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", "Reservation is not confirmed", nil)
		return
	}

	png, err := qrcode.Encode(res.QRCode, qrcode.Medium, qrImageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render QR code", err)
		return
	}

	// No Content-Length: the gzip middleware may recode the body.
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// CancelReservation handles POST /reservations/{id}/cancel: the owner
// cancels an upcoming reservation.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadOwnReservation(w, r)
	if !ok {
		return
	}

	if start, err := h.booking.Grid().SlotStartAt(res.Date, res.StartTime); err == nil && time.Now().After(start) {
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", "Reservation has already started", nil)
		return
	}

	updated, err := h.booking.UpdateStatus(r.Context(), res.ID, models.ReservationCancelled)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	h.invalidateAvailability(updated.Date)

	respondData(w, http.StatusOK, updated)
}

// UpdateReservationStatus handles PUT /reservations/{id}/status: staff and
// admin move reservations through the lifecycle (check-in, completion,
// no-shows).
func (h *Handler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireStaff(); err != nil {
		RespondAuthError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id", nil)
		return
	}

	var req models.UpdateReservationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	current, err := h.booking.GetReservation(r.Context(), id)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	oldStatus := current.Status

	updated, err := h.booking.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	h.invalidateAvailability(updated.Date)

	h.auditor.ReservationStatusChanged(r.Context(), hctx.Actor(r), updated.ID.String(), oldStatus, req.Status)

	respondData(w, http.StatusOK, updated)
}

// loadOwnReservation fetches the path reservation and enforces owner-or-
// admin access, writing the error response itself on failure.
func (h *Handler) loadOwnReservation(w http.ResponseWriter, r *http.Request) (*models.Reservation, bool) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return nil, false
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id", nil)
		return nil, false
	}

	res, err := h.booking.GetReservation(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Reservation not found", nil)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load reservation", err)
		return nil, false
	}

	if res.UserID != hctx.UserID && !hctx.IsAdmin() {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Reservation belongs to another account", nil)
		return nil, false
	}

	return res, true
}

// respondBookingError translates booking service errors into API errors.
func (h *Handler) respondBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidSlot),
		errors.Is(err, booking.ErrPastSlot),
		errors.Is(err, booking.ErrOutsideWindow),
		errors.Is(err, booking.ErrInvalidCabin):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrAlreadyBooked):
		respondError(w, http.StatusConflict, "SLOT_TAKEN", "The requested slot is no longer available", nil)
	case errors.Is(err, booking.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", "Reservation cannot move to the requested status", nil)
	case errors.Is(err, booking.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Reservation not found", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Reservation operation failed", err)
	}
}
