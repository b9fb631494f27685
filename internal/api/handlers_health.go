// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"net/http"
	"time"

	"github.com/nazca360/nazca360/internal/models"
)

// Health handles GET /health with the full dependency report.
//
//	@Summary	Service health
//	@Tags		health
//	@Success	200	{object}	models.APIResponse{data=models.HealthStatus}
//	@Failure	503	{object}	models.APIResponse{data=models.HealthStatus}
//	@Router		/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	status := models.HealthStatus{
		Status:            "healthy",
		Version:           h.version,
		DatabaseConnected: true,
		EventsConnected:   h.config.Events.Enabled,
		PaymentsEnabled:   h.payments.Enabled(),
		EmailEnabled:      h.config.Email.Enabled,
		Uptime:            time.Since(h.startTime).Seconds(),
		CheckedAt:         &now,
	}

	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "unhealthy"
		status.DatabaseConnected = false
		code = http.StatusServiceUnavailable
	}

	respondData(w, code, status)
}

// HealthLive handles GET /health/live: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusOK, "alive")
}

// HealthReady handles GET /health/ready: the service can take traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable", err)
		return
	}
	respondMessage(w, http.StatusOK, "ready")
}
