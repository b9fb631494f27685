// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/authz"
	"github.com/nazca360/nazca360/internal/booking"
	"github.com/nazca360/nazca360/internal/cache"
	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/mail"
	"github.com/nazca360/nazca360/internal/models"
	"github.com/nazca360/nazca360/internal/payments"
	"github.com/nazca360/nazca360/internal/ws"
)

const (
	catalogCacheTTL      = 5 * time.Minute
	availabilityCacheTTL = 30 * time.Second
)

// Handler carries the dependencies of every HTTP endpoint.
//
// The catalog and availability caches serve the two read-heavy public
// endpoints; both are invalidated by the mutations that change their
// answers (admin video writes, booking mutations).
type Handler struct {
	db        *database.DB
	config    *config.Config
	jwt       *auth.JWTManager
	tokens    *auth.TokenManager
	authMW    *auth.Middleware
	google    *auth.GoogleFlow    // nil when Google sign-in is disabled
	gateway   *auth.GatewayClient // nil when the cabin gateway is disabled
	authz     *authz.Service
	booking   *booking.Service
	payments  *payments.Service
	hub       *ws.Hub
	mailer    mail.Sender
	auditor   *audit.Logger
	publisher events.Publisher

	catalog      *cache.Cache
	availability *cache.Cache

	startTime time.Time
	version   string
}

// HandlerDeps bundles the services a Handler needs. Optional integrations
// (Google, gateway) stay nil when disabled in config.
type HandlerDeps struct {
	DB        *database.DB
	Config    *config.Config
	JWT       *auth.JWTManager
	Tokens    *auth.TokenManager
	AuthMW    *auth.Middleware
	Google    *auth.GoogleFlow
	Gateway   *auth.GatewayClient
	Authz     *authz.Service
	Booking   *booking.Service
	Payments  *payments.Service
	Hub       *ws.Hub
	Mailer    mail.Sender
	Auditor   *audit.Logger
	Publisher events.Publisher
	Version   string
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		db:           deps.DB,
		config:       deps.Config,
		jwt:          deps.JWT,
		tokens:       deps.Tokens,
		authMW:       deps.AuthMW,
		google:       deps.Google,
		gateway:      deps.Gateway,
		authz:        deps.Authz,
		booking:      deps.Booking,
		payments:     deps.Payments,
		hub:          deps.Hub,
		mailer:       deps.Mailer,
		auditor:      deps.Auditor,
		publisher:    deps.Publisher,
		catalog:      cache.New("catalog", catalogCacheTTL),
		availability: cache.New("availability", availabilityCacheTTL),
		startTime:    time.Now(),
		version:      deps.Version,
	}
}

// Close releases the handler's caches.
func (h *Handler) Close() {
	h.catalog.Close()
	h.availability.Close()
}

// Banner handles GET / with the service identity.
func (h *Handler) Banner(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, models.ServiceBanner{
		Name:    "Nazca360 API",
		Version: h.version,
	})
}

// WebSocketAvailability handles GET /ws/availability: upgrades the
// connection and registers the client with the hub for live availability
// and reservation status broadcasts.
func (h *Handler) WebSocketAvailability(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.CtxWarn(r.Context()).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	client.Start()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Browser WebSockets always send Origin; an empty
// header would bypass CORS entirely, so it is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true // Tests construct handlers without config
	}

	for _, allowed := range h.config.CORS.Origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// invalidateAvailability drops the cached grid for a date after a booking
// mutation.
func (h *Handler) invalidateAvailability(date string) {
	h.availability.Delete(date)
}
