// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package api provides HTTP routing using Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/middleware"
)

// perfMetricsWindow is how many recent requests the latency monitor keeps.
const perfMetricsWindow = 1000

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the shared middleware package works
// with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires handlers, authentication and the middleware stack into a
// Chi route tree.
type Router struct {
	handler       *Handler
	authMW        *auth.Middleware
	chiMiddleware *ChiMiddleware
	perf          *middleware.PerformanceMonitor
}

// NewRouter creates the route tree builder.
func NewRouter(handler *Handler, authMW *auth.Middleware, cmw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authMW:        authMW,
		chiMiddleware: cmw,
		perf:          middleware.NewPerformanceMonitor(perfMetricsWindow),
	}
}

// Performance exposes the in-process latency monitor for the supervisor's
// slow-request reporter.
func (router *Router) Performance() *middleware.PerformanceMonitor {
	return router.perf
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(router.perf.Middleware)

	// Service banner.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Get("/", router.handler.Banner)
	})

	// Health endpoints carry a permissive limit so orchestrator probes
	// and uptime monitors never trip it.
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Live availability push for the booking calendar.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Get("/ws/availability", router.handler.WebSocketAvailability)
	})

	// Authentication. Strict limits against credential stuffing; login
	// additionally goes through the per-IP lockout.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAuth))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/register", router.handler.Register)
		r.Get("/verify-email", router.handler.VerifyEmail)
		r.With(
			router.chiMiddleware.RateLimitCustom(RateLimitLogin),
			router.authMW.LoginRateLimit,
		).Post("/login", router.handler.Login)
		r.Post("/forgot-password", router.handler.ForgotPassword)
		r.Post("/reset-password", router.handler.ResetPassword)

		r.Get("/google", router.handler.GoogleStart)
		r.Get("/google/callback", router.handler.GoogleCallback)
		r.Get("/session", router.handler.SessionExchange)

		r.With(router.authMW.RequireAuth).Get("/me", router.handler.Me)
		r.With(router.authMW.OptionalAuth).Post("/logout", router.handler.Logout)
	})

	// Public catalog. Auth is optional: the premium filter personalizes
	// the listing when a subject is present.
	r.Route("/api/v1/videos", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.authMW.OptionalAuth)

		r.Get("/", router.handler.ListVideos)
		r.Get("/{id}", router.handler.GetVideo)
	})

	// Subscriptions.
	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.authMW.RequireAuth)

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
			Post("/checkout", router.handler.CheckoutSubscription)
		r.Get("/status/{session_id}", router.handler.SubscriptionStatus)
		r.Get("/me", router.handler.MySubscription)
	})

	// Reservations.
	r.Route("/api/v1/reservations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.authMW.RequireAuth)

		r.Get("/availability", router.handler.GetAvailability)
		r.Get("/me", router.handler.MyReservations)
		r.Get("/{id}", router.handler.GetReservation)
		r.Get("/{id}/qr", router.handler.ReservationQR)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
			r.Post("/", router.handler.CreateReservation)
			r.Post("/{id}/cancel", router.handler.CancelReservation)
			r.Put("/{id}/status", router.handler.UpdateReservationStatus)
		})
	})

	// Provider webhooks. No session auth; the processor signatures are
	// the authentication. The limit absorbs provider retry bursts.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWebhook))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/stripe", router.handler.StripeWebhook)
		r.Post("/paypal", router.handler.PayPalWebhook)
	})

	// Admin back-office. Every handler re-checks the admin role through
	// the authorization service; the middleware only establishes identity.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.authMW.RequireAuth)

		r.Get("/users", router.handler.AdminListUsers)
		r.Get("/subscriptions", router.handler.AdminListSubscriptions)
		r.Get("/reservations", router.handler.AdminListReservations)
		r.Get("/metrics", router.handler.AdminMetrics)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
			r.Put("/users/{id}/role", router.handler.AdminUpdateUserRole)
			r.Post("/videos", router.handler.AdminCreateVideo)
			r.Put("/videos/{id}", router.handler.AdminUpdateVideo)
			r.Delete("/videos/{id}", router.handler.AdminDeleteVideo)
		})
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
