// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package main is the entry point for the Nazca360 server application.
//
// Nazca360 is the backend for a VR sightseeing center in Nasca, Peru.
// Visitors watch 360° flight-over videos of the Nasca Lines inside on-site
// VR cabins; the platform handles accounts, subscriptions, the cabin
// reservation calendar, and the video catalog.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and seed the sample catalog on first run
//  3. Sessions: Badger-backed (or in-memory) session and OAuth state stores
//  4. Authentication: JWT manager, email token manager, Google OAuth, session gateway
//  5. Authorization: Casbin RBAC enforcer with decision logging
//  6. Events (optional): NATS JetStream backbone with embedded server support
//  7. Domain services: booking scheduler, payment processing, transactional mail
//  8. HTTP Server: REST API under /api/v1 plus the availability WebSocket
//
// Everything long-running sits under a suture supervisor tree (jobs,
// messaging, and API layers) for automatic restart on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (see .env.example)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Minimum production settings:
//   - JWT_SECRET: 32+ character secret for token signing
//   - EMAIL_TOKEN_SECRET: secret for verification and reset tokens
//     (falls back to JWT_SECRET when unset)
//   - ADMIN_EMAILS: comma-separated accounts promoted to admin at startup
//
// # Build Tags
//
//	go build -tags nats ./cmd/server  # Enable the NATS JetStream event backbone
//
// Without the tag, domain events are dropped by a no-op publisher and email
// notifications are not sent.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops sweepers, the WebSocket hub, and the event consumer
//   - Closes the event backbone, audit logger, session stores, and database
//
// # Example Usage
//
// Development (payments and email disabled, in-memory sessions):
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export SESSIONS_STORE=memory
//	./nazca360
//
// Production with Stripe, Google sign-in, and the event backbone:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_EMAILS=admin@nazca360.pe
//	export PAYMENTS_ENABLED=true
//	export STRIPE_ENABLED=true
//	export STRIPE_SECRET_KEY=sk_live_...
//	export STRIPE_WEBHOOK_SECRET=whsec_...
//	export GOOGLE_OAUTH_ENABLED=true
//	export GOOGLE_CLIENT_ID=...
//	export GOOGLE_CLIENT_SECRET=...
//	export EVENTS_ENABLED=true
//	./nazca360  # built with -tags nats
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nazca360/nazca360/internal/api"
	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/authz"
	"github.com/nazca360/nazca360/internal/booking"
	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/mail"
	"github.com/nazca360/nazca360/internal/payments"
	"github.com/nazca360/nazca360/internal/supervisor"
	"github.com/nazca360/nazca360/internal/supervisor/services"
	"github.com/nazca360/nazca360/internal/ws"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const slowRequestThresholdMS = 1000

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Nazca360 with supervisor tree")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := db.SeedCatalog(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed video catalog")
	}

	// Context for graceful shutdown: everything supervised stops when it
	// is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session and OAuth state stores (Badger or in-memory per config).
	stores, err := auth.NewStoreFactory(&cfg.Sessions, cfg.Security.JWTSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session stores")
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session stores")
		}
	}()
	sessions := stores.Sessions()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize email token manager")
	}
	authMW := auth.NewMiddleware(jwtManager, sessions, &cfg.Sessions, &cfg.Security)

	var google *auth.GoogleFlow
	if cfg.OAuth.Google.Enabled {
		google, err = auth.NewGoogleFlow(ctx, &cfg.OAuth.Google, stores.OAuthStates(), cfg.OAuth.StateTTL)
		if err != nil {
			// Discovery against the issuer can fail on a flaky network;
			// local login still works, so keep booting.
			logging.Warn().Err(err).Msg("Google sign-in unavailable, continuing without it")
			google = nil
		} else {
			logging.Info().Msg("Google sign-in enabled")
		}
	}

	var gateway *auth.GatewayClient
	if cfg.SessionGateway.Enabled {
		gateway = auth.NewGatewayClient(&cfg.SessionGateway)
		logging.Info().Str("url", cfg.SessionGateway.BaseURL).Msg("Session gateway login enabled")
	}

	// Authorization: Casbin RBAC with the embedded model and policy.
	enforcer, err := authz.NewEnforcer(ctx, authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	authzConfig := authz.DefaultServiceConfig()
	authzConfig.AdminEmails = cfg.Security.AdminEmails
	authzService := authz.NewService(enforcer, db, authz.NewDecisionLog(authz.DefaultDecisionLogConfig()), authzConfig)
	defer authzService.Close()
	if err := authzService.BootstrapAdmins(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin accounts")
	}

	mailer, err := mail.NewSender(cfg.Email)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize mail sender")
	}

	// Event backbone (embedded NATS JetStream when built with -tags nats).
	eventComponents, err := InitEvents(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event backbone")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		eventComponents.Shutdown(shutdownCtx)
	}()
	publisher := eventComponents.Publisher()

	// Audit trail shares the DuckDB connection with the domain stores.
	auditor := audit.NewLogger(audit.NewDuckDBStore(db.Conn()), audit.DefaultConfig())
	defer func() {
		if err := auditor.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	hub := ws.NewHub()

	bookingService, err := booking.NewService(db, cfg, publisher, hub, auditor)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize booking service")
	}
	paymentService, err := payments.NewService(db, cfg, bookingService, publisher, auditor)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize payment service")
	}

	handler := api.NewHandler(api.HandlerDeps{
		DB:        db,
		Config:    cfg,
		JWT:       jwtManager,
		Tokens:    tokens,
		AuthMW:    authMW,
		Google:    google,
		Gateway:   gateway,
		Authz:     authzService,
		Booking:   bookingService,
		Payments:  paymentService,
		Hub:       hub,
		Mailer:    mailer,
		Auditor:   auditor,
		Publisher: publisher,
		Version:   version,
	})
	defer handler.Close()

	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg)))

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router.Setup(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Supervisor tree: sutureslog bridges supervision events into slog,
	// backed by the zerolog root logger.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Jobs layer: sweepers and periodic maintenance.
	tree.AddJobService(services.NewJobService("hold-sweeper", bookingService.RunHoldSweeper))
	tree.AddJobService(services.NewJobService("subscription-sweeper", paymentService.RunSubscriptionSweeper))
	tree.AddJobService(services.NewPeriodicJob("session-cleanup", cfg.Sessions.CleanupInterval, func(ctx context.Context) error {
		removed, err := sessions.CleanupExpired(ctx)
		if removed > 0 {
			logging.Debug().Int("removed", removed).Msg("Expired sessions cleaned up")
		}
		return err
	}))
	tree.AddJobService(services.NewJobService("audit-cleanup", func(ctx context.Context) error {
		auditor.RunCleanup(ctx)
		return ctx.Err()
	}))
	tree.AddJobService(services.NewPeriodicJob("slow-request-report", time.Minute, func(context.Context) error {
		router.Performance().LogSlowRequests(slowRequestThresholdMS)
		return nil
	}))

	// Messaging layer: WebSocket availability hub plus the notification
	// consumer when the event backbone is up.
	tree.AddMessagingService(services.NewJobService("availability-hub", hub.Run))
	if subscriber := eventComponents.Subscriber(); subscriber != nil {
		consumer := events.NewNotificationConsumer(mailer, cfg.Server.FrontendURL)
		topic := eventComponents.Topic()
		tree.AddMessagingService(services.NewJobService("event-consumer", func(ctx context.Context) error {
			return subscriber.Run(ctx, topic, consumer.Handle)
		}))
		logging.Info().Msg("Notification consumer added to supervisor tree")
	}

	// API layer.
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
