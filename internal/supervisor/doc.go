// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package supervisor provides Erlang-style process supervision for the
platform using suture v4.

The tree organizes the long-running services into three layers so a
crash in one cannot take down the others:

	RootSupervisor ("nazca360")
	├── JobsSupervisor ("jobs-layer")
	│   ├── hold-sweeper            (booking.RunHoldSweeper)
	│   ├── subscription-sweeper    (payments.RunSubscriptionSweeper)
	│   ├── session-cleanup         (auth SessionStore.CleanupExpired)
	│   ├── audit-cleanup           (audit.Logger.RunCleanup)
	│   └── slow-request-report     (middleware.PerformanceMonitor)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── availability-hub        (ws.Hub)
	│   └── event-consumer          (events.Subscriber, when enabled)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services restart with exponential backoff; failure counting is
per layer, so a flapping sweeper enters backoff without touching the
HTTP server. Context cancellation drains the whole tree, and
UnstoppedServiceReport names anything that missed the shutdown timeout.
Suture events are logged through the sutureslog slog adapter.

Typical wiring in main:

	tree, _ := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	tree.AddJobService(services.NewJobService("hold-sweeper", bookingSvc.RunHoldSweeper))
	tree.AddMessagingService(services.NewJobService("availability-hub", hub.Run))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))
	err := tree.Serve(ctx)

See internal/supervisor/services for the lifecycle adapters.
*/
package supervisor
