// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package services adapts application components to the suture v4
supervision model.

Each wrapper implements suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService translates http.Server's blocking ListenAndServe
into the Serve pattern with a bounded graceful Shutdown. JobService
names an already context-aware run loop (the availability hub, the
reservation hold sweeper, the subscription sweeper, the event
consumer). PeriodicJob drives a step function on a ticker for the
maintenance tasks that are plain calls rather than loops: session
cleanup, audit retention, the slow-request report.

All wrappers implement fmt.Stringer so suture's event hook logs them
by name.
*/
package services
