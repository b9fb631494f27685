// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package services

import (
	"context"
	"time"

	"github.com/nazca360/nazca360/internal/logging"
)

// JobService wraps a long-running func(ctx) error as a suture service.
// Used for components whose run loop already blocks until cancellation:
// the availability hub, the hold and subscription sweepers, the event
// consumer.
type JobService struct {
	name string
	run  func(ctx context.Context) error
}

// NewJobService names a blocking run function for supervision.
func NewJobService(name string, run func(ctx context.Context) error) *JobService {
	return &JobService{name: name, run: run}
}

// Serve implements suture.Service.
func (j *JobService) Serve(ctx context.Context) error {
	return j.run(ctx)
}

// String identifies the service in suture's event log.
func (j *JobService) String() string {
	return j.name
}

// PeriodicJob runs a step function on a fixed interval until the
// context ends. Step errors are logged, not fatal: the next tick tries
// again, and suture only restarts the job if the loop itself exits.
type PeriodicJob struct {
	name     string
	interval time.Duration
	step     func(ctx context.Context) error
}

// NewPeriodicJob schedules step every interval. A non-positive interval
// falls back to one minute rather than panicking the ticker.
func NewPeriodicJob(name string, interval time.Duration, step func(ctx context.Context) error) *PeriodicJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicJob{name: name, interval: interval, step: step}
}

// Serve implements suture.Service.
func (p *PeriodicJob) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logging.Info().
		Str("job", p.name).
		Dur("interval", p.interval).
		Msg("Periodic job started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.step(ctx); err != nil {
				logging.CtxErr(ctx, err).
					Str("job", p.name).
					Msg("Periodic job step failed")
			}
		}
	}
}

// String identifies the service in suture's event log.
func (p *PeriodicJob) String() string {
	return p.name
}
