// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestJobServiceImplementsSutureService(t *testing.T) {
	var _ suture.Service = (*JobService)(nil)
	var _ suture.Service = (*PeriodicJob)(nil)
}

func TestJobServiceDelegatesRun(t *testing.T) {
	runErr := errors.New("hold sweeper crashed")
	svc := NewJobService("hold-sweeper", func(ctx context.Context) error {
		return runErr
	})

	if svc.String() != "hold-sweeper" {
		t.Errorf("String() = %q, want hold-sweeper", svc.String())
	}
	if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
		t.Errorf("Serve() = %v, want run error", err)
	}
}

func TestJobServiceStopsOnCancel(t *testing.T) {
	svc := NewJobService("availability-hub", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestPeriodicJobRunsSteps(t *testing.T) {
	var steps atomic.Int32
	job := NewPeriodicJob("session-cleanup", 10*time.Millisecond, func(ctx context.Context) error {
		steps.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := job.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if steps.Load() < 2 {
		t.Errorf("step ran %d times, want at least 2", steps.Load())
	}
}

func TestPeriodicJobSurvivesStepErrors(t *testing.T) {
	var steps atomic.Int32
	job := NewPeriodicJob("audit-cleanup", 10*time.Millisecond, func(ctx context.Context) error {
		steps.Add(1)
		return errors.New("transient store error")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_ = job.Serve(ctx)
	if steps.Load() < 2 {
		t.Errorf("step ran %d times, want retries after errors", steps.Load())
	}
}
