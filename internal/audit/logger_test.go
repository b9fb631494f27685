// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestLogger(store Store) *Logger {
	return NewLogger(store, &Config{
		Enabled:         true,
		RetentionDays:   365,
		CleanupInterval: time.Hour,
		BufferSize:      100,
	})
}

// waitForEvents polls the store until it holds want events or the deadline
// passes. The writer is asynchronous, so tests cannot assert immediately
// after Log.
func waitForEvents(t *testing.T, store *MemoryStore, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Len() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store has %d events, want %d", store.Len(), want)
}

func TestLogger_Log(t *testing.T) {
	store := NewMemoryStore(100)
	logger := newTestLogger(store)
	defer logger.Close()

	logger.Log(&Event{
		Type:     EventTypeVideoCreated,
		Severity: SeverityInfo,
		Outcome:  OutcomeSuccess,
		ActorID:  "admin-1",
	})

	waitForEvents(t, store, 1)

	events, err := store.Query(context.Background(), DefaultQueryFilter())
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Query() returned %d events, want 1", len(events))
	}
	if events[0].Type != EventTypeVideoCreated {
		t.Errorf("event type = %q, want %q", events[0].Type, EventTypeVideoCreated)
	}
}

func TestLogger_Disabled(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, &Config{Enabled: false, BufferSize: 10})
	defer logger.Close()

	logger.Log(&Event{Type: EventTypeVideoCreated, Severity: SeverityInfo, Outcome: OutcomeSuccess})

	// Give the writer a chance to (incorrectly) persist something.
	time.Sleep(50 * time.Millisecond)

	if store.Len() != 0 {
		t.Errorf("disabled logger persisted %d events, want 0", store.Len())
	}
}

func TestLogger_AutoGenerateIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore(100)
	logger := newTestLogger(store)
	defer logger.Close()

	logger.Log(&Event{Type: EventTypeAuthFailure, Severity: SeverityWarning, Outcome: OutcomeFailure})

	waitForEvents(t, store, 1)

	events, _ := store.Query(context.Background(), DefaultQueryFilter())
	if events[0].ID == "" {
		t.Error("event ID not generated")
	}
	if events[0].OccurredAt.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestLogger_TypedHelpers(t *testing.T) {
	store := NewMemoryStore(100)
	logger := newTestLogger(store)
	defer logger.Close()

	ctx := context.Background()
	actor := Actor{ID: "admin-1", Email: "admin@nazca360.pe", IP: "10.0.0.1"}

	logger.RoleAssigned(ctx, actor, "user-2", "user", "staff")
	logger.VideoCreated(ctx, actor, "video-1", "Sobrevuelo Nazca")
	logger.VideoUpdated(ctx, actor, "video-1", "Sobrevuelo Nazca HD")
	logger.VideoDeleted(ctx, actor, "video-1", "Sobrevuelo Nazca HD")
	logger.ReservationStatusChanged(ctx, actor, "res-1", "confirmed", "completed")
	logger.PaymentFinalized(ctx, "tx-1", "stripe", "subscription", "paid", 2999)
	logger.AuthFailure(ctx, "visitor@example.com", "10.0.0.2", "invalid_password")

	waitForEvents(t, store, 7)

	tests := []struct {
		name      string
		eventType EventType
		outcome   Outcome
	}{
		{"role assigned", EventTypeRoleAssigned, OutcomeSuccess},
		{"video created", EventTypeVideoCreated, OutcomeSuccess},
		{"video updated", EventTypeVideoUpdated, OutcomeSuccess},
		{"video deleted", EventTypeVideoDeleted, OutcomeSuccess},
		{"reservation status", EventTypeReservationStatusChanged, OutcomeSuccess},
		{"payment finalized", EventTypePaymentFinalized, OutcomeSuccess},
		{"auth failure", EventTypeAuthFailure, OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(context.Background(), QueryFilter{
				Types: []EventType{tt.eventType},
				Limit: 10,
			})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(events) == 0 {
				t.Fatalf("no %s events recorded", tt.eventType)
			}
			if events[0].Outcome != tt.outcome {
				t.Errorf("outcome = %q, want %q", events[0].Outcome, tt.outcome)
			}
		})
	}
}

func TestLogger_PaymentFinalized_FailureOutcome(t *testing.T) {
	store := NewMemoryStore(100)
	logger := newTestLogger(store)
	defer logger.Close()

	logger.PaymentFinalized(context.Background(), "tx-2", "paypal", "reservation", "failed", 1500)

	waitForEvents(t, store, 1)

	events, _ := store.Query(context.Background(), DefaultQueryFilter())
	if events[0].Outcome != OutcomeFailure {
		t.Errorf("failed payment outcome = %q, want %q", events[0].Outcome, OutcomeFailure)
	}
	if events[0].Severity != SeverityWarning {
		t.Errorf("failed payment severity = %q, want %q", events[0].Severity, SeverityWarning)
	}

	var detail map[string]interface{}
	if err := json.Unmarshal(events[0].Detail, &detail); err != nil {
		t.Fatalf("detail is not valid JSON: %v", err)
	}
	if detail["status"] != "failed" {
		t.Errorf("detail status = %v, want failed", detail["status"])
	}
}

func TestLogger_CloseDrainsBuffer(t *testing.T) {
	store := NewMemoryStore(100)
	logger := newTestLogger(store)

	for i := 0; i < 20; i++ {
		logger.Log(&Event{Type: EventTypeVideoCreated, Severity: SeverityInfo, Outcome: OutcomeSuccess})
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if store.Len() != 20 {
		t.Errorf("store has %d events after Close, want 20", store.Len())
	}
}

func TestMemoryStore_Query(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Now().UTC()
	seed := []Event{
		{ID: "e1", OccurredAt: base.Add(-3 * time.Hour), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess, ActorID: "admin-1", TargetType: "video", TargetID: "v1"},
		{ID: "e2", OccurredAt: base.Add(-2 * time.Hour), Type: EventTypeRoleAssigned, Outcome: OutcomeSuccess, ActorID: "admin-1", TargetType: "user", TargetID: "u1"},
		{ID: "e3", OccurredAt: base.Add(-1 * time.Hour), Type: EventTypeAuthFailure, Outcome: OutcomeFailure},
	}
	for i := range seed {
		if err := store.Save(ctx, &seed[i]); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"no filter", QueryFilter{Limit: 10}, 3},
		{"by type", QueryFilter{Types: []EventType{EventTypeVideoCreated}, Limit: 10}, 1},
		{"by outcome", QueryFilter{Outcomes: []Outcome{OutcomeFailure}, Limit: 10}, 1},
		{"by actor", QueryFilter{ActorID: "admin-1", Limit: 10}, 2},
		{"by target", QueryFilter{TargetType: "user", TargetID: "u1", Limit: 10}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"no match", QueryFilter{ActorID: "nobody", Limit: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("Query() returned %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestMemoryStore_QueryOrdering(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Now().UTC()
	_ = store.Save(ctx, &Event{ID: "older", OccurredAt: base.Add(-time.Hour), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess})
	_ = store.Save(ctx, &Event{ID: "newer", OccurredAt: base, Type: EventTypeVideoCreated, Outcome: OutcomeSuccess})

	events, err := store.Query(ctx, QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Query() returned %d events, want 2", len(events))
	}
	if events[0].ID != "newer" {
		t.Errorf("first event = %q, want newest first", events[0].ID)
	}
}

func TestMemoryStore_TimeRange(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		event := Event{
			ID:         time.Duration(i).String(),
			OccurredAt: base.Add(time.Duration(-i) * time.Hour),
			Type:       EventTypeVideoCreated,
			Outcome:    OutcomeSuccess,
		}
		if err := store.Save(ctx, &event); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	start := base.Add(-2*time.Hour - time.Minute)
	events, err := store.Query(ctx, QueryFilter{StartTime: &start, Limit: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("time-range query returned %d events, want 3", len(events))
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Now().UTC()
	old := Event{ID: "old", OccurredAt: base.Add(-48 * time.Hour), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess}
	recent := Event{ID: "recent", OccurredAt: base, Type: EventTypeVideoCreated, Outcome: OutcomeSuccess}
	_ = store.Save(ctx, &old)
	_ = store.Save(ctx, &recent)

	deleted, err := store.Delete(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Delete() removed %d events, want 1", deleted)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d events after delete, want 1", store.Len())
	}
}

func TestMemoryStore_EnforcesMaxLen(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		event := Event{ID: time.Duration(i).String(), OccurredAt: time.Now(), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess}
		if err := store.Save(ctx, &event); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if store.Len() > 10 {
		t.Errorf("store grew to %d events, max is 10", store.Len())
	}
}

func TestMemoryStore_GetStats(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	_ = store.Save(ctx, &Event{ID: "e1", OccurredAt: time.Now(), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess})
	_ = store.Save(ctx, &Event{ID: "e2", OccurredAt: time.Now(), Type: EventTypeVideoCreated, Outcome: OutcomeSuccess})
	_ = store.Save(ctx, &Event{ID: "e3", OccurredAt: time.Now(), Type: EventTypeAuthFailure, Outcome: OutcomeFailure})

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalEvents != 3 {
		t.Errorf("TotalEvents = %d, want 3", stats.TotalEvents)
	}
	if stats.EventsByType[string(EventTypeVideoCreated)] != 2 {
		t.Errorf("video.created count = %d, want 2", stats.EventsByType[string(EventTypeVideoCreated)])
	}
	if stats.EventsByOutcome[string(OutcomeFailure)] != 1 {
		t.Errorf("failure count = %d, want 1", stats.EventsByOutcome[string(OutcomeFailure)])
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil {
		t.Error("time range not populated")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr only", nil, "203.0.113.9:1234", "203.0.113.9:1234"},
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
		{"x-real-ip", map[string]string{"X-Real-IP": "198.51.100.8"}, "10.0.0.1:80", "198.51.100.8"},
		{"forwarded-for wins", map[string]string{"X-Forwarded-For": "198.51.100.7", "X-Real-IP": "198.51.100.8"}, "10.0.0.1:80", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMustJSON(t *testing.T) {
	data := mustJSON(map[string]string{"key": "value"})

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("mustJSON produced invalid JSON: %v", err)
	}
	if decoded["key"] != "value" {
		t.Errorf("decoded key = %q, want %q", decoded["key"], "value")
	}

	// Unmarshalable value falls back to an empty object.
	bad := mustJSON(make(chan int))
	if string(bad) != "{}" {
		t.Errorf("mustJSON(chan) = %s, want {}", bad)
	}
}
