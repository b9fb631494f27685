// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
)

// setupTestDB opens an in-memory DuckDB and creates the audit_events table
// with the same DDL internal/database uses.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ddl := `CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		event_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actor_id TEXT,
		actor_email TEXT,
		target_type TEXT,
		target_id TEXT,
		detail TEXT,
		ip_address TEXT
	);`
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("Failed to create audit_events table: %v", err)
	}

	return db
}

func testEvent(id string, occurredAt time.Time) *Event {
	return &Event{
		ID:         id,
		OccurredAt: occurredAt,
		Type:       EventTypeRoleAssigned,
		Severity:   SeverityWarning,
		Outcome:    OutcomeSuccess,
		ActorID:    "admin-1",
		ActorEmail: "admin@nazca360.pe",
		TargetType: "user",
		TargetID:   "user-2",
		Detail:     json.RawMessage(`{"old_role":"user","new_role":"staff"}`),
		IP:         "10.0.0.1",
	}
}

func TestDuckDBStore_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	event := testEvent("4b1c6f70-0000-4000-8000-000000000001", time.Now().UTC().Truncate(time.Millisecond))
	if err := store.Save(ctx, event); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.Type != event.Type {
		t.Errorf("Type = %q, want %q", got.Type, event.Type)
	}
	if got.ActorEmail != event.ActorEmail {
		t.Errorf("ActorEmail = %q, want %q", got.ActorEmail, event.ActorEmail)
	}
	if got.TargetID != event.TargetID {
		t.Errorf("TargetID = %q, want %q", got.TargetID, event.TargetID)
	}

	var detail map[string]string
	if err := json.Unmarshal(got.Detail, &detail); err != nil {
		t.Fatalf("Detail round-trip failed: %v", err)
	}
	if detail["new_role"] != "staff" {
		t.Errorf("detail new_role = %q, want staff", detail["new_role"])
	}
}

func TestDuckDBStore_SaveNilEvent(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)

	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) expected error, got nil")
	}
}

func TestDuckDBStore_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)

	if _, err := store.Get(context.Background(), "4b1c6f70-0000-4000-8000-00000000ffff"); err == nil {
		t.Error("Get() of missing event expected error, got nil")
	}
}

func TestDuckDBStore_QueryAndCount(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	events := []*Event{
		{ID: "4b1c6f70-0000-4000-8000-000000000001", OccurredAt: base.Add(-3 * time.Hour), Type: EventTypeVideoCreated, Severity: SeverityInfo, Outcome: OutcomeSuccess, ActorID: "admin-1"},
		{ID: "4b1c6f70-0000-4000-8000-000000000002", OccurredAt: base.Add(-2 * time.Hour), Type: EventTypeRoleAssigned, Severity: SeverityWarning, Outcome: OutcomeSuccess, ActorID: "admin-1", TargetType: "user", TargetID: "u1"},
		{ID: "4b1c6f70-0000-4000-8000-000000000003", OccurredAt: base.Add(-1 * time.Hour), Type: EventTypeAuthFailure, Severity: SeverityWarning, Outcome: OutcomeFailure, ActorID: ""},
	}
	for _, e := range events {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{Limit: 10}, 3},
		{"by type", QueryFilter{Types: []EventType{EventTypeVideoCreated}, Limit: 10}, 1},
		{"by outcome", QueryFilter{Outcomes: []Outcome{OutcomeFailure}, Limit: 10}, 1},
		{"by actor", QueryFilter{ActorID: "admin-1", Limit: 10}, 2},
		{"by target", QueryFilter{TargetType: "user", TargetID: "u1", Limit: 10}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Query() returned %d events, want %d", len(got), tt.want)
			}

			count, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != int64(tt.want) {
				t.Errorf("Count() = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestDuckDBStore_QueryOrdering(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	older := testEvent("4b1c6f70-0000-4000-8000-000000000001", base.Add(-time.Hour))
	newer := testEvent("4b1c6f70-0000-4000-8000-000000000002", base)
	_ = store.Save(ctx, older)
	_ = store.Save(ctx, newer)

	events, err := store.Query(ctx, QueryFilter{Limit: 10, OrderDesc: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Query() returned %d events, want 2", len(events))
	}
	if events[0].ID != newer.ID {
		t.Errorf("first event = %s, want newest first", events[0].ID)
	}
}

func TestDuckDBStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	_ = store.Save(ctx, testEvent("4b1c6f70-0000-4000-8000-000000000001", base.Add(-48*time.Hour)))
	_ = store.Save(ctx, testEvent("4b1c6f70-0000-4000-8000-000000000002", base))

	deleted, err := store.Delete(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Delete() removed %d events, want 1", deleted)
	}

	count, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after delete = %d, want 1", count)
	}
}

func TestDuckDBStore_GetStats(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	_ = store.Save(ctx, &Event{ID: "4b1c6f70-0000-4000-8000-000000000001", OccurredAt: base.Add(-time.Hour), Type: EventTypeVideoCreated, Severity: SeverityInfo, Outcome: OutcomeSuccess, ActorID: "a"})
	_ = store.Save(ctx, &Event{ID: "4b1c6f70-0000-4000-8000-000000000002", OccurredAt: base, Type: EventTypeVideoCreated, Severity: SeverityInfo, Outcome: OutcomeSuccess, ActorID: "a"})
	_ = store.Save(ctx, &Event{ID: "4b1c6f70-0000-4000-8000-000000000003", OccurredAt: base, Type: EventTypeAuthFailure, Severity: SeverityWarning, Outcome: OutcomeFailure, ActorID: ""})

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
