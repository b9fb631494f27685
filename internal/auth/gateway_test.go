// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nazca360/nazca360/internal/config"
)

func newTestGatewayClient(t *testing.T, baseURL string) *GatewayClient {
	t.Helper()

	client := NewGatewayClient(&config.SessionGatewayConfig{
		Enabled: true,
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
	if client == nil {
		t.Fatal("NewGatewayClient() = nil for enabled config")
	}
	return client
}

func TestNewGatewayClient_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.SessionGatewayConfig
	}{
		{name: "disabled", cfg: &config.SessionGatewayConfig{Enabled: false, BaseURL: "http://gateway"}},
		{name: "no base url", cfg: &config.SessionGatewayConfig{Enabled: true, BaseURL: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if client := NewGatewayClient(tt.cfg); client != nil {
				t.Errorf("NewGatewayClient() = %v, want nil", client)
			}
		})
	}
}

func TestGatewayResolve_Disabled(t *testing.T) {
	var client *GatewayClient

	_, err := client.Resolve(context.Background(), "session-id")
	if !errors.Is(err, ErrGatewayDisabled) {
		t.Errorf("Resolve() error = %v, want ErrGatewayDisabled", err)
	}
}

func TestGatewayResolve_EmptySessionID(t *testing.T) {
	client := newTestGatewayClient(t, "http://127.0.0.1:1")

	_, err := client.Resolve(context.Background(), "")
	if !errors.Is(err, ErrGatewayRejected) {
		t.Errorf("Resolve() error = %v, want ErrGatewayRejected", err)
	}
}

func TestGatewayResolve_Success(t *testing.T) {
	var gotSessionID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSessionID = r.Header.Get("X-Session-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cabin-visitor-42",
			"email": "visitante@example.com",
			"name": "Visitante Cabina",
			"picture": "https://cdn.example.com/p.jpg",
			"session_token": "gw-token"
		}`))
	}))
	defer server.Close()

	client := newTestGatewayClient(t, server.URL)

	identity, err := client.Resolve(context.Background(), "cabin-session-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotSessionID != "cabin-session-1" {
		t.Errorf("gateway received X-Session-ID = %v, want cabin-session-1", gotSessionID)
	}
	if identity.Email != "visitante@example.com" {
		t.Errorf("Resolve() email = %v, want visitante@example.com", identity.Email)
	}
	if identity.ID != "cabin-visitor-42" {
		t.Errorf("Resolve() id = %v, want cabin-visitor-42", identity.ID)
	}
	if identity.SessionToken != "gw-token" {
		t.Errorf("Resolve() session_token = %v, want gw-token", identity.SessionToken)
	}
}

func TestGatewayResolve_RejectedSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestGatewayClient(t, server.URL)

			_, err := client.Resolve(context.Background(), "unknown-session")
			if !errors.Is(err, ErrGatewayRejected) {
				t.Errorf("Resolve() error = %v, want ErrGatewayRejected", err)
			}
		})
	}
}

func TestGatewayResolve_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "missing email",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id": "x"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newTestGatewayClient(t, server.URL)

			_, err := client.Resolve(context.Background(), "some-session")
			if !errors.Is(err, ErrGatewayUnavailable) {
				t.Errorf("Resolve() error = %v, want ErrGatewayUnavailable", err)
			}
		})
	}
}

func TestGatewayResolve_CircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestGatewayClient(t, server.URL)

	// Drive the breaker past its failure threshold.
	for i := 0; i < 15; i++ {
		_, _ = client.Resolve(context.Background(), "some-session")
	}

	_, err := client.Resolve(context.Background(), "some-session")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrGatewayUnavailable once open", err)
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("Resolve() error = %v, want circuit-open fail-fast", err)
	}
}

func TestGatewayResolve_RejectionsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestGatewayClient(t, server.URL)

	// Unknown sessions are routine; twenty in a row must leave the
	// breaker closed.
	for i := 0; i < 20; i++ {
		if _, err := client.Resolve(context.Background(), "unknown"); !errors.Is(err, ErrGatewayRejected) {
			t.Fatalf("Resolve() error = %v, want ErrGatewayRejected", err)
		}
	}
}
