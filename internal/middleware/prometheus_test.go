// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPrometheusMetricsPassesThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		status int
	}{
		{"catalog read ok", http.MethodGet, http.StatusOK},
		{"reservation created", http.MethodPost, http.StatusCreated},
		{"validation rejected", http.MethodPost, http.StatusBadRequest},
		{"auth required", http.MethodGet, http.StatusUnauthorized},
		{"upstream failure", http.MethodPut, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/reservations", nil)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestPrometheusMetricsDefaultStatus(t *testing.T) {
	t.Parallel()

	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want implicit 200", rec.Code)
	}
	if rec.Body.String() != `{"status":"success"}` {
		t.Errorf("body = %q, instrumentation must not alter it", rec.Body.String())
	}
}

func TestMetricsResponseWriterCapturesStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapper := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)

	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("captured status = %d, want 404", wrapper.statusCode)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("underlying status = %d, want 404", rec.Code)
	}
}

func TestMetricsResponseWriterPreservesWrites(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapper := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	wrapper.Header().Set("Content-Type", "application/json")
	n, err := wrapper.Write([]byte("test body"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 9 {
		t.Errorf("wrote %d bytes, want 9", n)
	}
	if rec.Body.String() != "test body" {
		t.Errorf("body = %q, want test body", rec.Body.String())
	}
	if wrapper.statusCode != http.StatusOK {
		t.Errorf("implicit status = %d, want 200", wrapper.statusCode)
	}
}

func BenchmarkPrometheusMetrics(b *testing.B) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}
