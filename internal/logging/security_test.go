// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "***"},
		{"exactlytwelv", "***"},
		{"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9", "eyJh...VCJ9"},
		{"1234567890123456", "1234...3456"},
	}

	for _, tt := range tests {
		result := SanitizeToken(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeSessionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short123", "***"},
		{"exactlytwelv", "***"},
		{"abc123def456789", "abc1...6789"},
		{"session-id-12345678", "sess...5678"},
	}

	for _, tt := range tests {
		result := SanitizeSessionID(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeSessionID(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"user-12345678", "user...5678"},
		{"a-very-long-user-id", "a-ve...r-id"},
	}

	for _, tt := range tests {
		result := SanitizeUserID(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeUserID(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"invalid", "***"},
		{"a@b.com", "***@b.com"},
		{"ab@example.com", "***@example.com"},
		{"maria.quispe@example.com", "ma***@example.com"},
	}

	for _, tt := range tests {
		result := SanitizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain error", "connection refused", "connection refused"},
		{"contains password", "invalid password for user", "authentication error"},
		{"contains token", "token expired at 12:00", "authentication error"},
		{"contains bearer", "Bearer abc123 rejected", "authentication error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := SanitizeError(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeError(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"sensitive key", "access_token", "verylongtokenvalue123", "very...e123"},
		{"password key", "password", "hunter2hunter2hunter2", "hunt...ter2"},
		{"email value", "contact", "maria.quispe@example.com", "ma***@example.com"},
		{"plain value", "cabin", "cabin-2", "cabin-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := SanitizeValue(tt.key, tt.value)
			if result != tt.expected {
				t.Errorf("SanitizeValue(%q, %q) = %q, want %q", tt.key, tt.value, result, tt.expected)
			}
		})
	}
}

func TestSecurityLoggerLogEvent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	secLogger := NewSecurityLogger()
	secLogger.LogEvent(&SecurityEvent{
		Event:     "login_success",
		UserID:    "user-12345678",
		Email:     "maria.quispe@example.com",
		Provider:  "password",
		IPAddress: "192.0.2.10",
		Success:   true,
	})

	output := buf.String()
	if !strings.Contains(output, "login_success") {
		t.Errorf("expected event type in output: %s", output)
	}
	if !strings.Contains(output, `"status":"success"`) {
		t.Errorf("expected success status in output: %s", output)
	}
	// Raw user ID must never appear in logs
	if strings.Contains(output, "user-12345678") {
		t.Errorf("expected sanitized user ID, got raw value: %s", output)
	}
	if strings.Contains(output, "maria.quispe@") {
		t.Errorf("expected sanitized email, got raw value: %s", output)
	}
}

func TestSecurityLoggerLoginFailure(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	secLogger := NewSecurityLogger()
	secLogger.LogLoginFailure("maria.quispe@example.com", "password", "192.0.2.10", "test-agent", "invalid password given")

	output := buf.String()
	if !strings.Contains(output, "login_failed") {
		t.Errorf("expected login_failed event in output: %s", output)
	}
	if !strings.Contains(output, `"status":"failed"`) {
		t.Errorf("expected failed status in output: %s", output)
	}
	// Error mentioning "password" must be replaced with a generic message
	if strings.Contains(output, "invalid password") {
		t.Errorf("expected sanitized error message: %s", output)
	}
}

func TestSecurityLoggerWebhookRejected(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	secLogger := NewSecurityLogger()
	secLogger.LogWebhookRejected("stripe", "192.0.2.20", "signature mismatch")

	output := buf.String()
	if !strings.Contains(output, "webhook_rejected") {
		t.Errorf("expected webhook_rejected event in output: %s", output)
	}
	if !strings.Contains(output, "stripe") {
		t.Errorf("expected provider in output: %s", output)
	}
}

func TestSecurityLoggerAdminAction(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	secLogger := NewSecurityLogger()
	secLogger.LogAdminAction("admin-87654321", "video_delete", "video-42", "192.0.2.30", true)

	output := buf.String()
	if !strings.Contains(output, "admin_action") {
		t.Errorf("expected admin_action event in output: %s", output)
	}
	if !strings.Contains(output, "video_delete") {
		t.Errorf("expected action detail in output: %s", output)
	}
}
