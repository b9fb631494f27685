// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"errors"
	"testing"
)

// mockCloser implements io.Closer for testing
type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}

func TestCloseWithLog(t *testing.T) {
	t.Run("nil closer does not panic", func(t *testing.T) {
		closeWithLog(nil, "test")
	})

	t.Run("closes the resource", func(t *testing.T) {
		closer := &mockCloser{}
		closeWithLog(closer, "test resource")
		if !closer.closed {
			t.Error("Expected closer to be closed")
		}
	})

	t.Run("close error does not propagate", func(t *testing.T) {
		closer := &mockCloser{err: errors.New("close failed: connection reset")}
		closeWithLog(closer, "database connection")
		if !closer.closed {
			t.Error("Expected closer to be closed")
		}
	})
}

func TestCloseQuietly(t *testing.T) {
	t.Run("nil closer does not panic", func(t *testing.T) {
		closeQuietly(nil)
	})

	t.Run("swallows close errors", func(t *testing.T) {
		closer := &mockCloser{err: errors.New("boom")}
		closeQuietly(closer)
		if !closer.closed {
			t.Error("Expected closer to be closed")
		}
	})
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "unique constraint", err: errors.New(`Constraint Error: Duplicate key "email" violates unique constraint`), want: true},
		{name: "duplicate key", err: errors.New("duplicate key value"), want: true},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueConstraintError(tt.err); got != tt.want {
				t.Errorf("isUniqueConstraintError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
