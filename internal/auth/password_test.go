// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  bool
	}{
		{name: "default cost", password: "correct horse battery staple", cost: 0, wantErr: false},
		{name: "explicit cost", password: "hunter2hunter2", cost: bcrypt.MinCost, wantErr: false},
		{name: "empty password", password: "", cost: 0, wantErr: true},
		{name: "over bcrypt limit", password: strings.Repeat("a", 73), cost: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, tt.cost)
			if tt.wantErr {
				if err == nil {
					t.Error("HashPassword() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("HashPassword() error = %v", err)
				return
			}
			if hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
			if hash == tt.password {
				t.Error("HashPassword() returned the plaintext password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	const password = "correct horse battery staple"

	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("matching password", func(t *testing.T) {
		if err := CheckPassword(hash, password); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		err := CheckPassword(hash, "wrong password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("CheckPassword() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		if err := CheckPassword("not-a-bcrypt-hash", password); err == nil {
			t.Error("CheckPassword() expected error for malformed hash, got nil")
		}
	})
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	const password = "same password twice"

	first, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if first == second {
		t.Error("HashPassword() produced identical hashes for two calls")
	}
}
