// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package config

import (
	"strings"
	"testing"
)

func TestDefaultPasswordPolicy(t *testing.T) {
	policy := DefaultPasswordPolicy()

	if policy.MinLength != 8 {
		t.Errorf("MinLength = %d, want 8", policy.MinLength)
	}
	if policy.RequireUppercase {
		t.Error("RequireUppercase should be false for self-service accounts")
	}
	if !policy.RequireLowercase {
		t.Error("RequireLowercase should be true")
	}
	if !policy.RequireDigit {
		t.Error("RequireDigit should be true")
	}
	if policy.RequireSpecial {
		t.Error("RequireSpecial should be false for self-service accounts")
	}
	if policy.MaxConsecutiveRepeats != 4 {
		t.Errorf("MaxConsecutiveRepeats = %d, want 4", policy.MaxConsecutiveRepeats)
	}
	if !policy.ForbidCommonPasswords {
		t.Error("ForbidCommonPasswords should be true")
	}
	if !policy.ForbidEmailSimilarity {
		t.Error("ForbidEmailSimilarity should be true")
	}
}

func TestPasswordPolicyValidate(t *testing.T) {
	policy := DefaultPasswordPolicy()

	tests := []struct {
		name      string
		password  string
		email     string
		wantValid bool
		wantErr   string
	}{
		{
			name:      "valid password",
			password:  "lineas.andinas.9",
			email:     "visitor@gmail.com",
			wantValid: true,
		},
		{
			name:      "valid with mixed case and digits",
			password:  "MachuPicchu2026",
			email:     "visitor@gmail.com",
			wantValid: true,
		},
		{
			name:      "too short",
			password:  "abc1",
			email:     "",
			wantValid: false,
			wantErr:   "at least 8 characters",
		},
		{
			name:      "missing digit",
			password:  "abcdefgh",
			email:     "",
			wantValid: false,
			wantErr:   "at least one digit",
		},
		{
			name:      "missing lowercase",
			password:  "12345678A",
			email:     "",
			wantValid: false,
			wantErr:   "at least one lowercase",
		},
		{
			name:      "too many consecutive repeats",
			password:  "aaaaa123",
			email:     "",
			wantValid: false,
			wantErr:   "consecutive repeated",
		},
		{
			name:      "exactly four repeats allowed",
			password:  "aaaa1234",
			email:     "",
			wantValid: true,
		},
		{
			name:      "common breached password",
			password:  "password1",
			email:     "",
			wantValid: false,
			wantErr:   "too common",
		},
		{
			name:      "platform name as password",
			password:  "nazca360",
			email:     "",
			wantValid: false,
			wantErr:   "too common",
		},
		{
			name:      "landmark name as password",
			password:  "machupicchu",
			email:     "",
			wantValid: false,
			wantErr:   "too common",
		},
		{
			name:      "contains email local part",
			password:  "maria.quispe99",
			email:     "maria.quispe@gmail.com",
			wantValid: false,
			wantErr:   "similar to your email",
		},
		{
			name:      "contains email local part case insensitive",
			password:  "Maria.Quispe88",
			email:     "MARIA.QUISPE@gmail.com",
			wantValid: false,
			wantErr:   "similar to your email",
		},
		{
			name:      "contains reversed email local part",
			password:  "solrac2024",
			email:     "carlos@gmail.com",
			wantValid: false,
			wantErr:   "similar to your email",
		},
		{
			name:      "contains leet-substituted email local part",
			password:  "xm@r1@.qu1$p3z",
			email:     "maria.quispe@gmail.com",
			wantValid: false,
			wantErr:   "similar to your email",
		},
		{
			name:      "short email local part not compared",
			password:  "ana12345",
			email:     "ana@gmail.com",
			wantValid: true,
		},
		{
			name:      "empty email skips similarity check",
			password:  "maria.quispe99",
			email:     "",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := policy.Validate(tt.password, tt.email)
			if result.Valid != tt.wantValid {
				t.Errorf("Validate(%q) valid = %v, want %v (errors: %v)",
					tt.password, result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantErr != "" {
				found := false
				for _, e := range result.Errors {
					if strings.Contains(e, tt.wantErr) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Validate(%q) errors = %v, want containing %q",
						tt.password, result.Errors, tt.wantErr)
				}
			}
		})
	}
}

func TestPasswordPolicyValidateMultipleErrors(t *testing.T) {
	policy := DefaultPasswordPolicy()

	// Short, no digit, no lowercase
	result := policy.Validate("ABC", "")
	if result.Valid {
		t.Fatal("Validate(ABC) = valid, want invalid")
	}
	if len(result.Errors) < 3 {
		t.Errorf("Validate(ABC) errors = %v, want at least 3", result.Errors)
	}
}

func TestPasswordPolicyValidateWithError(t *testing.T) {
	policy := DefaultPasswordPolicy()

	if err := policy.ValidateWithError("lineas.andinas.9", ""); err != nil {
		t.Errorf("ValidateWithError(valid) = %v, want nil", err)
	}

	err := policy.ValidateWithError("abc", "")
	if err == nil {
		t.Fatal("ValidateWithError(abc) = nil, want error")
	}
	if !strings.Contains(err.Error(), "; ") && !strings.Contains(err.Error(), "at least") {
		t.Errorf("ValidateWithError(abc) = %v, want joined messages", err)
	}
}

func TestMaxConsecutiveRepeats(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 1},
		{"aabbb", 3},
		{"aaaa", 4},
		{"abab", 1},
		{"xxyyxx", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := maxConsecutiveRepeats(tt.input); got != tt.want {
				t.Errorf("maxConsecutiveRepeats(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCommonPassword(t *testing.T) {
	common := []string{"123456", "qwerty", "NAZCA360", "Peru123", "cusco", "vrtour"}
	for _, p := range common {
		if !isCommonPassword(p) {
			t.Errorf("isCommonPassword(%q) = false, want true", p)
		}
	}

	uncommon := []string{"lineas.andinas.9", "morropon2024", "k8P!mQ2vXr9z"}
	for _, p := range uncommon {
		if isCommonPassword(p) {
			t.Errorf("isCommonPassword(%q) = true, want false", p)
		}
	}
}

func TestIsSimilarToEmail(t *testing.T) {
	tests := []struct {
		name     string
		password string
		email    string
		want     bool
	}{
		{"exact local part", "maria.quispe", "maria.quispe@gmail.com", true},
		{"local part embedded", "xxmaria.quispexx", "maria.quispe@gmail.com", true},
		{"password inside local part", "quispe", "maria.quispe@gmail.com", true},
		{"reversed local part", "epsiuq.airam", "maria.quispe@gmail.com", true},
		{"unrelated password", "totally.different.1", "maria.quispe@gmail.com", false},
		{"short local part skipped", "ana999", "ana@gmail.com", false},
		{"email without at sign", "soporte99", "soporte", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSimilarToEmail(tt.password, tt.email); got != tt.want {
				t.Errorf("isSimilarToEmail(%q, %q) = %v, want %v", tt.password, tt.email, got, tt.want)
			}
		})
	}
}

func TestReverseString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"a", "a"},
		{"abc", "cba"},
		{"nazca", "aczan"},
	}

	for _, tt := range tests {
		if got := reverseString(tt.input); got != tt.want {
			t.Errorf("reverseString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
