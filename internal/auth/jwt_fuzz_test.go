// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/models"
)

// FuzzValidateToken exercises token validation against malformed,
// tampered and malicious inputs.
func FuzzValidateToken(f *testing.F) {
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret: testJWTSecret,
		TokenTTL:  24 * time.Hour,
	})
	if err != nil {
		f.Fatal(err)
	}

	validToken, _ := manager.GenerateToken(&models.User{
		ID:    uuid.New(),
		Email: "fuzz@example.com",
		Role:  models.RoleAdmin,
	})
	f.Add(validToken)
	f.Add("")
	f.Add("invalid.token.here")
	f.Add("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJlbWFpbCI6ImFkbWluIiwicm9sZSI6ImFkbWluIn0.invalid") // Invalid signature
	f.Add("eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJlbWFpbCI6ImFkbWluIiwicm9sZSI6ImFkbWluIn0.")         // Algorithm: none attack
	f.Add("eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.eyJlbWFpbCI6ImFkbWluIn0.sig")                         // Algorithm confusion (RS256)
	f.Add("..." + validToken)                                                                         // Prepended data
	f.Add(validToken + "...")                                                                         // Appended data
	f.Add(validToken[:len(validToken)-5])                                                             // Truncated
	f.Add("Bearer " + validToken)                                                                     // With Bearer prefix
	f.Add("\x00" + validToken)                                                                        // Null byte prefix
	f.Add(validToken + "\x00")                                                                        // Null byte suffix

	f.Fuzz(func(t *testing.T, tokenString string) {
		// Validation should never panic, regardless of input.
		claims, err := manager.ValidateToken(tokenString)

		if err == nil && claims == nil {
			t.Error("ValidateToken returned nil error but nil claims")
		}

		// Tokens with embedded null bytes should always fail.
		for i := 0; i < len(tokenString); i++ {
			if tokenString[i] == 0 {
				if err == nil {
					t.Error("ValidateToken accepted token with null byte")
				}
				break
			}
		}
	})
}

// FuzzGenerateToken exercises token generation with hostile email and
// role values.
func FuzzGenerateToken(f *testing.F) {
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret: testJWTSecret,
		TokenTTL:  24 * time.Hour,
	})
	if err != nil {
		f.Fatal(err)
	}

	f.Add("admin@example.com", "admin")
	f.Add("user@example.com", "user")
	f.Add("", "")
	f.Add("user\x00name@example.com", "role")    // Null byte in email
	f.Add("user@example.com", "role\x00")        // Null byte in role
	f.Add("user';DROP TABLE users;--", "admin")  // SQL injection attempt
	f.Add("<script>alert('xss')</script>", "")   // XSS attempt
	f.Add("admin\nadmin", "role\nrole")          // Newline injection
	f.Add(string(make([]byte, 1000)), "admin")   // Very long email
	f.Add("a@example.com", string(make([]byte, 1000)))

	f.Fuzz(func(t *testing.T, email, role string) {
		user := &models.User{ID: uuid.New(), Email: email, Role: role}

		token, err := manager.GenerateToken(user)
		if err != nil {
			// Errors are acceptable for some inputs
			return
		}
		if token == "" {
			t.Error("GenerateToken returned empty token without error")
		}

		claims, err := manager.ValidateToken(token)
		if err != nil {
			t.Errorf("Generated token failed validation: %v", err)
			return
		}

		// Invalid UTF-8 does not round-trip through JSON; it becomes
		// U+FFFD. Only assert equality for valid UTF-8 inputs.
		if claims.Email != email && utf8.ValidString(email) {
			t.Errorf("Email mismatch for valid UTF-8: got %q, want %q", claims.Email, email)
		}
		if claims.Role != role && utf8.ValidString(role) {
			t.Errorf("Role mismatch for valid UTF-8: got %q, want %q", claims.Role, role)
		}

		userID, err := claims.UserID()
		if err != nil {
			t.Errorf("UserID mismatch on generated token: %v", err)
		}
		if userID != user.ID {
			t.Errorf("UserID = %v, want %v", userID, user.ID)
		}

		if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
			t.Error("Generated token has invalid expiration")
		}
	})
}
