// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/nazca360/nazca360/internal/config"
)

// Action token purposes. Each purpose gets its own HKDF-derived signing
// key, so a verification token can never pass as a reset token.
const (
	PurposeEmailVerification = "email-verification"
	PurposePasswordReset     = "password-reset"
)

// Action token lifetimes.
const (
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour
)

// Action token errors.
var (
	// ErrTokenExpired indicates the token's timestamp has lapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a malformed, tampered or wrong-purpose token.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenManager issues and verifies purpose-scoped action tokens for the
// email flows: account verification links and password reset links.
//
// Tokens are HMAC-SHA256 signed and carry the user ID and an expiry
// timestamp in the clear; they grant a single narrow action and are
// consumed by endpoints that make repeat use harmless (verifying twice is
// a no-op, resetting twice requires the email inbox either way).
//
// Format: base64url(userID:expiresUnix) + "." + base64url(signature).
type TokenManager struct {
	keys map[string][]byte
}

// NewTokenManager creates a token manager keyed from the platform secret.
// Per-purpose signing keys are derived with HKDF-SHA256 so neither key
// equals the raw JWT secret.
func NewTokenManager(cfg *config.SecurityConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minSecretLength, len(cfg.JWTSecret))
	}

	keys := make(map[string][]byte, 2)
	for _, purpose := range []string{PurposeEmailVerification, PurposePasswordReset} {
		key, err := deriveTokenKey([]byte(cfg.JWTSecret), purpose)
		if err != nil {
			return nil, fmt.Errorf("derive %s key: %w", purpose, err)
		}
		keys[purpose] = key
	}

	return &TokenManager{keys: keys}, nil
}

// deriveTokenKey derives a 32-byte signing key from the secret, bound to
// the given purpose through the HKDF info parameter.
func deriveTokenKey(secret []byte, purpose string) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, []byte("nazca360-action-token:"+purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("hkdf read: %w", err)
	}
	return key, nil
}

// EmailVerificationToken issues a 24-hour token for the verification link
// sent after registration.
func (m *TokenManager) EmailVerificationToken(userID uuid.UUID) (string, error) {
	return m.issue(PurposeEmailVerification, userID, EmailVerificationTTL)
}

// PasswordResetToken issues a 1-hour token for the reset link sent by the
// forgot-password flow.
func (m *TokenManager) PasswordResetToken(userID uuid.UUID) (string, error) {
	return m.issue(PurposePasswordReset, userID, PasswordResetTTL)
}

// VerifyEmailToken checks an email verification token and returns the
// user it was issued for.
func (m *TokenManager) VerifyEmailToken(raw string) (uuid.UUID, error) {
	return m.verify(PurposeEmailVerification, raw)
}

// VerifyPasswordResetToken checks a password reset token and returns the
// user it was issued for.
func (m *TokenManager) VerifyPasswordResetToken(raw string) (uuid.UUID, error) {
	return m.verify(PurposePasswordReset, raw)
}

func (m *TokenManager) issue(purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	key, ok := m.keys[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	expires := time.Now().Add(ttl).Unix()
	payload := userID.String() + ":" + strconv.FormatInt(expires, 10)
	signature := signTokenPayload(key, payload)

	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(signature), nil
}

func (m *TokenManager) verify(purpose, raw string) (uuid.UUID, error) {
	key, ok := m.keys[purpose]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown token purpose %q", purpose)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return uuid.Nil, ErrTokenInvalid
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	payload := string(payloadBytes)
	expected := signTokenPayload(key, payload)
	if !hmac.Equal(signature, expected) {
		return uuid.Nil, ErrTokenInvalid
	}

	// Signature is valid; the payload can now be trusted.
	userPart, expiresPart, found := strings.Cut(payload, ":")
	if !found {
		return uuid.Nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(userPart)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	expires, err := strconv.ParseInt(expiresPart, 10, 64)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	if time.Now().Unix() > expires {
		return uuid.Nil, ErrTokenExpired
	}

	return userID, nil
}

func signTokenPayload(key []byte, payload string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
