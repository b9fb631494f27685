// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/models"
)

// minSecretLength is the minimum accepted JWT secret length in bytes.
// Shorter secrets make HS256 brute-forceable offline.
const minSecretLength = 32

// defaultTokenTTL is used when the configuration does not set one.
const defaultTokenTTL = 24 * time.Hour

// Claims represents the JWT claims issued to authenticated visitors.
// The user ID travels in the registered Subject claim.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the Subject claim back into a user ID.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	return id, nil
}

// JWTManager handles access token creation and validation.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a JWT token manager with the configured secret and TTL.
//
// The manager signs with HMAC-SHA256. The secret must be at least 32
// characters; anything shorter is rejected at startup rather than silently
// weakening every token the platform issues.
//
// Parameters:
//   - cfg: Security configuration containing JWT secret and token TTL
//
// Returns:
//   - Pointer to initialized JWTManager
//   - error if JWT_SECRET is missing or shorter than 32 characters
//
// Example:
//
//	jwtManager, err := auth.NewJWTManager(&cfg.Security)
//	if err != nil {
//	    log.Fatal("Failed to initialize JWT manager:", err)
//	}
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minSecretLength, len(cfg.JWTSecret))
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
	}, nil
}

// GenerateToken creates a signed access token for an authenticated user.
//
// Token Claims:
//   - Subject: user ID (UUID string)
//   - Email, Role: read by the middleware without a database round trip
//   - ExpiresAt: now + configured TTL
//   - IssuedAt, NotBefore: token creation timestamp
//
// Tokens are stateless and cannot be revoked before expiration; session
// revocation only affects the cookie flow.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a token string and extracts its claims.
//
// Validation Steps:
//  1. Parse token structure and extract claims
//  2. Verify the HMAC-SHA256 signature against the configured secret
//  3. Check the signing algorithm is HMAC (prevents algorithm confusion)
//  4. Verify ExpiresAt and NotBefore against server time
//
// Returns ErrExpiredCredentials for expired tokens so callers can
// distinguish "log in again" from "tampered token".
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredCredentials, err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// TTL returns the configured access token lifetime.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}
