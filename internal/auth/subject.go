// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

// Common authentication errors. Handlers translate these into API error
// codes; the auth package never writes response bodies for them itself.
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the provided credentials were rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates the credentials have expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

type contextKey string

// AuthSubjectContextKey is the context key under which the middleware
// stores the authenticated subject.
const AuthSubjectContextKey contextKey = "auth_subject"

// AuthSubject is the normalized identity attached to an authenticated
// request. It is produced from either a validated JWT or a server-side
// session and is the only identity type handlers consume.
//
// SessionID is empty for stateless JWT authentication; it is set when the
// request was authenticated through the session cookie, so logout can
// revoke the right session.
type AuthSubject struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	SessionID string    `json:"session_id,omitempty"`
}

// IsAdmin reports whether the subject holds the admin role.
func (s *AuthSubject) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// IsStaff reports whether the subject holds the staff role or above.
func (s *AuthSubject) IsStaff() bool {
	return s.Role == models.RoleStaff || s.Role == models.RoleAdmin
}

// CanAccessUser reports whether the subject may operate on the given
// user's data: their own, or anyone's for admins.
func (s *AuthSubject) CanAccessUser(userID uuid.UUID) bool {
	return s.ID == userID || s.IsAdmin()
}

// SubjectFromUser builds an AuthSubject from a user record.
func SubjectFromUser(user *models.User) *AuthSubject {
	return &AuthSubject{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Provider: user.Provider,
	}
}

// WithAuthSubject returns a context carrying the subject.
func WithAuthSubject(ctx context.Context, subject *AuthSubject) context.Context {
	return context.WithValue(ctx, AuthSubjectContextKey, subject)
}

// GetAuthSubject extracts the authenticated subject from the context.
// Returns nil when the request is anonymous.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	subject, ok := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	if !ok {
		return nil
	}
	return subject
}
