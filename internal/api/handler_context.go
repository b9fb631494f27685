// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/authz"
	"github.com/nazca360/nazca360/internal/models"
)

// HandlerContext provides request-scoped authorization context for handlers.
// It wraps the authenticated subject with convenience checks so handlers do
// not touch the auth context machinery directly.
type HandlerContext struct {
	// Subject is the authenticated principal from the request context.
	// Nil for unauthenticated requests on optional-auth routes.
	Subject *auth.AuthSubject

	// UserID is uuid.Nil for unauthenticated requests.
	UserID uuid.UUID

	Email string
	Role  string

	// RequestID correlates log lines with the response.
	RequestID string

	// authzService, when set, backs the Require* helpers with casbin
	// decisions instead of the subject's role field alone.
	authzService *authz.Service

	ctx context.Context
}

// GetHandlerContext extracts the authentication context from a request.
// Always returns a non-nil context; check IsAuthenticated before trusting
// the identity fields.
func GetHandlerContext(r *http.Request) *HandlerContext {
	subject := auth.GetAuthSubject(r.Context())

	hctx := &HandlerContext{
		Subject:   subject,
		RequestID: r.Header.Get("X-Request-ID"),
		ctx:       r.Context(),
	}

	if subject != nil {
		hctx.UserID = subject.ID
		hctx.Email = subject.Email
		hctx.Role = subject.Role
	}

	return hctx
}

// GetHandlerContextWithAuthz extends GetHandlerContext with the casbin
// service, so Require* helpers consult the enforcer (role hierarchy,
// decision audit) rather than the raw role string.
func GetHandlerContextWithAuthz(r *http.Request, authzSvc *authz.Service) *HandlerContext {
	hctx := GetHandlerContext(r)
	hctx.authzService = authzSvc
	return hctx
}

// IsAuthenticated returns true if the request carries a valid identity.
func (hctx *HandlerContext) IsAuthenticated() bool {
	return hctx != nil && hctx.Subject != nil
}

// IsAdmin reports whether the subject holds the admin role.
func (hctx *HandlerContext) IsAdmin() bool {
	return hctx.IsAuthenticated() && hctx.Subject.IsAdmin()
}

// IsStaff reports whether the subject holds staff or admin.
func (hctx *HandlerContext) IsStaff() bool {
	return hctx.IsAuthenticated() && hctx.Subject.IsStaff()
}

// RequireAdmin returns an error unless the subject is an admin.
func (hctx *HandlerContext) RequireAdmin() error {
	if !hctx.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if hctx.authzService != nil {
		return hctx.authzService.RequireAdmin(hctx.ctx, hctx.Subject)
	}
	if !hctx.IsAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

// RequireStaff returns an error unless the subject is staff or admin.
func (hctx *HandlerContext) RequireStaff() error {
	if !hctx.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if hctx.authzService != nil {
		return hctx.authzService.RequireStaff(hctx.ctx, hctx.Subject)
	}
	if !hctx.IsStaff() {
		return ErrNotAuthorized
	}
	return nil
}

// RequireAccessToUser returns an error unless the subject may act on the
// target user's data: their own, or anyone's for admins.
func (hctx *HandlerContext) RequireAccessToUser(targetID uuid.UUID) error {
	if !hctx.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if hctx.authzService != nil {
		return hctx.authzService.RequireAccessToUser(hctx.ctx, hctx.Subject, targetID)
	}
	if !hctx.Subject.CanAccessUser(targetID) {
		return ErrNotAuthorized
	}
	return nil
}

// Plan returns the viewer's subscription plan for catalog gating.
// Unauthenticated viewers browse as basic.
func (hctx *HandlerContext) Plan(lookup func(ctx context.Context, id uuid.UUID) (*models.User, error)) string {
	if !hctx.IsAuthenticated() {
		return models.PlanBasic
	}
	user, err := lookup(hctx.ctx, hctx.UserID)
	if err != nil || user == nil {
		return models.PlanBasic
	}
	return user.Plan
}

// Actor describes the authenticated principal for audit records.
func (hctx *HandlerContext) Actor(r *http.Request) audit.Actor {
	return audit.Actor{
		ID:    hctx.UserID.String(),
		Email: hctx.Email,
		IP:    audit.ClientIP(r),
	}
}

// Handler authorization errors.
var (
	// ErrNotAuthenticated is returned when authentication is required but absent.
	ErrNotAuthenticated = &AuthError{
		Code:       "AUTHENTICATION_ERROR",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrNotAuthorized is returned when the subject lacks permission.
	ErrNotAuthorized = &AuthError{
		Code:       "AUTHORIZATION_ERROR",
		Message:    "Access denied: insufficient permissions",
		StatusCode: http.StatusForbidden,
	}
)

// AuthError is a structured authorization failure carrying its HTTP status.
type AuthError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

// RespondAuthError writes an authorization error response, mapping casbin
// service errors onto the envelope's stable codes.
func RespondAuthError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		respondError(w, authErr.StatusCode, authErr.Code, authErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, authz.ErrNilSubject):
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authentication required", nil)
	case errors.Is(err, authz.ErrAdminRequired):
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Admin role required", nil)
	case errors.Is(err, authz.ErrStaffRequired):
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Staff role required", nil)
	case errors.Is(err, authz.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Access denied: insufficient permissions", nil)
	default:
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Access denied", err)
	}
}
