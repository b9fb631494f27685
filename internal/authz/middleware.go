// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package authz

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
)

// Require returns middleware that enforces (object, action) for the
// authenticated subject. It composes with chi's With() and expects the
// auth middleware to have run first.
func Require(svc *Service, object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if err := svc.CanAccess(r.Context(), subject, object, action); err != nil {
				writeAuthzError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireResource returns middleware that enforces access to the object
// with the action derived from the HTTP method.
func RequireResource(svc *Service, object string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if err := svc.CanAccess(r.Context(), subject, object, methodToAction(r.Method)); err != nil {
				writeAuthzError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that admits only admins.
func RequireAdmin(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if err := svc.RequireAdmin(r.Context(), subject); err != nil {
				writeAuthzError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff returns middleware that admits staff and admins.
func RequireStaff(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if err := svc.RequireStaff(r.Context(), subject); err != nil {
				writeAuthzError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// methodToAction maps HTTP methods to policy actions. The policy only
// distinguishes read from write, so DELETE counts as write.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	default:
		return "write"
	}
}

// writeAuthzError maps service errors to the standard error envelope.
// Missing authentication maps to 401 so clients re-authenticate instead
// of treating the route as permanently forbidden.
func writeAuthzError(w http.ResponseWriter, err error) {
	status := http.StatusForbidden
	code := "AUTHORIZATION_ERROR"
	message := "insufficient permissions"

	switch {
	case errors.Is(err, ErrNilSubject):
		status = http.StatusUnauthorized
		code = "AUTHENTICATION_ERROR"
		message = "authentication required"
	case errors.Is(err, ErrAdminRequired):
		message = "admin role required"
	case errors.Is(err, ErrStaffRequired):
		message = "staff role required"
	case errors.Is(err, ErrNotAuthorized):
	default:
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
		message = "authorization check failed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode authz error response")
	}
}
