// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
service.go - Authorization Service

This file implements the authorization service that sits between the HTTP
layer and the Casbin enforcer. It resolves the subject's effective role,
evaluates policy, and records every decision for metrics and auditing.

Role Resolution:
Roles are stored on the user record, not in Casbin. A JWT carries the role
the user held when the token was issued, which goes stale when an admin
changes it. The service therefore refreshes the role from the user
directory through a small TTL cache, so revocations take effect within
RoleCacheTTL instead of the token lifetime.

Failure Semantics:
  - User no longer exists: access denied (deleted accounts lose access
    within RoleCacheTTL even with a valid token)
  - Directory lookup fails: fall back to the role embedded in the
    credentials, which was verified at issue time

Role Changes:
ChangeRole validates the actor and target before touching the directory.
Admins cannot change their own role, which keeps the last admin from
locking everyone out by accident. Bootstrap promotion from configuration
runs once at startup and bypasses the actor checks.
*/

package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
)

// Authorization errors. Handlers map these to API error codes.
var (
	// ErrNotAuthorized indicates the subject lacks permission for the
	// requested operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNilSubject indicates the request carried no authenticated subject.
	ErrNilSubject = errors.New("authorization subject is nil")

	// ErrAdminRequired indicates the operation requires the admin role.
	ErrAdminRequired = errors.New("admin role required")

	// ErrStaffRequired indicates the operation requires the staff role.
	ErrStaffRequired = errors.New("staff role required")

	// ErrSelfRoleChange indicates an admin tried to change their own role.
	ErrSelfRoleChange = errors.New("cannot change own role")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")
)

const (
	defaultRoleCacheTTL      = 5 * time.Minute
	roleCacheCleanupInterval = 10 * time.Minute
)

// UserDirectory is the slice of the user store the authorization service
// needs. *database.DB satisfies it.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error
}

// ServiceConfig configures the authorization service.
type ServiceConfig struct {
	// RoleCacheTTL bounds how long a resolved role is reused before the
	// directory is consulted again. This is the upper bound on how long a
	// revoked role keeps working.
	RoleCacheTTL time.Duration

	// AdminEmails lists accounts promoted to admin at startup.
	AdminEmails []string
}

// DefaultServiceConfig returns the standard service configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		RoleCacheTTL: defaultRoleCacheTTL,
	}
}

type roleEntry struct {
	role      string
	expiresAt time.Time
}

// Service evaluates authorization decisions for authenticated subjects.
// It combines the Casbin enforcer with live role resolution and feeds
// the decision log.
type Service struct {
	enforcer  *Enforcer
	directory UserDirectory
	decisions *DecisionLog
	config    *ServiceConfig

	mu    sync.RWMutex
	roles map[uuid.UUID]roleEntry

	cleanupStop chan struct{}
	stopOnce    sync.Once
}

// NewService creates the authorization service. The directory may be nil,
// in which case the role embedded in the credentials is used as-is; the
// decision log may be nil to disable decision auditing.
func NewService(enforcer *Enforcer, directory UserDirectory, decisions *DecisionLog, config *ServiceConfig) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if config.RoleCacheTTL <= 0 {
		config.RoleCacheTTL = defaultRoleCacheTTL
	}

	s := &Service{
		enforcer:    enforcer,
		directory:   directory,
		decisions:   decisions,
		config:      config,
		roles:       make(map[uuid.UUID]roleEntry),
		cleanupStop: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the role cache maintenance. The decision log is owned by
// the caller and is not closed here.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.cleanupStop)
	})
}

// CanAccess checks whether the subject may perform the action on the
// object. It returns nil when allowed, ErrNotAuthorized when denied, and
// a wrapped error when evaluation itself fails.
func (s *Service) CanAccess(ctx context.Context, subject *auth.AuthSubject, object, action string) error {
	if subject == nil {
		s.recordDecision(ctx, nil, "", object, action, false, "no subject")
		return ErrNilSubject
	}

	role := s.effectiveRole(ctx, subject)
	if role == "" {
		s.recordDecision(ctx, subject, role, object, action, false, "account not found")
		return ErrNotAuthorized
	}

	allowed, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		logging.Error().Err(err).
			Str("role", role).
			Str("object", object).
			Str("action", action).
			Msg("Authorization evaluation failed")
		return fmt.Errorf("authorization check failed: %w", err)
	}

	s.recordDecision(ctx, subject, role, object, action, allowed, "policy")
	if !allowed {
		return ErrNotAuthorized
	}
	return nil
}

// RequireAdmin returns nil only when the subject's effective role is
// admin.
func (s *Service) RequireAdmin(ctx context.Context, subject *auth.AuthSubject) error {
	if subject == nil {
		return ErrNilSubject
	}
	if s.effectiveRole(ctx, subject) != models.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

// RequireStaff returns nil when the subject's effective role is staff or
// admin.
func (s *Service) RequireStaff(ctx context.Context, subject *auth.AuthSubject) error {
	if subject == nil {
		return ErrNilSubject
	}
	if !models.RoleAtLeast(s.effectiveRole(ctx, subject), models.RoleStaff) {
		return ErrStaffRequired
	}
	return nil
}

// RequireAccessToUser returns nil when the subject may operate on the
// given user's data: their own, or anyone's for admins.
func (s *Service) RequireAccessToUser(ctx context.Context, subject *auth.AuthSubject, userID uuid.UUID) error {
	if subject == nil {
		return ErrNilSubject
	}
	if subject.ID == userID {
		return nil
	}
	if s.effectiveRole(ctx, subject) == models.RoleAdmin {
		return nil
	}
	return ErrNotAuthorized
}

// ChangeRole assigns a new role to the target user. Only admins may
// change roles, never their own.
func (s *Service) ChangeRole(ctx context.Context, actor *auth.AuthSubject, targetID uuid.UUID, newRole string) error {
	if actor == nil {
		return ErrNilSubject
	}
	if s.effectiveRole(ctx, actor) != models.RoleAdmin {
		return ErrAdminRequired
	}
	if actor.ID == targetID {
		return ErrSelfRoleChange
	}
	if !models.IsValidRole(newRole) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}
	if s.directory == nil {
		return errors.New("user directory not configured")
	}

	target, err := s.directory.GetUserByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to load target user: %w", err)
	}
	if target.Role == newRole {
		return nil
	}

	if err := s.directory.UpdateUserRole(ctx, targetID, newRole); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	s.invalidateRole(targetID)
	RecordRoleChange(newRole, "admin")

	logging.Info().
		Str("actor", actor.Email).
		Str("target", target.Email).
		Str("old_role", target.Role).
		Str("new_role", newRole).
		Msg("User role changed")
	return nil
}

// BootstrapAdmins promotes the configured admin accounts. Accounts that
// do not exist yet are skipped; they are promoted on a later restart
// once registered.
func (s *Service) BootstrapAdmins(ctx context.Context) error {
	if s.directory == nil || len(s.config.AdminEmails) == 0 {
		return nil
	}

	for _, email := range s.config.AdminEmails {
		user, err := s.directory.GetUserByEmail(ctx, email)
		if err != nil {
			logging.Debug().Str("email", email).
				Msg("Configured admin account not registered yet, skipping")
			continue
		}
		if user.Role == models.RoleAdmin {
			continue
		}
		if err := s.directory.UpdateUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("failed to promote %s: %w", email, err)
		}
		s.invalidateRole(user.ID)
		RecordRoleChange(models.RoleAdmin, "bootstrap")
		logging.Info().Str("email", email).Msg("Promoted configured admin account")
	}
	return nil
}

// effectiveRole resolves the subject's current role. The directory is
// consulted through a TTL cache; an empty return means the account no
// longer exists and access must be denied.
func (s *Service) effectiveRole(ctx context.Context, subject *auth.AuthSubject) string {
	fallback := subject.Role
	if fallback == "" {
		fallback = models.RoleUser
	}
	if s.directory == nil || subject.ID == uuid.Nil {
		return fallback
	}

	s.mu.RLock()
	entry, ok := s.roles[subject.ID]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.role
	}

	user, err := s.directory.GetUserByID(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			s.cacheRole(subject.ID, "")
			return ""
		}
		// Transient directory failure: the embedded role was verified
		// when the credentials were issued.
		RecordAuthzError("role_lookup_error")
		logging.Warn().Err(err).
			Str("user_id", subject.ID.String()).
			Msg("Role lookup failed, using credential role")
		return fallback
	}

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	s.cacheRole(subject.ID, role)
	return role
}

func (s *Service) cacheRole(userID uuid.UUID, role string) {
	s.mu.Lock()
	s.roles[userID] = roleEntry{
		role:      role,
		expiresAt: time.Now().Add(s.config.RoleCacheTTL),
	}
	s.mu.Unlock()
}

func (s *Service) invalidateRole(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.roles, userID)
	s.mu.Unlock()
	RecordAuthzCacheInvalidation("role_change")
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(roleCacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, entry := range s.roles {
				if now.After(entry.expiresAt) {
					delete(s.roles, id)
				}
			}
			s.mu.Unlock()
		case <-s.cleanupStop:
			return
		}
	}
}

func (s *Service) recordDecision(ctx context.Context, subject *auth.AuthSubject, role, object, action string, allowed bool, reason string) {
	if s.decisions == nil {
		return
	}
	event := DecisionEvent{
		Timestamp: time.Now().UTC(),
		Role:      role,
		Object:    object,
		Action:    action,
		Allowed:   allowed,
		Reason:    reason,
		RequestID: middleware.GetReqID(ctx),
	}
	if subject != nil {
		event.SubjectID = subject.ID.String()
		event.Email = subject.Email
	}
	s.decisions.Record(event)
}
