// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package authz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/models"
)

// mockDirectory implements UserDirectory for testing.
type mockDirectory struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	byEmail     map[string]uuid.UUID
	getError    error
	updateCalls int
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *mockDirectory) addUser(email, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := &models.User{
		ID:    uuid.New(),
		Email: email,
		Role:  role,
	}
	m.users[user.ID] = user
	m.byEmail[email] = user.ID
	return user
}

func (m *mockDirectory) setRole(id uuid.UUID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Role = role
}

func (m *mockDirectory) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockDirectory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *mockDirectory) UpdateUserRole(_ context.Context, id uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	user, ok := m.users[id]
	if !ok {
		return database.ErrUserNotFound
	}
	user.Role = role
	return nil
}

// newTestService wires a service onto the embedded policy and the mock
// directory.
func newTestService(t *testing.T, dir *mockDirectory) *Service {
	t.Helper()

	enforcer, err := NewEnforcer(context.Background(), &EnforcerConfig{
		DefaultRole:  models.RoleUser,
		CacheEnabled: true,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	var directory UserDirectory
	if dir != nil {
		directory = dir
	}
	svc := NewService(enforcer, directory, nil, nil)
	t.Cleanup(svc.Close)
	return svc
}

func subjectFor(user *models.User) *auth.AuthSubject {
	return &auth.AuthSubject{ID: user.ID, Email: user.Email, Role: user.Role}
}

// =====================================================
// CanAccess
// =====================================================

func TestCanAccess_RoleDecisions(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	visitor := dir.addUser("visitor@nazca360.pe", models.RoleUser)
	operator := dir.addUser("operator@nazca360.pe", models.RoleStaff)
	owner := dir.addUser("owner@nazca360.pe", models.RoleAdmin)

	tests := []struct {
		name    string
		user    *models.User
		object  string
		action  string
		wantErr error
	}{
		{"visitor browses catalog", visitor, "videos", "read", nil},
		{"visitor books", visitor, "reservations", "write", nil},
		{"visitor blocked from board", visitor, "reservations:all", "read", ErrNotAuthorized},
		{"visitor blocked from back office", visitor, "admin", "read", ErrNotAuthorized},
		{"staff reads board", operator, "reservations:all", "read", nil},
		{"staff advances status", operator, "reservations:status", "write", nil},
		{"staff blocked from catalog management", operator, "videos", "write", ErrNotAuthorized},
		{"admin manages catalog", owner, "videos", "write", nil},
		{"admin manages users", owner, "users", "write", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CanAccess(ctx, subjectFor(tt.user), tt.object, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanAccess() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanAccess_NilSubject(t *testing.T) {
	svc := newTestService(t, newMockDirectory())

	if err := svc.CanAccess(context.Background(), nil, "videos", "read"); !errors.Is(err, ErrNilSubject) {
		t.Errorf("CanAccess(nil subject) error = %v, want %v", err, ErrNilSubject)
	}
}

func TestCanAccess_DirectoryRoleWins(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	// The token still claims admin, but the directory says the role was
	// revoked to user.
	demoted := dir.addUser("demoted@nazca360.pe", models.RoleUser)
	subject := &auth.AuthSubject{ID: demoted.ID, Email: demoted.Email, Role: models.RoleAdmin}

	if err := svc.CanAccess(ctx, subject, "users", "write"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("CanAccess() with revoked role error = %v, want %v", err, ErrNotAuthorized)
	}
}

func TestCanAccess_DeletedAccountDenied(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newMockDirectory())

	subject := &auth.AuthSubject{ID: uuid.New(), Email: "ghost@nazca360.pe", Role: models.RoleAdmin}

	if err := svc.CanAccess(ctx, subject, "videos", "read"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("CanAccess() for deleted account error = %v, want %v", err, ErrNotAuthorized)
	}
}

func TestCanAccess_DirectoryFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	dir.getError = errors.New("connection refused")
	svc := newTestService(t, dir)

	subject := &auth.AuthSubject{ID: uuid.New(), Email: "visitor@nazca360.pe", Role: models.RoleUser}

	// The credential role keeps working through a directory outage.
	if err := svc.CanAccess(ctx, subject, "videos", "read"); err != nil {
		t.Errorf("CanAccess() during outage error = %v, want nil", err)
	}
	if err := svc.CanAccess(ctx, subject, "admin", "read"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("CanAccess() during outage error = %v, want %v", err, ErrNotAuthorized)
	}
}

func TestCanAccess_NoDirectory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	subject := &auth.AuthSubject{ID: uuid.New(), Role: models.RoleStaff}
	if err := svc.CanAccess(ctx, subject, "reservations:all", "read"); err != nil {
		t.Errorf("CanAccess() without directory error = %v, want nil", err)
	}

	// An empty role falls back to the default visitor surface.
	anonymous := &auth.AuthSubject{ID: uuid.New()}
	if err := svc.CanAccess(ctx, anonymous, "videos", "read"); err != nil {
		t.Errorf("CanAccess() with empty role error = %v, want nil", err)
	}
	if err := svc.CanAccess(ctx, anonymous, "videos", "write"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("CanAccess() with empty role error = %v, want %v", err, ErrNotAuthorized)
	}
}

// =====================================================
// Role Cache
// =====================================================

func TestEffectiveRole_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	user := dir.addUser("cached@nazca360.pe", models.RoleAdmin)
	subject := subjectFor(user)

	if err := svc.CanAccess(ctx, subject, "users", "write"); err != nil {
		t.Fatalf("CanAccess() error = %v", err)
	}

	// A direct directory change is invisible until the cache entry is
	// dropped.
	dir.setRole(user.ID, models.RoleUser)
	if err := svc.CanAccess(ctx, subject, "users", "write"); err != nil {
		t.Errorf("CanAccess() error = %v, want nil from cached role", err)
	}

	svc.invalidateRole(user.ID)
	if err := svc.CanAccess(ctx, subject, "users", "write"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("CanAccess() after invalidation error = %v, want %v", err, ErrNotAuthorized)
	}
}

// =====================================================
// Role Requirements
// =====================================================

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	staff := dir.addUser("staff@nazca360.pe", models.RoleStaff)

	tests := []struct {
		name    string
		subject *auth.AuthSubject
		wantErr error
	}{
		{"admin passes", subjectFor(admin), nil},
		{"staff rejected", subjectFor(staff), ErrAdminRequired},
		{"nil subject", nil, ErrNilSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RequireAdmin(ctx, tt.subject); !errors.Is(err, tt.wantErr) {
				t.Errorf("RequireAdmin() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	staff := dir.addUser("staff@nazca360.pe", models.RoleStaff)
	visitor := dir.addUser("visitor@nazca360.pe", models.RoleUser)

	tests := []struct {
		name    string
		subject *auth.AuthSubject
		wantErr error
	}{
		{"staff passes", subjectFor(staff), nil},
		{"admin passes", subjectFor(admin), nil},
		{"visitor rejected", subjectFor(visitor), ErrStaffRequired},
		{"nil subject", nil, ErrNilSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RequireStaff(ctx, tt.subject); !errors.Is(err, tt.wantErr) {
				t.Errorf("RequireStaff() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAccessToUser(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	visitor := dir.addUser("visitor@nazca360.pe", models.RoleUser)
	other := dir.addUser("other@nazca360.pe", models.RoleUser)

	tests := []struct {
		name    string
		subject *auth.AuthSubject
		target  uuid.UUID
		wantErr error
	}{
		{"own data", subjectFor(visitor), visitor.ID, nil},
		{"someone else's data", subjectFor(visitor), other.ID, ErrNotAuthorized},
		{"admin reads anyone", subjectFor(admin), other.ID, nil},
		{"nil subject", nil, other.ID, ErrNilSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RequireAccessToUser(ctx, tt.subject, tt.target); !errors.Is(err, tt.wantErr) {
				t.Errorf("RequireAccessToUser() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =====================================================
// ChangeRole
// =====================================================

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	visitor := dir.addUser("visitor@nazca360.pe", models.RoleUser)
	target := dir.addUser("target@nazca360.pe", models.RoleUser)

	tests := []struct {
		name    string
		actor   *auth.AuthSubject
		target  uuid.UUID
		role    string
		wantErr error
	}{
		{"nil actor", nil, target.ID, models.RoleStaff, ErrNilSubject},
		{"non-admin actor", subjectFor(visitor), target.ID, models.RoleStaff, ErrAdminRequired},
		{"self change", subjectFor(admin), admin.ID, models.RoleUser, ErrSelfRoleChange},
		{"invalid role", subjectFor(admin), target.ID, "superuser", ErrInvalidRole},
		{"missing target", subjectFor(admin), uuid.New(), models.RoleStaff, database.ErrUserNotFound},
		{"promotion", subjectFor(admin), target.ID, models.RoleStaff, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangeRole(ctx, tt.actor, tt.target, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ChangeRole() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	promoted, err := dir.GetUserByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if promoted.Role != models.RoleStaff {
		t.Errorf("target role = %q after promotion, want %q", promoted.Role, models.RoleStaff)
	}
}

func TestChangeRole_SameRoleIsNoOp(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	target := dir.addUser("target@nazca360.pe", models.RoleStaff)

	before := dir.updateCalls
	if err := svc.ChangeRole(ctx, subjectFor(admin), target.ID, models.RoleStaff); err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}
	if dir.updateCalls != before {
		t.Errorf("ChangeRole() wrote %d updates for an unchanged role, want 0", dir.updateCalls-before)
	}
}

func TestChangeRole_TakesEffectImmediately(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	target := dir.addUser("target@nazca360.pe", models.RoleUser)
	targetSubject := subjectFor(target)

	// Prime the role cache with the old role.
	if err := svc.CanAccess(ctx, targetSubject, "reservations:status", "write"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("CanAccess() before promotion error = %v, want %v", err, ErrNotAuthorized)
	}

	if err := svc.ChangeRole(ctx, subjectFor(admin), target.ID, models.RoleStaff); err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}

	// The promotion invalidates the cached role, so the staff surface
	// opens without waiting for the TTL.
	if err := svc.CanAccess(ctx, targetSubject, "reservations:status", "write"); err != nil {
		t.Errorf("CanAccess() after promotion error = %v, want nil", err)
	}
}

// =====================================================
// BootstrapAdmins
// =====================================================

func TestBootstrapAdmins(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()

	registered := dir.addUser("owner@nazca360.pe", models.RoleUser)
	already := dir.addUser("existing@nazca360.pe", models.RoleAdmin)

	enforcer, err := NewEnforcer(ctx, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	svc := NewService(enforcer, dir, nil, &ServiceConfig{
		AdminEmails: []string{"owner@nazca360.pe", "existing@nazca360.pe", "unregistered@nazca360.pe"},
	})
	t.Cleanup(svc.Close)

	if err := svc.BootstrapAdmins(ctx); err != nil {
		t.Fatalf("BootstrapAdmins() error = %v", err)
	}

	promoted, err := dir.GetUserByID(ctx, registered.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Errorf("registered account role = %q, want %q", promoted.Role, models.RoleAdmin)
	}

	// A second run changes nothing.
	before := dir.updateCalls
	if err := svc.BootstrapAdmins(ctx); err != nil {
		t.Fatalf("BootstrapAdmins() second run error = %v", err)
	}
	if dir.updateCalls != before {
		t.Errorf("BootstrapAdmins() second run wrote %d updates, want 0", dir.updateCalls-before)
	}

	kept, err := dir.GetUserByID(ctx, already.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if kept.Role != models.RoleAdmin {
		t.Errorf("existing admin role = %q, want %q", kept.Role, models.RoleAdmin)
	}
}

func TestChangeRole_InvalidRoleMessage(t *testing.T) {
	ctx := context.Background()
	dir := newMockDirectory()
	svc := newTestService(t, dir)

	admin := dir.addUser("admin@nazca360.pe", models.RoleAdmin)
	target := dir.addUser("target@nazca360.pe", models.RoleUser)

	err := svc.ChangeRole(ctx, subjectFor(admin), target.ID, "superuser")
	if err == nil || !strings.Contains(err.Error(), "superuser") {
		t.Errorf("ChangeRole() error = %v, want message naming the rejected role", err)
	}
}
