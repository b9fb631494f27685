// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

func TestAuthSubjectRoles(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		wantAdmin bool
		wantStaff bool
	}{
		{name: "visitor", role: models.RoleUser, wantAdmin: false, wantStaff: false},
		{name: "staff", role: models.RoleStaff, wantAdmin: false, wantStaff: true},
		{name: "admin", role: models.RoleAdmin, wantAdmin: true, wantStaff: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := &AuthSubject{ID: uuid.New(), Role: tt.role}
			if got := subject.IsAdmin(); got != tt.wantAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.wantAdmin)
			}
			if got := subject.IsStaff(); got != tt.wantStaff {
				t.Errorf("IsStaff() = %v, want %v", got, tt.wantStaff)
			}
		})
	}
}

func TestAuthSubjectCanAccessUser(t *testing.T) {
	ownID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name    string
		subject *AuthSubject
		target  uuid.UUID
		want    bool
	}{
		{name: "own resources", subject: &AuthSubject{ID: ownID, Role: models.RoleUser}, target: ownID, want: true},
		{name: "someone else's resources", subject: &AuthSubject{ID: ownID, Role: models.RoleUser}, target: otherID, want: false},
		{name: "admin reaches anyone", subject: &AuthSubject{ID: ownID, Role: models.RoleAdmin}, target: otherID, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.subject.CanAccessUser(tt.target); got != tt.want {
				t.Errorf("CanAccessUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubjectFromUser(t *testing.T) {
	user := testUser()
	user.Role = models.RoleStaff
	user.Provider = models.ProviderGoogle

	subject := SubjectFromUser(user)
	if subject.ID != user.ID {
		t.Errorf("SubjectFromUser() ID = %v, want %v", subject.ID, user.ID)
	}
	if subject.Email != user.Email {
		t.Errorf("SubjectFromUser() email = %v, want %v", subject.Email, user.Email)
	}
	if subject.Role != models.RoleStaff {
		t.Errorf("SubjectFromUser() role = %v, want %v", subject.Role, models.RoleStaff)
	}
	if subject.Provider != models.ProviderGoogle {
		t.Errorf("SubjectFromUser() provider = %v, want %v", subject.Provider, models.ProviderGoogle)
	}
}

func TestAuthSubjectContext(t *testing.T) {
	subject := testSubject()

	ctx := WithAuthSubject(context.Background(), subject)
	got := GetAuthSubject(ctx)
	if got == nil {
		t.Fatal("GetAuthSubject() = nil, want subject")
	}
	if got.ID != subject.ID {
		t.Errorf("GetAuthSubject() ID = %v, want %v", got.ID, subject.ID)
	}
}

func TestGetAuthSubject_Anonymous(t *testing.T) {
	if got := GetAuthSubject(context.Background()); got != nil {
		t.Errorf("GetAuthSubject() = %v, want nil for anonymous context", got)
	}
}
