// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package models defines data structures used throughout the Nazca360 application.
// These models represent accounts, the video catalog, subscriptions, payments,
// cabin reservations and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider constants identify how an account was provisioned.
const (
	// ProviderLocal is an email/password account registered on the platform.
	ProviderLocal = "local"

	// ProviderGoogle is an account provisioned through Google sign-in.
	ProviderGoogle = "google"

	// ProviderSession is an account provisioned through the on-site session gateway.
	ProviderSession = "session"
)

// ValidProviders contains all valid account providers for validation.
var ValidProviders = []string{ProviderLocal, ProviderGoogle, ProviderSession}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(provider string) bool {
	for _, p := range ValidProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// Plan constants define the subscription tiers.
const (
	// PlanBasic is the free tier: non-premium catalog only.
	PlanBasic = "basic"

	// PlanPremium unlocks the full catalog for the paid period.
	PlanPremium = "premium"
)

// ValidPlans contains all valid plan names for validation.
var ValidPlans = []string{PlanBasic, PlanPremium}

// IsValidPlan checks if a plan name is valid.
func IsValidPlan(plan string) bool {
	for _, p := range ValidPlans {
		if p == plan {
			return true
		}
	}
	return false
}

// User represents a platform account.
//
// Accounts come from three provisioning paths (Provider): local registration
// with email/password, Google sign-in, and the on-site session gateway used by
// the physical VR cabins. Only local accounts carry a password hash; OAuth and
// gateway accounts reject password login.
//
// Key Fields:
//   - PasswordHash: bcrypt hash, never serialized (json:"-")
//   - Plan: current tier ("basic" or "premium"); upgraded by payment finalization
//   - Role: authorization role ("user", "staff", "admin")
//   - IsVerified: local accounts must verify their email before login;
//     Google/gateway accounts are pre-verified
//   - LastLoginAt: nil until the first successful login
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Picture      string     `json:"picture,omitempty"`
	Provider     string     `json:"provider"`
	Plan         string     `json:"plan"`
	Role         string     `json:"role"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// PublicUser is the user view returned by API endpoints.
// It carries no credential material.
type PublicUser struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Picture     string     `json:"picture,omitempty"`
	Provider    string     `json:"provider"`
	Plan        string     `json:"plan"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToPublic converts a User to its public API view.
func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Picture:     u.Picture,
		Provider:    u.Provider,
		Plan:        u.Plan,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// HasPremium reports whether the user currently holds the premium plan.
func (u *User) HasPremium() bool {
	return u.Plan == PlanPremium
}

// IsOAuth reports whether the account was provisioned by an external
// identity source and therefore has no usable password.
func (u *User) IsOAuth() bool {
	return u.Provider != ProviderLocal
}

// NewUser creates a User with generated ID and sensible defaults.
// Local accounts start unverified on the basic plan with the user role.
func NewUser(email, fullName, provider string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  fullName,
		Provider:  provider,
		Plan:      PlanBasic,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
