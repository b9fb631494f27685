// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
rbac.go - Role-Based Access Control Models

This file defines the role constants and hierarchy helpers for authorization.

Role Hierarchy:
  - user: Default role, manages own profile, subscriptions and reservations
  - staff: Operates the cabins on site; can transition reservation status (inherits user)
  - admin: Full back-office access including user and catalog management (inherits staff)

Usage:
  - Role storage on the user record (internal/database/crud_users.go)
  - Authorization service in internal/authz/service.go
  - Admin role assignment endpoint in internal/api/handlers_admin.go
*/

package models

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz/policy.csv.
const (
	// RoleUser is the default role for visitor accounts.
	RoleUser = "user"

	// RoleStaff operates on-site cabins and inherits user permissions.
	RoleStaff = "staff"

	// RoleAdmin has full back-office access and inherits staff permissions.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleUser, RoleStaff, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// roleRank orders roles for hierarchy comparisons. Unknown roles rank below user.
var roleRank = map[string]int{
	RoleUser:  1,
	RoleStaff: 2,
	RoleAdmin: 3,
}

// RoleAtLeast reports whether role meets or exceeds the required role in the
// hierarchy. Casbin remains the authority for route-level decisions; this
// helper covers the simple checks inside handlers.
func RoleAtLeast(role, required string) bool {
	return roleRank[role] >= roleRank[required]
}
