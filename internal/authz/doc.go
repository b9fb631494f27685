// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package authz provides role-based authorization using Casbin.
//
// The package enforces access policies for the API surface: the catalog,
// reservations, subscriptions, user profiles and the admin back office.
// It supports hierarchical roles, decision caching, structured decision
// logging and optional hot policy reload from external files.
//
// # Architecture
//
// Authorization runs after authentication and consults the role stored
// on the user record, not the one embedded in the token:
//
//	Request -> Auth Middleware -> Authz Middleware -> Handler
//	               |                    |
//	          Authenticate          Authorize (Casbin)
//	          (internal/auth)       (this package)
//
// Roles live on user rows; Casbin holds only the role hierarchy and the
// role-to-permission mapping. The Service refreshes each subject's role
// from the user directory through a short TTL cache, so role revocations
// take effect without waiting for tokens to expire.
//
// # RBAC Model
//
// The embedded model uses Casbin RBAC with role inheritance:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && (r.obj == p.obj || keyMatch(r.obj, p.obj)) && r.act == p.act
//
// # Roles and Objects
//
// Three roles form a strict hierarchy (admin inherits staff inherits
// user):
//
//	p, user, videos, read
//	p, user, reservations, read
//	p, user, reservations, write
//	p, staff, reservations:all, read
//	p, staff, reservations:status, write
//	p, admin, videos, write
//	p, admin, users, write
//
//	g, staff, user
//	g, admin, staff
//
// Objects are logical resources, not URL paths, so policy survives route
// refactoring.
//
// # Usage
//
// Creating the stack:
//
//	enforcer, err := authz.NewEnforcer(ctx, authz.DefaultEnforcerConfig())
//	if err != nil {
//	    return err
//	}
//	defer enforcer.Close()
//
//	decisions := authz.NewDecisionLog(nil)
//	defer decisions.Close()
//
//	svc := authz.NewService(enforcer, db, decisions, &authz.ServiceConfig{
//	    AdminEmails: cfg.Security.AdminEmails,
//	})
//	defer svc.Close()
//
// Protecting routes:
//
//	r.With(authz.Require(svc, "reservations", "write")).Post("/reservations", h.CreateReservation)
//	r.With(authz.RequireAdmin(svc)).Route("/admin", adminRoutes)
//
// # Caching
//
// Two caches keep the hot path fast:
//   - Decision cache in the Enforcer, keyed (role, object, action),
//     cleared on policy reload
//   - Role cache in the Service, keyed by user ID, invalidated on role
//     change
//
// # Thread Safety
//
// All components are safe for concurrent use. Casbin's SyncedEnforcer
// synchronizes policy access; both caches use sync.RWMutex; the decision
// log runs on a buffered channel with a single consumer.
package authz
