// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package auth provides authentication primitives and HTTP middleware.

This package owns every way a request proves who it is: password logins,
stateless JWT bearer tokens, server-side sessions, Google sign-in, the
on-site cabin session gateway, and the signed action tokens behind email
verification and password reset links. Authorization decisions live in
internal/authz; this package only establishes identity.

Key Components:

  - JWTManager: Access token generation and validation using HMAC-SHA256
  - TokenManager: Purpose-scoped action tokens for the email flows
  - HashPassword/CheckPassword: bcrypt password handling
  - SessionStore: Server-side sessions (memory or BadgerDB, optional
    at-rest encryption), with a fixed lifetime and an inactivity timeout
  - StateStore: Single-use OAuth state records for the Google flow
  - GoogleFlow: OIDC relying party for Google sign-in
  - GatewayClient: Circuit-breaker-wrapped client for the cabin gateway
  - Middleware: Request authentication plus the per-IP login limiter

Credential Sources:

The middleware resolves identity from two places, in order:

 1. Authorization: Bearer <jwt> - stateless, issued by login and the
    Google callback, valid for the configured TTL (default 24h).
 2. session_token cookie - server-side session lookup, used by the
    Google flow and the cabin gateway. The session lifetime is fixed at
    login; each authenticated request only records activity, and
    sessions idle past the inactivity timeout (default 30m) are
    rejected and deleted.

Both paths produce the same *AuthSubject in the request context.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    log.Fatal(err)
	}

	factory, err := auth.NewStoreFactory(&cfg.Sessions, cfg.Security.JWTSecret)
	if err != nil {
	    log.Fatal(err)
	}
	defer factory.Close()

	mw := auth.NewMiddleware(jwtManager, factory.Sessions(), &cfg.Sessions, &cfg.Security)

	r.Group(func(r chi.Router) {
	    r.Use(mw.RequireAuth)
	    r.Get("/reservations/me", h.ListMyReservations)
	})

Security Properties:

  - JWT secrets must be at least 32 characters (enforced at startup)
  - Action token signing keys are HKDF-derived per purpose, so a
    verification token can never pass as a reset token
  - Session IDs are 256-bit random hex; OAuth states are single-use
  - bcrypt cost defaults to 12 (configurable)
  - Credential endpoints are limited per IP with x/time/rate

Thread Safety:

All components are safe for concurrent use. The stores guard their maps
with mutexes and return deep copies; JWTManager and TokenManager are
read-only after construction.

See Also:

  - internal/authz: Role-based access decisions on the AuthSubject
  - internal/api: Handlers and the router wiring this middleware
  - internal/config: SecurityConfig, SessionsConfig, OAuthConfig
*/
package auth
