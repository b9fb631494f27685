// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
)

// SessionCookieName is the cookie carrying the server-side session ID.
const SessionCookieName = "session_token"

// Middleware authenticates requests from either a Bearer JWT or the
// session cookie and attaches the resulting AuthSubject to the request
// context. It also owns the per-IP login rate limiter for credential
// endpoints.
type Middleware struct {
	jwtManager   *JWTManager
	sessions     SessionStore
	sessionTTL   time.Duration
	idleTimeout  time.Duration
	cookieSecure bool

	loginLimiter      *RateLimiter
	rateLimitDisabled bool

	secLog *logging.SecurityLogger
}

// NewMiddleware creates the authentication middleware. The login rate
// limiter starts its cleanup goroutine here unless rate limiting is
// disabled in configuration.
func NewMiddleware(jwtManager *JWTManager, sessions SessionStore, sessionsCfg *config.SessionsConfig, securityCfg *config.SecurityConfig) *Middleware {
	m := &Middleware{
		jwtManager:        jwtManager,
		sessions:          sessions,
		sessionTTL:        sessionsCfg.TTL,
		idleTimeout:       sessionsCfg.InactivityTimeout,
		cookieSecure:      sessionsCfg.CookieSecure,
		rateLimitDisabled: securityCfg.RateLimitDisabled,
		secLog:            logging.NewSecurityLogger(),
	}

	if !securityCfg.RateLimitDisabled {
		m.loginLimiter = NewRateLimiter(securityCfg.LoginRateReqs, securityCfg.LoginRateWindow)
		go m.loginLimiter.startCleanup(5 * time.Minute)
	}

	return m
}

// RequireAuth enforces authentication. Requests without valid
// credentials receive a 401 error envelope.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.resolveSubject(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", authErrorMessage(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthSubject(r.Context(), subject)))
	})
}

// OptionalAuth resolves credentials when present but never rejects.
// Public routes use it to personalize responses (premium catalog
// filtering); failed credentials degrade to an anonymous request.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.resolveSubject(r)
		if err != nil {
			if !errors.Is(err, ErrNoCredentials) {
				logging.Debug().Err(err).Msg("Optional auth: credentials rejected, continuing anonymous")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthSubject(r.Context(), subject)))
	})
}

// resolveSubject extracts the request identity. Precedence: Bearer token
// first, session cookie second. Returns ErrNoCredentials when neither is
// present.
func (m *Middleware) resolveSubject(r *http.Request) (*AuthSubject, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, err := bearerToken(authHeader)
		if err != nil {
			return nil, err
		}
		return m.subjectFromJWT(token)
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return m.subjectFromSession(r.Context(), cookie.Value)
	}

	return nil, ErrNoCredentials
}

func (m *Middleware) subjectFromJWT(token string) (*AuthSubject, error) {
	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredCredentials) {
			TokenValidationErrors.WithLabelValues("expired").Inc()
		} else {
			TokenValidationErrors.WithLabelValues("invalid").Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	userID, err := claims.UserID()
	if err != nil {
		TokenValidationErrors.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	// Tokens carry no provider claim; handlers that need it load the
	// user record.
	return &AuthSubject{
		ID:    userID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

func (m *Middleware) subjectFromSession(ctx context.Context, sessionID string) (*AuthSubject, error) {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	// Idle sessions are rejected before their absolute expiry and
	// removed so the cookie cannot be retried.
	if session.IsIdle(m.idleTimeout) {
		if delErr := m.sessions.Delete(ctx, sessionID); delErr != nil {
			logging.Error().Err(delErr).Msg("Failed to delete idle session")
		}
		SessionsTerminated.WithLabelValues("idle").Inc()
		return nil, fmt.Errorf("%w: session idle", ErrExpiredCredentials)
	}

	// Record activity for the inactivity rule. The absolute expiry is
	// fixed at login, so a busy session still lapses at its TTL.
	if touchErr := m.sessions.Touch(ctx, sessionID); touchErr != nil {
		logging.Error().Err(touchErr).Msg("Failed to touch session")
	}

	return session.ToAuthSubject(), nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidCredentials)
	}
	return parts[1], nil
}

// LoginRateLimit limits credential endpoints per client IP. Refused
// requests receive 429 with a Retry-After hint.
func (m *Middleware) LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled || m.loginLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !m.loginLimiter.Allow(ip) {
			RateLimitedLogins.Inc()
			m.secLog.LogRateLimited(ip, r.URL.Path, m.loginLimiter.burst)
			w.Header().Set("Retry-After", strconv.Itoa(int(m.loginLimiter.window.Seconds())))
			writeAuthError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many attempts, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CreateSession establishes a server-side session for the subject and
// sets the session cookie.
func (m *Middleware) CreateSession(ctx context.Context, w http.ResponseWriter, subject *AuthSubject, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = m.sessionTTL
	}

	session, err := NewSession(subject, ttl)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	SessionsCreated.WithLabelValues(subject.Provider).Inc()
	m.SetSessionCookie(w, session.ID, ttl)
	return session, nil
}

// DestroySession deletes the session and clears the cookie.
func (m *Middleware) DestroySession(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	SessionsTerminated.WithLabelValues("logout").Inc()
	m.ClearSessionCookie(w)
	return nil
}

// SetSessionCookie sets the session cookie on the response.
func (m *Middleware) SetSessionCookie(w http.ResponseWriter, sessionID string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   m.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie.
func (m *Middleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionTTL returns the configured default session lifetime.
func (m *Middleware) SessionTTL() time.Duration {
	return m.sessionTTL
}

// Sessions exposes the session store for password-reset revocation.
func (m *Middleware) Sessions() SessionStore {
	return m.sessions
}

// authErrorMessage maps auth errors to client-facing messages without
// leaking which check failed beyond what the client needs.
func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "Authentication required"
	case errors.Is(err, ErrExpiredCredentials):
		return "Credentials expired, sign in again"
	default:
		return "Invalid credentials"
	}
}

// writeAuthError writes the standard error envelope. The middleware
// cannot reach the api package's helpers without an import cycle, so it
// carries a minimal encoder of the same shape.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error response")
	}
}

// clientIP extracts the client address, tolerating both host:port and
// bare-host RemoteAddr forms. Proxy headers are resolved upstream by the
// router's RealIP middleware before requests reach this package.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter implements per-IP rate limiting with automatic cleanup of
// idle entries.
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	window    time.Duration
	stopClean chan struct{}
}

// rateLimiterEntry wraps a limiter with its last access time.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a limiter allowing a burst of reqsPerWindow and
// refilling one attempt per window.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window),
		burst:     reqsPerWindow,
		window:    window,
		stopClean: make(chan struct{}),
	}
}

// Allow checks whether a request from the given IP is within budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes limiters idle for over an hour.
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
