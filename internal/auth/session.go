// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session store errors.
var (
	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session exists but has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session represents a server-side authenticated session. Sessions back
// the cookie flow used by Google sign-in and the on-site cabin gateway;
// the JWT flow is stateless and never creates one.
type Session struct {
	// ID is a 256-bit random hex string, also the cookie value.
	ID string `json:"id"`

	// UserID is the account this session belongs to.
	UserID uuid.UUID `json:"user_id"`

	// Email and Role are denormalized from the user record so each
	// request avoids a database lookup.
	Email string `json:"email"`
	Role  string `json:"role"`

	// Provider records how the session was established (local, google,
	// session).
	Provider string `json:"provider"`

	// CreatedAt is when the session was established.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the absolute lifetime bound.
	ExpiresAt time.Time `json:"expires_at"`

	// LastAccessedAt is updated by Touch on each authenticated request
	// and drives the inactivity timeout.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Metadata holds additional session context (client IP, user agent).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the session has passed its absolute expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsIdle reports whether the session has been inactive longer than the
// given timeout. Idle sessions are rejected even before ExpiresAt.
// A non-positive timeout disables the inactivity rule.
func (s *Session) IsIdle(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return time.Now().After(s.LastAccessedAt.Add(timeout))
}

// ToAuthSubject converts the session into the request identity.
func (s *Session) ToAuthSubject() *AuthSubject {
	return &AuthSubject{
		ID:        s.UserID,
		Email:     s.Email,
		Role:      s.Role,
		Provider:  s.Provider,
		SessionID: s.ID,
	}
}

// NewSession creates a session for the subject with the given lifetime.
func NewSession(subject *AuthSubject, ttl time.Duration) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:             id,
		UserID:         subject.ID,
		Email:          subject.Email,
		Role:           subject.Role,
		Provider:       subject.Provider,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}, nil
}

// generateSessionID returns a 256-bit random identifier in hex.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SessionStore is the storage interface for server-side sessions.
// Implementations: MemorySessionStore (default) and BadgerSessionStore
// (persistent, survives restarts).
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound for
	// unknown IDs and ErrSessionExpired for lapsed ones.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions for a user and returns how many
	// were removed. Used by password reset to revoke every device.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// GetByUserID returns all live sessions for a user.
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Session, error)

	// Touch updates LastAccessedAt to now. The absolute expiry fixed at
	// creation never moves; only the inactivity window slides.
	Touch(ctx context.Context, id string) error

	// CleanupExpired removes expired sessions and returns how many went.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemorySessionStore is an in-memory SessionStore. Sessions do not
// survive restarts; suitable for development and single-node deployments
// that accept re-login after a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session.
func (s *MemorySessionStore) Create(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return copySession(session), nil
}

// Update replaces an existing session.
func (s *MemorySessionStore) Update(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *MemorySessionStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// GetByUserID returns all live sessions for a user.
func (s *MemorySessionStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*Session
	for _, session := range s.sessions {
		if session.UserID == userID && !session.IsExpired() {
			sessions = append(sessions, copySession(session))
		}
	}
	return sessions, nil
}

// Touch updates LastAccessedAt, leaving the absolute expiry untouched.
func (s *MemorySessionStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpired removes expired sessions.
func (s *MemorySessionStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions, expired or not.
func (s *MemorySessionStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// copySession deep-copies a session so callers can never mutate the
// store's view through a returned pointer.
func copySession(s *Session) *Session {
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
