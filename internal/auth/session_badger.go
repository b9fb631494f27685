// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Session storage key prefixes. The user mapping key is composite
// (session_user:<userID>:<sessionID>) so one prefix scan lists all
// sessions of a user.
const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore is a BadgerDB-backed SessionStore. Sessions survive
// restarts, and every entry is written with a TTL matching its expiry so
// Badger reclaims lapsed sessions without a sweep.
//
// When a ValueEncryptor is set, session values are encrypted before they
// reach the value log.
type BadgerSessionStore struct {
	db        *badger.DB
	encryptor *ValueEncryptor
}

// NewBadgerSessionStore creates a session store on an existing BadgerDB.
// The encryptor may be nil to store sessions in plaintext.
func NewBadgerSessionStore(db *badger.DB, encryptor *ValueEncryptor) *BadgerSessionStore {
	return &BadgerSessionStore{db: db, encryptor: encryptor}
}

func (s *BadgerSessionStore) encodeSession(session *Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return s.encryptor.Encrypt(data)
}

func (s *BadgerSessionStore) decodeSession(val []byte, session *Session) error {
	data, err := s.encryptor.Decrypt(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, session)
}

// Create stores a new session under both its ID key and a user mapping key.
func (s *BadgerSessionStore) Create(ctx context.Context, session *Session) error {
	data, err := s.encodeSession(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	return s.db.Update(func(txn *badger.Txn) error {
		sessionKey := []byte(sessionKeyPrefix + session.ID)
		if err := txn.SetEntry(badger.NewEntry(sessionKey, data).WithTTL(ttl)); err != nil {
			return fmt.Errorf("set session: %w", err)
		}

		userKey := []byte(sessionUserKeyPrefix + session.UserID.String() + ":" + session.ID)
		if err := txn.SetEntry(badger.NewEntry(userKey, []byte(session.ID)).WithTTL(ttl)); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}

		return nil
	})
}

// Get retrieves a session by ID.
func (s *BadgerSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return s.decodeSession(val, &session)
		})
	})

	if err != nil {
		return nil, err
	}

	// Badger's TTL lags by design; double-check against wall time.
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Update replaces an existing session, keeping the TTL aligned with the
// session's current expiry.
func (s *BadgerSessionStore) Update(ctx context.Context, session *Session) error {
	if _, err := s.Get(ctx, session.ID); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return ErrSessionNotFound
		}
		return err
	}

	data, err := s.encodeSession(session)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + session.ID)
		entry := badger.NewEntry(key, data)
		if ttl := time.Until(session.ExpiresAt); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes a session and its user mapping.
func (s *BadgerSessionStore) Delete(ctx context.Context, id string) error {
	// Read first to learn the user ID for the mapping key.
	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.decodeSession(val, &session)
		})
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionKeyPrefix + id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}

		if session.UserID != uuid.Nil {
			userKey := []byte(sessionUserKeyPrefix + session.UserID.String() + ":" + id)
			if err := txn.Delete(userKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete user mapping: %w", err)
			}
		}

		return nil
	})
}

// DeleteByUserID removes all sessions for a user.
func (s *BadgerSessionStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	sessionIDs, err := s.sessionIDsForUser(userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range sessionIDs {
		if err := s.Delete(ctx, id); err != nil {
			continue
		}
		count++
	}

	return count, nil
}

// GetByUserID returns all live sessions for a user.
func (s *BadgerSessionStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	var sessions []*Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionUserKeyPrefix + userID.String() + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sessionID string
			if err := it.Item().Value(func(val []byte) error {
				sessionID = string(val)
				return nil
			}); err != nil {
				continue
			}

			item, err := txn.Get([]byte(sessionKeyPrefix + sessionID))
			if err != nil {
				continue // Session lapsed under its mapping
			}

			var session Session
			if err := item.Value(func(val []byte) error {
				return s.decodeSession(val, &session)
			}); err != nil {
				continue
			}

			if !session.IsExpired() {
				sessions = append(sessions, &session)
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	return sessions, nil
}

// Touch updates LastAccessedAt, rewriting the entry under its original
// TTL. The absolute expiry set at creation never moves.
func (s *BadgerSessionStore) Touch(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var session Session
		if err := item.Value(func(val []byte) error {
			return s.decodeSession(val, &session)
		}); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}

		session.LastAccessedAt = time.Now()

		data, err := s.encodeSession(&session)
		if err != nil {
			return err
		}

		entry := badger.NewEntry(key, data)
		if ttl := time.Until(session.ExpiresAt); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// CleanupExpired removes sessions past their expiry. Badger's own TTL
// handles most of this; the sweep covers entries written without one.
func (s *BadgerSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	var expiredIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session Session
			if err := it.Item().Value(func(val []byte) error {
				return s.decodeSession(val, &session)
			}); err != nil {
				continue
			}

			if session.IsExpired() {
				expiredIDs = append(expiredIDs, session.ID)
			}
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, id := range expiredIDs {
		if err := s.Delete(ctx, id); err != nil {
			continue
		}
		count++
	}

	return count, nil
}

// Count returns the number of stored sessions.
func (s *BadgerSessionStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

func (s *BadgerSessionStore) sessionIDsForUser(userID uuid.UUID) ([]string, error) {
	var sessionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionUserKeyPrefix + userID.String() + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				sessionIDs = append(sessionIDs, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	return sessionIDs, nil
}

// Compile-time interface assertions.
var (
	_ SessionStore = (*BadgerSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
