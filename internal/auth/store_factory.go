// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/nazca360/nazca360/internal/config"
)

// Session store backends.
const (
	// StoreMemory keeps sessions in process memory (default).
	StoreMemory = "memory"

	// StoreBadger persists sessions in BadgerDB.
	StoreBadger = "badger"
)

// StoreFactory builds the session and OAuth state stores from
// configuration. With the badger backend, both stores share one BadgerDB
// under distinct key prefixes, and values are optionally encrypted at
// rest with keys derived from the platform secret.
type StoreFactory struct {
	db               *badger.DB
	sessionEncryptor *ValueEncryptor
	stateEncryptor   *ValueEncryptor
}

// NewStoreFactory prepares the configured backend. For the badger backend
// this opens the database at cfg.BadgerPath; for memory it does nothing.
// The secret feeds at-rest encryption and is only read when
// cfg.EncryptAtRest is set.
func NewStoreFactory(cfg *config.SessionsConfig, secret string) (*StoreFactory, error) {
	factory := &StoreFactory{}

	if cfg.Store != StoreBadger {
		return factory, nil
	}

	opts := badger.DefaultOptions(cfg.BadgerPath)
	opts.Logger = nil // Badger's own logger bypasses zerolog
	// Session and state values are tiny; keep the value log small.
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	factory.db = db

	if cfg.EncryptAtRest {
		factory.sessionEncryptor, err = NewValueEncryptor([]byte(secret), "sessions")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("session encryptor: %w", err)
		}
		factory.stateEncryptor, err = NewValueEncryptor([]byte(secret), "oauth-state")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("state encryptor: %w", err)
		}
	}

	return factory, nil
}

// Sessions returns the configured SessionStore.
func (f *StoreFactory) Sessions() SessionStore {
	if f.db != nil {
		return NewBadgerSessionStore(f.db, f.sessionEncryptor)
	}
	return NewMemorySessionStore()
}

// OAuthStates returns the configured StateStore.
func (f *StoreFactory) OAuthStates() StateStore {
	if f.db != nil {
		return NewBadgerStateStore(f.db, f.stateEncryptor)
	}
	return NewMemoryStateStore()
}

// Close closes the underlying BadgerDB if one was opened.
func (f *StoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
