// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// OAuth state errors.
var (
	// ErrStateNotFound indicates the state key was never issued or was
	// already consumed.
	ErrStateNotFound = errors.New("oauth state not found")

	// ErrStateExpired indicates the state outlived its TTL.
	ErrStateExpired = errors.New("oauth state expired")
)

// StateData is the server-side record behind an OAuth state parameter.
// It binds the callback to the flow that started it: the nonce is
// re-checked against the ID token, and the entry is deleted on first use
// so a replayed callback fails.
type StateData struct {
	// Nonce is echoed through the provider into the ID token.
	Nonce string `json:"nonce"`

	// RedirectURI optionally overrides the post-login frontend redirect.
	RedirectURI string `json:"redirect_uri,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the state has outlived its TTL.
func (d *StateData) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}

// StateStore persists OAuth state parameters between the authorization
// redirect and the provider callback.
type StateStore interface {
	// Store saves state data under the given key.
	Store(ctx context.Context, key string, state *StateData) error

	// Get retrieves state data. Returns ErrStateNotFound or ErrStateExpired.
	Get(ctx context.Context, key string) (*StateData, error)

	// Delete removes state data. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// CleanupExpired removes lapsed states and returns how many went.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryStateStore is an in-memory StateStore. States are short-lived
// (minutes), so losing them on restart only forces a fresh sign-in click.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]*StateData
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]*StateData),
	}
}

// Store saves state data under the given key.
func (s *MemoryStateStore) Store(ctx context.Context, key string, state *StateData) error {
	if key == "" {
		return errors.New("state key cannot be empty")
	}
	if state == nil {
		return errors.New("state data cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := *state
	s.states[key] = &c
	return nil
}

// Get retrieves state data by key.
func (s *MemoryStateStore) Get(ctx context.Context, key string) (*StateData, error) {
	s.mu.RLock()
	state, ok := s.states[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrStateNotFound
	}
	if state.IsExpired() {
		return nil, ErrStateExpired
	}

	c := *state
	return &c, nil
}

// Delete removes state data by key.
func (s *MemoryStateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

// CleanupExpired removes lapsed states.
func (s *MemoryStateStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, state := range s.states {
		if state.IsExpired() {
			delete(s.states, key)
			count++
		}
	}
	return count, nil
}

// State storage key prefix for namespacing alongside sessions in the
// shared BadgerDB.
const stateKeyPrefix = "oauth_state:"

// BadgerStateStore is a BadgerDB-backed StateStore. It shares the badger
// instance with the session store and writes every entry with a TTL, so
// abandoned sign-in attempts expire without a sweep.
type BadgerStateStore struct {
	db        *badger.DB
	encryptor *ValueEncryptor
}

// NewBadgerStateStore creates a state store on an existing BadgerDB.
// The encryptor may be nil to store states in plaintext.
func NewBadgerStateStore(db *badger.DB, encryptor *ValueEncryptor) *BadgerStateStore {
	return &BadgerStateStore{db: db, encryptor: encryptor}
}

// Store saves state data with a TTL derived from its expiry.
func (s *BadgerStateStore) Store(ctx context.Context, key string, state *StateData) error {
	if key == "" {
		return errors.New("state key cannot be empty")
	}
	if state == nil {
		return errors.New("state data cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data, err = s.encryptor.Encrypt(data)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(stateKeyPrefix+key), data)
		if ttl := time.Until(state.ExpiresAt); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get retrieves state data by key.
func (s *BadgerStateStore) Get(ctx context.Context, key string) (*StateData, error) {
	if key == "" {
		return nil, ErrStateNotFound
	}

	var state StateData

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStateNotFound
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}

		return item.Value(func(val []byte) error {
			data, err := s.encryptor.Decrypt(val)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, &state)
		})
	})

	if err != nil {
		return nil, err
	}

	if state.IsExpired() {
		// Badger TTL will collect it; remove eagerly anyway.
		_ = s.Delete(ctx, key)
		return nil, ErrStateExpired
	}

	return &state, nil
}

// Delete removes state data by key. Called after a state is consumed so
// a replayed callback cannot reuse it.
func (s *BadgerStateStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(stateKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// CleanupExpired removes lapsed states that Badger's TTL has not yet
// collected.
func (s *BadgerStateStore) CleanupExpired(ctx context.Context) (int, error) {
	var expiredKeys [][]byte
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(stateKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var state StateData
			err := item.Value(func(val []byte) error {
				data, err := s.encryptor.Decrypt(val)
				if err != nil {
					return err
				}
				return json.Unmarshal(data, &state)
			})
			if err != nil {
				// Undecodable entry is dead weight; collect it.
				expiredKeys = append(expiredKeys, append([]byte{}, item.Key()...))
				continue
			}

			if state.ExpiresAt.Before(now) {
				expiredKeys = append(expiredKeys, append([]byte{}, item.Key()...))
			}
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("scan for expired states: %w", err)
	}

	count := 0
	for _, key := range expiredKeys {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err == nil {
			count++
		}
	}

	return count, nil
}

// Compile-time interface assertions.
var (
	_ StateStore = (*MemoryStateStore)(nil)
	_ StateStore = (*BadgerStateStore)(nil)
)
