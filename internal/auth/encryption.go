// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Value encryption errors.
var (
	// ErrEncryptionKeyMissing indicates the encryptor was built without a key.
	ErrEncryptionKeyMissing = errors.New("encryption key missing")

	// ErrDecryptionFailed indicates authentication of the ciphertext failed.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidCiphertext indicates the ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// ValueEncryptor encrypts values before they reach disk. The badger
// session and OAuth state stores use it when sessions.encrypt_at_rest is
// enabled, so a copied data directory does not leak live session tokens.
//
// A nil *ValueEncryptor is valid and means encryption is disabled: both
// Encrypt and Decrypt pass data through unchanged. Callers therefore
// never need to branch on configuration.
type ValueEncryptor struct {
	aead cipher.AEAD
}

// NewValueEncryptor creates an AES-256-GCM encryptor. The key is derived
// from the secret with HKDF-SHA256, bound to the given context string so
// different stores cannot decrypt each other's values.
func NewValueEncryptor(secret []byte, context string) (*ValueEncryptor, error) {
	if len(secret) == 0 {
		return nil, ErrEncryptionKeyMissing
	}

	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, secret, nil, []byte("nazca360-at-rest:"+context))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &ValueEncryptor{aead: aead}, nil
}

// Encrypt seals the plaintext. The random nonce is prepended to the
// ciphertext. A nil receiver returns the plaintext unchanged.
func (e *ValueEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if e == nil {
		return plaintext, nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a value produced by Encrypt. A nil receiver returns the
// data unchanged.
func (e *ValueEncryptor) Decrypt(data []byte) ([]byte, error) {
	if e == nil {
		return data, nil
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrInvalidCiphertext
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
