// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/logging"
)

// GoogleIssuerURL is Google's OIDC issuer. Discovery resolves the
// authorization, token and JWKS endpoints from it.
const GoogleIssuerURL = "https://accounts.google.com"

// Google flow errors.
var (
	// ErrInvalidState indicates the callback state was unknown, expired
	// or already consumed.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrTokenExchangeFailed indicates the code-for-token exchange failed.
	ErrTokenExchangeFailed = errors.New("token exchange failed")
)

// GoogleIdentity is the verified identity extracted from a Google ID
// token. The caller upserts a user from it and issues platform
// credentials; this package never touches the database.
type GoogleIdentity struct {
	Email         string
	Name          string
	Picture       string
	EmailVerified bool

	// RedirectURI is the post-login frontend redirect captured when the
	// flow started, if any.
	RedirectURI string
}

// GoogleFlow drives the Google sign-in authorization code flow.
//
// State handling: each AuthorizationURL call issues a random state key
// and nonce. The state is persisted server-side with a TTL and consumed
// on first callback, so replayed or forged callbacks fail; the nonce is
// re-checked against the ID token claims.
type GoogleFlow struct {
	rp       rp.RelyingParty
	states   StateStore
	stateTTL time.Duration
}

// NewGoogleFlow builds the relying party through OIDC discovery against
// Google's issuer. It performs a network round trip and should run once
// at startup; a misconfigured client ID or secret surfaces here rather
// than on the first sign-in.
func NewGoogleFlow(ctx context.Context, cfg *config.GoogleOAuthConfig, states StateStore, stateTTL time.Duration) (*GoogleFlow, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google oauth requires client_id and client_secret")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("google oauth requires redirect_url")
	}

	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = GoogleIssuerURL
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}
	}

	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}

	options := []rp.Option{
		rp.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx, issuer, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, scopes, options...)
	if err != nil {
		return nil, fmt.Errorf("create google relying party: %w", err)
	}

	return &GoogleFlow{
		rp:       relyingParty,
		states:   states,
		stateTTL: stateTTL,
	}, nil
}

// AuthorizationURL builds the Google authorization URL for a new sign-in
// attempt. redirectURI optionally records where the frontend wants the
// visitor after login; it is returned from HandleCallback, not sent to
// Google.
func (f *GoogleFlow) AuthorizationURL(ctx context.Context, redirectURI string) (string, error) {
	stateKey, err := generateSecureRandom(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateSecureRandom(32)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	now := time.Now()
	stateData := &StateData{
		Nonce:       nonce,
		RedirectURI: redirectURI,
		CreatedAt:   now,
		ExpiresAt:   now.Add(f.stateTTL),
	}

	authURL := rp.AuthURL(stateKey, f.rp)

	parsedURL, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}
	query := parsedURL.Query()
	query.Set("nonce", nonce)
	parsedURL.RawQuery = query.Encode()

	if err := f.states.Store(ctx, stateKey, stateData); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	logging.Debug().
		Str("state", stateKey[:8]+"...").
		Msg("Generated Google authorization URL")

	return parsedURL.String(), nil
}

// HandleCallback validates the callback, exchanges the code for tokens
// and returns the verified identity.
func (f *GoogleFlow) HandleCallback(ctx context.Context, state, code string) (*GoogleIdentity, error) {
	stateData, err := f.validateAndConsumeState(ctx, state)
	if err != nil {
		return nil, err
	}

	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, f.rp)
	if err != nil {
		logging.Error().Err(err).Msg("Google token exchange failed")
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	claims := tokens.IDTokenClaims
	if claims == nil {
		return nil, fmt.Errorf("%w: no id token claims", ErrTokenExchangeFailed)
	}

	if claims.Nonce != stateData.Nonce {
		logging.Warn().Msg("Google callback nonce mismatch")
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidCredentials)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: id token carries no email", ErrInvalidCredentials)
	}

	identity := &GoogleIdentity{
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: bool(claims.EmailVerified),
		RedirectURI:   stateData.RedirectURI,
	}

	logging.Info().
		Str("email", logging.SanitizeEmail(identity.Email)).
		Msg("Google sign-in verified")

	return identity, nil
}

// validateAndConsumeState validates and removes the state from the
// store. Single use: a second callback with the same state fails.
func (f *GoogleFlow) validateAndConsumeState(ctx context.Context, state string) (*StateData, error) {
	if state == "" {
		return nil, ErrInvalidState
	}

	stateData, err := f.states.Get(ctx, state)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) || errors.Is(err, ErrStateExpired) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		return nil, fmt.Errorf("get state: %w", err)
	}

	if err := f.states.Delete(ctx, state); err != nil {
		return nil, fmt.Errorf("consume state: %w", err)
	}

	return stateData, nil
}

// generateSecureRandom generates a cryptographically secure random
// string, URL-safe base64 encoded.
func generateSecureRandom(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
