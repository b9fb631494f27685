// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/auth"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/mail"
	"github.com/nazca360/nazca360/internal/models"
)

// gatewaySessionTTL is the lifetime of sessions established through the
// on-site cabin gateway.
const gatewaySessionTTL = 7 * 24 * time.Hour

// mailTimeout bounds the background goroutines that deliver transactional
// mail after the HTTP response has been written.
const mailTimeout = 30 * time.Second

// Register handles POST /auth/register.
//
//	@Summary	Register a local account
//	@Tags		auth
//	@Accept		json
//	@Param		body	body	models.RegisterRequest	true	"registration"
//	@Success	201		{object}	models.APIResponse
//	@Failure	400		{object}	models.APIResponse
//	@Router		/api/v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	email := normalizeEmail(req.Email)

	hash, err := auth.HashPassword(req.Password, h.config.Security.BcryptCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process password", err)
		return
	}

	user := models.NewUser(email, strings.TrimSpace(req.FullName), models.ProviderLocal)
	user.PasswordHash = hash
	if h.isBootstrapAdmin(email) {
		user.Role = models.RoleAdmin
	}
	if !h.config.Email.Enabled {
		// Without outbound mail there is no verification link to follow.
		user.IsVerified = true
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "EMAIL_TAKEN", "An account with this email already exists", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", err)
		return
	}

	if h.config.Email.Enabled {
		h.announceRegistration(r.Context(), user)
		respondMessage(w, http.StatusCreated, "Cuenta creada. Revisa tu correo para verificar tu dirección.")
		return
	}
	h.publishUserRegistered(r.Context(), user, "", "")
	respondMessage(w, http.StatusCreated, "Cuenta creada.")
}

// VerifyEmail handles GET /auth/verify-email?token=.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing token", nil)
		return
	}

	userID, err := h.tokens.VerifyEmailToken(token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or expired verification token", nil)
		return
	}

	if err := h.db.MarkUserVerified(r.Context(), userID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or expired verification token", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify email", err)
		return
	}

	respondMessage(w, http.StatusOK, "Correo verificado. Ya puedes iniciar sesión.")
}

// Login handles POST /auth/login.
//
//	@Summary	Authenticate with email and password
//	@Tags		auth
//	@Accept		json
//	@Param		body	body	models.LoginRequest	true	"credentials"
//	@Success	200		{object}	models.APIResponse{data=models.TokenResponse}
//	@Failure	401		{object}	models.APIResponse
//	@Router		/api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	email := normalizeEmail(req.Email)
	ip := audit.ClientIP(r)

	user, err := h.db.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.auditor.AuthFailure(r.Context(), email, ip, "unknown email")
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	if user.IsOAuth() {
		h.auditor.AuthFailure(r.Context(), email, ip, "password login on oauth account")
		respondError(w, http.StatusBadRequest, "OAUTH_ACCOUNT", "This account uses an external sign-in provider", nil)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.auditor.AuthFailure(r.Context(), email, ip, "wrong password")
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	if !user.IsVerified {
		respondError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Verify your email address before logging in", nil)
		return
	}

	h.respondToken(w, r, user)
}

// ForgotPassword handles POST /auth/forgot-password. The response never
// reveals whether the address exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	email := normalizeEmail(req.Email)
	if user, err := h.db.GetUserByEmail(r.Context(), email); err == nil && !user.IsOAuth() {
		h.sendPasswordResetMail(r.Context(), user)
	}

	respondMessage(w, http.StatusOK, "Si la dirección existe, enviamos un enlace para restablecer la contraseña.")
}

// ResetPassword handles POST /auth/reset-password. A successful reset
// invalidates every session of the account.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	userID, err := h.tokens.VerifyPasswordResetToken(req.Token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or expired reset token", nil)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.config.Security.BcryptCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process password", err)
		return
	}

	if err := h.db.UpdateUserPassword(r.Context(), userID, hash); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or expired reset token", nil)
		return
	}

	if n, err := h.authMW.Sessions().DeleteByUserID(r.Context(), userID); err == nil && n > 0 {
		logging.CtxInfo(r.Context()).Int("sessions", n).Msg("Invalidated sessions after password reset")
	}

	respondMessage(w, http.StatusOK, "Contraseña actualizada. Inicia sesión con tu nueva contraseña.")
}

// GoogleStart handles GET /auth/google: returns the Google authorization
// URL for the frontend to redirect to.
func (h *Handler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Google sign-in is not enabled", nil)
		return
	}

	authURL, err := h.google.AuthorizationURL(r.Context(), r.URL.Query().Get("redirect_uri"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start Google sign-in", err)
		return
	}

	respondData(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

// GoogleCallback handles GET /auth/google/callback: exchanges the code,
// upserts the account and redirects to the frontend with a JWT.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Google sign-in is not enabled", nil)
		return
	}

	q := r.URL.Query()
	identity, err := h.google.HandleCallback(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		logging.CtxWarn(r.Context()).Err(err).Msg("Google callback rejected")
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Google sign-in failed", nil)
		return
	}

	user, err := h.upsertExternalUser(r.Context(), identity.Email, identity.Name, identity.Picture, models.ProviderGoogle)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to provision account", err)
		return
	}

	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	if err := h.db.TouchLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		logging.CtxWarn(r.Context()).Err(err).Msg("Failed to record login time")
	}

	redirect := h.config.Server.FrontendURL + "/auth-success?token=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// SessionExchange handles GET /auth/session: exchanges an on-site cabin
// gateway session for a platform session cookie.
func (h *Handler) SessionExchange(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing X-Session-ID header", nil)
		return
	}

	identity, err := h.gateway.Resolve(r.Context(), sessionID)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrGatewayRejected):
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Session not recognized", nil)
		return
	case errors.Is(err, auth.ErrGatewayDisabled):
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Session gateway is not enabled", nil)
		return
	default:
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Session gateway unavailable", err)
		return
	}

	user, err := h.upsertExternalUser(r.Context(), identity.Email, identity.Name, identity.Picture, models.ProviderSession)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to provision account", err)
		return
	}

	session, err := h.authMW.CreateSession(r.Context(), w, auth.SubjectFromUser(user), gatewaySessionTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session", err)
		return
	}

	respondData(w, http.StatusOK, models.SessionResponse{
		User:         user.ToPublic(),
		SessionToken: session.ID,
		ExpiresAt:    session.ExpiresAt,
	})
}

// Me handles GET /auth/me with the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		RespondAuthError(w, ErrNotAuthenticated)
		return
	}

	user, err := h.db.GetUserByID(r.Context(), hctx.UserID)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Account not found", nil)
		return
	}

	respondData(w, http.StatusOK, user.ToPublic())
}

// Logout handles POST /auth/logout: deletes the server-side session (when
// the request used one) and clears the cookie. JWTs simply expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContext(r)
	if hctx.IsAuthenticated() && hctx.Subject.SessionID != "" {
		if err := h.authMW.DestroySession(r.Context(), w, hctx.Subject.SessionID); err != nil {
			logging.CtxWarn(r.Context()).Err(err).Msg("Failed to destroy session on logout")
		}
	} else {
		h.authMW.ClearSessionCookie(w)
	}

	respondMessage(w, http.StatusOK, "Sesión cerrada.")
}

// respondToken issues a JWT response for a successful authentication.
func (h *Handler) respondToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	if err := h.db.TouchLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		logging.CtxWarn(r.Context()).Err(err).Msg("Failed to record login time")
	}

	respondData(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   time.Now().UTC().Add(h.jwt.TTL()),
		User:        user.ToPublic(),
	})
}

// upsertExternalUser provisions or refreshes an account for an external
// identity (Google or the cabin gateway). External accounts arrive
// pre-verified. An existing local account with the same email is taken
// over by the external provider only for profile fields, never for the
// password hash.
func (h *Handler) upsertExternalUser(ctx context.Context, email, name, picture, provider string) (*models.User, error) {
	email = normalizeEmail(email)

	user, err := h.db.GetUserByEmail(ctx, email)
	if err == nil {
		if user.FullName != name || user.Picture != picture {
			if err := h.db.UpdateUserProfile(ctx, user.ID, name, picture); err != nil {
				logging.CtxWarn(ctx).Err(err).Msg("Failed to refresh external profile")
			} else {
				user.FullName = name
				user.Picture = picture
			}
		}
		if !user.IsVerified {
			if err := h.db.MarkUserVerified(ctx, user.ID); err == nil {
				user.IsVerified = true
			}
		}
		return user, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	user = models.NewUser(email, name, provider)
	user.Picture = picture
	user.IsVerified = true
	if h.isBootstrapAdmin(email) {
		user.Role = models.RoleAdmin
	}

	if err := h.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	h.publishUserRegistered(ctx, user, "", "")
	return user, nil
}

// isBootstrapAdmin reports whether the email is on the configured
// admin bootstrap list.
func (h *Handler) isBootstrapAdmin(email string) bool {
	for _, admin := range h.config.Security.AdminEmails {
		if normalizeEmail(admin) == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// announceRegistration issues the verification link for a fresh account.
// When the event bus is running the notification consumer delivers the
// mail from the user.registered event; otherwise the handler mails it
// directly in the background.
func (h *Handler) announceRegistration(ctx context.Context, user *models.User) {
	token, err := h.tokens.EmailVerificationToken(user.ID)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to issue verification token")
		return
	}
	verifyURL := h.config.Server.FrontendURL + "/verificar-email?token=" + url.QueryEscape(token)

	if h.config.Events.Enabled {
		h.publishUserRegistered(ctx, user, verifyURL, "24 horas")
		return
	}
	h.publishUserRegistered(ctx, user, "", "")

	msg, err := mail.NewVerificationMessage(user.Email, user.FullName, verifyURL, "24 horas")
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to render verification mail")
		return
	}
	go h.deliverMail(msg, "verification")
}

// publishUserRegistered emits the user.registered domain event. A
// non-empty verifyURL tells consumers the account still needs email
// verification.
func (h *Handler) publishUserRegistered(ctx context.Context, user *models.User, verifyURL, verifyTTL string) {
	event, err := events.NewUserRegistered(user.ID, events.UserRegisteredPayload{
		Email:     user.Email,
		Name:      user.FullName,
		VerifyURL: verifyURL,
		VerifyTTL: verifyTTL,
	})
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Failed to build user.registered event")
		return
	}
	if err := h.publisher.PublishEvent(ctx, event); err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Failed to publish user.registered event")
	}
}

// sendPasswordResetMail delivers the reset link in the background.
func (h *Handler) sendPasswordResetMail(ctx context.Context, user *models.User) {
	token, err := h.tokens.PasswordResetToken(user.ID)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to issue reset token")
		return
	}

	resetURL := h.config.Server.FrontendURL + "/restablecer-contrasena?token=" + url.QueryEscape(token)
	msg, err := mail.NewPasswordResetMessage(user.Email, user.FullName, resetURL, "1 hora")
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to render reset mail")
		return
	}

	go h.deliverMail(msg, "password-reset")
}

func (h *Handler) deliverMail(msg *mail.Message, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()

	if err := h.mailer.Send(ctx, msg); err != nil {
		logging.Error().Err(err).Str("kind", kind).Msg("Failed to send mail")
	}
}
