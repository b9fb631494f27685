// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateSessions(); err != nil {
		return err
	}

	if err := c.validateOAuth(); err != nil {
		return err
	}

	if err := c.validateSessionGateway(); err != nil {
		return err
	}

	if err := c.validatePayments(); err != nil {
		return err
	}

	if err := c.validateEmail(); err != nil {
		return err
	}

	if err := c.validateBooking(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}

	if err := validateHTTPURL(c.Server.BaseURL, "BASE_URL"); err != nil {
		return fmt.Errorf("BASE_URL is invalid: %w", err)
	}

	if err := validateHTTPURL(c.Server.FrontendURL, "FRONTEND_URL"); err != nil {
		return fmt.Errorf("FRONTEND_URL is invalid: %w", err)
	}

	return nil
}

// Database limit constants
const (
	dbMinConnections = 1
	dbMaxConnections = 64
)

// validAccessModes defines the allowed DuckDB access modes
var validAccessModes = map[string]bool{
	"read_write": true,
	"read_only":  true,
}

// validateDatabase validates database configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}

	if c.Database.MaxConnections < dbMinConnections || c.Database.MaxConnections > dbMaxConnections {
		return fmt.Errorf("DUCKDB_MAX_CONNECTIONS must be between %d and %d", dbMinConnections, dbMaxConnections)
	}

	if !validAccessModes[c.Database.AccessMode] {
		return fmt.Errorf("DUCKDB_ACCESS_MODE must be one of: read_write, read_only")
	}

	return nil
}

// Security bound constants
const (
	minJWTSecretLength = 32
	minBcryptCost      = 10
	maxBcryptCost      = 15
	minTokenTTL        = 15 * time.Minute
	maxTokenTTL        = 30 * 24 * time.Hour
)

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}

	if c.Security.TokenTTL < minTokenTTL || c.Security.TokenTTL > maxTokenTTL {
		return fmt.Errorf("JWT_EXPIRY must be between %v and %v", minTokenTTL, maxTokenTTL)
	}

	if c.Security.BcryptCost < minBcryptCost || c.Security.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost)
	}

	if err := c.validateAdminEmails(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return c.validateRateLimits()
}

// validateJWTSecret validates the JWT secret configuration.
// Authentication is not optional, so the secret is always required.
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for security", minJWTSecretLength)
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateAdminEmails validates the admin bootstrap email list
func (c *Config) validateAdminEmails() error {
	for _, email := range c.Security.AdminEmails {
		if !strings.Contains(email, "@") {
			return fmt.Errorf("ADMIN_EMAILS contains an invalid address: %q", email)
		}
	}
	return nil
}

// validateCORS validates CORS configuration for security best practices.
// In production mode, wildcard CORS is rejected: every API surface requires
// authentication, and wildcard origins with credentials lets any site reuse
// stolen tokens.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://nazca360.pe,https://app.nazca360.pe " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.CORS.Origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

// ShouldWarnAboutPayments returns true if checkout is required but no payment
// provider is enabled, meaning every checkout attempt will fail
func (c *Config) ShouldWarnAboutPayments() bool {
	return c.Payments.Enabled && !c.PaymentProviderEnabled()
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
// Ensures rate limit values are within sensible ranges to prevent
// misconfiguration that could lead to DoS or ineffective protection.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}

	if c.Security.LoginRateReqs < minRateLimitRequests || c.Security.LoginRateReqs > maxRateLimitRequests {
		return fmt.Errorf("LOGIN_RATE_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.LoginRateWindow < minRateLimitWindow || c.Security.LoginRateWindow > maxRateLimitWindow {
		return fmt.Errorf("LOGIN_RATE_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}

	return nil
}

// validSessionStores defines the allowed session store backends
var validSessionStores = map[string]bool{
	"memory": true,
	"badger": true,
}

// validateSessions validates session store configuration
func (c *Config) validateSessions() error {
	if !validSessionStores[c.Sessions.Store] {
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger")
	}

	if c.Sessions.Store == "badger" && c.Sessions.BadgerPath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.Sessions.InactivityTimeout <= 0 || c.Sessions.InactivityTimeout > c.Sessions.TTL {
		return fmt.Errorf("SESSION_INACTIVITY_TIMEOUT must be positive and not exceed SESSION_TTL")
	}

	if c.Sessions.CleanupInterval < 10*time.Second {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be at least 10s")
	}

	if c.Sessions.EncryptAtRest && c.Sessions.Store != "badger" {
		return fmt.Errorf("SESSION_ENCRYPT_AT_REST requires SESSION_STORE=badger")
	}

	return nil
}

// validateOAuth validates Google OAuth configuration (only if enabled)
func (c *Config) validateOAuth() error {
	if !c.OAuth.Google.Enabled {
		return nil
	}

	if err := validateOIDCIssuerURL(c.OAuth.Google.IssuerURL); err != nil {
		return fmt.Errorf("GOOGLE_ISSUER_URL is invalid: %w", err)
	}

	if c.OAuth.Google.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required when GOOGLE_OAUTH_ENABLED=true")
	}

	if c.OAuth.Google.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required when GOOGLE_OAUTH_ENABLED=true")
	}

	if c.OAuth.Google.RedirectURL == "" {
		return fmt.Errorf("GOOGLE_REDIRECT_URL is required when GOOGLE_OAUTH_ENABLED=true")
	}

	if !containsScope(c.OAuth.Google.Scopes, "openid") {
		return fmt.Errorf("GOOGLE_SCOPES must include the openid scope")
	}

	if c.OAuth.StateTTL < time.Minute || c.OAuth.StateTTL > time.Hour {
		return fmt.Errorf("OAUTH_STATE_TTL must be between 1m and 1h")
	}

	return nil
}

// containsScope checks whether an OAuth scope list includes the given scope
func containsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// validateSessionGateway validates cabin gateway configuration (only if enabled)
func (c *Config) validateSessionGateway() error {
	if !c.SessionGateway.Enabled {
		return nil
	}

	if c.SessionGateway.BaseURL == "" {
		return fmt.Errorf("SESSION_GATEWAY_URL is required when SESSION_GATEWAY_ENABLED=true")
	}
	if err := validateHTTPURL(c.SessionGateway.BaseURL, "SESSION_GATEWAY_URL"); err != nil {
		return fmt.Errorf("SESSION_GATEWAY_URL is invalid: %w", err)
	}

	if c.SessionGateway.Timeout < time.Second || c.SessionGateway.Timeout > time.Minute {
		return fmt.Errorf("SESSION_GATEWAY_TIMEOUT must be between 1s and 1m")
	}

	return nil
}

// validatePayments validates payment provider and plan catalog configuration
func (c *Config) validatePayments() error {
	if !c.Payments.Enabled {
		return nil
	}

	if err := c.validateStripe(); err != nil {
		return err
	}

	if err := c.validatePayPal(); err != nil {
		return err
	}

	if err := c.validatePlans(); err != nil {
		return err
	}

	if c.Payments.ReservationAmountCents <= 0 {
		return fmt.Errorf("RESERVATION_AMOUNT_CENTS must be positive")
	}
	if len(c.Payments.ReservationCurrency) != 3 {
		return fmt.Errorf("RESERVATION_CURRENCY must be a 3-letter ISO code")
	}

	return nil
}

// validateStripe validates Stripe credentials (only if enabled)
func (c *Config) validateStripe() error {
	if !c.Payments.Stripe.Enabled {
		return nil
	}

	if c.Payments.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required when STRIPE_ENABLED=true")
	}
	if containsPlaceholder(c.Payments.Stripe.SecretKey) {
		return fmt.Errorf("STRIPE_SECRET_KEY contains a placeholder value")
	}
	if c.Payments.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_ENABLED=true")
	}

	return nil
}

// validatePayPal validates PayPal credentials (only if enabled)
func (c *Config) validatePayPal() error {
	if !c.Payments.PayPal.Enabled {
		return nil
	}

	if c.Payments.PayPal.ClientID == "" {
		return fmt.Errorf("PAYPAL_CLIENT_ID is required when PAYPAL_ENABLED=true")
	}
	if c.Payments.PayPal.ClientSecret == "" {
		return fmt.Errorf("PAYPAL_CLIENT_SECRET is required when PAYPAL_ENABLED=true")
	}
	if err := validateHTTPURL(c.Payments.PayPal.APIBase, "PAYPAL_API_BASE"); err != nil {
		return fmt.Errorf("PAYPAL_API_BASE is invalid: %w", err)
	}

	return nil
}

// validatePlans validates the subscription plan catalog
func (c *Config) validatePlans() error {
	if len(c.Payments.Plans) == 0 {
		return fmt.Errorf("payments.plans must define at least one plan when PAYMENTS_ENABLED=true")
	}

	for name, plan := range c.Payments.Plans {
		if plan.AmountCents <= 0 {
			return fmt.Errorf("plan %q: amount_cents must be positive", name)
		}
		if len(plan.Currency) != 3 {
			return fmt.Errorf("plan %q: currency must be a 3-letter ISO code", name)
		}
		if plan.DurationDays <= 0 {
			return fmt.Errorf("plan %q: duration_days must be positive", name)
		}
	}

	return nil
}

// validateEmail validates SMTP configuration (only if enabled)
func (c *Config) validateEmail() error {
	if !c.Email.Enabled {
		return nil
	}

	if c.Email.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED=true")
	}
	if c.Email.SMTPPort < 1 || c.Email.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if !strings.Contains(c.Email.FromAddress, "@") {
		return fmt.Errorf("EMAIL_FROM_ADDRESS must be a valid address")
	}
	if c.Email.VerificationTTL <= 0 {
		return fmt.Errorf("EMAIL_VERIFICATION_TTL must be positive")
	}
	if c.Email.ResetTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TTL must be positive")
	}

	return nil
}

// Booking bound constants
const (
	minBookingCabins    = 1
	maxBookingCabins    = 32
	minSlotMinutes      = 5
	maxSlotMinutes      = 240
	maxAdvanceDaysLimit = 365
	minHoldTTL          = time.Minute
	maxHoldTTL          = 24 * time.Hour
)

// validateBooking validates cabin scheduling configuration
func (c *Config) validateBooking() error {
	if c.Booking.Cabins < minBookingCabins || c.Booking.Cabins > maxBookingCabins {
		return fmt.Errorf("BOOKING_CABINS must be between %d and %d", minBookingCabins, maxBookingCabins)
	}

	if c.Booking.SlotMinutes < minSlotMinutes || c.Booking.SlotMinutes > maxSlotMinutes {
		return fmt.Errorf("BOOKING_SLOT_MINUTES must be between %d and %d", minSlotMinutes, maxSlotMinutes)
	}

	if err := c.validateBookingWindow(); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("BOOKING_TIMEZONE is not a valid IANA zone: %w", err)
	}

	if c.Booking.MaxAdvanceDays < 1 || c.Booking.MaxAdvanceDays > maxAdvanceDaysLimit {
		return fmt.Errorf("BOOKING_MAX_ADVANCE_DAYS must be between 1 and %d", maxAdvanceDaysLimit)
	}

	if c.Booking.HoldTTL < minHoldTTL || c.Booking.HoldTTL > maxHoldTTL {
		return fmt.Errorf("BOOKING_HOLD_TTL must be between %v and %v", minHoldTTL, maxHoldTTL)
	}

	if c.Booking.SweepInterval < 10*time.Second || c.Booking.SweepInterval > time.Hour {
		return fmt.Errorf("BOOKING_SWEEP_INTERVAL must be between 10s and 1h")
	}

	return nil
}

// validateBookingWindow checks that the open window parses and that the slot
// length divides it exactly, so the last slot ends at closing time.
func (c *Config) validateBookingWindow() error {
	open, err := parseClockMinutes(c.Booking.OpenTime)
	if err != nil {
		return fmt.Errorf("BOOKING_OPEN_TIME is invalid: %w", err)
	}

	closeAt, err := parseClockMinutes(c.Booking.CloseTime)
	if err != nil {
		return fmt.Errorf("BOOKING_CLOSE_TIME is invalid: %w", err)
	}

	if closeAt <= open {
		return fmt.Errorf("BOOKING_CLOSE_TIME must be after BOOKING_OPEN_TIME")
	}

	window := closeAt - open
	if window%c.Booking.SlotMinutes != 0 {
		return fmt.Errorf("BOOKING_SLOT_MINUTES (%d) must divide the open window (%d minutes) exactly",
			c.Booking.SlotMinutes, window)
	}

	return nil
}

// parseClockMinutes parses a "15:04" clock string into minutes since midnight
func parseClockMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM format: %w", err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMaxSubscribers = 32
)

// validateEvents validates NATS configuration (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}

	if err := validateNATSURL(c.Events.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}

	if c.Events.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
	}
	if c.Events.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
	}
	if c.Events.Subscribers < 1 || c.Events.Subscribers > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and %d", natsMaxSubscribers)
	}

	if c.Events.StreamName == "" {
		return fmt.Errorf("NATS_STREAM is required when NATS_ENABLED=true")
	}
	if err := validateSubjectPrefix(c.Events.SubjectPrefix); err != nil {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is invalid: %w", err)
	}

	return nil
}

// validateSubjectPrefix checks that the subject prefix is a plain NATS token
func validateSubjectPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.ContainsAny(prefix, " \t.*>") {
		return fmt.Errorf("prefix must not contain whitespace, dots, or wildcard characters")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}

	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value. This prevents accidental deployment
// with insecure default credentials.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
// that indicate the user forgot to set a real value
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
