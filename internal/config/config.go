// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package config provides centralized configuration management for Nazca360.
//
// Configuration is loaded in three layers: baked-in defaults, an optional
// YAML config file, and environment variables. Later layers override earlier
// ones. The resulting Config is validated once at startup and is immutable
// afterwards, so it is safe for concurrent reads without synchronization.
package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Core Platform:
//     - Server: HTTP server configuration (port, host, timeouts, public URLs)
//     - Database: DuckDB configuration (path, memory, threads)
//     - Security: JWT signing, bcrypt cost, admin bootstrap, rate limiting
//     - Sessions: Server-side session store (memory or Badger)
//
//  2. Visitor Experience:
//     - Booking: VR cabin scheduling (cabins, slot grid, holds)
//     - Payments: Stripe/PayPal checkout and the plan catalog
//     - Email: Transactional mail (verification, receipts, tickets)
//
//  3. Integrations:
//     - OAuth: Google sign-in via OIDC
//     - SessionGateway: On-site cabin gateway session exchange
//     - Events: Event-driven processing with Watermill/NATS JetStream
//
//  4. Observability:
//     - Logging: Log levels and output formats
//     - Metrics: Prometheus endpoint
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Server.Port, cfg.Booking.Cabins, etc. are now populated
//
// Validation:
// The Load() function validates all required fields and returns an error if:
//   - Required settings are missing (JWT_SECRET)
//   - Values are malformed (invalid URLs, a slot grid that does not divide the open window)
//   - A payment provider is enabled but its credentials are incomplete
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server         ServerConfig         `koanf:"server"`
	Database       DatabaseConfig       `koanf:"database"`
	Security       SecurityConfig       `koanf:"security"`
	Sessions       SessionsConfig       `koanf:"sessions"`
	OAuth          OAuthConfig          `koanf:"oauth"`           // Optional: Google sign-in via OIDC
	SessionGateway SessionGatewayConfig `koanf:"session_gateway"` // Optional: on-site VR cabin gateway integration
	Payments       PaymentsConfig       `koanf:"payments"`
	Email          EmailConfig          `koanf:"email"` // Optional: transactional mail delivery
	Booking        BookingConfig        `koanf:"booking"`
	Events         EventsConfig         `koanf:"events"` // Optional: event-driven processing with Watermill/NATS JetStream
	Logging        LoggingConfig        `koanf:"logging"`
	Metrics        MetricsConfig        `koanf:"metrics"`
	CORS           CORSConfig           `koanf:"cors"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 8360)
//   - BASE_URL: Public URL of this API, used in payment return URLs and mail links
//   - FRONTEND_URL: Web frontend origin, used for OAuth redirects and checkout returns
//   - ENVIRONMENT: development or production
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	MaxHeaderBytes int           `koanf:"max_header_bytes"`
	BaseURL        string        `koanf:"base_url"`
	FrontendURL    string        `koanf:"frontend_url"`
	Environment    string        `koanf:"environment"`
	TrustedProxies []string      `koanf:"trusted_proxies"` // Reverse proxy IPs allowed to set X-Forwarded-For
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path           string `koanf:"path"`
	MaxConnections int    `koanf:"max_connections"`
	MemoryLimit    string `koanf:"memory_limit"` // e.g. "2GB"
	Threads        int    `koanf:"threads"`
	AccessMode     string `koanf:"access_mode"` // read_write or read_only
}

// SecurityConfig holds authentication and rate limiting settings.
//
// Environment Variables:
//   - JWT_SECRET: Access token signing secret (min 32 chars, required)
//   - JWT_EXPIRY: Access token lifetime (default: 24h)
//   - BCRYPT_COST: Password hashing cost (default: 12)
//   - ADMIN_EMAILS: Comma-separated emails promoted to admin on first login
type SecurityConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`

	// AdminEmails are promoted to the admin role when they register or
	// first sign in through OAuth.
	AdminEmails []string `koanf:"admin_emails"`

	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	LoginRateReqs     int           `koanf:"login_rate_reqs"`   // Per-IP budget for credential endpoints
	LoginRateWindow   time.Duration `koanf:"login_rate_window"` // Window for the credential budget
}

// SessionsConfig holds server-side session store settings.
// Sessions back the cookie flow used by OAuth and the cabin gateway; the
// JWT flow is stateless and unaffected by these settings.
type SessionsConfig struct {
	Store             string        `koanf:"store"` // memory or badger
	BadgerPath        string        `koanf:"badger_path"`
	TTL               time.Duration `koanf:"ttl"`                // Absolute session lifetime
	InactivityTimeout time.Duration `koanf:"inactivity_timeout"` // Sessions idle longer than this are rejected
	CleanupInterval   time.Duration `koanf:"cleanup_interval"`
	EncryptAtRest     bool          `koanf:"encrypt_at_rest"` // Badger only: encrypt values with a key derived from the JWT secret
	CookieSecure      bool          `koanf:"cookie_secure"`   // Set the Secure flag on the session cookie (enable behind TLS)
}

// OAuthConfig holds external identity provider settings
type OAuthConfig struct {
	Google   GoogleOAuthConfig `koanf:"google"`
	StateTTL time.Duration     `koanf:"state_ttl"` // Lifetime of the anti-CSRF state issued at flow start
}

// GoogleOAuthConfig holds Google OIDC settings.
//
// Environment Variables:
//   - GOOGLE_OAUTH_ENABLED: Enable Google sign-in (default: false)
//   - GOOGLE_CLIENT_ID: OAuth client ID from Google Cloud Console
//   - GOOGLE_CLIENT_SECRET: OAuth client secret
//   - GOOGLE_REDIRECT_URL: Callback URL registered with Google
type GoogleOAuthConfig struct {
	Enabled      bool     `koanf:"enabled"`
	IssuerURL    string   `koanf:"issuer_url"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	RedirectURL  string   `koanf:"redirect_url"`
	Scopes       []string `koanf:"scopes"`
}

// SessionGatewayConfig holds settings for the on-site cabin gateway.
// The gateway authenticates visitors already inside a VR cabin; the API
// exchanges the gateway's session identifier for a platform session.
type SessionGatewayConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// PaymentsConfig holds payment provider and pricing settings.
//
// Environment Variables:
//   - PAYMENTS_ENABLED: Require checkout for premium content and reservations (default: true)
//   - STRIPE_SECRET_KEY, STRIPE_WEBHOOK_SECRET: Stripe credentials
//   - PAYPAL_CLIENT_ID, PAYPAL_CLIENT_SECRET, PAYPAL_API_BASE: PayPal credentials
//
// The plan catalog has no flat environment mapping; configure plans via the
// YAML config file or rely on the built-in premium plan.
type PaymentsConfig struct {
	// Enabled controls whether checkout is required at all. When false,
	// subscriptions and reservations are granted without payment.
	Enabled bool `koanf:"enabled"`

	Stripe StripeConfig `koanf:"stripe"`
	PayPal PayPalConfig `koanf:"paypal"`

	// Plans maps plan type (e.g. "premium") to its price and duration.
	Plans map[string]PlanConfig `koanf:"plans"`

	ReservationAmountCents int64  `koanf:"reservation_amount_cents"` // Price of one cabin slot
	ReservationCurrency    string `koanf:"reservation_currency"`
}

// StripeConfig holds Stripe API settings
type StripeConfig struct {
	Enabled       bool   `koanf:"enabled"`
	SecretKey     string `koanf:"secret_key"`
	WebhookSecret string `koanf:"webhook_secret"` // Signing secret for webhook verification
}

// PayPalConfig holds PayPal REST API settings
type PayPalConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	APIBase      string `koanf:"api_base"` // Sandbox or live API base URL
	WebhookID    string `koanf:"webhook_id"`
}

// PlanConfig describes one subscription plan
type PlanConfig struct {
	AmountCents  int64  `koanf:"amount_cents"`
	Currency     string `koanf:"currency"`
	DurationDays int    `koanf:"duration_days"`
}

// EmailConfig holds SMTP and mail token settings.
// When disabled, outbound mail is logged instead of sent and newly
// registered accounts are treated as verified.
type EmailConfig struct {
	Enabled      bool   `koanf:"enabled"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	FromAddress  string `koanf:"from_address"`
	FromName     string `koanf:"from_name"`

	// TokenSecret signs verification and reset tokens. Falls back to the
	// JWT secret when empty.
	TokenSecret     string        `koanf:"token_secret"`
	VerificationTTL time.Duration `koanf:"verification_ttl"`
	ResetTTL        time.Duration `koanf:"reset_ttl"`
}

// BookingConfig holds VR cabin scheduling settings.
//
// The bookable day is a fixed grid: slots of SlotMinutes from OpenTime to
// CloseTime in the site's timezone. SlotMinutes must divide the open window
// exactly so the last slot ends at CloseTime.
//
// Environment Variables:
//   - BOOKING_CABINS: Number of physical VR cabins (default: 3)
//   - BOOKING_SLOT_MINUTES: Length of one bookable slot (default: 20)
//   - BOOKING_OPEN_TIME, BOOKING_CLOSE_TIME: Daily window, "15:04" format
//   - BOOKING_TIMEZONE: IANA zone of the physical site (default: America/Lima)
//   - BOOKING_HOLD_TTL: How long an unpaid reservation holds its slot (default: 15m)
type BookingConfig struct {
	Cabins         int    `koanf:"cabins"`
	SlotMinutes    int    `koanf:"slot_minutes"`
	OpenTime       string `koanf:"open_time"`
	CloseTime      string `koanf:"close_time"`
	Timezone       string `koanf:"timezone"`
	MaxAdvanceDays int    `koanf:"max_advance_days"`

	HoldTTL       time.Duration `koanf:"hold_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"` // How often expired holds are released
}

// EventsConfig holds NATS JetStream settings
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	Embedded      bool   `koanf:"embedded"` // Run an in-process NATS server instead of connecting out
	StoreDir      string `koanf:"store_dir"`
	StreamName    string `koanf:"stream_name"`
	SubjectPrefix string `koanf:"subject_prefix"`
	MaxMemory     int64  `koanf:"max_memory"`
	MaxStore      int64  `koanf:"max_store"`
	Subscribers   int    `koanf:"subscribers"` // Consumer goroutines per subscription
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"` // Include file:line in log output
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	Origins          []string `koanf:"origins"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"` // Preflight cache seconds
}

// Load reads configuration from defaults, an optional config file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// EmailTokenSecret returns the secret used to sign mail tokens, falling
// back to the JWT secret when none is configured.
func (c *Config) EmailTokenSecret() string {
	if c.Email.TokenSecret != "" {
		return c.Email.TokenSecret
	}
	return c.Security.JWTSecret
}

// PaymentProviderEnabled reports whether at least one payment provider
// is configured and enabled.
func (c *Config) PaymentProviderEnabled() bool {
	return c.Payments.Stripe.Enabled || c.Payments.PayPal.Enabled
}

// Plan returns the configured plan for the given type.
func (c *Config) Plan(planType string) (PlanConfig, bool) {
	plan, ok := c.Payments.Plans[planType]
	return plan, ok
}
