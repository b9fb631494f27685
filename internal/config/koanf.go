// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nazca360/config.yaml",
	"/etc/nazca360/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8360,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1MB
			BaseURL:        "http://localhost:8360",
			FrontendURL:    "http://localhost:5173",
			Environment:    "development", // Set ENVIRONMENT=production for production checks
			TrustedProxies: []string{},
		},
		Database: DatabaseConfig{
			Path:           "./data/nazca360.db",
			MaxConnections: 10,
			MemoryLimit:    "2GB",
			Threads:        0, // 0 = use runtime.NumCPU()
			AccessMode:     "read_write",
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			TokenTTL:          24 * time.Hour,
			BcryptCost:        12,
			AdminEmails:       []string{},
			RateLimitDisabled: false,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			LoginRateReqs:     5,
			LoginRateWindow:   5 * time.Minute,
		},
		Sessions: SessionsConfig{
			// Default to persistent storage so cookie sessions survive restarts
			Store:             "badger",
			BadgerPath:        "./data/sessions",
			TTL:               168 * time.Hour, // 7 days
			InactivityTimeout: 30 * time.Minute,
			CleanupInterval:   10 * time.Minute,
			EncryptAtRest:     false,
			CookieSecure:      false,
		},
		OAuth: OAuthConfig{
			Google: GoogleOAuthConfig{
				Enabled:      false,
				IssuerURL:    "https://accounts.google.com",
				ClientID:     "",
				ClientSecret: "",
				RedirectURL:  "",
				Scopes:       []string{"openid", "profile", "email"},
			},
			StateTTL: 10 * time.Minute,
		},
		SessionGateway: SessionGatewayConfig{
			Enabled: false,
			BaseURL: "",
			Timeout: 10 * time.Second,
		},
		Payments: PaymentsConfig{
			Enabled: true,
			Stripe: StripeConfig{
				Enabled:       false,
				SecretKey:     "",
				WebhookSecret: "",
			},
			PayPal: PayPalConfig{
				Enabled:      false,
				ClientID:     "",
				ClientSecret: "",
				APIBase:      "https://api-m.sandbox.paypal.com",
				WebhookID:    "",
			},
			Plans: map[string]PlanConfig{
				"premium": {
					AmountCents:  2999,
					Currency:     "usd",
					DurationDays: 365,
				},
			},
			ReservationAmountCents: 1500,
			ReservationCurrency:    "usd",
		},
		Email: EmailConfig{
			Enabled:         false,
			SMTPHost:        "",
			SMTPPort:        587,
			SMTPUsername:    "",
			SMTPPassword:    "",
			FromAddress:     "no-reply@nazca360.pe",
			FromName:        "Nazca360",
			TokenSecret:     "", // Falls back to the JWT secret
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        1 * time.Hour,
		},
		Booking: BookingConfig{
			Cabins:         3,
			SlotMinutes:    20,
			OpenTime:       "09:00",
			CloseTime:      "18:00",
			Timezone:       "America/Lima",
			MaxAdvanceDays: 30,
			HoldTTL:        15 * time.Minute,
			SweepInterval:  1 * time.Minute,
		},
		Events: EventsConfig{
			Enabled:       true,
			URL:           "nats://127.0.0.1:4222",
			Embedded:      true,
			StoreDir:      "./data/nats/jetstream",
			StreamName:    "NAZCA360",
			SubjectPrefix: "nazca360",
			MaxMemory:     256 << 20, // 256MB
			MaxStore:      1 << 30,   // 1GB
			Subscribers:   4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		CORS: CORSConfig{
			Origins:          []string{"http://localhost:5173"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port
	// BOOKING_SLOT_MINUTES -> booking.slot_minutes
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.trusted_proxies",
	"security.admin_emails",
	"oauth.google.scopes",
	"cors.origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> security.jwt_secret
//   - BOOKING_SLOT_MINUTES -> booking.slot_minutes
//   - STRIPE_SECRET_KEY -> payments.stripe.secret_key
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Map environment variable names to config sections
	envMappings := map[string]string{
		// Server mappings
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_idle_timeout":     "server.idle_timeout",
		"http_max_header_bytes": "server.max_header_bytes",
		"base_url":              "server.base_url",
		"frontend_url":          "server.frontend_url",
		"environment":           "server.environment",
		"trusted_proxies":       "server.trusted_proxies",

		// Database mappings
		"duckdb_path":            "database.path",
		"duckdb_max_connections": "database.max_connections",
		"duckdb_memory_limit":    "database.memory_limit",
		"duckdb_threads":         "database.threads",
		"duckdb_access_mode":     "database.access_mode",

		// Security mappings
		"jwt_secret":          "security.jwt_secret",
		"jwt_expiry":          "security.token_ttl",
		"bcrypt_cost":         "security.bcrypt_cost",
		"admin_emails":        "security.admin_emails",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"login_rate_requests": "security.login_rate_reqs",
		"login_rate_window":   "security.login_rate_window",

		// Session store mappings
		"session_store":              "sessions.store",
		"session_store_path":         "sessions.badger_path",
		"session_ttl":                "sessions.ttl",
		"session_inactivity_timeout": "sessions.inactivity_timeout",
		"session_cleanup_interval":   "sessions.cleanup_interval",
		"session_encrypt_at_rest":    "sessions.encrypt_at_rest",
		"session_cookie_secure":      "sessions.cookie_secure",

		// Google OAuth mappings
		"google_oauth_enabled": "oauth.google.enabled",
		"google_issuer_url":    "oauth.google.issuer_url",
		"google_client_id":     "oauth.google.client_id",
		"google_client_secret": "oauth.google.client_secret",
		"google_redirect_url":  "oauth.google.redirect_url",
		"google_scopes":        "oauth.google.scopes",
		"oauth_state_ttl":      "oauth.state_ttl",

		// Session gateway mappings
		"session_gateway_enabled": "session_gateway.enabled",
		"session_gateway_url":     "session_gateway.base_url",
		"session_gateway_timeout": "session_gateway.timeout",

		// Payment mappings
		"payments_enabled":         "payments.enabled",
		"stripe_enabled":           "payments.stripe.enabled",
		"stripe_secret_key":        "payments.stripe.secret_key",
		"stripe_webhook_secret":    "payments.stripe.webhook_secret",
		"paypal_enabled":           "payments.paypal.enabled",
		"paypal_client_id":         "payments.paypal.client_id",
		"paypal_client_secret":     "payments.paypal.client_secret",
		"paypal_api_base":          "payments.paypal.api_base",
		"paypal_webhook_id":        "payments.paypal.webhook_id",
		"reservation_amount_cents": "payments.reservation_amount_cents",
		"reservation_currency":     "payments.reservation_currency",

		// Email mappings
		"email_enabled":          "email.enabled",
		"smtp_host":              "email.smtp_host",
		"smtp_port":              "email.smtp_port",
		"smtp_username":          "email.smtp_username",
		"smtp_password":          "email.smtp_password",
		"email_from_address":     "email.from_address",
		"email_from_name":        "email.from_name",
		"email_token_secret":     "email.token_secret",
		"email_verification_ttl": "email.verification_ttl",
		"password_reset_ttl":     "email.reset_ttl",

		// Booking mappings
		"booking_cabins":           "booking.cabins",
		"booking_slot_minutes":     "booking.slot_minutes",
		"booking_open_time":        "booking.open_time",
		"booking_close_time":       "booking.close_time",
		"booking_timezone":         "booking.timezone",
		"booking_max_advance_days": "booking.max_advance_days",
		"booking_hold_ttl":         "booking.hold_ttl",
		"booking_sweep_interval":   "booking.sweep_interval",

		// NATS mappings
		"nats_enabled":        "events.enabled",
		"nats_url":            "events.url",
		"nats_embedded":       "events.embedded",
		"nats_store_dir":      "events.store_dir",
		"nats_stream":         "events.stream_name",
		"nats_subject_prefix": "events.subject_prefix",
		"nats_max_memory":     "events.max_memory",
		"nats_max_store":      "events.max_store",
		"nats_subscribers":    "events.subscribers",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Metrics mappings
		"metrics_enabled": "metrics.enabled",
		"metrics_path":    "metrics.path",

		// CORS mappings
		"cors_origins":           "cors.origins",
		"cors_allow_credentials": "cors.allow_credentials",
		"cors_max_age":           "cors.max_age",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
// This is useful for:
//   - Hot-reload scenarios (with proper mutex protection)
//   - Custom configuration sources
//   - Testing with mock configurations
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
