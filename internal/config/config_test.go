// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns the default configuration with the required JWT secret
// filled in, suitable as a baseline for validation tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults with JWT secret: %v", err)
	}
}

// runValidationErrorTests applies each mutation to a valid config and checks
// that Validate() fails with a message naming the offending setting.
func runValidationErrorTests(t *testing.T, tests []struct {
	name    string
	modify  func(*Config)
	wantErr string
}) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "port zero",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "base URL with path",
			modify:  func(c *Config) { c.Server.BaseURL = "http://localhost:8360/api" },
			wantErr: "BASE_URL",
		},
		{
			name:    "frontend URL with bad scheme",
			modify:  func(c *Config) { c.Server.FrontendURL = "ftp://frontend.local" },
			wantErr: "FRONTEND_URL",
		},
	})
}

func TestValidateDatabase(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "empty path",
			modify:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "zero connections",
			modify:  func(c *Config) { c.Database.MaxConnections = 0 },
			wantErr: "DUCKDB_MAX_CONNECTIONS",
		},
		{
			name:    "unknown access mode",
			modify:  func(c *Config) { c.Database.AccessMode = "exclusive" },
			wantErr: "DUCKDB_ACCESS_MODE",
		},
	})
}

func TestValidateSecurity(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "missing JWT secret",
			modify:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short JWT secret",
			modify:  func(c *Config) { c.Security.JWTSecret = "too-short" },
			wantErr: "at least 32 characters",
		},
		{
			name: "placeholder JWT secret",
			modify: func(c *Config) {
				c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
			},
			wantErr: "placeholder",
		},
		{
			name:    "bcrypt cost too low",
			modify:  func(c *Config) { c.Security.BcryptCost = 9 },
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "bcrypt cost too high",
			modify:  func(c *Config) { c.Security.BcryptCost = 16 },
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "token TTL too short",
			modify:  func(c *Config) { c.Security.TokenTTL = time.Minute },
			wantErr: "JWT_EXPIRY",
		},
		{
			name:    "malformed admin email",
			modify:  func(c *Config) { c.Security.AdminEmails = []string{"not-an-email"} },
			wantErr: "ADMIN_EMAILS",
		},
		{
			name:    "zero rate limit requests",
			modify:  func(c *Config) { c.Security.RateLimitReqs = 0 },
			wantErr: "RATE_LIMIT_REQUESTS",
		},
		{
			name:    "login window too long",
			modify:  func(c *Config) { c.Security.LoginRateWindow = 2 * time.Hour },
			wantErr: "LOGIN_RATE_WINDOW",
		},
	})
}

func TestValidateSecurityRateLimitDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0 // Would fail if limits were validated
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with rate limiting disabled: %v", err)
	}
}

func TestValidateSessions(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown store",
			modify:  func(c *Config) { c.Sessions.Store = "redis" },
			wantErr: "SESSION_STORE",
		},
		{
			name: "badger store without path",
			modify: func(c *Config) {
				c.Sessions.Store = "badger"
				c.Sessions.BadgerPath = ""
			},
			wantErr: "SESSION_STORE_PATH",
		},
		{
			name:    "inactivity exceeds TTL",
			modify:  func(c *Config) { c.Sessions.InactivityTimeout = c.Sessions.TTL + time.Hour },
			wantErr: "SESSION_INACTIVITY_TIMEOUT",
		},
		{
			name: "encryption without badger",
			modify: func(c *Config) {
				c.Sessions.Store = "memory"
				c.Sessions.EncryptAtRest = true
			},
			wantErr: "SESSION_ENCRYPT_AT_REST",
		},
	})
}

func TestValidateOAuth(t *testing.T) {
	enableGoogle := func(c *Config) {
		c.OAuth.Google.Enabled = true
		c.OAuth.Google.ClientID = "client-id"
		c.OAuth.Google.ClientSecret = "client-secret"
		c.OAuth.Google.RedirectURL = "http://localhost:8360/api/v1/auth/google/callback"
	}

	t.Run("complete configuration passes", func(t *testing.T) {
		cfg := validConfig()
		enableGoogle(cfg)
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name: "missing client ID",
			modify: func(c *Config) {
				enableGoogle(c)
				c.OAuth.Google.ClientID = ""
			},
			wantErr: "GOOGLE_CLIENT_ID",
		},
		{
			name: "missing redirect URL",
			modify: func(c *Config) {
				enableGoogle(c)
				c.OAuth.Google.RedirectURL = ""
			},
			wantErr: "GOOGLE_REDIRECT_URL",
		},
		{
			name: "scopes without openid",
			modify: func(c *Config) {
				enableGoogle(c)
				c.OAuth.Google.Scopes = []string{"profile", "email"}
			},
			wantErr: "openid",
		},
		{
			name: "state TTL too short",
			modify: func(c *Config) {
				enableGoogle(c)
				c.OAuth.StateTTL = 10 * time.Second
			},
			wantErr: "OAUTH_STATE_TTL",
		},
	})
}

func TestValidateSessionGateway(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "enabled without URL",
			modify:  func(c *Config) { c.SessionGateway.Enabled = true },
			wantErr: "SESSION_GATEWAY_URL",
		},
		{
			name: "timeout out of range",
			modify: func(c *Config) {
				c.SessionGateway.Enabled = true
				c.SessionGateway.BaseURL = "http://gateway.local:9000"
				c.SessionGateway.Timeout = 5 * time.Minute
			},
			wantErr: "SESSION_GATEWAY_TIMEOUT",
		},
	})
}

func TestValidatePayments(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name: "stripe enabled without secret key",
			modify: func(c *Config) {
				c.Payments.Stripe.Enabled = true
			},
			wantErr: "STRIPE_SECRET_KEY",
		},
		{
			name: "stripe enabled without webhook secret",
			modify: func(c *Config) {
				c.Payments.Stripe.Enabled = true
				c.Payments.Stripe.SecretKey = "sk_test_abc123"
			},
			wantErr: "STRIPE_WEBHOOK_SECRET",
		},
		{
			name: "paypal enabled without client ID",
			modify: func(c *Config) {
				c.Payments.PayPal.Enabled = true
			},
			wantErr: "PAYPAL_CLIENT_ID",
		},
		{
			name: "paypal with bad API base",
			modify: func(c *Config) {
				c.Payments.PayPal.Enabled = true
				c.Payments.PayPal.ClientID = "client"
				c.Payments.PayPal.ClientSecret = "secret"
				c.Payments.PayPal.APIBase = "nats://bad"
			},
			wantErr: "PAYPAL_API_BASE",
		},
		{
			name:    "empty plan catalog",
			modify:  func(c *Config) { c.Payments.Plans = map[string]PlanConfig{} },
			wantErr: "at least one plan",
		},
		{
			name: "plan with zero amount",
			modify: func(c *Config) {
				c.Payments.Plans["premium"] = PlanConfig{AmountCents: 0, Currency: "usd", DurationDays: 365}
			},
			wantErr: "amount_cents",
		},
		{
			name: "plan with bad currency",
			modify: func(c *Config) {
				c.Payments.Plans["premium"] = PlanConfig{AmountCents: 2999, Currency: "dollars", DurationDays: 365}
			},
			wantErr: "currency",
		},
		{
			name:    "zero reservation price",
			modify:  func(c *Config) { c.Payments.ReservationAmountCents = 0 },
			wantErr: "RESERVATION_AMOUNT_CENTS",
		},
	})

	t.Run("disabled payments skip provider validation", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.Enabled = false
		cfg.Payments.Plans = nil
		cfg.Payments.ReservationAmountCents = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}

func TestValidateEmail(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "enabled without SMTP host",
			modify:  func(c *Config) { c.Email.Enabled = true },
			wantErr: "SMTP_HOST",
		},
		{
			name: "bad from address",
			modify: func(c *Config) {
				c.Email.Enabled = true
				c.Email.SMTPHost = "smtp.example.com"
				c.Email.FromAddress = "not-an-address"
			},
			wantErr: "EMAIL_FROM_ADDRESS",
		},
	})
}

func TestValidateBooking(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "zero cabins",
			modify:  func(c *Config) { c.Booking.Cabins = 0 },
			wantErr: "BOOKING_CABINS",
		},
		{
			name:    "slot does not divide window",
			modify:  func(c *Config) { c.Booking.SlotMinutes = 25 }, // 540 % 25 != 0
			wantErr: "divide the open window",
		},
		{
			name:    "close before open",
			modify:  func(c *Config) { c.Booking.CloseTime = "08:00" },
			wantErr: "BOOKING_CLOSE_TIME",
		},
		{
			name:    "malformed open time",
			modify:  func(c *Config) { c.Booking.OpenTime = "9am" },
			wantErr: "BOOKING_OPEN_TIME",
		},
		{
			name:    "unknown timezone",
			modify:  func(c *Config) { c.Booking.Timezone = "America/Nazca" },
			wantErr: "BOOKING_TIMEZONE",
		},
		{
			name:    "hold TTL too short",
			modify:  func(c *Config) { c.Booking.HoldTTL = 10 * time.Second },
			wantErr: "BOOKING_HOLD_TTL",
		},
		{
			name:    "advance window too long",
			modify:  func(c *Config) { c.Booking.MaxAdvanceDays = 400 },
			wantErr: "BOOKING_MAX_ADVANCE_DAYS",
		},
	})

	t.Run("larger slot dividing window passes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Booking.SlotMinutes = 30 // 540 % 30 == 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}

func TestValidateEvents(t *testing.T) {
	runValidationErrorTests(t, []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "bad NATS URL scheme",
			modify:  func(c *Config) { c.Events.URL = "http://localhost:4222" },
			wantErr: "NATS_URL",
		},
		{
			name:    "memory below minimum",
			modify:  func(c *Config) { c.Events.MaxMemory = 1024 },
			wantErr: "NATS_MAX_MEMORY",
		},
		{
			name:    "subject prefix with dot",
			modify:  func(c *Config) { c.Events.SubjectPrefix = "nazca.360" },
			wantErr: "NATS_SUBJECT_PREFIX",
		},
		{
			name:    "empty stream name",
			modify:  func(c *Config) { c.Events.StreamName = "" },
			wantErr: "NATS_STREAM",
		},
	})

	t.Run("disabled events skip validation", func(t *testing.T) {
		cfg := validConfig()
		cfg.Events.Enabled = false
		cfg.Events.URL = "not-a-url"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}

func TestValidateLogging(t *testing.T) {
	t.Run("unknown level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for unknown log level")
		}
	})

	t.Run("empty format allowed", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Format = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}

func TestValidateCORSWildcardInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.CORS.Origins = []string{"*"}

	cfg.Server.Environment = "development"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() in development = %v", err)
	}

	cfg.Server.Environment = "production"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for wildcard CORS in production")
	}
	if !strings.Contains(err.Error(), "CORS_ORIGINS") {
		t.Errorf("Validate() error = %v, want CORS_ORIGINS", err)
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		environment string
		production  bool
		development bool
	}{
		{"production", true, false},
		{"prod", true, false},
		{"PRODUCTION", true, false},
		{"development", false, true},
		{"dev", false, true},
		{"", false, true},
		{"staging", false, false},
	}

	for _, tt := range tests {
		t.Run("env "+tt.environment, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Environment = tt.environment
			if got := cfg.IsProduction(); got != tt.production {
				t.Errorf("IsProduction() = %v, want %v", got, tt.production)
			}
			if got := cfg.IsDevelopment(); got != tt.development {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.development)
			}
		})
	}
}

func TestContainsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"CHANGEME-now", true},
		{"your_secret_here", true},
		{"todo-set-this", true},
		{"k8P!mQ2vXr9zLw4nJc7hBd5gTf3yAe6s", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := containsPlaceholder(tt.value); got != tt.want {
				t.Errorf("containsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestShouldWarnAboutPayments(t *testing.T) {
	cfg := validConfig()
	if !cfg.ShouldWarnAboutPayments() {
		t.Error("ShouldWarnAboutPayments() = false with payments enabled and no providers")
	}

	cfg.Payments.Stripe.Enabled = true
	if cfg.ShouldWarnAboutPayments() {
		t.Error("ShouldWarnAboutPayments() = true with Stripe enabled")
	}

	cfg.Payments.Stripe.Enabled = false
	cfg.Payments.Enabled = false
	if cfg.ShouldWarnAboutPayments() {
		t.Error("ShouldWarnAboutPayments() = true with payments disabled")
	}
}

func TestEmailTokenSecretFallback(t *testing.T) {
	cfg := validConfig()

	cfg.Email.TokenSecret = ""
	if got := cfg.EmailTokenSecret(); got != cfg.Security.JWTSecret {
		t.Errorf("EmailTokenSecret() = %q, want JWT secret fallback", got)
	}

	cfg.Email.TokenSecret = "dedicated-mail-token-secret-value"
	if got := cfg.EmailTokenSecret(); got != "dedicated-mail-token-secret-value" {
		t.Errorf("EmailTokenSecret() = %q, want dedicated secret", got)
	}
}

func TestPlanLookup(t *testing.T) {
	cfg := validConfig()

	plan, ok := cfg.Plan("premium")
	if !ok {
		t.Fatal("Plan(premium) not found in defaults")
	}
	if plan.AmountCents != 2999 || plan.Currency != "usd" || plan.DurationDays != 365 {
		t.Errorf("Plan(premium) = %+v, want 2999 usd 365d", plan)
	}

	if _, ok := cfg.Plan("platinum"); ok {
		t.Error("Plan(platinum) = found, want missing")
	}
}

func TestParseClockMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"18:00", 1080, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseClockMinutes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseClockMinutes(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClockMinutes(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseClockMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
