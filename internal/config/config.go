package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. STEADY_PORT.
const Prefix = "STEADY"

// Config holds runtime settings read from STEADY_* environment variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"steady.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Auth
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"360h"`
	SecureCookie bool          `envconfig:"SECURE_COOKIE" default:"false"`

	// Timezone names the location whose calendar days the streak engine uses.
	// Empty means the server's local zone.
	Timezone string `envconfig:"TIMEZONE"`

	// Web push
	VAPIDPublicKey   string        `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey  string        `envconfig:"VAPID_PRIVATE_KEY"`
	PushSubject      string        `envconfig:"PUSH_SUBJECT" default:"mailto:noreply@steady.local"`
	ReminderInterval time.Duration `envconfig:"REMINDER_INTERVAL" default:"1m"`

	// Email
	PostmarkToken string `envconfig:"POSTMARK_TOKEN"`
	FromEmail     string `envconfig:"FROM_EMAIL" default:"noreply@steady.local"`
	BaseURL       string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// TrustedProxy makes the rate limiter identify clients by X-Real-IP or
	// X-Forwarded-For. Set it only behind a proxy that overwrites them.
	TrustedProxy bool `envconfig:"TRUSTED_PROXY" default:"false"`

	// Origins allowed to open the live notification socket.
	WSOrigins []string `envconfig:"WS_ORIGINS"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateServe checks settings that only the HTTP server requires.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return errors.New("STEADY_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("STEADY_TOKEN_TTL must be positive")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
