// Package config provides configuration loading and validation from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // DISPLAY_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"

	"github.com/sipico/catalog-backend/internal/token"
)

// FallbackTokenSecret signs admin tokens when neither ADMIN_TOKEN_SECRET nor
// ADMIN_PASSWORD is set. Anyone who knows it can forge tokens.
const FallbackTokenSecret = "fallback-secret"

// Token secret sources, in order of preference.
const (
	SecretFromEnv      = "ADMIN_TOKEN_SECRET"
	SecretFromPassword = "ADMIN_PASSWORD"
	SecretFromFallback = "fallback"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path

	AdminPassword       string // Shared admin password
	AdminPasswordBcrypt string // Optional bcrypt hash, preferred over AdminPassword
	TokenSecret         string // Resolved token signing secret
	TokenSecretSource   string // Which variable TokenSecret came from
	RequireTokenSecret  bool   // Refuse to start on the literal fallback secret
	TokenTTL            time.Duration

	SiteName           string // Title prefix of product share pages
	DisplayTimezone    string // IANA zone used in default backup labels
	DisplayLocation    *time.Location
	LoginRatePerMinute int   // Login attempts allowed per client IP per minute; 0 disables
	MaxBodyBytes       int64 // Request body limit
}

// Load parses configuration from environment variables, after loading a .env
// file if one exists. Variables already set in the environment win over the file.
// ENV_FILE names an alternative file; unlike the default .env it must exist.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:            envOr("LOG_LEVEL", "info"),
		ListenAddr:          envOr("LISTEN_ADDR", ":8080"),
		MetricsListenAddr:   envOr("METRICS_LISTEN_ADDR", "localhost:9090"),
		DatabasePath:        envOr("DATABASE_PATH", "/data/catalog.db"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordBcrypt: os.Getenv("ADMIN_PASSWORD_BCRYPT"),
		SiteName:            os.Getenv("SITE_NAME"),
		DisplayTimezone:     envOr("DISPLAY_TIMEZONE", "Asia/Shanghai"),
		TokenTTL:            token.DefaultTTL,
		LoginRatePerMinute:  10,
		MaxBodyBytes:        10 << 20,
	}

	// Token secret fallback chain
	switch {
	case os.Getenv("ADMIN_TOKEN_SECRET") != "":
		cfg.TokenSecret = os.Getenv("ADMIN_TOKEN_SECRET")
		cfg.TokenSecretSource = SecretFromEnv
	case cfg.AdminPassword != "":
		cfg.TokenSecret = cfg.AdminPassword
		cfg.TokenSecretSource = SecretFromPassword
	default:
		cfg.TokenSecret = FallbackTokenSecret
		cfg.TokenSecretSource = SecretFromFallback
	}

	if v := os.Getenv("REQUIRE_TOKEN_SECRET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUIRE_TOKEN_SECRET %q: %w", v, err)
		}
		cfg.RequireTokenSecret = b
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("LOGIN_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE %q: %w", v, err)
		}
		cfg.LoginRatePerMinute = n
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q: %w", v, err)
		}
		cfg.MaxBodyBytes = n
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", cfg.DisplayTimezone, err)
	}
	cfg.DisplayLocation = loc

	return cfg, nil
}

func loadEnvFile() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load ENV_FILE %q: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.RequireTokenSecret && c.TokenSecretSource == SecretFromFallback {
		return fmt.Errorf("REQUIRE_TOKEN_SECRET is set but neither ADMIN_TOKEN_SECRET nor ADMIN_PASSWORD is configured")
	}
	if c.AdminPasswordBcrypt != "" && c.TokenSecretSource == SecretFromFallback {
		return fmt.Errorf("ADMIN_PASSWORD_BCRYPT is set without ADMIN_TOKEN_SECRET; admin tokens would be signed with the built-in secret")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.LoginRatePerMinute < 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must not be negative, got %d", c.LoginRatePerMinute)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Warnings lists risky settings that are allowed but should be logged at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.AdminPassword == "" && c.AdminPasswordBcrypt == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set; admin login will fail with 500")
	}
	switch c.TokenSecretSource {
	case SecretFromPassword:
		warnings = append(warnings, "ADMIN_TOKEN_SECRET is not set; signing admin tokens with ADMIN_PASSWORD")
	case SecretFromFallback:
		warnings = append(warnings, "ADMIN_TOKEN_SECRET and ADMIN_PASSWORD are not set; signing admin tokens with a built-in secret, tokens can be forged")
	}
	return warnings
}
