package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Simplici0/qc.works/internal/logging"
)

const (
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultEnv             = "development"
	defaultShutdownTimeout = 15 * time.Second
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail      string
	AdminPassword   string
	SessionSecret   string
	DBPath          string
	Port            string
	Env             string
	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir   string
	ShutdownTimeout time.Duration
	Logging         logging.Config

	// EphemeralSessionSecret is set when SessionSecret was generated at
	// startup; sessions then end when the process exits.
	EphemeralSessionSecret bool
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		DBPath:          envOr("DB_PATH", defaultDBPath),
		Port:            envOr("PORT", defaultPort),
		Env:             envOr("APP_ENV", defaultEnv),
		MigrationsDir:   os.Getenv("MIGRATIONS_DIR"),
		ShutdownTimeout: defaultShutdownTimeout,
		Logging:         logging.DefaultConfig(),
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	cfg.Logging.Development = cfg.IsDev()

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return cfg, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.EphemeralSessionSecret = true
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Validate checks if configuration is valid.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required outside development")
	}
	return nil
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var warnings []string
	if c.AdminEmail == "" {
		warnings = append(warnings, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" || c.EphemeralSessionSecret {
		warnings = append(warnings, "SESSION_SECRET is not set; using a random per-process secret")
	}
	return warnings
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
