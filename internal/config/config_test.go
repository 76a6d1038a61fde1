package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET", "DB_PATH", "PORT",
		"APP_ENV", "MIGRATIONS_DIR", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	// Keep a developer's .env out of the test.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort || cfg.MigrationsDir != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development env by default")
	}
	if cfg.ShutdownTimeout != defaultShutdownTimeout {
		t.Fatalf("ShutdownTimeout=%s, want %s", cfg.ShutdownTimeout, defaultShutdownTimeout)
	}
	if len(cfg.Warnings()) != 3 {
		t.Fatalf("expected 3 warnings, got %v", cfg.Warnings())
	}
}

func TestLoad_GeneratesSessionSecretInDevelopment(t *testing.T) {
	clearEnv(t)

	first, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(first.SessionSecret) != 64 || !first.EphemeralSessionSecret {
		t.Fatalf("expected generated 32-byte hex secret, got %q (ephemeral=%v)", first.SessionSecret, first.EphemeralSessionSecret)
	}
	if first.SessionSecret == second.SessionSecret {
		t.Fatalf("generated secrets should differ between loads")
	}
}

func TestLoad_KeepsConfiguredSessionSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionSecret != "s3cret" || cfg.EphemeralSessionSecret {
		t.Fatalf("configured secret replaced: %+v", cfg)
	}
	for _, w := range cfg.Warnings() {
		if strings.Contains(w, "SESSION_SECRET") {
			t.Fatalf("unexpected warning %q", w)
		}
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout=%s, want 3s", cfg.ShutdownTimeout)
	}
	if cfg.IsDev() || cfg.Logging.Development {
		t.Fatalf("expected production mode: %+v", cfg)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "PORT", "http"},
		{"timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"production without secret", "APP_ENV", "production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}
