package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/asha")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppPort != 5000 {
		t.Errorf("AppPort = %d, want 5000", cfg.AppPort)
	}
	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %q, want development", cfg.AppEnv)
	}
	if cfg.SyncInterval != 3600 {
		t.Errorf("SyncInterval = %d, want 3600", cfg.SyncInterval)
	}
	if cfg.MaxOfflineDays != 30 {
		t.Errorf("MaxOfflineDays = %d, want 30", cfg.MaxOfflineDays)
	}
	if cfg.MaxStorageSizeMB != 500 {
		t.Errorf("MaxStorageSizeMB = %d, want 500", cfg.MaxStorageSizeMB)
	}
	if cfg.JWTAccessTokenExpires != 86400 {
		t.Errorf("JWTAccessTokenExpires = %d, want 86400", cfg.JWTAccessTokenExpires)
	}
	if cfg.VoiceLanguage != "hi-IN" {
		t.Errorf("VoiceLanguage = %q, want hi-IN", cfg.VoiceLanguage)
	}
	if !cfg.SyncEnabled {
		t.Error("SyncEnabled = false, want true")
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing DATABASE_URL")
	}
}

func TestLoadJWTSecretRequiredInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for empty JWT_SECRET_KEY in production")
	}
}

func TestLoadJWTSecretFallbackInDevelopment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWTSecretKey == "" {
		t.Error("JWTSecretKey should fall back to a development default")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{
		SyncInterval:          120,
		JWTAccessTokenExpires: 3600,
		MaxOfflineDays:        7,
	}

	if got := cfg.SyncIntervalDuration(); got != 2*time.Minute {
		t.Errorf("SyncIntervalDuration() = %v, want 2m", got)
	}
	if got := cfg.TokenExpiry(); got != time.Hour {
		t.Errorf("TokenExpiry() = %v, want 1h", got)
	}
	if got := cfg.RetentionWindow(); got != 7*24*time.Hour {
		t.Errorf("RetentionWindow() = %v, want 168h", got)
	}
}

func TestIsEnvironmentHelpers(t *testing.T) {
	t.Parallel()

	dev := &Config{AppEnv: "development"}
	prod := &Config{AppEnv: "production"}

	if !dev.IsDevelopment() || dev.IsProduction() {
		t.Error("development config misclassified")
	}
	if !prod.IsProduction() || prod.IsDevelopment() {
		t.Error("production config misclassified")
	}
}
