// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppName    string `env:"APP_NAME" envDefault:"asha-connect"`
	AppVersion string `env:"APP_VERSION" envDefault:"1.0.0"`
	AppEnv     string `env:"ENVIRONMENT" envDefault:"development"`
	AppPort    int    `env:"PORT" envDefault:"5000"`

	// Central database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Offline store (SQLite)
	LocalDBPath string `env:"LOCAL_DB_PATH" envDefault:"data/local.db"`

	// Synchronization
	SyncEnabled      bool `env:"SYNC_ENABLED" envDefault:"true"`
	SyncInterval     int  `env:"SYNC_INTERVAL" envDefault:"3600"` // seconds
	MaxOfflineDays   int  `env:"MAX_OFFLINE_DAYS" envDefault:"30"`
	MaxStorageSizeMB int  `env:"MAX_STORAGE_SIZE_MB" envDefault:"500"`

	// Authentication
	JWTSecretKey          string `env:"JWT_SECRET_KEY" envDefault:""`
	JWTAccessTokenExpires int    `env:"JWT_ACCESS_TOKEN_EXPIRES" envDefault:"86400"` // seconds

	// Assessment model (llama.cpp-compatible completion server)
	ModelURL       string  `env:"MODEL_URL" envDefault:""`
	ModelTemp      float64 `env:"MODEL_TEMP" envDefault:"0.7"`
	ModelMaxTokens int     `env:"MODEL_MAX_TOKENS" envDefault:"512"`

	// Voice
	VoiceLanguage string `env:"VOICE_LANGUAGE" envDefault:"hi-IN"`
	VoiceGender   string `env:"VOICE_GENDER" envDefault:"female"`
	SpeechURL     string `env:"SPEECH_URL" envDefault:""`
	TTSURL        string `env:"TTS_URL" envDefault:""`

	// Telephony
	TelephonyNumber string `env:"TELEPHONY_NUMBER" envDefault:""`
	RecordingsPath  string `env:"RECORDINGS_PATH" envDefault:"data/calls/recordings"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE" envDefault:"logs/app.log"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (login endpoint, per IP)
	RateLimitLoginEnabled bool `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginRPM     int  `env:"RATE_LIMIT_LOGIN_RPM" envDefault:"10"`
	RateLimitLoginBurst   int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`

	// Request body size limit in bytes (default 10MB to allow audio uploads)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"10485760"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SyncIntervalDuration returns the sync interval as a time.Duration.
func (c *Config) SyncIntervalDuration() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}

// TokenExpiry returns the access token lifetime as a time.Duration.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWTAccessTokenExpires) * time.Second
}

// RetentionWindow returns how long synced offline records are kept.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.MaxOfflineDays) * 24 * time.Hour
}

// Validate checks settings that env tags alone cannot express.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET_KEY is required outside development")
	}
	if c.SyncInterval <= 0 {
		return errors.New("SYNC_INTERVAL must be positive")
	}
	if c.MaxStorageSizeMB <= 0 {
		return errors.New("MAX_STORAGE_SIZE_MB must be positive")
	}
	if c.MaxOfflineDays <= 0 {
		return errors.New("MAX_OFFLINE_DAYS must be positive")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecretKey == "" {
		// Development fallback; Validate rejects an empty secret elsewhere.
		cfg.JWTSecretKey = "dev-secret-change-me"
	}
	return cfg, nil
}
