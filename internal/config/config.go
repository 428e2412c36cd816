// Package config loads ARISE's runtime configuration.
//
// Configuration is loaded from environment variables (.env file first, if
// present) and can later be refreshed from the settings store — settings
// store values take precedence over environment variables.
//
// Configuration Loading Order:
// 1. Load from .env file (if exists)
// 2. Load from environment variables
// 3. UpdateFromSettings (takes precedence, called once the settings store
//    is wired up)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SettingsReader is the narrow settings-store boundary config depends on.
// internal/store provides a concrete implementation; keeping the dependency
// as an interface here avoids config importing the storage package.
type SettingsReader interface {
	Get(key string) (*string, error)
}

// Config holds ARISE's process-wide configuration.
type Config struct {
	DataDir      string // base directory for sqlite DBs, caches, file-backed logs
	Port         int    // HTTP health-mux port
	DevMode      bool
	LogLevel     string // debug, info, warn, error
	LogPretty    bool

	RedisURL         string
	TopPicksRetentionDays int

	TradernetAPIKey    string
	TradernetAPISecret string
	TradernetWSURL     string
	TradernetSID       string
	AlphavantageAPIKey string
	SentimentAPIKey    string
	SentimentBaseURL   string

	S3Bucket          string
	S3Region          string
	S3BackupEnabled   bool
	S3BackupEveryMin  int

	R2AccountID        string
	R2AccessKeyID      string
	R2SecretAccessKey  string
	BackupRetentionDays int

	PolicyConfigDir  string // directory holding mode_weights.json / performance_horizons.json
	WatchlistPath    string
}

// Load reads configuration from environment variables. dataDirOverride, if
// given and non-empty, takes priority over ARISE_DATA_DIR.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("ARISE_DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("ARISE_PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
		TopPicksRetentionDays: getEnvAsInt("TOP_PICKS_RETENTION_DAYS", 90),

		TradernetAPIKey:    getEnv("TRADERNET_API_KEY", ""),
		TradernetAPISecret: getEnv("TRADERNET_API_SECRET", ""),
		TradernetWSURL:     getEnv("TRADERNET_WS_URL", "wss://wss.tradernet.com"),
		TradernetSID:       getEnv("TRADERNET_SID", ""),
		AlphavantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		SentimentAPIKey:    getEnv("SENTIMENT_API_KEY", ""),
		SentimentBaseURL:   getEnv("SENTIMENT_BASE_URL", ""),

		S3Bucket:         getEnv("S3_BACKUP_BUCKET", ""),
		S3Region:         getEnv("S3_BACKUP_REGION", "auto"),
		S3BackupEnabled:  getEnvAsBool("S3_BACKUP_ENABLED", false),
		S3BackupEveryMin: getEnvAsInt("S3_BACKUP_INTERVAL_MIN", 60),

		R2AccountID:         getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:       getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:   getEnv("R2_SECRET_ACCESS_KEY", ""),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),

		PolicyConfigDir: getEnv("ARISE_POLICY_DIR", "./config"),
		WatchlistPath:   getEnv("ARISE_WATCHLIST_PATH", "./config/watchlist.json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateFromSettings refreshes runtime-rotatable credentials from the
// settings store. Called once the store is wired up in the composition
// root. A settings-store value only overrides the environment-derived value
// when it is non-empty.
func (c *Config) UpdateFromSettings(settings SettingsReader) error {
	fields := []struct {
		key string
		dst *string
	}{
		{"tradernet_api_key", &c.TradernetAPIKey},
		{"tradernet_api_secret", &c.TradernetAPISecret},
		{"alphavantage_api_key", &c.AlphavantageAPIKey},
		{"sentiment_api_key", &c.SentimentAPIKey},
	}
	for _, f := range fields {
		value, err := settings.Get(f.key)
		if err != nil {
			return fmt.Errorf("get %s from settings: %w", f.key, err)
		}
		if value != nil && *value != "" {
			*f.dst = *value
		}
	}
	return nil
}

// Validate checks required configuration. Provider credentials are
// optional: ARISE can run against a fallback-only or research-mode quote
// provider.
func (c *Config) Validate() error {
	if c.TopPicksRetentionDays <= 0 {
		return fmt.Errorf("TOP_PICKS_RETENTION_DAYS must be positive, got %d", c.TopPicksRetentionDays)
	}
	return nil
}

// BackupInterval is S3BackupEveryMin as a time.Duration.
func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.S3BackupEveryMin) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
