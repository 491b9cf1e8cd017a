package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// Storage configuration
	DataDir       string
	StorageDriver string
	StoragePath   string

	// Redis configuration, used when StorageDriver is "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Ledger
	InitialBalance int64

	// Elasticsearch activity indexer, disabled when URL is empty
	ElasticsearchURL         string
	ElasticsearchUsername    string
	ElasticsearchPassword    string
	ElasticsearchIndexPrefix string

	// Discord notification relay, disabled when Token is empty
	DiscordToken     string
	DiscordChannelID string

	// Ops server, disabled when empty
	MetricsAddr string

	// Reminders
	ReminderWindow   time.Duration
	ReminderInterval time.Duration

	// Logging
	LogLevel string

	// Environment
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Get working directory for the default data directory
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		Environment:              getEnvWithDefault("ENVIRONMENT", "development"),
		DataDir:                  getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		StorageDriver:            getEnvWithDefault("STORAGE_DRIVER", DriverFile),
		StoragePath:              os.Getenv("STORAGE_PATH"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:              getEnvWithDefault("REDIS_PREFIX", "peerly:"),
		ElasticsearchURL:         os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername:    os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword:    os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndexPrefix: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "peerly"),
		DiscordToken:             os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID:         os.Getenv("DISCORD_CHANNEL_ID"),
		MetricsAddr:              os.Getenv("METRICS_ADDR"),
		LogLevel:                 getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if cfg.RedisDB, err = strconv.Atoi(getEnvWithDefault("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.InitialBalance, err = strconv.ParseInt(getEnvWithDefault("INITIAL_BALANCE", "250"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid INITIAL_BALANCE: %w", err)
	}
	if cfg.ReminderWindow, err = time.ParseDuration(getEnvWithDefault("REMINDER_WINDOW", "1h")); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_WINDOW: %w", err)
	}
	if cfg.ReminderInterval, err = time.ParseDuration(getEnvWithDefault("REMINDER_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL: %w", err)
	}

	if cfg.StoragePath == "" {
		cfg.StoragePath = cfg.defaultStoragePath()
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if cfg.StorageDriver == DriverFile || cfg.StorageDriver == DriverSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) defaultStoragePath() string {
	switch c.StorageDriver {
	case DriverSQLite:
		return filepath.Join(c.DataDir, "peerly.db")
	case DriverFile:
		return filepath.Join(c.DataDir, "peerly.json")
	}
	return ""
}

// validate checks if the configuration is consistent
func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORAGE_DRIVER is redis")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.InitialBalance < 0 {
		return fmt.Errorf("INITIAL_BALANCE cannot be negative")
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	if c.ReminderWindow <= 0 {
		return fmt.Errorf("REMINDER_WINDOW must be positive")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IndexerEnabled reports whether the Elasticsearch indexer is configured
func (c *Config) IndexerEnabled() bool {
	return c.ElasticsearchURL != ""
}

// RelayEnabled reports whether the Discord relay is configured
func (c *Config) RelayEnabled() bool {
	return c.DiscordToken != ""
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
