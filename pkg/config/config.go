package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Settings      SettingsConfig
	Import        ImportConfig
	Archive       ArchiveConfig
	Watch         WatchConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type SettingsConfig struct {
	Path string // SQLite file holding import preferences
}

type ImportConfig struct {
	Currency         string
	LookupWorkers    int
	MatchWindowDays  int
	ProvisionEnabled bool
}

type ArchiveConfig struct {
	Dir string // empty disables archiving committed statements
}

type WatchConfig struct {
	Schedule string
	Timeout  time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled  bool
	MetricsTextfile string
}

type LogConfig struct {
	Level slog.Level
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first when present; variables already set in
// the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnvAsInt("POSTGRES_PORT", 5432),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			Database:        getEnv("POSTGRES_DB", "ledger"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute),
		},
		Settings: SettingsConfig{
			Path: getEnv("SETTINGS_DB_PATH", "import-settings.db"),
		},
		Import: ImportConfig{
			Currency:         strings.ToUpper(getEnv("IMPORT_CURRENCY", "USD")),
			LookupWorkers:    getEnvAsInt("IMPORT_LOOKUP_WORKERS", 8),
			MatchWindowDays:  getEnvAsInt("IMPORT_MATCH_WINDOW_DAYS", 7),
			ProvisionEnabled: getEnvAsBool("IMPORT_PROVISION_ACCOUNTS", true),
		},
		Archive: ArchiveConfig{
			Dir: getEnv("STATEMENT_ARCHIVE_DIR", ""),
		},
		Watch: WatchConfig{
			Schedule: getEnv("WATCH_SCHEDULE", "*/15 * * * *"),
			Timeout:  getEnvAsDuration("WATCH_IMPORT_TIMEOUT", 2*time.Minute),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:  getEnvAsBool("METRICS_ENABLED", false),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", "ledger-import.prom"),
		},
		Log: LogConfig{
			Level: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if len(cfg.Import.Currency) != 3 {
		return nil, fmt.Errorf("IMPORT_CURRENCY must be an ISO 4217 code, got %q", cfg.Import.Currency)
	}
	if cfg.Import.LookupWorkers < 1 {
		return nil, errors.New("IMPORT_LOOKUP_WORKERS must be at least 1")
	}
	if cfg.Import.MatchWindowDays < 0 {
		return nil, errors.New("IMPORT_MATCH_WINDOW_DAYS must not be negative")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err == nil {
		return level
	}
	return defaultValue
}
