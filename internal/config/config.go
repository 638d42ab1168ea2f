package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Storage
	StorageDriver    string
	DatabaseURL      string
	RedisAddr        string
	RedisDB          int
	RedisPassword    string
	StorageNamespace string

	// Tracker
	DefaultDailyGoal int
	// ReminderIntervalUnit is the length of one reminder interval minute
	ReminderIntervalUnit time.Duration
	Location             *time.Location
}

func Load() (*Config, error) {
	// .env is optional, for local runs
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("DATABASE_URL", "water.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("STORAGE_NAMESPACE", "waterapp")
	v.SetDefault("DEFAULT_DAILY_GOAL", 2000)
	v.SetDefault("REMINDER_INTERVAL_UNIT", "1m")
	v.SetDefault("TIMEZONE", "Local")

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		Environment:          v.GetString("ENVIRONMENT"),
		StorageDriver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisDB:              v.GetInt("REDIS_DB"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		StorageNamespace:     v.GetString("STORAGE_NAMESPACE"),
		DefaultDailyGoal:     v.GetInt("DEFAULT_DAILY_GOAL"),
		ReminderIntervalUnit: v.GetDuration("REMINDER_INTERVAL_UNIT"),
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load can't default.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if (c.StorageDriver == StorageSQLite || c.StorageDriver == StoragePostgres) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for %s storage", c.StorageDriver)
	}
	if c.ReminderIntervalUnit <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL_UNIT must be positive")
	}
	if c.DefaultDailyGoal <= 0 {
		return fmt.Errorf("DEFAULT_DAILY_GOAL must be positive")
	}
	return nil
}
