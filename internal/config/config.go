package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Dashboard
	SeriesMonths  int    // months shown in the net-worth chart (1-12)
	UpcomingCount int    // occurrences listed in the upcoming feed
	CurrencyLabel string // display label only, amounts are plain numbers

	// Read cache
	CacheTTL  time.Duration
	CacheSize int

	// Recap worker
	RecapSchedule    string // cron expression
	RecapHorizonDays int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),

		SeriesMonths:  getEnvInt("SERIES_MONTHS", 12),
		UpcomingCount: getEnvInt("UPCOMING_COUNT", 5),
		CurrencyLabel: getEnv("CURRENCY_LABEL", "EUR"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 128),

		RecapSchedule:    getEnv("RECAP_SCHEDULE", "0 7 * * *"),
		RecapHorizonDays: getEnvInt("RECAP_HORIZON_DAYS", 14),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.SeriesMonths < 1 || c.SeriesMonths > 12 {
		errors = append(errors, fmt.Sprintf("invalid series months %d: must be between 1 and 12", c.SeriesMonths))
	}

	if c.UpcomingCount < 1 || c.UpcomingCount > 100 {
		errors = append(errors, fmt.Sprintf("invalid upcoming count %d: must be between 1 and 100", c.UpcomingCount))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	} else if c.CacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at most 1 hour", c.CacheTTL))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if _, err := cron.ParseStandard(c.RecapSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid recap schedule '%s': %v", c.RecapSchedule, err))
	}

	if c.RecapHorizonDays < 1 || c.RecapHorizonDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid recap horizon %d days: must be between 1 and 365", c.RecapHorizonDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
