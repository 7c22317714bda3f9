package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"butcherdesk/internal/logger"
)

type Config struct {
	// Sage ERP API Configuration
	SageAPIURL         string
	SageAPIURLInternal string
	SageAPIToken       string
	SageTimeout        time.Duration
	SageInternalHost   string

	// Supabase Auth Configuration
	SupabaseURL     string
	SupabaseAnonKey string

	// Database Configuration
	DatabaseURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		SageAPIURL:         getEnv("SAGE_API_URL", ""),
		SageAPIURLInternal: getEnv("SAGE_API_URL_INTERNAL", ""),
		SageAPIToken:       getEnv("SAGE_API_TOKEN", ""),
		SageTimeout:        getEnvDuration("SAGE_API_TIMEOUT_SECONDS", 30*time.Second),
		SageInternalHost:   getEnv("SAGE_INTERNAL_HOST", ""),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:          getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.SageAPIURL == "" && c.SageAPIURLInternal == "" {
		return fmt.Errorf("SAGE_API_URL or SAGE_API_URL_INTERNAL is required")
	}
	if c.SageAPIToken == "" {
		return fmt.Errorf("SAGE_API_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireAuth validates the configuration needed for the hosted auth flow.
// The auth backend is optional for commands that only talk to Sage and the
// local database, so this is checked per command rather than in Load.
func (c *Config) RequireAuth() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}
