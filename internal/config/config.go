// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"graduation-lab/internal/jupiter"
)

// DefaultDevAddress is the launchpad dev address whose tokens are scanned.
const DefaultDevAddress = "BAGSB9TpGrZxQbEsrEznv5jXXdwyP6AXerN8aVRiAmcv"

// Config holds application configuration.
type Config struct {
	JupiterBaseURL string
	DevAddress     string
	FetchRPS       float64
	Window         time.Duration

	// Storage backends; empty disables the backend.
	PostgresDSN   string
	ClickhouseDSN string
	RedisAddr     string
	RedisPassword string

	ScoringConfig string // YAML path; empty uses built-in defaults
	OutputDir     string
	MetricsAddr   string // empty disables the metrics endpoint

	LogLevel  string
	LogPretty bool
}

// Load reads .env files (if present) then the environment.
// Values already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		JupiterBaseURL: getEnvOrDefault("JUPITER_BASE_URL", jupiter.DefaultBaseURL),
		DevAddress:     getEnvOrDefault("JUPITER_DEV_ADDRESS", DefaultDevAddress),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:  os.Getenv("CLICKHOUSE_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		ScoringConfig:  os.Getenv("SCORING_CONFIG"),
		OutputDir:      getEnvOrDefault("OUTPUT_DIR", "reports"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.FetchRPS, err = getEnvFloat("FETCH_RPS", jupiter.DefaultRPS); err != nil {
		return nil, err
	}
	if cfg.Window, err = getEnvDuration("TOKEN_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.LogPretty, err = getEnvBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DevAddress == "" {
		return errors.New("JUPITER_DEV_ADDRESS must not be empty")
	}
	if c.FetchRPS < 0 {
		return fmt.Errorf("FETCH_RPS must be >= 0, got %v", c.FetchRPS)
	}
	if c.Window < 0 {
		return fmt.Errorf("TOKEN_WINDOW must be >= 0, got %v", c.Window)
	}
	return nil
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
