// Package config loads qlab settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	Port         int
	LogLevel     string
	LogPretty    bool
	DefaultShots int
	MaxQubits    int
	Seed         int64 // 0 means seed from the clock
	DevMode      bool
}

// Load reads .env files (default ".env") if present, then the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:         getEnvAsInt("QLAB_PORT", 8000),
		LogLevel:     getEnv("QLAB_LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("QLAB_LOG_PRETTY", false),
		DefaultShots: getEnvAsInt("QLAB_DEFAULT_SHOTS", 1024),
		MaxQubits:    getEnvAsInt("QLAB_MAX_QUBITS", 16),
		Seed:         int64(getEnvAsInt("QLAB_SEED", 0)),
		DevMode:      getEnvAsBool("QLAB_DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: QLAB_PORT %d out of range", ErrInvalid, c.Port)
	}
	if c.DefaultShots <= 0 {
		return fmt.Errorf("%w: QLAB_DEFAULT_SHOTS must be positive", ErrInvalid)
	}
	if c.MaxQubits <= 0 || c.MaxQubits > 24 {
		return fmt.Errorf("%w: QLAB_MAX_QUBITS must be in 1..24", ErrInvalid)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
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
