/**
 * @description
 * Configuration loader for the Salesight Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if DATABASE_URL is missing.
 * - RPT1_URL is deliberately NOT validated at boot: its absence is a per-run
 *   configuration error surfaced by the prediction service, so the API can still
 *   serve previously persisted forecasts without a provider configured.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	RPT1   RPT1Config
	Auth   AuthConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// RPT1Config holds the forecasting provider endpoint and credentials
type RPT1Config struct {
	URL       string // endpoint accepting {rows, index_column} payloads
	AuthToken string // optional, sent as a Bearer authorization header
}

// AuthConfig holds API authentication settings
type AuthConfig struct {
	JWTSecret string // HMAC secret used to validate bearer tokens on protected routes
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		RPT1: RPT1Config{
			URL:       strings.TrimSpace(getEnv("RPT1_URL", "")),
			AuthToken: sanitizeCredential(getEnv("RPT1_AUTH", "")),
		},
		Auth: AuthConfig{
			JWTSecret: sanitizeCredential(getEnv("API_JWT_SECRET", "")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: API_JWT_SECRET is missing. Protected routes will reject every request.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
