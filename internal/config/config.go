// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	BackendURL  string // Base URL of the finance backend collaborator.
	DBPath      string
	SessionTTL  time.Duration
	Timeout     TimeoutConfig
	FrontendURL string
}

// TimeoutConfig groups per-operation timeouts for backend calls.
type TimeoutConfig struct {
	BackendRequest time.Duration // plain JSON requests
	BackendUpload  time.Duration // multipart upload and training
	HealthCheck    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://127.0.0.1:8080"),
		DBPath:      getEnv("DB_PATH", "./data/penny.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		Timeout: TimeoutConfig{
			BackendRequest: getEnvDuration("BACKEND_REQUEST_TIMEOUT", 30*time.Second),
			BackendUpload:  getEnvDuration("BACKEND_UPLOAD_TIMEOUT", 2*time.Minute),
			HealthCheck:    getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if _, err := url.Parse(c.BackendURL); err != nil {
		return fmt.Errorf("BACKEND_URL is not a valid URL: %w", err)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	return nil
}

// BackendPort returns the port of the configured backend URL, used in
// connectivity error hints. Returns "8080" when the URL carries no port.
func (c *Config) BackendPort() string {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Port() == "" {
		return "8080"
	}
	return u.Port()
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare numbers are treated as seconds.
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
