// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Key-value store
	RedisURL string `env:"REDIS_URL,required"`

	// Namespace prefix for all analytics keys
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"analytics"`

	// Admin dashboard session gate.
	// ADMIN_PASSWORD_HASH is an argon2id hash in PHC string format.
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH,required"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// Geolocation backfill. GeoIPDBPath is an optional local MaxMind
	// City database consulted before the HTTP providers.
	GeoIPDBPath    string        `env:"GEOIP_DB_PATH" envDefault:""`
	GeoHTTPTimeout time.Duration `env:"GEO_HTTP_TIMEOUT" envDefault:"3s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Prometheus metrics endpoint
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
