package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the marketplace transaction client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Marketplace API
	APIBaseURL  string        `env:"HANGART_API_BASE_URL" envDefault:"https://api.hangart.example.com/api"`
	HTTPTimeout time.Duration `env:"HANGART_HTTP_TIMEOUT" envDefault:"30s"`
	UserAgent   string        `env:"HANGART_USER_AGENT" envDefault:"hangart-client/1.0"`

	// Login entry point the client navigates to when the session is torn down.
	LoginURL string `env:"HANGART_LOGIN_URL" envDefault:"/login"`

	// Mobile money polling
	PollInterval    time.Duration `env:"HANGART_POLL_INTERVAL" envDefault:"10s"`
	MaxPollAttempts uint          `env:"HANGART_MAX_POLL_ATTEMPTS" envDefault:"30"`

	// Redirect callback listener (PayPal return leg on non-browser hosts).
	CallbackAddr string `env:"HANGART_CALLBACK_ADDR" envDefault:"127.0.0.1:8976"`

	// Session store. Backend is one of: file, redis, memory, none.
	SessionBackend string `env:"HANGART_SESSION_BACKEND" envDefault:"file"`
	SessionFile    string `env:"HANGART_SESSION_FILE" envDefault:""`

	// Redis (used when SessionBackend is "redis").
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// RedisAddr returns the Redis address string.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
