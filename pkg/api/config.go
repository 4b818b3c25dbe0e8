package api

import (
	"fmt"
	"os"
	"time"
)

// EnvJWTSecret is the environment variable the JWT signing secret can be
// supplied through. It takes precedence over the config file so the
// secret can stay out of versioned configuration.
const EnvJWTSecret = "HUBVAULT_API_SECRET"

// Config configures the vault HTTP server.
//
// The server always exposes the health probes and the single-use download
// endpoint. The management API under /api/v1 additionally requires a JWT
// secret; without one it stays disabled.
type Config struct {
	// Enabled controls whether the HTTP server is started.
	// Default: true. Pointer distinguishes "not set" from "explicitly
	// false".
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port. Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// BaseURL is the public URL download links are built against.
	// Default: http://localhost:<port>
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Uploads stream through this limit, so size it for the largest
	// accepted file. Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWT configures authentication for the management API
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	// Can also be set via the HUBVAULT_API_SECRET environment variable,
	// which takes precedence.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// TokenDuration is the lifetime of issued tokens. Default: 15m
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

// IsEnabled reports whether the HTTP server should start. Defaults to
// true when not explicitly set.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GetJWTSecret returns the signing secret, preferring the environment
// variable over the config file.
func (c *Config) GetJWTSecret() string {
	if env := os.Getenv(EnvJWTSecret); env != "" {
		return env
	}
	return c.JWT.Secret
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.TokenDuration == 0 {
		c.JWT.TokenDuration = 15 * time.Minute
	}
}

// Validate checks the configuration. A missing secret is valid (the
// management API stays off); a present but weak one is not.
func (c *Config) Validate() error {
	if secret := c.GetJWTSecret(); secret != "" && len(secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	return nil
}
