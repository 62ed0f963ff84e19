package config

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Proxy     ProxyConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// AuthConfig holds ticket and JWT validation configuration. The raw
// environment values are kept as-is; accessors apply decoding and
// fallback rules.
type AuthConfig struct {
	// PublicKeyB64 is a base64-encoded PEM public key. Empty disables JWT
	// validation entirely.
	PublicKeyB64 string `envconfig:"JWT_PUBLIC_KEY"`
	// TicketTTLRaw is the ticket lifetime in seconds. Absent, unparseable,
	// or negative values fall back to DefaultTicketTTL.
	TicketTTLRaw string `envconfig:"TICKET_TTL_SECONDS"`
	// CacheTTLSeconds is the JWT cache lifetime for tokens without an
	// expiration claim.
	CacheTTLSeconds int `envconfig:"JWT_CACHE_TTL_SECONDS" default:"1800"`
}

// ProxyConfig holds upstream CDP endpoint configuration.
type ProxyConfig struct {
	// Origin is the upstream origin, scheme+host[:port] with no path.
	Origin string `envconfig:"CDP_TARGET_ORIGIN"`
	// Netloc is the Host header value for upstream requests. Derived from
	// Origin when unset.
	Netloc string `envconfig:"CDP_TARGET_NETLOC"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DefaultTicketTTL is the ticket lifetime applied when TICKET_TTL_SECONDS
// is absent, unparseable, or negative.
const DefaultTicketTTL = 30 * time.Second

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Auth: AuthConfig{
			CacheTTLSeconds: 1800,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// TicketTTL returns the configured ticket lifetime.
func (c AuthConfig) TicketTTL() time.Duration {
	if c.TicketTTLRaw == "" {
		return DefaultTicketTTL
	}
	secs, err := strconv.Atoi(c.TicketTTLRaw)
	if err != nil || secs < 0 {
		return DefaultTicketTTL
	}
	return time.Duration(secs) * time.Second
}

// CacheTTL returns the JWT cache lifetime for tokens without an exp claim.
func (c AuthConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PublicKey decodes the base64-encoded PEM key into an RSA public key.
// Returns (nil, nil) when no key is configured.
func (c AuthConfig) PublicKey() (*rsa.PublicKey, error) {
	if c.PublicKeyB64 == "" {
		return nil, nil
	}
	pemBytes, err := base64.StdEncoding.DecodeString(c.PublicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode JWT public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse JWT public key: %w", err)
	}
	return key, nil
}

// ResolvedNetloc returns the upstream Host header value, deriving it from
// Origin when CDP_TARGET_NETLOC is unset.
func (c ProxyConfig) ResolvedNetloc() string {
	if c.Netloc != "" {
		return c.Netloc
	}
	u, err := url.Parse(c.Origin)
	if err != nil {
		return ""
	}
	return u.Host
}

// Configured reports whether both the upstream origin and host value are
// resolved. Proxy operations fail closed when this is false.
func (c ProxyConfig) Configured() bool {
	return c.Origin != "" && c.ResolvedNetloc() != ""
}
