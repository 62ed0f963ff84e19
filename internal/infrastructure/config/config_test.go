package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Auth config
	assert.Equal(t, DefaultTicketTTL, cfg.Auth.TicketTTL())
	assert.Equal(t, 30*time.Minute, cfg.Auth.CacheTTL())

	// Proxy config: unconfigured by default
	assert.False(t, cfg.Proxy.Configured())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "127.0.0.1",
		"CDP_TARGET_ORIGIN":     "http://browser:9222",
		"CDP_TARGET_NETLOC":     "browser:9222",
		"TICKET_TTL_SECONDS":    "60",
		"JWT_CACHE_TTL_SECONDS": "600",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "http://browser:9222", cfg.Proxy.Origin)
	assert.Equal(t, "browser:9222", cfg.Proxy.Netloc)
	assert.True(t, cfg.Proxy.Configured())
	assert.Equal(t, 60*time.Second, cfg.Auth.TicketTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.CacheTTL())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestTicketTTLFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "absent", raw: "", want: DefaultTicketTTL},
		{name: "valid", raw: "120", want: 120 * time.Second},
		{name: "zero is valid", raw: "0", want: 0},
		{name: "negative falls back", raw: "-5", want: DefaultTicketTTL},
		{name: "garbage falls back", raw: "abc", want: DefaultTicketTTL},
		{name: "float falls back", raw: "1.5", want: DefaultTicketTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AuthConfig{TicketTTLRaw: tt.raw}
			assert.Equal(t, tt.want, cfg.TicketTTL())
		})
	}
}

func TestResolvedNetloc(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		netloc string
		want   string
	}{
		{name: "explicit netloc wins", origin: "http://a:1", netloc: "b:2", want: "b:2"},
		{name: "derived from origin", origin: "http://browser:9222", want: "browser:9222"},
		{name: "derived without port", origin: "http://browser", want: "browser"},
		{name: "empty origin", origin: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ProxyConfig{Origin: tt.origin, Netloc: tt.netloc}
			assert.Equal(t, tt.want, cfg.ResolvedNetloc())
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.False(t, ProxyConfig{}.Configured())
	assert.False(t, ProxyConfig{Netloc: "host:1"}.Configured())
	assert.True(t, ProxyConfig{Origin: "http://host:1"}.Configured())
	assert.True(t, ProxyConfig{Origin: "http://host:1", Netloc: "other:2"}.Configured())
}

func TestPublicKey(t *testing.T) {
	t.Run("absent key disables JWT", func(t *testing.T) {
		key, err := AuthConfig{}.PublicKey()
		require.NoError(t, err)
		assert.Nil(t, key)
	})

	t.Run("valid key decodes", func(t *testing.T) {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		require.NoError(t, err)
		pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

		cfg := AuthConfig{PublicKeyB64: base64.StdEncoding.EncodeToString(pemBytes)}
		key, err := cfg.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, priv.PublicKey.N, key.N)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := AuthConfig{PublicKeyB64: "not base64!!"}.PublicKey()
		assert.Error(t, err)
	})

	t.Run("valid base64 invalid PEM", func(t *testing.T) {
		cfg := AuthConfig{PublicKeyB64: base64.StdEncoding.EncodeToString([]byte("junk"))}
		_, err := cfg.PublicKey()
		assert.Error(t, err)
	})
}

func TestLoadOrDefault(t *testing.T) {
	os.Unsetenv("PORT")
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}
