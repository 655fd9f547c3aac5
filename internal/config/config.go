// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Policy   PolicyConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadBytes caps the multipart body the server buffers (default: 50MB)
	MaxUploadBytes int64 `env:"SERVER_MAX_UPLOAD_BYTES" default:"52428800"`
}

// UpstreamConfig holds the base URLs of the backing services this console
// fronts. AccountURL covers profile, password, and preferences; MediaURL
// covers avatar and document uploads; SettingsURL serves upload policies.
type UpstreamConfig struct {
	// AccountURL is the account service base URL (required)
	AccountURL string `env:"UPSTREAM_ACCOUNT_URL" required:"true"`

	// MediaURL is the media/document service base URL (required)
	MediaURL string `env:"UPSTREAM_MEDIA_URL" required:"true"`

	// SettingsURL is the settings service base URL; empty falls back to AccountURL
	SettingsURL string `env:"UPSTREAM_SETTINGS_URL"`

	// Timeout is the per-request timeout for upstream calls (default: 30s)
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"30s"`
}

// PolicyConfig controls where upload constraint policies come from.
type PolicyConfig struct {
	// Mode selects the policy source: "static" uses built-in defaults
	// (optionally overridden by File), "remote" fetches the avatar policy
	// from the settings service (default: static)
	Mode string `env:"POLICY_MODE" default:"static"`

	// File is an optional YAML file defining per-category policies
	File string `env:"POLICY_FILE"`

	// RefreshTTL is how long a remotely fetched policy stays fresh (default: 5m)
	RefreshTTL time.Duration `env:"POLICY_REFRESH_TTL" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// UserHeader is the gateway header carrying the authenticated user ID
	// (default: X-Auth-User)
	UserHeader string `env:"SECURITY_USER_HEADER" default:"X-Auth-User"`

	// RoleHeader is the gateway header carrying the user's role
	// (default: X-Auth-Role)
	RoleHeader string `env:"SECURITY_ROLE_HEADER" default:"X-Auth-Role"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SettingsBaseURL returns the settings service base URL, falling back to
// the account service when none is configured.
func (c *UpstreamConfig) SettingsBaseURL() string {
	if c.SettingsURL != "" {
		return c.SettingsURL
	}
	return c.AccountURL
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
