package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Vault encryption configuration
	Vault VaultConfig

	// Owner authentication configuration
	Auth AuthConfig

	// OAuth providers (github, gitlab, bitbucket)
	OAuth OAuthConfig

	// Proxy dispatch configuration
	Proxy ProxyConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Production selects JSON logging
	Production bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// VaultConfig holds secret-encryption configuration
type VaultConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES key used for all
	// secrets at rest. The process refuses to start without it.
	EncryptionKey string
}

// AuthConfig holds bearer-token configuration for owner sessions
type AuthConfig struct {
	JWTSecret          string
	TokenExpiryMinutes int
}

// OAuthProviderConfig holds one OAuth provider's client settings
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuthConfig holds the git-hosting OAuth providers
type OAuthConfig struct {
	GitHub    OAuthProviderConfig
	GitLab    OAuthProviderConfig
	Bitbucket OAuthProviderConfig
}

// ProxyConfig holds upstream dispatch configuration
type ProxyConfig struct {
	UpstreamTimeoutSeconds int // per-call timeout for the outbound HTTP client
	PollIntervalMillis     int // poll cadence for submit-then-poll providers
	PollTimeoutSeconds     int // overall deadline for a poll loop
	MaxBodyBytes           int64
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr                  string
	CORSAllowedOrigins    string
	RequestTimeoutSeconds int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Vault: VaultConfig{
			EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			TokenExpiryMinutes: getEnvInt("JWT_EXPIRATION_MINUTES", 60),
		},
		OAuth: OAuthConfig{
			GitHub: OAuthProviderConfig{
				ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
				ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
				RedirectURI:  getEnvString("GITHUB_REDIRECT_URI", "http://localhost:8080/auth/github/callback"),
			},
			GitLab: OAuthProviderConfig{
				ClientID:     os.Getenv("GITLAB_CLIENT_ID"),
				ClientSecret: os.Getenv("GITLAB_CLIENT_SECRET"),
				RedirectURI:  getEnvString("GITLAB_REDIRECT_URI", "http://localhost:8080/auth/gitlab/callback"),
			},
			Bitbucket: OAuthProviderConfig{
				ClientID:     os.Getenv("BITBUCKET_CLIENT_ID"),
				ClientSecret: os.Getenv("BITBUCKET_CLIENT_SECRET"),
				RedirectURI:  getEnvString("BITBUCKET_REDIRECT_URI", "http://localhost:8080/auth/bitbucket/callback"),
			},
		},
		Proxy: ProxyConfig{
			UpstreamTimeoutSeconds: getEnvInt("PROXY_UPSTREAM_TIMEOUT_SECONDS", 120),
			PollIntervalMillis:     getEnvInt("PROXY_POLL_INTERVAL_MS", 1000),
			PollTimeoutSeconds:     getEnvInt("PROXY_POLL_TIMEOUT_SECONDS", 60),
			MaxBodyBytes:           int64(getEnvInt("PROXY_MAX_BODY_BYTES", 1<<20)),
		},
		HTTP: HTTPConfig{
			Addr:                  getEnvString("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds: getEnvInt("HTTP_TIMEOUT_SECONDS", 180),
		},
		Production: getEnvString("APP_ENV", "development") == "production",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Vault.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://test"},
		Vault:    VaultConfig{EncryptionKey: "dGVzdC1rZXktdGVzdC1rZXktdGVzdC1rZXktdGVzdCE="},
		Auth: AuthConfig{
			JWTSecret:          "test-jwt-secret",
			TokenExpiryMinutes: 60,
		},
		Proxy: ProxyConfig{
			UpstreamTimeoutSeconds: 5,
			PollIntervalMillis:     10,
			PollTimeoutSeconds:     2,
			MaxBodyBytes:           1 << 20,
		},
		HTTP: HTTPConfig{
			Addr:                  ":0",
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 30,
		},
	}
}

// getEnvString returns the environment variable value or a default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
