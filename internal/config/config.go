package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server (dev stack)
	ServerAddr string
	ServerPort int

	// Site URLs
	BackendURL string
	AuthURL    string
	HomeURL    string

	// Cookie
	CookieDomain string
	CookieSecure bool
	TokenTTL     time.Duration

	// API client
	RequestTimeout time.Duration
	StatusTimeout  time.Duration

	// JWT (dev stack token issuance)
	JWTSecret  string
	JWTIssuer  string
	IDTokenTTL time.Duration

	// Rate limiting (dev stack)
	RateLimitEnabled      bool
	AuthRequestsPerMinute int
	APIRequestsPerMinute  int

	// Seed account for the dev stack
	SeedEmail    string
	SeedPassword string
	SeedRole     string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Site defaults
		BackendURL: getEnv("BACKEND_URL", "http://localhost:8080"),
		AuthURL:    getEnv("AUTH_URL", "https://adscity.net/signin"),
		HomeURL:    getEnv("HOME_URL", "https://adscity.net"),

		// Cookie defaults
		CookieDomain: getEnv("COOKIE_DOMAIN", ".adscity.net"),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),
		TokenTTL:     getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		// Client defaults
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		StatusTimeout:  getEnvDuration("STATUS_TIMEOUT", 10*time.Second),

		// JWT defaults
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "adscity-dev"),
		IDTokenTTL: getEnvDuration("ID_TOKEN_TTL", time.Hour),

		// Rate limiting defaults
		RateLimitEnabled:      getEnvBool("RATE_LIMIT_ENABLED", true),
		AuthRequestsPerMinute: getEnvInt("AUTH_REQUESTS_PER_MINUTE", 10),
		APIRequestsPerMinute:  getEnvInt("API_REQUESTS_PER_MINUTE", 120),

		// Seed account (optional)
		SeedEmail:    getEnv("SEED_EMAIL", ""),
		SeedPassword: getEnv("SEED_PASSWORD", ""),
		SeedRole:     getEnv("SEED_ROLE", "user"),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// HasSeedAccount returns true if a seed account is configured.
func (c *Config) HasSeedAccount() bool {
	return c.SeedEmail != "" && c.SeedPassword != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
