package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Database
	DatabaseURL string

	// Redis (optional; empty disables caching)
	RedisURL string

	// Session
	SessionSecret       string
	SessionTTLHours     int

	// GitHub OAuth
	GitHubClientID     string
	GitHubClientSecret string
	OAuthCallbackURL   string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Payments (Stripe)
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePricePro      string
	StripePriceTeam     string

	// Frontend
	FrontendURL string

	// Email (optional; empty disables notifications)
	SendGridAPIKey string
	EmailFrom      string

	// Error tracking (optional)
	SentryDSN         string
	SentryEnvironment string

	// Logging
	LogLevel string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Session
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 168),

		// GitHub OAuth
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		OAuthCallbackURL:   getEnv("OAUTH_CALLBACK_URL", "http://localhost:8080/auth/callback"),

		// OpenAI
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", ""),

		// Stripe
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePricePro:      getEnv("STRIPE_PRICE_PRO", ""),
		StripePriceTeam:     getEnv("STRIPE_PRICE_TEAM", ""),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Email
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "noreply@codementor.dev"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", getEnv("API_ENVIRONMENT", "development")),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// Validate checks that every required variable is present. The process must
// not serve traffic with any of these missing, and the error names all of
// them at once so a broken deploy is fixed in one pass.
func (c *Config) Validate() error {
	required := map[string]string{
		"DATABASE_URL":          c.DatabaseURL,
		"SESSION_SECRET":        c.SessionSecret,
		"GITHUB_CLIENT_ID":      c.GitHubClientID,
		"GITHUB_CLIENT_SECRET":  c.GitHubClientSecret,
		"OPENAI_API_KEY":        c.OpenAIAPIKey,
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"STRIPE_PRICE_PRO":      c.StripePricePro,
		"STRIPE_PRICE_TEAM":     c.StripePriceTeam,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	if len(missing) == 1 {
		return fmt.Errorf("missing required environment variable: %s", missing[0])
	}
	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
