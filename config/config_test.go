package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *Config {
	return &Config{
		DatabaseURL:         "postgres://localhost/codementor",
		SessionSecret:       "secret",
		GitHubClientID:      "client-id",
		GitHubClientSecret:  "client-secret",
		OpenAIAPIKey:        "sk-test",
		StripeSecretKey:     "sk_test",
		StripeWebhookSecret: "whsec_test",
		StripePricePro:      "price_pro",
		StripePriceTeam:     "price_team",
	}
}

func TestValidate_AllPresent(t *testing.T) {
	assert.NoError(t, fullConfig().Validate())
}

func TestValidate_SingleMissing(t *testing.T) {
	cfg := fullConfig()
	cfg.OpenAIAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "missing required environment variable: OPENAI_API_KEY", err.Error())
}

func TestValidate_MultipleMissing(t *testing.T) {
	cfg := fullConfig()
	cfg.StripeWebhookSecret = ""
	cfg.SessionSecret = ""
	cfg.StripePriceTeam = ""

	err := cfg.Validate()
	require.Error(t, err)
	// All missing names are enumerated, sorted for stable output.
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "STRIPE_PRICE_TEAM")
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
	assert.Contains(t, err.Error(), "missing required environment variables:")
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "development", cfg.APIEnvironment)
	assert.Equal(t, 168, cfg.SessionTTLHours)
	assert.Equal(t, 60, cfg.RateLimitRequestsPerMinute)
}
