package config

import (
	"os"
	"strconv"
	"time"
)

// BlandConfig contains voice provider configuration
type BlandConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"-"`

	// Voice and call defaults applied to every initiated call.
	Voice           string `json:"voice"`
	ReduceLatency   bool   `json:"reduce_latency"`
	MaxCallDuration int    `json:"max_call_duration"` // seconds

	// WebhookBaseURL is the public base URL of this service; the provider
	// posts call results to WebhookBaseURL + /api/v1/webhooks/bland-ai.
	WebhookBaseURL string `json:"webhook_base_url"`

	// HTTPTimeout bounds every outbound provider call. A timeout is treated
	// as rejection, never left pending.
	HTTPTimeout time.Duration `json:"http_timeout"`
}

// WebhookURL returns the full callback URL registered with each call
func (c *BlandConfig) WebhookURL() string {
	return c.WebhookBaseURL + "/api/v1/webhooks/bland-ai"
}

// GetBlandConfig returns voice provider configuration from environment
func GetBlandConfig() *BlandConfig {
	cfg := &BlandConfig{
		BaseURL:         getEnvOr("BLAND_BASE_URL", "https://api.bland.ai"),
		APIKey:          os.Getenv("BLAND_API_KEY"),
		Voice:           getEnvOr("BLAND_VOICE", "maya"),
		ReduceLatency:   true,
		MaxCallDuration: 300,
		WebhookBaseURL:  os.Getenv("PUBLIC_BASE_URL"),
		HTTPTimeout:     30 * time.Second,
	}

	if v := os.Getenv("BLAND_MAX_CALL_DURATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxCallDuration = n
		}
	}
	if v := os.Getenv("BLAND_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}

	return cfg
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
