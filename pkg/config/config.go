package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database (empty = in-memory stores)
	DatabaseURL string

	// Anthropic
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	// Slack
	SlackBotToken      string
	SlackSigningSecret string
	SlackChannel       string
	SlackBaseURL       string

	// Post-Bridge
	PostBridgeAPIKey   string
	PostBridgeBaseURL  string
	PostBridgeAccounts map[string]int

	// Webhooks
	GitHubWebhookSecret string

	// Timeouts for outbound calls
	GenerationTimeout time.Duration
	DeliveryTimeout   time.Duration

	// Timezone for the "start of today" digest cutoff
	Timezone string

	// Project seed file (YAML); empty = no seeding
	ProjectSeedPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3100"),
		AppName: envOrDefault("APP_NAME", "ShipPost"),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:   envOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicBaseURL: envOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		SlackBotToken:      strings.TrimSpace(os.Getenv("SLACK_BOT_TOKEN")),
		SlackSigningSecret: strings.TrimSpace(os.Getenv("SLACK_SIGNING_SECRET")),
		SlackChannel:       envOrDefault("SLACK_CHANNEL", "social"),
		SlackBaseURL:       envOrDefault("SLACK_BASE_URL", "https://slack.com/api"),

		PostBridgeAPIKey:   strings.TrimSpace(os.Getenv("POST_BRIDGE_API_KEY")),
		PostBridgeBaseURL:  envOrDefault("POST_BRIDGE_API_URL", "https://api.post-bridge.com/v1"),
		PostBridgeAccounts: parseAccounts(os.Getenv("POST_BRIDGE_ACCOUNTS")),

		GitHubWebhookSecret: strings.TrimSpace(os.Getenv("GITHUB_WEBHOOK_SECRET")),

		GenerationTimeout: time.Duration(envOrDefaultInt("GENERATION_TIMEOUT_SECONDS", 60)) * time.Second,
		DeliveryTimeout:   time.Duration(envOrDefaultInt("DELIVERY_TIMEOUT_SECONDS", 15)) * time.Second,

		Timezone: envOrDefault("TIMEZONE", "UTC"),

		ProjectSeedPath: strings.TrimSpace(os.Getenv("PROJECT_SEED_PATH")),
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseAccounts reads "platform:id,platform:id" pairs, e.g.
// "twitter:101,linkedin:202". Malformed pairs are dropped.
func parseAccounts(raw string) map[string]int {
	accounts := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		platform, id, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		accounts[strings.ToLower(strings.TrimSpace(platform))] = n
	}
	return accounts
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
