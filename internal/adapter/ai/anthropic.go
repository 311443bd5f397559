package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const anthropicVersion = "2023-06-01"

// AnthropicConfig holds the configuration for the Anthropic Messages API.
type AnthropicConfig struct {
	BaseURL string // e.g. https://api.anthropic.com
	Model   string // e.g. claude-sonnet-4-5
	APIKey  string
	Timeout time.Duration // per-call bound; zero means 60s
}

// AnthropicProvider implements port.TextGenerator using the Anthropic
// Messages API.
type AnthropicProvider struct {
	cfg        AnthropicConfig
	httpClient *http.Client
}

// NewAnthropicProvider creates a new Anthropic-backed text generator.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ModelName returns the model identifier.
func (a *AnthropicProvider) ModelName() string {
	return a.cfg.Model
}

// Generate sends a single-turn prompt and returns the model's text response.
func (a *AnthropicProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]interface{}{
		"model":      a.cfg.Model,
		"max_tokens": 1000,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt},
		},
	}
	if systemPrompt != "" {
		payload["system"] = systemPrompt
	}

	body, err := a.post(ctx, "/v1/messages", payload)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("anthropic decode: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic generate: empty response")
}

// post is a helper for POST requests to the Anthropic API.
func (a *AnthropicProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
