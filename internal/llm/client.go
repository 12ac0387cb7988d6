// Package llm provides the provider clients used for the daily scoring
// fan-out. Each configured provider receives the identical evidence packet
// and returns a JSON judgment; everything downstream treats providers
// uniformly through the Client interface.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider IDs. These are the keys used for consensus weights and usage
// telemetry, so they must stay stable.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client is an abstraction over LLM providers.
type Client interface {
	// ID returns the stable provider identifier.
	ID() string
	// GenerateJSON sends the prompt and returns the raw JSON response text.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// Config holds per-provider models and API keys. A provider with an empty
// key is disabled.
type Config struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	GeminiModel    string
	OpenAIModel    string
	AnthropicModel string

	Timeout time.Duration
}

// DefaultConfig returns the default model selection.
func DefaultConfig() *Config {
	return &Config{
		GeminiModel:    "gemini-2.5-pro",
		OpenAIModel:    "gpt-4o",
		AnthropicModel: "claude-sonnet-4-20250514",
		Timeout:        90 * time.Second,
	}
}

// NewClients builds one client per provider with a configured API key.
// At least one provider must be enabled.
func NewClients(ctx context.Context, cfg *Config) ([]Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var clients []Client
	if cfg.OpenAIAPIKey != "" {
		clients = append(clients, NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout))
	}
	if cfg.AnthropicAPIKey != "" {
		clients = append(clients, NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		clients = append(clients, gemini)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no provider API keys configured")
	}
	return clients, nil
}
