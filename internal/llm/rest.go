package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// restClient handles the shared POST-and-decode plumbing for providers
// without an SDK in our dependency tree.
type restClient struct {
	httpClient *http.Client
}

func newRESTClient(timeout time.Duration) restClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return restClient{httpClient: &http.Client{Timeout: timeout}}
}

// postJSON sends one JSON POST and decodes the response body into out.
func (c restClient) postJSON(ctx context.Context, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP status %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// OpenAIClient implements Client against the chat completions API.
type OpenAIClient struct {
	restClient
	apiKey string
	model  string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{restClient: newRESTClient(timeout), apiKey: apiKey, model: model}
}

// ID returns the stable provider identifier.
func (c *OpenAIClient) ID() string { return ProviderOpenAI }

// GenerateJSON sends the prompt and returns the raw JSON response text.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":           c.model,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.postJSON(ctx, "https://api.openai.com/v1/chat/completions", headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return CleanJSONBlock(resp.Choices[0].Message.Content), nil
}

// Close is a no-op; the REST client holds no persistent resources.
func (c *OpenAIClient) Close() error { return nil }

// AnthropicClient implements Client against the messages API.
type AnthropicClient struct {
	restClient
	apiKey string
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, model string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{restClient: newRESTClient(timeout), apiKey: apiKey, model: model}
}

// ID returns the stable provider identifier.
func (c *AnthropicClient) ID() string { return ProviderAnthropic }

// GenerateJSON sends the prompt and returns the raw JSON response text.
func (c *AnthropicClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": 4096,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := c.postJSON(ctx, "https://api.anthropic.com/v1/messages", headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return CleanJSONBlock(resp.Content[0].Text), nil
}

// Close is a no-op; the REST client holds no persistent resources.
func (c *AnthropicClient) Close() error { return nil }
