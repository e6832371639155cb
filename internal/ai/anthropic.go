package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradewind/tariffflow/internal/service"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicClient implements the Client interface for the Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	endpoint    string
	temperature float32
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = anthropicEndpoint
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Classify sends a classification request to Anthropic.
func (c *anthropicClient) Classify(ctx context.Context, req Request) (service.AISuggestion, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": buildPrompt(req),
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return service.AISuggestion{}, statusError("anthropic API", resp.StatusCode, body)
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Content) == 0 {
		return service.AISuggestion{}, fmt.Errorf("no content in response")
	}

	return parseSuggestion(response.Content[0].Text)
}
