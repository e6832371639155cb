package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/tradewind/tariffflow/internal/service"
)

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	return &openAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Classify sends a classification request to OpenAI.
func (c *openAIClient) Classify(ctx context.Context, req Request) (service.AISuggestion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return service.AISuggestion{}, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestion(strings.TrimSpace(resp.Choices[0].Message.Content))
}
