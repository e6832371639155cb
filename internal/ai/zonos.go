package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

const zonosEndpoint = "https://api.zonos.com/v2/classify"

// zonosClient implements the Client interface for the Zonos classification
// API, which returns structured suggestions directly rather than LLM text.
type zonosClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// newZonosClient creates a new Zonos API client.
func newZonosClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("zonos API key is required")
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = zonosEndpoint
	}

	return &zonosClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

type zonosRequest struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	ShipFrom    string `json:"ship_from_country,omitempty"`
	ShipTo      string `json:"ship_to_country,omitempty"`
}

type zonosResponse struct {
	Classifications []struct {
		HSCode     string  `json:"hs_code"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	} `json:"classifications"`
}

// Classify requests a structured classification from Zonos.
func (c *zonosClient) Classify(ctx context.Context, req Request) (service.AISuggestion, error) {
	jsonBody, err := json.Marshal(zonosRequest{
		Description: req.Description,
		Category:    req.Category,
		ShipFrom:    req.OriginCountry,
		ShipTo:      req.DestinationCountry,
	})
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("credentialToken", c.apiKey)

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
		return service.AISuggestion{}, statusError("zonos API", resp.StatusCode, body)
	}

	var response zonosResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Classifications) == 0 {
		return service.AISuggestion{}, fmt.Errorf("no classifications returned")
	}

	best := response.Classifications[0]
	for _, c := range response.Classifications[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}

	return service.AISuggestion{
		HSCode:     model.HSCode(best.HSCode),
		Confidence: best.Confidence,
		Reasoning:  best.Rationale,
	}, nil
}
