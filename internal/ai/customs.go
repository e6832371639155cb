package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

// customsClient implements the Client interface against a customs rulings
// database. It searches prior rulings by description and returns the closest
// match as a suggestion.
type customsClient struct {
	httpClient *http.Client
	baseURL    string
}

// newCustomsClient creates a new customs rulings client. The base URL is
// deployment-specific and must be configured.
func newCustomsClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("customs database base URL is required")
	}

	return &customsClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

type customsRuling struct {
	HSCode     string  `json:"hs_code"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}

// Classify searches the rulings database for the closest prior ruling.
func (c *customsClient) Classify(ctx context.Context, req Request) (service.AISuggestion, error) {
	query := url.Values{}
	query.Set("q", req.Description)
	if req.Category != "" {
		query.Set("category", req.Category)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/rulings/search?"+query.Encode(), nil)
	if err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to create request: %w", err)
	}

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
		return service.AISuggestion{}, statusError("customs database", resp.StatusCode, body)
	}

	var rulings []customsRuling
	if err := json.Unmarshal(body, &rulings); err != nil {
		return service.AISuggestion{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(rulings) == 0 {
		return service.AISuggestion{}, fmt.Errorf("no matching rulings")
	}

	best := rulings[0]
	for _, r := range rulings[1:] {
		if r.Similarity > best.Similarity {
			best = r
		}
	}

	// Similarity is 0-1; scale it into the confidence range shared by all
	// sources.
	return service.AISuggestion{
		HSCode:     model.HSCode(best.HSCode),
		Confidence: best.Similarity * 100,
		Reasoning:  fmt.Sprintf("Closest prior ruling: %s", best.Summary),
	}, nil
}
