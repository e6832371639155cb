// Package ai provides the external classification source clients and the
// plumbing (cache, rate limit, retry) shared between them.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/service"
)

// Client is the raw provider interface. Implementations return the parsed
// suggestion or an error; cross-cutting concerns live in Source.
type Client interface {
	Classify(ctx context.Context, req Request) (service.AISuggestion, error)
}

// Request is the provider-independent classification request payload.
type Request struct {
	Description        string
	Category           string
	OriginCountry      string
	DestinationCountry string
	Materials          []string
	IntendedUse        string
}

// Config holds configuration for one AI source.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	CacheSize   int
	RateLimit   int // requests per minute; 0 disables limiting
	MaxTokens   int
	Temperature float32
}

// statusError classifies a non-OK provider response for the retry layer:
// 429 carries the rate-limit sentinel, other 4xx are permanent, 5xx stay
// retryable.
func statusError(provider string, status int, body []byte) error {
	err := fmt.Errorf("%s error (status %d): %s", provider, status, string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case status >= 400 && status < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

const systemPrompt = "You are a customs tariff classification assistant. " +
	"Given a product description, respond with ONLY a valid JSON object of the form " +
	`{"hs_code": "<6-10 digit HS code>", "confidence": <0-100>, "reasoning": "<short explanation>"}. ` +
	"Do not include any text outside the JSON object."
