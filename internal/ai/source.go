package ai

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

// Source wraps a raw provider client with caching, rate limiting and retry,
// and implements service.AISource.
type Source struct {
	client    Client
	cache     *suggestionCache
	limiter   *rate.Limiter
	logger    *slog.Logger
	name      string
	retryOpts service.RetryOptions
}

// NewSource creates a named AI source from the provider configuration.
func NewSource(name string, cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), 1)
	}

	return &Source{
		name:      name,
		client:    client,
		cache:     newSuggestionCache(cfg.CacheSize, cfg.CacheTTL),
		limiter:   limiter,
		retryOpts: retryOpts,
		logger:    logger.With("source", name),
	}, nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Classify returns a suggestion for the product, consulting the cache first
// and retrying transient provider failures.
func (s *Source) Classify(ctx context.Context, product model.Product) (*service.AISuggestion, error) {
	req := Request{
		Description:        product.Description,
		Category:           product.Category,
		OriginCountry:      product.OriginCountry,
		DestinationCountry: product.DestinationCountry,
		Materials:          product.Materials,
		IntendedUse:        product.IntendedUse,
	}

	key := cacheKey(req)
	if cached, ok := s.cache.get(key); ok {
		s.logger.Debug("suggestion cache hit", "hs_code", cached.HSCode)
		suggestion := cached
		return &suggestion, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var suggestion service.AISuggestion
	err := common.WithRetry(ctx, func() error {
		var classifyErr error
		suggestion, classifyErr = s.client.Classify(ctx, req)
		return classifyErr
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	s.cache.set(key, suggestion)
	s.logger.Debug("suggestion received",
		"hs_code", suggestion.HSCode,
		"confidence", suggestion.Confidence)

	return &suggestion, nil
}
