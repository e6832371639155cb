package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tradewind/tariffflow/internal/ai"
	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/compliance"
	"github.com/tradewind/tariffflow/internal/confidence"
	"github.com/tradewind/tariffflow/internal/config"
	"github.com/tradewind/tariffflow/internal/engine"
	"github.com/tradewind/tariffflow/internal/hsvalidator"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/rules"
	"github.com/tradewind/tariffflow/internal/service"
	"github.com/tradewind/tariffflow/internal/storage"
)

// loadConfig reads the typed application configuration from Viper.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the decision database and applies pending migrations.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("could not open the decision database at %s", cfg.Database.Path), err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, common.NewUserError("the decision database schema could not be migrated", err)
	}

	return store, nil
}

// buildSources constructs the configured AI sources in priority order.
func buildSources(cfg *config.Config, logger *slog.Logger) ([]engine.SourceConfig, error) {
	if len(cfg.Sources) == 0 {
		return nil, common.NewUserError(
			"no classification sources configured; add a sources entry to your config file",
			common.ErrMissingConfig)
	}

	sources := make([]engine.SourceConfig, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, err := ai.NewSource(sc.Name, ai.Config{
			Provider:   sc.Provider,
			APIKey:     sc.APIKey,
			Model:      sc.Model,
			BaseURL:    sc.BaseURL,
			MaxRetries: sc.MaxRetries,
			RetryDelay: sc.RetryDelay,
			CacheTTL:   sc.CacheTTL,
			CacheSize:  sc.CacheSize,
			RateLimit:  sc.RateLimit,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build source %q: %w", sc.Name, err)
		}
		sources = append(sources, engine.SourceConfig{
			Source:   src,
			Weight:   sc.Weight,
			Priority: sc.Priority,
		})
	}
	return sources, nil
}

// buildEngine wires the full classification pipeline from configuration.
// The storage may be nil for pipeline-only use.
func buildEngine(cfg *config.Config, store service.Storage, logger *slog.Logger) (*engine.Engine, error) {
	sources, err := buildSources(cfg, logger)
	if err != nil {
		return nil, err
	}

	engineCfg := engine.DefaultConfig()
	if cfg.Engine.AcceptConfidence > 0 {
		engineCfg.AcceptConfidence = cfg.Engine.AcceptConfidence
	}
	if cfg.Engine.BatchWindow > 0 {
		engineCfg.BatchWindow = cfg.Engine.BatchWindow
	}
	if cfg.Engine.BatchPause > 0 {
		engineCfg.BatchPause = cfg.Engine.BatchPause
	}
	if cfg.Engine.HistoryWindow > 0 {
		engineCfg.HistoryWindow = cfg.Engine.HistoryWindow
	}

	ruleSeed, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}
	restrictionSeed, err := loadRestrictions(cfg)
	if err != nil {
		return nil, err
	}
	thresholdSeed, err := loadThresholds(cfg)
	if err != nil {
		return nil, err
	}

	return engine.NewWithConfig(
		sources,
		hsvalidator.New(logger),
		rules.NewEngine(ruleSeed, logger),
		compliance.NewChecker(restrictionSeed, logger),
		confidence.NewAssessor(logger),
		confidence.NewRouter(thresholdSeed, logger),
		store,
		logger,
		engineCfg,
	), nil
}

// loadRules returns the rules from the configured file, or the built-in
// seed when no file is set.
func loadRules(cfg *config.Config) ([]model.ClassificationRule, error) {
	if cfg.Rules.Path == "" {
		return rules.DefaultRules(), nil
	}
	var out []model.ClassificationRule
	if err := readYAMLFile(cfg.Rules.Path, &out); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return out, nil
}

func loadRestrictions(cfg *config.Config) ([]model.TradeRestriction, error) {
	if cfg.Restrictions.Path == "" {
		return compliance.DefaultRestrictions(), nil
	}
	var out []model.TradeRestriction
	if err := readYAMLFile(cfg.Restrictions.Path, &out); err != nil {
		return nil, fmt.Errorf("failed to load restrictions: %w", err)
	}
	return out, nil
}

func loadThresholds(cfg *config.Config) ([]model.ConfidenceThreshold, error) {
	if cfg.Thresholds.Path == "" {
		return confidence.DefaultThresholds(), nil
	}
	var out []model.ConfidenceThreshold
	if err := readYAMLFile(cfg.Thresholds.Path, &out); err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}
	return out, nil
}

func readYAMLFile(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the user's config
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func writeYAMLFile(path string, in any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// closeStorage closes the store, logging instead of failing on error.
func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		common.LogError(err, "failed to close storage", nil)
	}
}

// commandTimeout bounds a single CLI invocation against a hung provider.
const commandTimeout = 10 * time.Minute

func commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, commandTimeout)
}
