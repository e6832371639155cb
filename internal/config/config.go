package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tradewind/tariffflow/internal/common"
)

// Config is the full application configuration, loaded from the config
// file and TARIFF_ environment variables via Viper.
type Config struct {
	Logging      LoggingConfig  `mapstructure:"logging"`
	Database     DatabaseConfig `mapstructure:"database"`
	Engine       EngineConfig   `mapstructure:"engine"`
	Sources      []SourceConfig `mapstructure:"sources"`
	Rules        FileConfig     `mapstructure:"rules"`
	Restrictions FileConfig     `mapstructure:"restrictions"`
	Thresholds   FileConfig     `mapstructure:"thresholds"`
}

// FileConfig points at an optional YAML file that replaces a built-in
// registry seed (rules, restrictions or thresholds).
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig locates the decision database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig tunes the classification pipeline.
type EngineConfig struct {
	AcceptConfidence float64       `mapstructure:"accept_confidence"`
	BatchWindow      int           `mapstructure:"batch_window"`
	BatchPause       time.Duration `mapstructure:"batch_pause"`
	HistoryWindow    int           `mapstructure:"history_window"`
}

// SourceConfig describes one AI classification source.
type SourceConfig struct {
	Name       string        `mapstructure:"name"`
	Provider   string        `mapstructure:"provider"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	Weight     float64       `mapstructure:"weight"`
	Priority   int           `mapstructure:"priority"`
	RateLimit  int           `mapstructure:"rate_limit"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	CacheSize  int           `mapstructure:"cache_size"`
}

// SetDefaults registers configuration defaults with Viper. Call before
// reading the config file so absent keys resolve sensibly.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", "~/.local/share/tariff/decisions.db")
	v.SetDefault("engine.accept_confidence", 75)
	v.SetDefault("engine.batch_window", 5)
	v.SetDefault("engine.batch_pause", 250*time.Millisecond)
	v.SetDefault("engine.history_window", 5)
}

// Load unmarshals the configuration from Viper and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Rules.Path = ExpandPath(cfg.Rules.Path)
	cfg.Restrictions.Path = ExpandPath(cfg.Restrictions.Path)
	cfg.Thresholds.Path = ExpandPath(cfg.Thresholds.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints and fills per-source defaults.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown logging format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if c.Engine.AcceptConfidence < 0 || c.Engine.AcceptConfidence > 100 {
		return fmt.Errorf("%w: engine.accept_confidence must be between 0 and 100", common.ErrInvalidConfig)
	}
	if c.Engine.BatchWindow < 0 {
		return fmt.Errorf("%w: engine.batch_window cannot be negative", common.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			return fmt.Errorf("%w: sources[%d] has no name", common.ErrInvalidConfig, i)
		}
		if seen[src.Name] {
			return fmt.Errorf("%w: duplicate source name %q", common.ErrInvalidConfig, src.Name)
		}
		seen[src.Name] = true

		switch src.Provider {
		case "openai", "anthropic", "zonos", "customs":
		default:
			return fmt.Errorf("%w: source %q has unknown provider %q", common.ErrInvalidConfig, src.Name, src.Provider)
		}
		if src.Weight == 0 {
			src.Weight = 1
		}
		if src.Weight < 0 {
			return fmt.Errorf("%w: source %q has negative weight", common.ErrInvalidConfig, src.Name)
		}
	}
	return nil
}
