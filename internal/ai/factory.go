package ai

import (
	"fmt"
	"strings"
)

// newClient creates a raw provider client based on the configuration.
func newClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "zonos":
		return newZonosClient(cfg)
	case "customs":
		return newCustomsClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
