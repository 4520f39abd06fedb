package llm

import (
	"fmt"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
)

// NewClient creates a completion client based on the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openrouter":
		return newOpenRouterClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
