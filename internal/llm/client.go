// Package llm obtains classification suggestions from completion providers,
// with a tiered fallback chain ending in the local enrichment cache.
package llm

import (
	"context"
	"time"
)

// Client defines the interface for completion providers.
type Client interface {
	// Suggest asks the provider to classify a product description and
	// returns its parsed suggestion.
	Suggest(ctx context.Context, prompt string) (Suggestion, error)
	// Provider names the backing service for logging and result metadata.
	Provider() string
}

// Suggestion is a provider's parsed classification answer.
type Suggestion struct {
	Code        string
	Explanation string
	Confidence  int
	MFNRate     float64
	USMCARate   float64
}

// Config holds provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}
