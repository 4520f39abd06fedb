// Package classify implements the staged description-to-code classification
// pipeline: direct text search, curated keyword routing, business-chapter
// narrowing and seed-based similarity, merged into one ranked result set.
package classify

import (
	"fmt"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// Config carries the tunable inputs of the pipeline. Keyword mappings and
// business profiles normally come from storage; defaults exist so the
// pipeline degrades to pure text search when the curated tables are empty.
type Config struct {
	PriorityBoosts   map[string]float64
	KeywordMappings  []model.KeywordMapping
	BusinessProfiles []model.BusinessProfile
	StageTimeout     time.Duration
	MaxResults       int
	SearchLimit      int
}

// DefaultConfig returns the stock pipeline tuning.
func DefaultConfig() Config {
	return Config{
		PriorityBoosts: map[string]float64{
			"high":   0.2,
			"medium": 0.1,
			"low":    0.05,
		},
		StageTimeout: 5 * time.Second,
		MaxResults:   10,
		SearchLimit:  25,
	}
}

// Validate checks the config for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive", common.ErrInvalidConfig)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("%w: search limit must be positive", common.ErrInvalidConfig)
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("%w: stage timeout must be positive", common.ErrInvalidConfig)
	}

	for priority, boost := range c.PriorityBoosts {
		switch priority {
		case "high", "medium", "low":
		default:
			return fmt.Errorf("%w: unknown priority %q", common.ErrInvalidConfig, priority)
		}
		if boost < 0 || boost > 1 {
			return fmt.Errorf("%w: priority boost for %s out of range", common.ErrInvalidConfig, priority)
		}
	}

	for _, mapping := range c.KeywordMappings {
		if mapping.Keyword == "" {
			return fmt.Errorf("%w: keyword mapping with empty keyword", common.ErrInvalidConfig)
		}
		if len(mapping.SearchTerms) == 0 {
			return fmt.Errorf("%w: keyword %q has no search terms", common.ErrInvalidConfig, mapping.Keyword)
		}
	}

	for _, profile := range c.BusinessProfiles {
		if profile.BusinessType == "" {
			return fmt.Errorf("%w: business profile with empty type", common.ErrInvalidConfig)
		}
		if len(profile.Chapters) == 0 {
			return fmt.Errorf("%w: business type %q has no chapters", common.ErrInvalidConfig, profile.BusinessType)
		}
	}

	return nil
}

// priorityBoost returns the additive weight for a profile priority,
// falling back to the medium weight for unknown labels.
func (c Config) priorityBoost(priority string) float64 {
	if boost, ok := c.PriorityBoosts[priority]; ok {
		return boost
	}
	return c.PriorityBoosts["medium"]
}
