package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCatalog is an in-memory catalog good enough for stage testing.
type memCatalog struct {
	records    []model.TariffRecord
	searchErr  error
	prefixErr  error
	searchHits int
	prefixWait bool
}

func (m *memCatalog) GetByCode(_ context.Context, code, _ string) (*model.TariffRecord, error) {
	for i := range m.records {
		if m.records[i].Code == code {
			return &m.records[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memCatalog) SearchByPrefix(ctx context.Context, prefix, _ string, limit int) ([]model.TariffRecord, error) {
	if m.prefixWait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.prefixErr != nil {
		return nil, m.prefixErr
	}
	var out []model.TariffRecord
	for _, record := range m.records {
		if strings.HasPrefix(record.Code, prefix) {
			out = append(out, record)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memCatalog) SearchDescriptions(_ context.Context, terms []string, chapters []int, limit int) ([]model.TariffRecord, error) {
	m.searchHits++
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	chapterOK := func(chapter int) bool {
		if len(chapters) == 0 {
			return true
		}
		for _, c := range chapters {
			if c == chapter {
				return true
			}
		}
		return false
	}

	var out []model.TariffRecord
	for _, record := range m.records {
		if !chapterOK(record.Chapter) {
			continue
		}
		lower := strings.ToLower(record.Description)
		for _, term := range terms {
			if strings.Contains(lower, strings.ToLower(term)) {
				out = append(out, record)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func electricalCatalog() *memCatalog {
	return &memCatalog{records: []model.TariffRecord{
		{Code: "8544429000", Description: "Insulated electric conductors, fitted with connectors, for a voltage not exceeding 1,000 V", Chapter: 85, CountrySource: "US", MFNRate: 2.6},
		{Code: "8544421000", Description: "Insulated electric conductors, fitted with connectors, of a kind used for telecommunications", Chapter: 85, CountrySource: "US", MFNRate: 0},
		{Code: "854411", Description: "Winding wire of copper, insulated", Chapter: 85, CountrySource: "US", MFNRate: 3.5},
		{Code: "870830", Description: "Brakes and servo-brakes and parts thereof, for motor vehicles", Chapter: 87, CountrySource: "US", MFNRate: 2.5},
		{Code: "090710", Description: "Cloves, whole fruit, neither crushed nor ground", Chapter: 9, CountrySource: "US", MFNRate: 0},
	}}
}

func newTestPipeline(t *testing.T, catalog *memCatalog, mutate func(*Config)) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPipeline(catalog, cfg)
	require.NoError(t, err)
	return p
}

func TestClassifyDirectStage(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), nil)

	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, model.MatchDirect, top.MatchType)
	assert.Equal(t, 85, top.Chapter)
	assert.True(t, strings.HasPrefix(top.Code, "8544"))
	assert.GreaterOrEqual(t, top.Confidence, 70)
	assert.True(t, top.USMCAEligible, "preferential rate below the base rate")
	assert.NotEmpty(t, top.ConfidenceText)
	assert.NotEmpty(t, top.DisplayCode)
}

func TestClassifyKeywordStage(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), func(cfg *Config) {
		cfg.KeywordMappings = []model.KeywordMapping{{
			Keyword:         "brake",
			Category:        "automotive",
			SearchTerms:     []string{"brakes", "servo"},
			Chapters:        []int{87},
			ConfidenceBoost: 0.1,
		}}
	})

	results, err := p.Classify(context.Background(), "ceramic brake pads", "")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var found bool
	for _, result := range results {
		if result.Code == "870830" {
			found = true
			assert.Equal(t, model.MatchKeyword, result.MatchType)
		}
	}
	assert.True(t, found, "keyword stage should surface 870830")
}

func TestClassifyChapterStage(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), func(cfg *Config) {
		cfg.BusinessProfiles = []model.BusinessProfile{{
			BusinessType: "spice importer",
			Priority:     "high",
			Chapters:     []int{9},
		}}
	})

	results, err := p.Classify(context.Background(), "whole cloves", "spice importer")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "090710", top.Code)
	assert.Equal(t, model.MatchChapter, top.MatchType)
}

func TestClassifyCorroborationOutranksSingleStage(t *testing.T) {
	catalog := electricalCatalog()
	p := newTestPipeline(t, catalog, func(cfg *Config) {
		cfg.KeywordMappings = []model.KeywordMapping{{
			Keyword:         "conductor",
			SearchTerms:     []string{"conductors", "connectors"},
			Chapters:        []int{85},
			ConfidenceBoost: 0.1,
		}}
	})

	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The top code fires in both the direct and keyword stages, so it
	// carries the corroboration bump and outranks everything else.
	assert.Equal(t, "8544429000", results[0].Code)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Confidence, results[0].Confidence)
	}
}

func TestClassifyEmptyDescription(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), nil)

	_, err := p.Classify(context.Background(), "   ", "")
	assert.ErrorIs(t, err, common.ErrEmptyDescription)
}

func TestClassifyNoMatches(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), nil)

	results, err := p.Classify(context.Background(), "xylophone maintenance robots", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClassifySimilarityStageSurfacesSiblings(t *testing.T) {
	catalog := electricalCatalog()
	catalog.records = append(catalog.records, model.TariffRecord{
		Code:          "8544700000",
		Description:   "Optical fiber conductors, made up of individually sheathed fibers",
		Chapter:       85,
		CountrySource: "US",
	})
	p := newTestPipeline(t, catalog, nil)

	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)

	// The optical-fiber sibling shares heading 8544 but overlaps the query
	// too weakly for the direct stage; only seed expansion can surface it.
	var sibling *model.ClassificationResult
	for i := range results {
		if results[i].Code == "8544700000" {
			sibling = &results[i]
		}
	}
	require.NotNil(t, sibling, "same-heading sibling should surface")
	assert.Equal(t, model.MatchSimilarity, sibling.MatchType)
}

func TestClassifySimilarityStageTimesOut(t *testing.T) {
	catalog := electricalCatalog()
	catalog.prefixWait = true
	p := newTestPipeline(t, catalog, func(cfg *Config) {
		cfg.StageTimeout = 20 * time.Millisecond
	})

	// A hung prefix search must be cut off by the stage timeout, leaving
	// the concurrent stages' results intact.
	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, result := range results {
		assert.NotEqual(t, model.MatchSimilarity, result.MatchType)
	}
}

func TestClassifySurvivesStageFailure(t *testing.T) {
	catalog := electricalCatalog()
	catalog.prefixErr = errors.New("catalog offline")
	p := newTestPipeline(t, catalog, nil)

	// Similarity failing must not sink the whole classification.
	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestClassifyAllStagesFailed(t *testing.T) {
	catalog := electricalCatalog()
	catalog.searchErr = errors.New("catalog offline")
	p := newTestPipeline(t, catalog, func(cfg *Config) {
		cfg.KeywordMappings = []model.KeywordMapping{{
			Keyword:     "conductor",
			SearchTerms: []string{"conductors"},
			Chapters:    []int{85},
		}}
		cfg.BusinessProfiles = []model.BusinessProfile{{
			BusinessType: "electronics",
			Priority:     "high",
			Chapters:     []int{85},
		}}
	})

	_, err := p.Classify(context.Background(), "insulated electric conductors", "electronics")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrClassificationFailed)
}

func TestClassifyResultsCached(t *testing.T) {
	catalog := electricalCatalog()
	p := newTestPipeline(t, catalog, nil)

	ctx := context.Background()
	first, err := p.Classify(ctx, "insulated electric conductors", "")
	require.NoError(t, err)
	hits := catalog.searchHits

	second, err := p.Classify(ctx, "Insulated Electric Conductors", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, hits, catalog.searchHits, "repeat query must not touch the catalog")
}

func TestClassifyMaxResultsHonored(t *testing.T) {
	p := newTestPipeline(t, electricalCatalog(), func(cfg *Config) {
		cfg.MaxResults = 1
	})

	results, err := p.Classify(context.Background(), "insulated electric conductors with connectors", "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: nil},
		{
			name:    "zero max results",
			mutate:  func(cfg *Config) { cfg.MaxResults = 0 },
			wantErr: true,
		},
		{
			name:    "unknown priority",
			mutate:  func(cfg *Config) { cfg.PriorityBoosts["urgent"] = 0.5 },
			wantErr: true,
		},
		{
			name: "mapping without search terms",
			mutate: func(cfg *Config) {
				cfg.KeywordMappings = []model.KeywordMapping{{Keyword: "cable"}}
			},
			wantErr: true,
		},
		{
			name: "profile without chapters",
			mutate: func(cfg *Config) {
				cfg.BusinessProfiles = []model.BusinessProfile{{BusinessType: "retail"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfidenceText(t *testing.T) {
	assert.Equal(t, "Excellent match", ConfidenceText(92))
	assert.Equal(t, "Very good match", ConfidenceText(75))
	assert.Equal(t, "Good match", ConfidenceText(60))
	assert.Equal(t, "Fair match", ConfidenceText(35))
	assert.Equal(t, "Poor match", ConfidenceText(15))
}

func TestTokenize(t *testing.T) {
	terms := tokenize("Insulated electric conductors, for a voltage not exceeding 1,000 V")
	assert.Contains(t, terms, "insulated")
	assert.Contains(t, terms, "conductors")
	assert.NotContains(t, terms, "for")
	assert.NotContains(t, terms, "a")

	assert.Empty(t, tokenize(""))
	assert.Empty(t, tokenize("a of to"))
}
