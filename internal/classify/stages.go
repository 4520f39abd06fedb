package classify

import (
	"context"
	"strings"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// directStage searches catalog descriptions with the query's own terms.
// Strong lexical overlap plus real duty data makes the best evidence the
// pipeline can produce without curation.
func (p *Pipeline) directStage(ctx context.Context, description string, terms []string) ([]candidate, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	records, err := p.catalog.SearchDescriptions(ctx, terms, nil, p.cfg.SearchLimit)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(description))
	var candidates []candidate
	for _, record := range records {
		score := termOverlap(terms, record.Description) * directOverlapWeight

		lower := strings.ToLower(record.Description)
		if strings.Contains(lower, query) || strings.Contains(query, lower) {
			score += directSubstringBonus
		}
		if record.HasRealRates() {
			score += directRateBonus
		}
		if record.MFNRate != record.USMCARate {
			score += directRateBonus
		}

		if score >= directThreshold {
			candidates = append(candidates, candidate{
				record: record,
				method: model.MatchDirect,
				score:  score,
			})
		}
	}

	return candidates, nil
}

// keywordStage fires curated mappings whose keyword appears in the query and
// searches with the mapping's hand-picked terms inside its chapters.
func (p *Pipeline) keywordStage(ctx context.Context, description string, terms []string) ([]candidate, error) {
	query := strings.ToLower(description)

	var candidates []candidate
	for _, mapping := range p.cfg.KeywordMappings {
		if !strings.Contains(query, strings.ToLower(mapping.Keyword)) {
			continue
		}

		records, err := p.catalog.SearchDescriptions(ctx, mapping.SearchTerms, mapping.Chapters, p.cfg.SearchLimit)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			termRatio := termOverlap(mapping.SearchTerms, record.Description)
			score := keywordBase +
				termRatio*keywordTermWeight +
				mapping.ConfidenceBoost +
				termOverlap(terms, record.Description)*keywordOverlapWeight

			if score >= keywordThreshold {
				candidates = append(candidates, candidate{
					record: record,
					method: model.MatchKeyword,
					score:  score,
				})
			}
		}
	}

	return candidates, nil
}

// chapterStage narrows the search to the chapters of the caller's business
// profile. Profile priority decides how much trust the narrowing earns.
func (p *Pipeline) chapterStage(ctx context.Context, businessType string, terms []string) ([]candidate, error) {
	if businessType == "" || len(terms) == 0 {
		return nil, nil
	}

	var profile *model.BusinessProfile
	for i := range p.cfg.BusinessProfiles {
		if strings.EqualFold(p.cfg.BusinessProfiles[i].BusinessType, businessType) {
			profile = &p.cfg.BusinessProfiles[i]
			break
		}
	}
	if profile == nil {
		return nil, nil
	}

	records, err := p.catalog.SearchDescriptions(ctx, terms, profile.Chapters, p.cfg.SearchLimit)
	if err != nil {
		return nil, err
	}

	boost := p.cfg.priorityBoost(profile.Priority)
	var candidates []candidate
	for _, record := range records {
		score := chapterBase + boost + termOverlap(terms, record.Description)*chapterOverlapWeight
		if score >= chapterThreshold {
			candidates = append(candidates, candidate{
				record: record,
				method: model.MatchChapter,
				score:  score,
			})
		}
	}

	return candidates, nil
}

// similarityStage expands the strongest earlier candidates sideways: codes
// under the same 4-digit heading as a high-scoring seed are near-neighbors
// worth surfacing even when their descriptions share little with the query.
func (p *Pipeline) similarityStage(ctx context.Context, terms []string, seeds []candidate) ([]candidate, error) {
	if len(seeds) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(seeds))
	for _, seed := range seeds {
		seen[seed.record.Code] = true
	}

	var candidates []candidate
	for _, seed := range seeds {
		heading := hscode.Heading(seed.record.Code)
		records, err := p.catalog.SearchByPrefix(ctx, heading, seed.record.CountrySource, p.cfg.SearchLimit)
		if err != nil {
			return nil, err
		}

		seedTerms := tokenize(seed.record.Description)
		for _, record := range records {
			if seen[record.Code] {
				continue
			}
			seen[record.Code] = true

			score := similarityBase +
				termOverlap(terms, record.Description)*similarityQueryWeight +
				termOverlap(seedTerms, record.Description)*similaritySeedWeight

			if score >= similarityThreshold {
				candidates = append(candidates, candidate{
					record: record,
					method: model.MatchSimilarity,
					score:  score,
				})
			}
		}
	}

	return candidates, nil
}

// selectSeeds picks the strongest candidates to anchor the similarity stage.
func selectSeeds(candidates []candidate) []candidate {
	var seeds []candidate
	for _, c := range candidates {
		if c.score >= similaritySeedMinScore {
			seeds = append(seeds, c)
		}
		if len(seeds) == similaritySeedCount {
			break
		}
	}
	return seeds
}
