// Package resolver walks the specificity ladder of a classification code
// until the catalog yields a match, grading confidence by how far the walk
// had to fall back.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/service"
)

// Confidence grading weights. Depth is the number of ladder rungs dropped
// before the catalog answered.
const (
	baseConfidence       = 100
	fallbackPenalty      = 15
	exactMatchBonus      = 10
	chapterOnlyPenalty   = 20
	minConfidence        = 10
	maxConfidence        = 100
	chapterOnlyMaxDigits = 2
)

// Options controls a resolution walk.
type Options struct {
	// Country narrows catalog lookups to one jurisdiction when non-empty.
	Country string
	// ReturnAll collects a result for every ladder rung that matches
	// instead of stopping at the first hit.
	ReturnAll bool
}

// Resolver resolves raw classification codes against the catalog.
type Resolver struct {
	catalog service.Catalog
}

// New creates a Resolver over the given catalog.
func New(catalog service.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve canonicalizes rawCode and walks its fallback ladder against the
// catalog. The first hit wins unless opts.ReturnAll is set. Returns
// common.ErrNotFound when no rung of the ladder exists in the catalog, and a
// *hscode.NormalizationError when the input cannot be canonicalized.
func (r *Resolver) Resolve(ctx context.Context, rawCode string, opts Options) ([]model.ClassificationResult, error) {
	code, notice, err := hscode.Normalize(rawCode)
	if err != nil {
		return nil, err
	}

	ladder := hscode.FallbackLadder(code)
	var results []model.ClassificationResult

	for depth, prefix := range ladder {
		record, err := r.catalog.GetByCode(ctx, prefix, opts.Country)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving %s at %s: %w", code, prefix, err)
		}

		result := buildResult(record, code, depth, notice)
		results = append(results, result)

		if !opts.ReturnAll {
			break
		}
	}

	if len(results) == 0 {
		slog.Debug("No catalog entry on any ladder rung",
			"code", code,
			"rungs", len(ladder))
		return nil, fmt.Errorf("code %s: %w", code, common.ErrNotFound)
	}

	return results, nil
}

func buildResult(record *model.TariffRecord, normalized string, depth int, notice string) model.ClassificationResult {
	confidence := baseConfidence - depth*fallbackPenalty
	if len(record.Code) == len(normalized) {
		confidence += exactMatchBonus
	}
	if len(record.Code) <= chapterOnlyMaxDigits {
		confidence -= chapterOnlyPenalty
	}
	confidence = clampConfidence(confidence)

	matchType := model.MatchExact
	if depth > 0 {
		matchType = model.MatchFallback
	}

	note := notice
	if depth > 0 {
		fallbackNote := fmt.Sprintf("resolved at %d-digit level", len(record.Code))
		if note != "" {
			note += "; " + fallbackNote
		} else {
			note = fallbackNote
		}
	}

	return model.ClassificationResult{
		Code:          record.Code,
		DisplayCode:   hscode.FormatDotted(record.Code),
		Description:   record.Description,
		MatchType:     matchType,
		SearchMethod:  "hierarchy",
		CountrySource: record.CountrySource,
		Note:          note,
		Chapter:       record.Chapter,
		Confidence:    confidence,
		FallbackLevel: depth,
		MFNRate:       record.MFNRate,
		USMCARate:     record.USMCARate,
		USMCAEligible: record.USMCAEligible(),
	}
}

func clampConfidence(confidence int) int {
	if confidence < minConfidence {
		return minConfidence
	}
	if confidence > maxConfidence {
		return maxConfidence
	}
	return confidence
}
