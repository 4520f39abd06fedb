package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/service"
)

// Pipeline runs the staged classification search. Safe for concurrent use.
type Pipeline struct {
	catalog service.Catalog
	cache   *resultCache
	cfg     Config
}

// NewPipeline creates a Pipeline over the given catalog.
func NewPipeline(catalog service.Catalog, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		catalog: catalog,
		cache:   newResultCache(),
		cfg:     cfg,
	}, nil
}

// Classify runs every applicable stage against the description and returns
// ranked results, best first. The direct, keyword and chapter stages run
// concurrently; the similarity stage runs after them because it needs their
// strongest candidates as seeds. A failing stage is logged and skipped; the
// call errors only when every stage fails.
func (p *Pipeline) Classify(ctx context.Context, description, businessType string) ([]model.ClassificationResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, common.ErrEmptyDescription
	}

	cacheKey := strings.ToLower(description) + "|" + strings.ToLower(businessType)
	if cached, ok := p.cache.get(cacheKey); ok {
		return cached, nil
	}

	terms := tokenize(description)

	var (
		mu         sync.Mutex
		staged     = make(map[model.MatchType][]candidate, 4)
		stageErrs  []error
		stageCount int
	)

	g, gctx := errgroup.WithContext(ctx)

	runStage := func(name model.MatchType, run func(context.Context) ([]candidate, error)) func() error {
		return func() error {
			stageCtx, cancel := context.WithTimeout(gctx, p.cfg.StageTimeout)
			defer cancel()

			candidates, err := run(stageCtx)

			mu.Lock()
			defer mu.Unlock()
			stageCount++
			if err != nil {
				stageErrs = append(stageErrs, fmt.Errorf("%s stage: %w", name, err))
				slog.Warn("Classification stage failed",
					"stage", string(name),
					"error", err)
				return nil
			}
			staged[name] = candidates
			return nil
		}
	}

	g.Go(runStage(model.MatchDirect, func(c context.Context) ([]candidate, error) {
		return p.directStage(c, description, terms)
	}))
	g.Go(runStage(model.MatchKeyword, func(c context.Context) ([]candidate, error) {
		return p.keywordStage(c, description, terms)
	}))
	g.Go(runStage(model.MatchChapter, func(c context.Context) ([]candidate, error) {
		return p.chapterStage(c, businessType, terms)
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(stageErrs) == stageCount {
		return nil, fmt.Errorf("%w: all stages failed: %v", common.ErrClassificationFailed, stageErrs)
	}

	// Seeds come from the concurrent stages in evidence order.
	ordered := make([]candidate, 0, 32)
	for _, method := range []model.MatchType{model.MatchDirect, model.MatchKeyword, model.MatchChapter} {
		ordered = append(ordered, staged[method]...)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].score > ordered[j].score })

	simCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	simCandidates, err := p.similarityStage(simCtx, terms, selectSeeds(ordered))
	cancel()
	if err != nil {
		slog.Warn("Classification stage failed",
			"stage", string(model.MatchSimilarity),
			"error", err)
	} else {
		ordered = append(ordered, simCandidates...)
	}

	results := p.merge(ordered)
	if len(results) > p.cfg.MaxResults {
		results = results[:p.cfg.MaxResults]
	}

	p.cache.put(cacheKey, results)
	return results, nil
}

// merge deduplicates candidates by code. The first occurrence keeps its
// method; codes surfaced by more than one stage earn a corroboration bump.
func (p *Pipeline) merge(candidates []candidate) []model.ClassificationResult {
	type entry struct {
		result       model.ClassificationResult
		corroborated bool
	}

	order := make([]string, 0, len(candidates))
	byCode := make(map[string]*entry, len(candidates))

	for _, c := range candidates {
		if existing, ok := byCode[c.record.Code]; ok {
			if existing.result.MatchType != c.method && !existing.corroborated {
				existing.corroborated = true
				existing.result.Confidence = clampFinal(existing.result.Confidence + corroborationBonus)
				existing.result.ConfidenceText = ConfidenceText(existing.result.Confidence)
			}
			continue
		}

		confidence := finalConfidence(c)
		byCode[c.record.Code] = &entry{result: model.ClassificationResult{
			Code:           c.record.Code,
			DisplayCode:    hscode.FormatDotted(c.record.Code),
			Description:    c.record.Description,
			MatchType:      c.method,
			SearchMethod:   string(c.method),
			ConfidenceText: ConfidenceText(confidence),
			CountrySource:  c.record.CountrySource,
			Chapter:        c.record.Chapter,
			Confidence:     confidence,
			MFNRate:        c.record.MFNRate,
			USMCARate:      c.record.USMCARate,
			USMCAEligible:  c.record.USMCAEligible(),
		}}
		order = append(order, c.record.Code)
	}

	results := make([]model.ClassificationResult, 0, len(order))
	for _, code := range order {
		results = append(results, byCode[code].result)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

func clampFinal(confidence int) int {
	if confidence < minFinalConfidence {
		return minFinalConfidence
	}
	if confidence > maxFinalConfidence {
		return maxFinalConfidence
	}
	return confidence
}
