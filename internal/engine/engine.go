// Package engine is the public face of the classification system. It routes
// requests to the hierarchy resolver, the staged pipeline and the external
// executor, and normalizes every answer through the data contract before it
// leaves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/classify"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/contract"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/llm"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/resolver"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/service"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/tariff"
)

// minDescriptionLength guards against queries too short to carry signal.
const minDescriptionLength = 3

// Options carries the engine's optional collaborators.
type Options struct {
	// Executor enables the external classification tier. Nil disables it.
	Executor *llm.Executor
	// Logger records classification attempts for auditing. Nil disables it.
	Logger service.ClassificationLogger
	// Classify tunes the staged pipeline.
	Classify classify.Config
}

// Engine coordinates all classification paths. Safe for concurrent use.
type Engine struct {
	catalog  service.Catalog
	resolver *resolver.Resolver
	pipeline *classify.Pipeline
	executor *llm.Executor
	logger   service.ClassificationLogger
	contract *contract.Contract
}

// New wires an Engine over the catalog.
func New(catalog service.Catalog, opts Options) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", common.ErrMissingConfig)
	}

	cfg := opts.Classify
	if cfg.MaxResults == 0 {
		cfg = classify.DefaultConfig()
		cfg.KeywordMappings = opts.Classify.KeywordMappings
		cfg.BusinessProfiles = opts.Classify.BusinessProfiles
	}

	pipeline, err := classify.NewPipeline(catalog, cfg)
	if err != nil {
		return nil, err
	}

	fieldContract, err := contract.DefaultContract()
	if err != nil {
		return nil, err
	}

	return &Engine{
		catalog:  catalog,
		resolver: resolver.New(catalog),
		pipeline: pipeline,
		executor: opts.Executor,
		logger:   opts.Logger,
		contract: fieldContract,
	}, nil
}

// ClassifyRequest asks for ranked code suggestions for a description.
type ClassifyRequest struct {
	Description      string
	BusinessCategory string
	Country          string
	Limit            int
}

// ClassifyResponse is the ranked answer, or a structured miss.
type ClassifyResponse struct {
	Results    []model.ClassificationResult
	Suggestion string
	Found      bool
}

// Classify returns ranked classification results for a product description.
// Digit-heavy input is routed to the code resolver; text goes through the
// staged pipeline, and the external executor backstops an empty pipeline.
func (e *Engine) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	description := strings.TrimSpace(req.Description)
	if len(description) < minDescriptionLength {
		return nil, common.NewUserError(
			"please provide a product description of at least 3 characters",
			common.ErrEmptyDescription)
	}

	if looksLikeCode(description) {
		results, err := e.resolver.Resolve(ctx, description, resolver.Options{Country: req.Country})
		if err == nil {
			e.audit(ctx, description, results)
			return &ClassifyResponse{Results: e.finalize(results, req.Limit), Found: true}, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			var normErr *hscode.NormalizationError
			if !errors.As(err, &normErr) {
				return nil, err
			}
		}
		// Unresolvable as a code, fall through to text search.
	}

	results, err := e.pipeline.Classify(ctx, description, req.BusinessCategory)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 && e.executor != nil {
		external, execErr := e.externalClassify(ctx, description)
		if execErr != nil {
			var allFailed *llm.AllTiersFailedError
			if !errors.As(execErr, &allFailed) {
				return nil, execErr
			}
			slog.Warn("External classification unavailable",
				"error", execErr)
		} else {
			results = append(results, external)
		}
	}

	if len(results) == 0 {
		return &ClassifyResponse{
			Suggestion: "try fewer, more specific terms, or the material the product is made of",
		}, nil
	}

	e.audit(ctx, description, results)
	return &ClassifyResponse{Results: e.finalize(results, req.Limit), Found: true}, nil
}

// LookupRequest resolves a known code against the catalog.
type LookupRequest struct {
	Code      string
	Country   string
	ReturnAll bool
}

// LookupResponse carries the resolved ladder, or a rate estimate when the
// catalog has no entry on any rung.
type LookupResponse struct {
	Results  []model.ClassificationResult
	Estimate *tariff.Estimate
	Found    bool
}

// Lookup resolves a classification code through the fallback hierarchy.
// When no rung matches, the response carries a chapter-average rate estimate
// instead of an error so callers always get a usable duty figure.
func (e *Engine) Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error) {
	results, err := e.resolver.Resolve(ctx, req.Code, resolver.Options{
		Country:   req.Country,
		ReturnAll: req.ReturnAll,
	})
	if err == nil {
		e.audit(ctx, req.Code, results)
		return &LookupResponse{Results: e.finalize(results, 0), Found: true}, nil
	}

	if errors.Is(err, common.ErrNotFound) {
		normalized, _, normErr := hscode.Normalize(req.Code)
		if normErr != nil {
			return nil, normErr
		}
		estimate := tariff.EstimateForCode(normalized)
		return &LookupResponse{Estimate: &estimate}, nil
	}

	return nil, err
}

// externalClassify runs the tiered executor and shapes its answer as a
// classification result.
func (e *Engine) externalClassify(ctx context.Context, description string) (model.ClassificationResult, error) {
	execution, err := e.executor.ExecuteWithFallback(ctx, description, "")
	if err != nil {
		return model.ClassificationResult{}, err
	}

	suggestion := execution.Suggestion
	result := model.ClassificationResult{
		Code:          suggestion.Code,
		Description:   suggestion.Explanation,
		MatchType:     model.MatchExternal,
		SearchMethod:  execution.Provider,
		Chapter:       hscode.Chapter(suggestion.Code),
		Confidence:    suggestion.Confidence,
		MFNRate:       suggestion.MFNRate,
		USMCARate:     suggestion.USMCARate,
		USMCAEligible: suggestion.MFNRate > 0 && suggestion.USMCARate < suggestion.MFNRate,
		Stale:         execution.Stale,
	}
	if execution.Cached && execution.CacheAge > 0 {
		result.CacheAge = formatAge(execution.CacheAge)
	}
	if execution.Warning != "" {
		result.Note = execution.Warning
	}
	return result, nil
}

// finalize runs every result through the field contract so display forms
// and clamped values are uniform regardless of which path produced them.
func (e *Engine) finalize(results []model.ClassificationResult, limit int) []model.ClassificationResult {
	out := make([]model.ClassificationResult, 0, len(results))
	for _, result := range results {
		display, err := e.contract.TransformField(
			contract.FieldHSCode, contract.LayerInterchange, contract.LayerPresentation, result.Code)
		if err == nil {
			result.DisplayCode = display.(string)
		} else if result.DisplayCode == "" {
			result.DisplayCode = result.Code
		}

		clamped, err := e.contract.TransformField(
			contract.FieldConfidence, contract.LayerAnalysis, contract.LayerInterchange, result.Confidence)
		if err == nil {
			result.Confidence = clamped.(int)
		}

		if result.USMCAEligible {
			result.SavingsPercent = tariff.Compute(result.MFNRate, result.USMCARate).SavingsPercent
		}

		if result.ConfidenceText == "" {
			result.ConfidenceText = classify.ConfidenceText(result.Confidence)
		}
		out = append(out, result)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// audit records the winning result. Logging failures never affect the
// caller's answer.
func (e *Engine) audit(ctx context.Context, query string, results []model.ClassificationResult) {
	if e.logger == nil || len(results) == 0 {
		return
	}
	best := results[0]
	if err := e.logger.LogClassification(ctx, query, best.Code, best.Confidence, string(best.MatchType)); err != nil {
		slog.Warn("Failed to record classification audit entry",
			"error", err)
	}
}

// looksLikeCode reports whether input is mostly digits, meaning the caller
// pasted a code rather than a description.
func looksLikeCode(input string) bool {
	digits := 0
	letters := 0
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters++
		}
	}
	return digits >= 2 && digits > letters
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "under a minute ago"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
