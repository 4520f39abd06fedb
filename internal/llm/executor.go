package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/service"
)

// Tier identifiers in execution results. Memo hits report TierCache like
// the persistent chain; the tier shape stays 1, 2 or 3.
const (
	TierPrimary   = 1
	TierSecondary = 2
	TierCache     = 3
)

// AllTiersFailedError reports that every tier of the chain came up empty.
// Both provider errors are preserved so operators can see each failure.
type AllTiersFailedError struct {
	PrimaryErr   error
	SecondaryErr error
}

func (e *AllTiersFailedError) Error() string {
	return fmt.Sprintf("all classification tiers failed: primary: %v; secondary: %v; no cached result",
		e.PrimaryErr, e.SecondaryErr)
}

func (e *AllTiersFailedError) Unwrap() []error {
	return []error{e.PrimaryErr, e.SecondaryErr}
}

// ExecutionResult is the outcome of one run down the tier chain.
type ExecutionResult struct {
	Suggestion Suggestion
	Provider   string
	Warning    string
	Tier       int
	Duration   time.Duration
	CacheAge   time.Duration
	Cached     bool
	Stale      bool
}

// ExecutorConfig tunes the tier chain.
type ExecutorConfig struct {
	SessionID   string
	TierTimeout time.Duration
	CacheTTL    time.Duration
	CacheSize   int
	MaxSessions int
	Retry       service.RetryOptions
}

// Executor runs the tiered classification chain: primary provider, secondary
// provider, then the persistent enrichment cache. Safe for concurrent use.
type Executor struct {
	primary    Client
	secondary  Client
	enrichment service.EnrichmentStore
	cache      *suggestionCache
	cfg        ExecutorConfig
	saves      sync.WaitGroup
}

// NewExecutor wires the chain. Either provider may be nil; a nil tier is
// treated as failed. The enrichment store must not be nil.
func NewExecutor(primary, secondary Client, enrichment service.EnrichmentStore, cfg ExecutorConfig) (*Executor, error) {
	if enrichment == nil {
		return nil, fmt.Errorf("%w: enrichment store is required", common.ErrMissingConfig)
	}
	if cfg.TierTimeout <= 0 {
		cfg.TierTimeout = 30 * time.Second
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = service.RetryOptions{MaxAttempts: 2, InitialDelay: 200 * time.Millisecond}
	}

	return &Executor{
		primary:    primary,
		secondary:  secondary,
		enrichment: enrichment,
		cache:      newSuggestionCache(cfg.CacheTTL, cfg.CacheSize),
		cfg:        cfg,
	}, nil
}

// ExecuteWithFallback classifies a description, trying each tier in order.
// The optional code, when known, lets the Tier-3 chain search recent session
// history as well. Returns *AllTiersFailedError when nothing answered.
func (e *Executor) ExecuteWithFallback(ctx context.Context, description, code string) (ExecutionResult, error) {
	start := time.Now()

	if suggestion, provider, age, ok := e.cache.get(description); ok {
		return ExecutionResult{
			Suggestion: suggestion,
			Provider:   provider,
			Tier:       TierCache,
			Duration:   time.Since(start),
			CacheAge:   age,
			Cached:     true,
		}, nil
	}

	prompt := buildPrompt(description, code)

	suggestion, primaryErr := e.callProvider(ctx, e.primary, prompt)
	if primaryErr == nil {
		e.remember(description, suggestion, e.primary.Provider())
		return ExecutionResult{
			Suggestion: suggestion,
			Provider:   e.primary.Provider(),
			Tier:       TierPrimary,
			Duration:   time.Since(start),
		}, nil
	}
	slog.Warn("Primary classification provider failed",
		"error", primaryErr)

	suggestion, secondaryErr := e.callProvider(ctx, e.secondary, prompt)
	if secondaryErr == nil {
		e.remember(description, suggestion, e.secondary.Provider())
		return ExecutionResult{
			Suggestion: suggestion,
			Provider:   e.secondary.Provider(),
			Tier:       TierSecondary,
			Duration:   time.Since(start),
			Warning:    fmt.Sprintf("primary provider unavailable: %v", primaryErr),
		}, nil
	}
	slog.Warn("Secondary classification provider failed",
		"error", secondaryErr)

	if result, ok := e.tierThree(ctx, description, code); ok {
		result.Duration = time.Since(start)
		result.Warning = fmt.Sprintf("all providers unavailable (primary: %v; secondary: %v), serving cached result",
			primaryErr, secondaryErr)
		return result, nil
	}

	return ExecutionResult{Duration: time.Since(start)}, &AllTiersFailedError{
		PrimaryErr:   primaryErr,
		SecondaryErr: secondaryErr,
	}
}

// tierThree walks the persistent fallbacks: the enrichment cache by
// description then code, then recent session history, then the static table.
func (e *Executor) tierThree(ctx context.Context, description, code string) (ExecutionResult, bool) {
	record, err := e.enrichment.LookupEnrichment(ctx, description, "")
	if err != nil && code != "" && errors.Is(err, common.ErrNotFound) {
		record, err = e.enrichment.LookupEnrichment(ctx, "", code)
	}
	if err == nil {
		return cachedResult(record), true
	}
	if !errors.Is(err, common.ErrNotFound) {
		slog.Warn("Enrichment lookup failed",
			"error", err)
	}

	if code != "" {
		record, err = e.enrichment.LookupSessionEnrichment(ctx, code, e.cfg.MaxSessions)
		if err == nil {
			return cachedResult(record), true
		}
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Session enrichment lookup failed",
				"error", err)
		}
	}

	if suggestion, ok := lookupStatic(description); ok {
		return ExecutionResult{
			Suggestion: suggestion,
			Provider:   "static",
			Tier:       TierCache,
			Cached:     true,
			Stale:      true,
		}, true
	}

	return ExecutionResult{}, false
}

func cachedResult(record *model.EnrichmentRecord) ExecutionResult {
	return ExecutionResult{
		Suggestion: Suggestion{
			Code:        record.Code,
			Explanation: record.Explanation,
			Confidence:  record.Confidence,
			MFNRate:     record.MFNRate,
			USMCARate:   record.USMCARate,
		},
		Provider: record.Source,
		Tier:     TierCache,
		CacheAge: record.Age(),
		Cached:   true,
	}
}

// callProvider runs one tier with its own timeout and short retry budget.
func (e *Executor) callProvider(ctx context.Context, client Client, prompt string) (Suggestion, error) {
	if client == nil {
		return Suggestion{}, errors.New("provider not configured")
	}

	tierCtx, cancel := context.WithTimeout(ctx, e.cfg.TierTimeout)
	defer cancel()

	var suggestion Suggestion
	err := common.WithRetry(tierCtx, func() error {
		var callErr error
		suggestion, callErr = client.Suggest(tierCtx, prompt)
		return callErr
	}, e.cfg.Retry)
	if err != nil {
		return Suggestion{}, err
	}
	return suggestion, nil
}

// remember memoizes a fresh answer and persists it asynchronously so the
// caller never waits on the enrichment write.
func (e *Executor) remember(description string, suggestion Suggestion, provider string) {
	e.cache.put(description, suggestion, provider)

	e.saves.Add(1)
	go func() {
		defer e.saves.Done()

		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		record := enrichmentFromSuggestion(description, suggestion, provider, e.cfg.SessionID)
		if err := e.enrichment.SaveEnrichment(saveCtx, record); err != nil {
			slog.Warn("Failed to persist enrichment",
				"description", description,
				"error", err)
		}
	}()
}

// Close waits for outstanding enrichment writes.
func (e *Executor) Close() {
	e.saves.Wait()
}

func enrichmentFromSuggestion(description string, suggestion Suggestion, provider, sessionID string) *model.EnrichmentRecord {
	return &model.EnrichmentRecord{
		SessionID:   sessionID,
		Description: description,
		Code:        suggestion.Code,
		Explanation: suggestion.Explanation,
		Source:      provider,
		Confidence:  suggestion.Confidence,
		MFNRate:     suggestion.MFNRate,
		USMCARate:   suggestion.USMCARate,
	}
}

func buildPrompt(description, code string) string {
	if code != "" {
		return fmt.Sprintf("Classify this product: %q. A candidate code is %s; confirm or correct it.", description, code)
	}
	return fmt.Sprintf("Classify this product: %q.", description)
}
