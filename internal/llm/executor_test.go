package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient answers with a fixed suggestion or error.
type stubClient struct {
	name       string
	suggestion Suggestion
	err        error
	calls      int
}

func (s *stubClient) Suggest(_ context.Context, _ string) (Suggestion, error) {
	s.calls++
	if s.err != nil {
		return Suggestion{}, s.err
	}
	return s.suggestion, nil
}

func (s *stubClient) Provider() string { return s.name }

// stubEnrichment is an in-memory EnrichmentStore.
type stubEnrichment struct {
	mu        sync.Mutex
	byDesc    map[string]*model.EnrichmentRecord
	byCode    map[string]*model.EnrichmentRecord
	saved     []*model.EnrichmentRecord
	lookupErr error
}

func newStubEnrichment() *stubEnrichment {
	return &stubEnrichment{
		byDesc: make(map[string]*model.EnrichmentRecord),
		byCode: make(map[string]*model.EnrichmentRecord),
	}
}

func (s *stubEnrichment) LookupEnrichment(_ context.Context, description, code string) (*model.EnrichmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	key := description
	if key == "" {
		key = code
	}
	if record, ok := s.byDesc[key]; ok {
		return record, nil
	}
	return nil, fmt.Errorf("enrichment: %w", common.ErrNotFound)
}

func (s *stubEnrichment) LookupSessionEnrichment(_ context.Context, code string, _ int) (*model.EnrichmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.byCode[code]; ok {
		return record, nil
	}
	return nil, fmt.Errorf("session enrichment: %w", common.ErrNotFound)
}

func (s *stubEnrichment) SaveEnrichment(_ context.Context, record *model.EnrichmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, record)
	s.byDesc[record.Description] = record
	return nil
}

func (s *stubEnrichment) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newTestExecutor(t *testing.T, primary, secondary Client, enrichment service.EnrichmentStore) *Executor {
	t.Helper()
	executor, err := NewExecutor(primary, secondary, enrichment, ExecutorConfig{
		SessionID:   "test-session",
		TierTimeout: time.Second,
		Retry:       service.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return executor
}

func TestExecutePrimarySucceeds(t *testing.T) {
	primary := &stubClient{name: "openrouter", suggestion: Suggestion{Code: "8544429000", Confidence: 90}}
	secondary := &stubClient{name: "anthropic"}
	enrichment := newStubEnrichment()
	executor := newTestExecutor(t, primary, secondary, enrichment)

	result, err := executor.ExecuteWithFallback(context.Background(), "usb cable", "")
	require.NoError(t, err)

	assert.Equal(t, TierPrimary, result.Tier)
	assert.Equal(t, "openrouter", result.Provider)
	assert.Equal(t, "8544429000", result.Suggestion.Code)
	assert.False(t, result.Cached)
	assert.Zero(t, secondary.calls)

	// The answer is persisted asynchronously for Tier-3 reuse.
	executor.Close()
	assert.Equal(t, 1, enrichment.savedCount())
}

func TestExecuteFallsBackToSecondary(t *testing.T) {
	primary := &stubClient{name: "openrouter", err: errors.New("gateway down")}
	secondary := &stubClient{name: "anthropic", suggestion: Suggestion{Code: "870830", Confidence: 85}}
	executor := newTestExecutor(t, primary, secondary, newStubEnrichment())

	result, err := executor.ExecuteWithFallback(context.Background(), "brake pads", "")
	require.NoError(t, err)

	assert.Equal(t, TierSecondary, result.Tier)
	assert.Equal(t, "anthropic", result.Provider)
	assert.Contains(t, result.Warning, "gateway down")
}

func TestExecuteServesEnrichmentWhenProvidersDown(t *testing.T) {
	primary := &stubClient{name: "openrouter", err: errors.New("gateway down")}
	secondary := &stubClient{name: "anthropic", err: errors.New("api key invalid")}
	enrichment := newStubEnrichment()
	enrichment.byDesc["usb cable"] = &model.EnrichmentRecord{
		CreatedAt:   time.Now().Add(-2 * time.Hour),
		Description: "usb cable",
		Code:        "8544429000",
		Source:      "openrouter",
		Confidence:  88,
	}
	executor := newTestExecutor(t, primary, secondary, enrichment)

	result, err := executor.ExecuteWithFallback(context.Background(), "usb cable", "")
	require.NoError(t, err)

	assert.Equal(t, TierCache, result.Tier)
	assert.True(t, result.Cached)
	assert.Equal(t, "8544429000", result.Suggestion.Code)
	assert.Greater(t, result.CacheAge, time.Hour)
	assert.Contains(t, result.Warning, "gateway down")
	assert.Contains(t, result.Warning, "api key invalid")
}

func TestExecuteSessionHistoryFallback(t *testing.T) {
	primary := &stubClient{name: "openrouter", err: errors.New("down")}
	secondary := &stubClient{name: "anthropic", err: errors.New("down")}
	enrichment := newStubEnrichment()
	enrichment.byCode["870830"] = &model.EnrichmentRecord{
		CreatedAt:  time.Now().Add(-time.Hour),
		Code:       "870830",
		Source:     "anthropic",
		Confidence: 80,
	}
	executor := newTestExecutor(t, primary, secondary, enrichment)

	result, err := executor.ExecuteWithFallback(context.Background(), "unseen description", "870830")
	require.NoError(t, err)

	assert.Equal(t, TierCache, result.Tier)
	assert.Equal(t, "870830", result.Suggestion.Code)
}

func TestExecuteStaticFallbackIsStale(t *testing.T) {
	primary := &stubClient{name: "openrouter", err: errors.New("down")}
	secondary := &stubClient{name: "anthropic", err: errors.New("down")}
	executor := newTestExecutor(t, primary, secondary, newStubEnrichment())

	result, err := executor.ExecuteWithFallback(context.Background(), "copper wire spool", "")
	require.NoError(t, err)

	assert.Equal(t, TierCache, result.Tier)
	assert.True(t, result.Stale)
	assert.Equal(t, staticConfidence, result.Suggestion.Confidence)
	assert.Equal(t, "static", result.Provider)
}

func TestExecuteAllTiersFailed(t *testing.T) {
	primary := &stubClient{name: "openrouter", err: errors.New("gateway down")}
	secondary := &stubClient{name: "anthropic", err: errors.New("api key invalid")}
	executor := newTestExecutor(t, primary, secondary, newStubEnrichment())

	_, err := executor.ExecuteWithFallback(context.Background(), "zzqx unclassifiable", "")
	require.Error(t, err)

	var allFailed *AllTiersFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Contains(t, allFailed.Error(), "gateway down")
	assert.Contains(t, allFailed.Error(), "api key invalid")
}

func TestExecuteMemoCacheShortCircuits(t *testing.T) {
	primary := &stubClient{name: "openrouter", suggestion: Suggestion{Code: "8544429000", Confidence: 90}}
	executor := newTestExecutor(t, primary, &stubClient{name: "anthropic"}, newStubEnrichment())

	ctx := context.Background()
	_, err := executor.ExecuteWithFallback(ctx, "usb cable", "")
	require.NoError(t, err)

	second, err := executor.ExecuteWithFallback(ctx, "USB Cable", "")
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls, "repeat query must not call the provider")
	assert.Equal(t, TierCache, second.Tier)
	assert.True(t, second.Cached)
	assert.Equal(t, "openrouter", second.Provider)
}

func TestExecuteNilProvidersStillServeCache(t *testing.T) {
	enrichment := newStubEnrichment()
	enrichment.byDesc["cloves"] = &model.EnrichmentRecord{
		CreatedAt:   time.Now(),
		Description: "cloves",
		Code:        "090710",
		Source:      "openrouter",
		Confidence:  85,
	}
	executor, err := NewExecutor(nil, nil, enrichment, ExecutorConfig{})
	require.NoError(t, err)

	result, err := executor.ExecuteWithFallback(context.Background(), "cloves", "")
	require.NoError(t, err)
	assert.Equal(t, TierCache, result.Tier)
}
