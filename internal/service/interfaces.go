// Package service defines the interfaces for all application collaborators.
package service

import (
	"context"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// Catalog is the read-only query contract over the tariff catalog. The
// engine never writes catalog rows; ingestion is a separate concern.
type Catalog interface {
	// GetByCode returns the record exactly matching a canonical code.
	// Country narrows by jurisdiction tag when non-empty. Returns
	// common.ErrNotFound when no row matches.
	GetByCode(ctx context.Context, code, country string) (*model.TariffRecord, error)

	// SearchByPrefix returns records whose code starts with the given
	// prefix, ordered by MFN rate descending (most conservative first).
	SearchByPrefix(ctx context.Context, prefix, country string, limit int) ([]model.TariffRecord, error)

	// SearchDescriptions runs a text-relevance search over catalog
	// descriptions. A non-empty chapters slice restricts the search.
	SearchDescriptions(ctx context.Context, terms []string, chapters []int, limit int) ([]model.TariffRecord, error)
}

// EnrichmentStore persists and serves externally-derived classification
// results for Tier-3 cache fallback.
type EnrichmentStore interface {
	// LookupEnrichment finds the newest cached enrichment matching the
	// description, or the code when the description is empty. Returns
	// common.ErrNotFound on a miss.
	LookupEnrichment(ctx context.Context, description, code string) (*model.EnrichmentRecord, error)

	// LookupSessionEnrichment scans recently completed sessions, newest
	// first, capped at maxSessions, for an enrichment of the given code.
	LookupSessionEnrichment(ctx context.Context, code string, maxSessions int) (*model.EnrichmentRecord, error)

	// SaveEnrichment upserts an enrichment keyed by description.
	SaveEnrichment(ctx context.Context, record *model.EnrichmentRecord) error
}

// KeywordStore serves the curated keyword mappings and business profiles
// that steer the classification pipeline.
type KeywordStore interface {
	GetKeywordMappings(ctx context.Context) ([]model.KeywordMapping, error)
	SaveKeywordMapping(ctx context.Context, mapping *model.KeywordMapping) error
	GetBusinessProfiles(ctx context.Context) ([]model.BusinessProfile, error)
	SaveBusinessProfile(ctx context.Context, profile *model.BusinessProfile) error
}

// CatalogWriter loads tariff rows into the catalog. Used by ingestion and
// test fixtures, never by the classification path.
type CatalogWriter interface {
	SaveTariffRecords(ctx context.Context, records []model.TariffRecord) error
}

// ClassificationLogger records classification attempts for auditing.
type ClassificationLogger interface {
	LogClassification(ctx context.Context, description, code string, confidence int, method string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
