// Package model defines the core domain models used throughout the application.
package model

import "time"

// MatchType indicates how a classification result was found.
type MatchType string

// Match type constants.
const (
	MatchExact      MatchType = "exact"
	MatchFallback   MatchType = "fallback"
	MatchDirect     MatchType = "direct"
	MatchKeyword    MatchType = "keyword"
	MatchChapter    MatchType = "chapter"
	MatchSimilarity MatchType = "similarity"
	MatchExternal   MatchType = "external"
)

// TariffRecord is one row of the tariff catalog. The engine only reads these;
// ingestion is owned by an external process.
type TariffRecord struct {
	EffectiveDate time.Time
	Code          string
	Description   string
	CountrySource string
	Chapter       int
	MFNRate       float64
	USMCARate     float64
}

// HasRealRates reports whether the record carries meaningful duty data rather
// than placeholder zeros. A non-trivial MFN rate or a differentiated
// preferential rate both count.
func (r TariffRecord) HasRealRates() bool {
	if r.MFNRate > 0.1 {
		return true
	}
	return r.MFNRate != r.USMCARate && (r.MFNRate > 0 || r.USMCARate > 0)
}

// USMCAEligible reports whether the preferential rate beats the base rate.
func (r TariffRecord) USMCAEligible() bool {
	return r.MFNRate > 0 && r.USMCARate < r.MFNRate
}

// ClassificationResult is the engine's output unit. Results are immutable
// once constructed; ranking and deduplication happen on copies.
type ClassificationResult struct {
	Code           string
	DisplayCode    string
	Description    string
	MatchType      MatchType
	SearchMethod   string
	ConfidenceText string
	CountrySource  string
	CacheAge       string
	Note           string
	Chapter        int
	Confidence     int
	FallbackLevel  int
	MFNRate        float64
	USMCARate      float64
	SavingsPercent float64
	USMCAEligible  bool
	Stale          bool
}

// EnrichmentRecord is a cached externally-derived classification, persisted
// so Tier-3 lookups can serve past results when both completion providers
// are down.
type EnrichmentRecord struct {
	CreatedAt   time.Time
	SessionID   string
	Description string
	Code        string
	Explanation string
	Source      string
	Confidence  int
	MFNRate     float64
	USMCARate   float64
}

// Age returns how long ago the record was created.
func (e EnrichmentRecord) Age() time.Duration {
	return time.Since(e.CreatedAt)
}
