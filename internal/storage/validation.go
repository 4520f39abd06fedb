// Package storage provides the SQLite persistence layer for the tariff
// catalog, enrichment cache and classification audit log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrEmptySlice        = errors.New("slice cannot be empty")
	ErrInvalidRecord     = errors.New("invalid tariff record")
	ErrInvalidEnrichment = errors.New("invalid enrichment record")
	ErrInvalidMapping    = errors.New("invalid keyword mapping")
	ErrInvalidProfile    = errors.New("invalid business profile")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTariffRecords validates a slice of catalog rows.
func validateTariffRecords(records []model.TariffRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	for i, record := range records {
		if err := validateTariffRecord(&record); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTariffRecord validates a single catalog row.
func validateTariffRecord(record *model.TariffRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.Code == "" {
		return fmt.Errorf("%w: missing code", ErrInvalidRecord)
	}
	if len(record.Code) < 2 || len(record.Code) > 10 {
		return fmt.Errorf("%w: code %q must be 2-10 digits", ErrInvalidRecord, record.Code)
	}
	if record.MFNRate < 0 || record.USMCARate < 0 {
		return fmt.Errorf("%w: negative duty rate on %s", ErrInvalidRecord, record.Code)
	}
	return nil
}

// validateEnrichment validates an enrichment cache entry.
func validateEnrichment(record *model.EnrichmentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: enrichment", ErrNilParameter)
	}
	if strings.TrimSpace(record.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidEnrichment)
	}
	if strings.TrimSpace(record.Code) == "" {
		return fmt.Errorf("%w: missing code", ErrInvalidEnrichment)
	}
	if record.Confidence < 0 || record.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be between 0 and 100", ErrInvalidEnrichment)
	}
	return nil
}

// validateKeywordMapping validates a keyword mapping row.
func validateKeywordMapping(mapping *model.KeywordMapping) error {
	if mapping == nil {
		return fmt.Errorf("%w: mapping", ErrNilParameter)
	}
	if strings.TrimSpace(mapping.Keyword) == "" {
		return fmt.Errorf("%w: missing keyword", ErrInvalidMapping)
	}
	if len(mapping.SearchTerms) == 0 {
		return fmt.Errorf("%w: %s has no search terms", ErrInvalidMapping, mapping.Keyword)
	}
	return nil
}

// validateBusinessProfile validates a business profile row.
func validateBusinessProfile(profile *model.BusinessProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.BusinessType) == "" {
		return fmt.Errorf("%w: missing business type", ErrInvalidProfile)
	}
	if len(profile.Chapters) == 0 {
		return fmt.Errorf("%w: %s has no chapters", ErrInvalidProfile, profile.BusinessType)
	}

	switch profile.Priority {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidProfile, profile.Priority)
	}
	return nil
}
