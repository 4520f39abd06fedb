package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// GetKeywordMappings returns every keyword mapping row.
func (s *SQLiteStorage) GetKeywordMappings(ctx context.Context) ([]model.KeywordMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, COALESCE(category, ''), search_terms, chapters, confidence_boost
		FROM classification_keywords ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mappings []model.KeywordMapping
	for rows.Next() {
		var mapping model.KeywordMapping
		var terms, chapters string
		if err := rows.Scan(&mapping.Keyword, &mapping.Category, &terms, &chapters,
			&mapping.ConfidenceBoost); err != nil {
			return nil, fmt.Errorf("failed to scan keyword mapping: %w", err)
		}
		if err := json.Unmarshal([]byte(terms), &mapping.SearchTerms); err != nil {
			return nil, fmt.Errorf("corrupt search terms for keyword %s: %w", mapping.Keyword, err)
		}
		if err := json.Unmarshal([]byte(chapters), &mapping.Chapters); err != nil {
			return nil, fmt.Errorf("corrupt chapters for keyword %s: %w", mapping.Keyword, err)
		}
		mappings = append(mappings, mapping)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keyword mappings: %w", err)
	}

	return mappings, nil
}

// SaveKeywordMapping upserts a keyword mapping.
func (s *SQLiteStorage) SaveKeywordMapping(ctx context.Context, mapping *model.KeywordMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKeywordMapping(mapping); err != nil {
		return err
	}

	terms, err := json.Marshal(mapping.SearchTerms)
	if err != nil {
		return fmt.Errorf("failed to encode search terms: %w", err)
	}
	chapters, err := json.Marshal(mapping.Chapters)
	if err != nil {
		return fmt.Errorf("failed to encode chapters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classification_keywords (keyword, category, search_terms, chapters, confidence_boost, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(keyword) DO UPDATE SET
			category = excluded.category,
			search_terms = excluded.search_terms,
			chapters = excluded.chapters,
			confidence_boost = excluded.confidence_boost,
			updated_at = CURRENT_TIMESTAMP`,
		mapping.Keyword, mapping.Category, string(terms), string(chapters), mapping.ConfidenceBoost)
	if err != nil {
		return fmt.Errorf("failed to upsert keyword mapping: %w", err)
	}
	return nil
}

// GetBusinessProfiles returns every business profile row.
func (s *SQLiteStorage) GetBusinessProfiles(ctx context.Context) ([]model.BusinessProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT business_type, chapters, priority, COALESCE(reason, '')
		FROM business_type_chapters ORDER BY business_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query business profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.BusinessProfile
	for rows.Next() {
		var profile model.BusinessProfile
		var chapters string
		if err := rows.Scan(&profile.BusinessType, &chapters, &profile.Priority,
			&profile.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan business profile: %w", err)
		}
		if err := json.Unmarshal([]byte(chapters), &profile.Chapters); err != nil {
			return nil, fmt.Errorf("corrupt chapters for business type %s: %w", profile.BusinessType, err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate business profiles: %w", err)
	}

	return profiles, nil
}

// SaveBusinessProfile upserts a business profile.
func (s *SQLiteStorage) SaveBusinessProfile(ctx context.Context, profile *model.BusinessProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBusinessProfile(profile); err != nil {
		return err
	}

	chapters, err := json.Marshal(profile.Chapters)
	if err != nil {
		return fmt.Errorf("failed to encode chapters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_type_chapters (business_type, chapters, priority, reason, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(business_type) DO UPDATE SET
			chapters = excluded.chapters,
			priority = excluded.priority,
			reason = excluded.reason,
			updated_at = CURRENT_TIMESTAMP`,
		profile.BusinessType, string(chapters), profile.Priority, profile.Reason)
	if err != nil {
		return fmt.Errorf("failed to upsert business profile: %w", err)
	}
	return nil
}
