package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// LookupEnrichment finds the newest cached enrichment for a description, or
// for a code when the description is empty.
func (s *SQLiteStorage) LookupEnrichment(ctx context.Context, description, code string) (*model.EnrichmentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if description == "" && code == "" {
		return nil, fmt.Errorf("%w: description or code", ErrEmptyString)
	}

	query := `SELECT description, code, explanation, source, confidence, mfn_rate, usmca_rate, created_at
		FROM enrichment_cache WHERE `
	var arg string
	if description != "" {
		query += `description = ? COLLATE NOCASE`
		arg = description
	} else {
		query += `code = ?`
		arg = code
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	record, err := scanEnrichment(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("enrichment: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up enrichment: %w", err)
	}

	return record, nil
}

// LookupSessionEnrichment scans recent sessions, newest first, for an
// enrichment carrying the given code. Only the maxSessions most recent
// sessions are considered.
func (s *SQLiteStorage) LookupSessionEnrichment(ctx context.Context, code string, maxSessions int) (*model.EnrichmentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}
	if maxSessions <= 0 {
		maxSessions = 10
	}

	query := `SELECT se.session_id, se.description, se.code, se.explanation, se.source,
			se.confidence, se.mfn_rate, se.usmca_rate, se.created_at
		FROM session_enrichments se
		WHERE se.code = ? AND se.session_id IN (
			SELECT session_id FROM session_enrichments
			GROUP BY session_id
			ORDER BY MAX(created_at) DESC
			LIMIT ?
		)
		ORDER BY se.created_at DESC
		LIMIT 1`

	var record model.EnrichmentRecord
	err := s.db.QueryRowContext(ctx, query, code, maxSessions).Scan(
		&record.SessionID, &record.Description, &record.Code, &record.Explanation,
		&record.Source, &record.Confidence, &record.MFNRate, &record.USMCARate,
		&record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session enrichment for %s: %w", code, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up session enrichment: %w", err)
	}

	return &record, nil
}

// SaveEnrichment upserts an enrichment keyed by description and appends it
// to the session history when a session ID is present.
func (s *SQLiteStorage) SaveEnrichment(ctx context.Context, record *model.EnrichmentRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEnrichment(record); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrichment_cache (description, code, explanation, source, confidence, mfn_rate, usmca_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(description) DO UPDATE SET
			code = excluded.code,
			explanation = excluded.explanation,
			source = excluded.source,
			confidence = excluded.confidence,
			mfn_rate = excluded.mfn_rate,
			usmca_rate = excluded.usmca_rate,
			created_at = CURRENT_TIMESTAMP`,
		record.Description, record.Code, record.Explanation, record.Source,
		record.Confidence, record.MFNRate, record.USMCARate)
	if err != nil {
		return fmt.Errorf("failed to upsert enrichment: %w", err)
	}

	if record.SessionID != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_enrichments (session_id, description, code, explanation, source, confidence, mfn_rate, usmca_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.SessionID, record.Description, record.Code, record.Explanation,
			record.Source, record.Confidence, record.MFNRate, record.USMCARate)
		if err != nil {
			return fmt.Errorf("failed to append session enrichment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enrichment: %w", err)
	}
	return nil
}

func scanEnrichment(row rowScanner) (*model.EnrichmentRecord, error) {
	var record model.EnrichmentRecord
	if err := row.Scan(&record.Description, &record.Code, &record.Explanation,
		&record.Source, &record.Confidence, &record.MFNRate, &record.USMCARate,
		&record.CreatedAt); err != nil {
		return nil, err
	}
	return &record, nil
}
