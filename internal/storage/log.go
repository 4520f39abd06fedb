package storage

import (
	"context"
	"fmt"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// LogClassification appends one audit row for a classification attempt.
func (s *SQLiteStorage) LogClassification(ctx context.Context, description, code string, confidence int, method string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(description, "description"); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_log (description, code, method, confidence)
		VALUES (?, ?, ?, ?)`,
		description, code, method, confidence)
	if err != nil {
		return fmt.Errorf("failed to log classification: %w", err)
	}
	return nil
}

// RecentClassifications returns the newest audit rows, most recent first.
func (s *SQLiteStorage) RecentClassifications(ctx context.Context, limit int) ([]model.ClassificationLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, code, method, confidence, created_at
		FROM classification_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ClassificationLogEntry
	for rows.Next() {
		var entry model.ClassificationLogEntry
		if err := rows.Scan(&entry.ID, &entry.Description, &entry.Code, &entry.Method,
			&entry.Confidence, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classification log: %w", err)
	}

	return entries, nil
}
