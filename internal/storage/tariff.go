package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/common"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

const tariffColumns = `code, country_source, description, chapter, mfn_rate, usmca_rate, effective_date`

// GetByCode returns the catalog row exactly matching a canonical code.
func (s *SQLiteStorage) GetByCode(ctx context.Context, code, country string) (*model.TariffRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tariff_records WHERE code = ?`, tariffColumns)
	args := []any{code}
	if country != "" {
		query += ` AND country_source = ?`
		args = append(args, country)
	}
	query += ` ORDER BY country_source LIMIT 1`

	record, err := scanTariffRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tariff record %s: %w", code, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tariff record: %w", err)
	}

	return record, nil
}

// SearchByPrefix returns catalog rows whose code starts with the given
// prefix, highest MFN rate first so callers see the conservative estimate.
func (s *SQLiteStorage) SearchByPrefix(ctx context.Context, prefix, country string, limit int) ([]model.TariffRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT %s FROM tariff_records WHERE code LIKE ?`, tariffColumns)
	args := []any{prefix + "%"}
	if country != "" {
		query += ` AND country_source = ?`
		args = append(args, country)
	}
	query += ` ORDER BY mfn_rate DESC, code LIMIT ?`
	args = append(args, limit)

	return s.queryTariffRecords(ctx, query, args...)
}

// SearchDescriptions runs a term-relevance search over catalog descriptions.
// Rows matching more terms rank higher. A non-empty chapters slice restricts
// the search to those chapters.
func (s *SQLiteStorage) SearchDescriptions(ctx context.Context, terms []string, chapters []int, limit int) ([]model.TariffRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: terms", ErrEmptySlice)
	}
	if limit <= 0 {
		limit = 25
	}

	var (
		matchExprs []string
		scoreExprs []string
		args       []any
	)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		matchExprs = append(matchExprs, `description LIKE ? COLLATE NOCASE`)
		scoreExprs = append(scoreExprs, `(CASE WHEN description LIKE ? COLLATE NOCASE THEN 1 ELSE 0 END)`)
		args = append(args, "%"+term+"%")
	}
	if len(matchExprs) == 0 {
		return nil, fmt.Errorf("%w: terms", ErrEmptySlice)
	}

	// The relevance expression binds before the WHERE clause, so the term
	// args repeat: once for scoring, once for matching.
	scoreArgs := make([]any, len(args))
	copy(scoreArgs, args)
	args = append(scoreArgs, args...)

	query := fmt.Sprintf(`SELECT %s, (%s) AS relevance FROM tariff_records WHERE (%s)`,
		tariffColumns, strings.Join(scoreExprs, " + "), strings.Join(matchExprs, " OR "))

	if len(chapters) > 0 {
		placeholders := make([]string, len(chapters))
		for i, chapter := range chapters {
			placeholders[i] = "?"
			args = append(args, chapter)
		}
		query += fmt.Sprintf(` AND chapter IN (%s)`, strings.Join(placeholders, ", "))
	}

	query += ` ORDER BY relevance DESC, mfn_rate DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search descriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.TariffRecord
	for rows.Next() {
		var record model.TariffRecord
		var effective sql.NullTime
		var relevance int
		if err := rows.Scan(&record.Code, &record.CountrySource, &record.Description,
			&record.Chapter, &record.MFNRate, &record.USMCARate, &effective,
			&relevance); err != nil {
			return nil, fmt.Errorf("failed to scan tariff record: %w", err)
		}
		record.EffectiveDate = effective.Time
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tariff records: %w", err)
	}

	return records, nil
}

// SaveTariffRecords upserts catalog rows in a single transaction.
func (s *SQLiteStorage) SaveTariffRecords(ctx context.Context, records []model.TariffRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTariffRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tariff_records (code, country_source, description, chapter, mfn_rate, usmca_rate, effective_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, country_source) DO UPDATE SET
			description = excluded.description,
			chapter = excluded.chapter,
			mfn_rate = excluded.mfn_rate,
			usmca_rate = excluded.usmca_rate,
			effective_date = excluded.effective_date`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		country := record.CountrySource
		if country == "" {
			country = "US"
		}
		if _, err := stmt.ExecContext(ctx, record.Code, country, record.Description,
			record.Chapter, record.MFNRate, record.USMCARate, record.EffectiveDate); err != nil {
			return fmt.Errorf("failed to upsert tariff record %s: %w", record.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tariff records: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) queryTariffRecords(ctx context.Context, query string, args ...any) ([]model.TariffRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tariff records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.TariffRecord
	for rows.Next() {
		var record model.TariffRecord
		var effective sql.NullTime
		if err := rows.Scan(&record.Code, &record.CountrySource, &record.Description,
			&record.Chapter, &record.MFNRate, &record.USMCARate, &effective); err != nil {
			return nil, fmt.Errorf("failed to scan tariff record: %w", err)
		}
		record.EffectiveDate = effective.Time
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tariff records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTariffRecord(row rowScanner) (*model.TariffRecord, error) {
	var record model.TariffRecord
	var effective sql.NullTime
	if err := row.Scan(&record.Code, &record.CountrySource, &record.Description,
		&record.Chapter, &record.MFNRate, &record.USMCARate, &effective); err != nil {
		return nil, err
	}
	record.EffectiveDate = effective.Time
	return &record, nil
}
