package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial tariff catalog schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS tariff_records (
					code TEXT NOT NULL,
					country_source TEXT NOT NULL DEFAULT 'US',
					description TEXT NOT NULL,
					chapter INTEGER NOT NULL,
					mfn_rate REAL NOT NULL DEFAULT 0,
					usmca_rate REAL NOT NULL DEFAULT 0,
					effective_date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (code, country_source)
				)`,
				`CREATE INDEX idx_tariff_chapter ON tariff_records(chapter)`,
				`CREATE INDEX idx_tariff_description ON tariff_records(description)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add keyword mappings and business profiles",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS classification_keywords (
					keyword TEXT PRIMARY KEY,
					category TEXT,
					search_terms TEXT NOT NULL,
					chapters TEXT NOT NULL,
					confidence_boost REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS business_type_chapters (
					business_type TEXT PRIMARY KEY,
					chapters TEXT NOT NULL,
					priority TEXT NOT NULL DEFAULT 'medium',
					reason TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add enrichment cache and session enrichments",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS enrichment_cache (
					description TEXT PRIMARY KEY,
					code TEXT NOT NULL,
					explanation TEXT,
					source TEXT NOT NULL,
					confidence INTEGER NOT NULL DEFAULT 0,
					mfn_rate REAL NOT NULL DEFAULT 0,
					usmca_rate REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_enrichment_code ON enrichment_cache(code)`,

				`CREATE TABLE IF NOT EXISTS session_enrichments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					description TEXT NOT NULL,
					code TEXT NOT NULL,
					explanation TEXT,
					source TEXT NOT NULL,
					confidence INTEGER NOT NULL DEFAULT 0,
					mfn_rate REAL NOT NULL DEFAULT 0,
					usmca_rate REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_session_enrichments_session ON session_enrichments(session_id)`,
				`CREATE INDEX idx_session_enrichments_code ON session_enrichments(code)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Add classification audit log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS classification_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					description TEXT NOT NULL,
					code TEXT NOT NULL,
					method TEXT NOT NULL,
					confidence INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_classification_log_code ON classification_log(code)`,
				`CREATE INDEX idx_classification_log_created ON classification_log(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
