package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/classify"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/engine"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/llm"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/storage"
)

// databasePath resolves the configured database location.
func databasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tariff", "tariff.db"), nil
}

// openStorage opens and migrates the database.
func openStorage() (*storage.SQLiteStorage, error) {
	path, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

// buildExecutor wires the external classification chain from config.
// Returns nil when no provider keys are configured; the engine then runs
// catalog-only.
func buildExecutor(store *storage.SQLiteStorage) (*llm.Executor, error) {
	primaryKey := viper.GetString("llm.openrouter_api_key")
	secondaryKey := viper.GetString("llm.anthropic_api_key")
	if primaryKey == "" && secondaryKey == "" {
		return nil, nil
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = "anthropic/claude-3.5-haiku"
	}

	var primary, secondary llm.Client
	var err error
	if primaryKey != "" {
		primary, err = llm.NewClient(llm.Config{Provider: "openrouter", APIKey: primaryKey, Model: model})
		if err != nil {
			return nil, err
		}
	}
	if secondaryKey != "" {
		secondary, err = llm.NewClient(llm.Config{Provider: "anthropic", APIKey: secondaryKey, Model: model})
		if err != nil {
			return nil, err
		}
	}

	return llm.NewExecutor(primary, secondary, store, llm.ExecutorConfig{
		SessionID:   uuid.NewString(),
		TierTimeout: viper.GetDuration("llm.tier_timeout"),
		CacheTTL:    15 * time.Minute,
		MaxSessions: viper.GetInt("llm.max_sessions"),
	})
}

// buildEngine assembles the full engine over an open store.
func buildEngine(ctx context.Context, store *storage.SQLiteStorage) (*engine.Engine, error) {
	cfg := classify.DefaultConfig()

	mappings, err := store.GetKeywordMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword mappings: %w", err)
	}
	cfg.KeywordMappings = mappings

	profiles, err := store.GetBusinessProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load business profiles: %w", err)
	}
	cfg.BusinessProfiles = profiles

	executor, err := buildExecutor(store)
	if err != nil {
		return nil, err
	}

	return engine.New(store, engine.Options{
		Executor: executor,
		Logger:   store,
		Classify: cfg,
	})
}
