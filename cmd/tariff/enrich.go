package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/cli"
)

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich <description...>",
		Short: "Classify a description with the external provider chain",
		Long: `Enrich sends a description straight down the external classification
chain (primary provider, secondary provider, then the local enrichment
cache) and persists the answer for future offline lookups.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEnrich,
	}

	cmd.Flags().String("code", "", "candidate code to confirm or correct")

	return cmd
}

func runEnrich(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	description := strings.Join(args, " ")

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	executor, err := buildExecutor(store)
	if err != nil {
		return err
	}
	if executor == nil {
		return fmt.Errorf("no provider configured: set llm.openrouter_api_key or llm.anthropic_api_key")
	}
	defer executor.Close()

	result, err := executor.ExecuteWithFallback(cmd.Context(), description, code)
	if err != nil {
		return err
	}

	suggestion := result.Suggestion
	cmd.Println(cli.TitleStyle.Render("Classification for: " + description))
	cmd.Printf("%s  %s\n", cli.CodeStyle.Render(suggestion.Code), suggestion.Explanation)
	cmd.Println(cli.ConfidenceStyle(suggestion.Confidence).Render(
		fmt.Sprintf("confidence %d%% via %s (tier %d, %s)",
			suggestion.Confidence, result.Provider, result.Tier, result.Duration.Round(10*time.Millisecond))))

	if result.Cached {
		age := "just now"
		if result.CacheAge > 0 {
			age = result.CacheAge.Round(time.Second).String() + " old"
		}
		cmd.Println(cli.SubtleStyle.Render("served from cache, " + age))
	}
	if result.Stale {
		cmd.Println(cli.StaleStyle.Render("stale fallback data, verify before filing"))
	}
	if result.Warning != "" {
		cmd.Println(cli.WarningStyle.Render(result.Warning))
	}
	return nil
}
