package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/cli"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/engine"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/tariff"
)

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <code>",
		Short: "Resolve a harmonized code against the tariff catalog",
		Long: `Lookup resolves a code through the specificity hierarchy: exact match
first, then progressively broader prefixes (8, 6, 4 and 2 digits). When no
level matches, a chapter-average duty estimate is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: runLookup,
	}

	cmd.Flags().String("country", "", "restrict to one country's tariff schedule")
	cmd.Flags().Bool("all", false, "show every matching hierarchy level, not just the first")
	cmd.Flags().Float64("volume", 0, "annual trade value in USD, adds a projected USMCA savings line")

	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	country, _ := cmd.Flags().GetString("country")
	all, _ := cmd.Flags().GetBool("all")
	volume, _ := cmd.Flags().GetFloat64("volume")

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	eng, err := buildEngine(cmd.Context(), store)
	if err != nil {
		return err
	}

	resp, err := eng.Lookup(cmd.Context(), engine.LookupRequest{
		Code:      args[0],
		Country:   country,
		ReturnAll: all,
	})
	if err != nil {
		return err
	}

	if !resp.Found {
		cmd.Println(cli.WarningStyle.Render("No catalog entry for " + args[0]))
		if resp.Estimate != nil {
			cmd.Printf("Chapter %d average MFN rate: %.2f%% (%s)\n",
				resp.Estimate.Chapter, resp.Estimate.MFNRate, resp.Estimate.Source)
			cmd.Println(cli.SubtleStyle.Render("Estimate only; confirm against the published schedule."))
		}
		return nil
	}

	for i, result := range resp.Results {
		printResult(cmd, i+1, result)
	}

	if volume > 0 {
		best := resp.Results[0]
		if best.USMCAEligible {
			savings := tariff.Compute(best.MFNRate, best.USMCARate)
			cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Projected annual USMCA savings on $%.0f: $%.2f", volume, savings.AnnualSavings(volume))))
		} else {
			cmd.Println(cli.SubtleStyle.Render("No USMCA savings available for this code."))
		}
	}
	return nil
}
