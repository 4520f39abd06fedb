package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/cli"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/engine"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Classify a product description into harmonized codes",
		Long: `Classify runs a product description through the staged search pipeline
and prints ranked code suggestions. With --file, classifies one description
per line and prints a summary.`,
		Args: cobra.ArbitraryArgs,
		RunE: runClassify,
	}

	cmd.Flags().String("business", "", "business category to narrow the search")
	cmd.Flags().String("country", "", "restrict to one country's tariff schedule")
	cmd.Flags().Int("limit", 10, "maximum number of suggestions")
	cmd.Flags().String("file", "", "classify descriptions from a file, one per line")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	business, _ := cmd.Flags().GetString("business")
	country, _ := cmd.Flags().GetString("country")
	limit, _ := cmd.Flags().GetInt("limit")
	file, _ := cmd.Flags().GetString("file")

	if file == "" && len(args) == 0 {
		return fmt.Errorf("provide a description or --file")
	}

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

	if file != "" {
		return classifyFile(cmd, eng, file, business, country)
	}

	description := strings.Join(args, " ")
	resp, err := eng.Classify(cmd.Context(), engine.ClassifyRequest{
		Description:      description,
		BusinessCategory: business,
		Country:          country,
		Limit:            limit,
	})
	if err != nil {
		return err
	}

	printClassification(cmd, description, resp)
	return nil
}

func classifyFile(cmd *cobra.Command, eng *engine.Engine, path, business, country string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var descriptions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			descriptions = append(descriptions, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(descriptions) == 0 {
		return fmt.Errorf("no descriptions in %s", path)
	}

	bar := progressbar.NewOptions(len(descriptions),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	classified := 0
	var misses []string
	for _, description := range descriptions {
		resp, err := eng.Classify(cmd.Context(), engine.ClassifyRequest{
			Description:      description,
			BusinessCategory: business,
			Country:          country,
			Limit:            1,
		})
		_ = bar.Add(1)
		if err != nil || !resp.Found {
			misses = append(misses, description)
			continue
		}

		classified++
		best := resp.Results[0]
		cmd.Printf("%s\t%s\t%d%%\t%s\n",
			description, best.DisplayCode, best.Confidence, best.MatchType)
	}

	cmd.Println()
	cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf("Classified %d of %d descriptions", classified, len(descriptions))))
	for _, miss := range misses {
		cmd.Println(cli.WarningStyle.Render("no match: " + miss))
	}
	return nil
}

func printClassification(cmd *cobra.Command, description string, resp *engine.ClassifyResponse) {
	if !resp.Found {
		cmd.Println(cli.WarningStyle.Render("No classification found for: " + description))
		if resp.Suggestion != "" {
			cmd.Println(cli.SubtleStyle.Render("Hint: " + resp.Suggestion))
		}
		return
	}

	cmd.Println(cli.TitleStyle.Render("Suggestions for: " + description))
	for i, result := range resp.Results {
		printResult(cmd, i+1, result)
	}
}

func printResult(cmd *cobra.Command, rank int, result model.ClassificationResult) {
	line := fmt.Sprintf("%2d. %s  %s",
		rank,
		cli.CodeStyle.Render(result.DisplayCode),
		result.Description)
	cmd.Println(line)

	detail := fmt.Sprintf("    %s (%d%%) via %s",
		result.ConfidenceText, result.Confidence, result.SearchMethod)
	if result.MFNRate > 0 || result.USMCARate > 0 {
		detail += fmt.Sprintf("  MFN %.2f%%", result.MFNRate)
		if result.USMCAEligible {
			detail += fmt.Sprintf("  USMCA %.2f%% (saves %.1f%%)", result.USMCARate, result.SavingsPercent)
		}
	}
	cmd.Println(cli.ConfidenceStyle(result.Confidence).Render(detail))

	if result.Stale {
		cmd.Println(cli.StaleStyle.Render("    stale fallback data, verify before filing"))
	}
	if result.CacheAge != "" {
		cmd.Println(cli.SubtleStyle.Render("    cached " + result.CacheAge))
	}
	if result.Note != "" {
		cmd.Println(cli.SubtleStyle.Render("    " + result.Note))
	}
}
