package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/cli"
	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage keyword mappings and business profiles",
	}

	cmd.AddCommand(keywordsListCmd())
	cmd.AddCommand(keywordsAddCmd())
	cmd.AddCommand(profilesAddCmd())

	return cmd
}

func keywordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keyword mappings and business profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			mappings, err := store.GetKeywordMappings(cmd.Context())
			if err != nil {
				return err
			}
			profiles, err := store.GetBusinessProfiles(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Println(cli.TitleStyle.Render("Keyword mappings"))
			if len(mappings) == 0 {
				cmd.Println(cli.SubtleStyle.Render("  none configured"))
			}
			for _, mapping := range mappings {
				cmd.Printf("  %s -> chapters %s, terms [%s], boost %.2f\n",
					cli.BoldStyle.Render(mapping.Keyword),
					joinInts(mapping.Chapters),
					strings.Join(mapping.SearchTerms, ", "),
					mapping.ConfidenceBoost)
			}

			cmd.Println(cli.TitleStyle.Render("Business profiles"))
			if len(profiles) == 0 {
				cmd.Println(cli.SubtleStyle.Render("  none configured"))
			}
			for _, profile := range profiles {
				cmd.Printf("  %s -> chapters %s (%s priority)\n",
					cli.BoldStyle.Render(profile.BusinessType),
					joinInts(profile.Chapters),
					profile.Priority)
			}
			return nil
		},
	}
}

func keywordsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <keyword>",
		Short: "Add or update a keyword mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, _ := cmd.Flags().GetStringSlice("terms")
			chapters, _ := cmd.Flags().GetIntSlice("chapters")
			category, _ := cmd.Flags().GetString("category")
			boost, _ := cmd.Flags().GetFloat64("boost")

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			mapping := &model.KeywordMapping{
				Keyword:         args[0],
				Category:        category,
				SearchTerms:     terms,
				Chapters:        chapters,
				ConfidenceBoost: boost,
			}
			if err := store.SaveKeywordMapping(cmd.Context(), mapping); err != nil {
				return err
			}

			cmd.Println(cli.SuccessStyle.Render("Saved keyword mapping " + args[0]))
			return nil
		},
	}

	cmd.Flags().StringSlice("terms", nil, "search terms the keyword expands to")
	cmd.Flags().IntSlice("chapters", nil, "chapters to search within")
	cmd.Flags().String("category", "", "category label")
	cmd.Flags().Float64("boost", 0, "additive confidence boost (0-1)")

	return cmd
}

func profilesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-profile <business-type>",
		Short: "Add or update a business profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, _ := cmd.Flags().GetIntSlice("chapters")
			priority, _ := cmd.Flags().GetString("priority")
			reason, _ := cmd.Flags().GetString("reason")

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			profile := &model.BusinessProfile{
				BusinessType: args[0],
				Priority:     priority,
				Reason:       reason,
				Chapters:     chapters,
			}
			if err := store.SaveBusinessProfile(cmd.Context(), profile); err != nil {
				return err
			}

			cmd.Println(cli.SuccessStyle.Render("Saved business profile " + args[0]))
			return nil
		},
	}

	cmd.Flags().IntSlice("chapters", nil, "chapters this business usually imports under")
	cmd.Flags().String("priority", "medium", "profile priority (high, medium, low)")
	cmd.Flags().String("reason", "", "why these chapters apply")

	return cmd
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
