package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			cmd.Println(cli.SuccessStyle.Render("Database schema is up to date"))
			return nil
		},
	}
}
