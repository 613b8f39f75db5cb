package commands

import (
	"context"
	"time"

	"github.com/ezyshopper/storefront/internal/database"
	"github.com/spf13/cobra"
)

// NewDBCmd creates the db command with ping and init subcommands.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Check and prepare the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Verify DATABASE_URL is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
				printf(cmd.OutOrStdout(), "Database reachable (%s).\n", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the configuration tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.EnsureSchema(ctx, db); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Configuration tables are in place.\n")
				return nil
			})
		},
	})
	return cmd
}
