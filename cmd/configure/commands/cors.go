package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezyshopper/storefront/internal/database"
	"github.com/ezyshopper/storefront/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list, set and clear subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long: "List or update the CORS origin override stored in the database. " +
			"A running server picks up changes on its next reload.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	cmd.AddCommand(newCorsClearCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
				c, err := database.NewCorsConfigRepository(db).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				out := cmd.OutOrStdout()
				if c == nil {
					printf(out, "No CORS override in database; CORS_ALLOWED_ORIGINS applies. Use 'cors set' to add one.\n")
					return nil
				}
				printf(out, "CORS configuration:\n")
				for _, origin := range c.Origins() {
					printf(out, "  - %s\n", origin)
				}
				printf(out, "  Allow credentials: %v\n", c.AllowCredentials)
				printf(out, "  Max-Age: %d\n", c.MaxAge)
				printf(out, "  Updated: %s\n", c.UpdatedAt.UTC().Format("2006-01-02 15:04:05Z"))
				return nil
			})
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Replace the allowed origins (comma-separated scheme://host[:port]). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
				c := &models.CorsConfig{
					AllowedOrigins:   origins,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewCorsConfigRepository(db).Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				printf(cmd.OutOrStdout(), "CORS configuration updated.\n")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}

func newCorsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the CORS override",
		Long:  "Delete the stored override so the server falls back to CORS_ALLOWED_ORIGINS.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewCorsConfigRepository(db).Delete(ctx); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "CORS override removed.\n")
				return nil
			})
		},
	}
}
