package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/database"
	"github.com/spf13/cobra"
)

// openDatabase connects using DATABASE_URL. Tests replace it with a sqlmock-backed opener.
var openDatabase = func(ctx context.Context) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// NewRootCmd creates the storefront-configure command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront-configure",
		Short:         "Configuration tool for the storefront API",
		Long:          "Manage database-stored CORS and rate limit overrides, check the database and probe a running API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewCorsCmd())
	root.AddCommand(NewRatelimitCmd())
	root.AddCommand(NewDBCmd())
	root.AddCommand(NewProbeCmd())
	return root
}

// withDatabase opens the database for the duration of fn.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *database.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(ctx, db)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
