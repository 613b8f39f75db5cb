package commands

import (
	"fmt"
	"time"

	"github.com/ezyshopper/storefront/internal/apiclient"
	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/handlers"
	"github.com/ezyshopper/storefront/internal/models"
	"github.com/spf13/cobra"
)

// NewProbeCmd creates the probe command, which calls the health endpoint through the API client.
func NewProbeCmd() *cobra.Command {
	var modeFlag string
	var extended bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running API",
		Long: "Resolve the API base URL for the deployment mode (NODE_ENV, API_BASE_URL, DEV_API_BASE_URL) " +
			"and call its health endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, targets, err := config.LoadClient()
			if err != nil {
				return err
			}
			if modeFlag != "" {
				mode = models.ParseDeploymentMode(modeFlag)
			}

			client, err := apiclient.NewForMode(mode, targets, apiclient.WithTimeout(timeout))
			if err != nil {
				return err
			}

			path := "health"
			if extended {
				path += "?mode=extended"
			}
			var resp handlers.HealthResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return fmt.Errorf("probe %s: %w", client.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			printf(out, "%s (%s mode): %s\n", client.BaseURL(), mode, resp.Status)
			for name, status := range resp.Checks {
				printf(out, "  %s: %s\n", name, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Deployment mode to probe (development or production); defaults to NODE_ENV")
	cmd.Flags().BoolVar(&extended, "extended", false, "Include database and Redis checks")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}
