package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}

				if health, err := apiClient.System().Health(ctx); err == nil {
					summary["system"] = health.Status
				}
				if users, err := apiClient.Users().List(ctx, nil); err == nil {
					summary["users"] = users.Pagination.Total
				}
				if stats, err := apiClient.Jobs().Stats(ctx); err == nil {
					summary["jobs"] = stats
				}
				if alerts, err := apiClient.Alerts().Stats(ctx); err == nil {
					summary["alerts"] = alerts
				}
				return printOutput(summary)
			}

			fmt.Println("FutureGuide Admin")
			fmt.Println(strings.Repeat("=", 40))

			// System
			health, err := apiClient.System().Health(ctx)
			if err != nil {
				fmt.Printf("  System:   (error: %v)\n", err)
			} else {
				fmt.Printf("  System:   %s (version %s)\n", formatStatus(health.Status), health.Version)
				for _, schema := range sortedKeys(health.Database) {
					fmt.Printf("    %-8s %s\n", schema+":", formatStatus(health.Database[schema].Status))
				}
			}

			// Users
			users, err := apiClient.Users().List(ctx, nil)
			if err != nil {
				fmt.Printf("  Users:    (error: %v)\n", err)
			} else {
				fmt.Printf("  Users:    %d registered\n", users.Pagination.Total)
			}

			// Jobs
			list, err := apiClient.Jobs().List(ctx, nil)
			if err != nil {
				fmt.Printf("  Jobs:     (error: %v)\n", err)
			} else {
				fmt.Printf("  Jobs:     %d total\n", list.Pagination.Total)
			}

			// Alerts
			alerts, err := apiClient.Alerts().Stats(ctx)
			if err != nil {
				fmt.Printf("  Alerts:   (error: %v)\n", err)
			} else {
				fmt.Printf("  Alerts:   %d active", alerts.Active)
				if critical := alerts.BySeverity["critical"]; critical > 0 {
					fmt.Printf(" (%d critical)", critical)
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the admin service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := apiClient.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("service unreachable: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(health)
			}
			fmt.Printf("%s %s %s (%s)\n", health.Service, health.Version, formatStatus(health.Status), health.Environment)
			return nil
		},
	}
}
