package cli

import (
	"fmt"
	"sort"

	"github.com/pratik-mahalle/adminservice/pkg/client"
	"github.com/spf13/cobra"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage system alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertStatsCmd())
	cmd.AddCommand(newAlertAcknowledgeCmd())
	cmd.AddCommand(newAlertResolveCmd())
	cmd.AddCommand(newAlertTestCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var severity, status, alertType string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			list, err := apiClient.Alerts().List(ctx, &client.AlertListOptions{
				Page:     page,
				Limit:    limit,
				Type:     alertType,
				Severity: severity,
				Status:   status,
			})
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "TYPE", "SEVERITY", "STATUS", "AGE", "TITLE")
			for _, a := range list.Alerts {
				t.AddRow(
					a.ID,
					a.Type,
					formatSeverity(a.Severity),
					formatStatus(a.Status),
					formatAge(a.CreatedAt),
					truncate(a.Title, 50),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d alerts)\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity (info, warning, error, critical)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, acknowledged, resolved)")
	cmd.Flags().StringVar(&alertType, "type", "", "filter by type")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 50, "alerts per page")

	return cmd
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			alert, err := apiClient.Alerts().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get alert: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(alert)
			}

			printAlert(alert)
			return nil
		},
	}
}

func printAlert(a *client.Alert) {
	fmt.Printf("ID:       %s\n", a.ID)
	fmt.Printf("Type:     %s\n", a.Type)
	fmt.Printf("Severity: %s\n", formatSeverity(a.Severity))
	fmt.Printf("Status:   %s\n", formatStatus(a.Status))
	fmt.Printf("Title:    %s\n", a.Title)
	fmt.Printf("Message:  %s\n", a.Message)
	fmt.Printf("Created:  %s (%s)\n", a.CreatedAt.Format("2006-01-02 15:04:05"), formatAge(a.CreatedAt))
	if a.AcknowledgedAt != nil {
		fmt.Printf("Acked:    %s by %s\n", a.AcknowledgedAt.Format("2006-01-02 15:04:05"), a.AcknowledgedBy)
	}
	if a.ResolvedAt != nil {
		fmt.Printf("Resolved: %s by %s\n", a.ResolvedAt.Format("2006-01-02 15:04:05"), a.ResolvedBy)
		if a.Resolution != "" {
			fmt.Printf("Note:     %s\n", a.Resolution)
		}
	}
}

func newAlertStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show alert counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stats, err := apiClient.Alerts().Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get alert statistics: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Total: %d  Active: %d  Acknowledged: %d  Resolved: %d\n\n",
				stats.Total, stats.Active, stats.Acknowledged, stats.Resolved)

			t := NewTable("SEVERITY", "COUNT")
			for _, k := range sortedKeys(stats.BySeverity) {
				t.AddRow(formatSeverity(k), fmt.Sprint(stats.BySeverity[k]))
			}
			t.Render()
			fmt.Println()

			t = NewTable("TYPE", "COUNT")
			for _, k := range sortedKeys(stats.ByType) {
				t.AddRow(k, fmt.Sprint(stats.ByType[k]))
			}
			t.Render()
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newAlertAcknowledgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acknowledge <id>",
		Short: "Acknowledge an active alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := apiClient.Alerts().Acknowledge(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to acknowledge alert: %w", err)
			}

			fmt.Printf("Alert %s acknowledged\n", args[0])
			return nil
		},
	}
}

func newAlertResolveCmd() *cobra.Command {
	var resolution string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := apiClient.Alerts().Resolve(ctx, args[0], resolution); err != nil {
				return fmt.Errorf("failed to resolve alert: %w", err)
			}

			fmt.Printf("Alert %s resolved\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&resolution, "note", "", "resolution note")

	return cmd
}

func newAlertTestCmd() *cobra.Command {
	var req client.TestAlertRequest

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Raise a test alert (non-production servers only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			alert, err := apiClient.Alerts().CreateTest(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create test alert: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(alert)
			}
			printAlert(alert)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "alert type")
	cmd.Flags().StringVar(&req.Severity, "severity", "", "alert severity")
	cmd.Flags().StringVar(&req.Title, "title", "", "alert title")
	cmd.Flags().StringVar(&req.Message, "message", "", "alert message")

	return cmd
}
