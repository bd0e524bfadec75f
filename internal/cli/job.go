package cli

import (
	"fmt"

	"github.com/pratik-mahalle/adminservice/pkg/client"
	"github.com/spf13/cobra"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect analysis jobs",
	}

	cmd.AddCommand(newJobListCmd())
	cmd.AddCommand(newJobGetCmd())
	cmd.AddCommand(newJobStatsCmd())
	cmd.AddCommand(newJobResultsCmd())

	return cmd
}

func newJobListCmd() *cobra.Command {
	var opts client.JobListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analysis jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := apiClient.Jobs().List(ctx, &opts)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "JOB ID", "STATUS", "USER", "ASSESSMENT", "CREATED")
			for _, j := range list.Jobs {
				user := "-"
				if j.User != nil {
					user = j.User.Email
				}
				t.AddRow(
					j.ID,
					j.JobID,
					formatStatus(j.Status),
					user,
					truncate(deref(j.AssessmentName), 30),
					formatAge(j.CreatedAt),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d jobs)\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "jobs per page")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "", "sort field")
	cmd.Flags().StringVar(&opts.SortOrder, "sort-order", "", "asc or desc")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "filter by user id")
	cmd.Flags().StringVar(&opts.UserEmail, "user-email", "", "filter by user email (substring)")
	cmd.Flags().StringVar(&opts.AssessmentName, "assessment", "", "filter by assessment name (substring)")
	cmd.Flags().StringVar(&opts.DateFrom, "from", "", "created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.DateTo, "to", "", "created on or before (YYYY-MM-DD)")

	return cmd
}

func newJobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := apiClient.Jobs().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(j)
			}

			fmt.Printf("ID:         %s\n", j.ID)
			fmt.Printf("Job ID:     %s\n", j.JobID)
			fmt.Printf("Status:     %s\n", formatStatus(j.Status))
			fmt.Printf("Assessment: %s\n", deref(j.AssessmentName))
			if j.User != nil {
				fmt.Printf("User:       %s (%s)\n", j.User.Email, j.User.ID)
			}
			fmt.Printf("Retries:    %d\n", j.RetryCount)
			fmt.Printf("Created:    %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
			if j.ProcessingTimeSeconds != nil {
				fmt.Printf("Took:       %ds\n", *j.ProcessingTimeSeconds)
			}
			if j.ErrorMessage != nil {
				fmt.Printf("Error:      %s\n", *j.ErrorMessage)
			}
			return nil
		},
	}
}

func newJobStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stats, err := apiClient.Jobs().Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get job statistics: %w", err)
			}
			return printOutput(stats)
		},
	}
}

func newJobResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <job-id>",
		Short: "Show the analysis results of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var result interface{}
			if err := apiClient.DoRaw(ctx, "GET", "/admin/jobs/"+args[0]+"/results", nil, &result); err != nil {
				return fmt.Errorf("failed to get job results: %w", err)
			}
			return printOutput(result)
		},
	}
}
