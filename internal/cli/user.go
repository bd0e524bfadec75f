package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pratik-mahalle/adminservice/pkg/client"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage platform users",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserSetActiveCmd("activate", true))
	cmd.AddCommand(newUserSetActiveCmd("deactivate", false))
	cmd.AddCommand(newUserTokensCmd())

	return cmd
}

func newUserListCmd() *cobra.Command {
	var opts client.UserListOptions
	var active, inactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case active && inactive:
				return fmt.Errorf("--active and --inactive are mutually exclusive")
			case active:
				opts.IsActive = &active
			case inactive:
				f := false
				opts.IsActive = &f
			}

			ctx := cmd.Context()
			list, err := apiClient.Users().List(ctx, &opts)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "EMAIL", "USERNAME", "TYPE", "ACTIVE", "TOKENS", "JOINED")
			for _, u := range list.Users {
				t.AddRow(
					u.ID,
					u.Email,
					deref(u.Username),
					u.UserType,
					strconv.FormatBool(u.IsActive),
					humanize.Comma(u.TokenBalance),
					formatAge(u.CreatedAt),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d users)\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "users per page")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search email, username or full name")
	cmd.Flags().StringVar(&opts.UserType, "type", "", "filter by user type (user, admin, superadmin)")
	cmd.Flags().StringVar(&opts.AuthProvider, "provider", "", "filter by auth provider")
	cmd.Flags().BoolVar(&active, "active", false, "only active users")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "only inactive users")

	return cmd
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get user details and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			detail, err := apiClient.Users().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			format := getOutputFormat()
			if format != "table" || detail.User == nil {
				return printOutput(detail)
			}

			u := detail.User
			fmt.Printf("ID:            %s\n", u.ID)
			fmt.Printf("Email:         %s\n", u.Email)
			fmt.Printf("Username:      %s\n", deref(u.Username))
			fmt.Printf("Type:          %s\n", u.UserType)
			fmt.Printf("Active:        %t\n", u.IsActive)
			fmt.Printf("Tokens:        %s\n", humanize.Comma(u.TokenBalance))
			if u.Profile != nil {
				fmt.Printf("Full name:     %s\n", deref(u.Profile.FullName))
			}
			fmt.Printf("Conversations: %d\n", detail.Statistics.Conversations)
			for _, status := range sortedKeys(detail.Statistics.Jobs) {
				fmt.Printf("Jobs %-9s %d\n", status+":", detail.Statistics.Jobs[status])
			}
			return nil
		},
	}
}

func newUserSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Set a user's is_active flag to %t", active),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := apiClient.Users().Update(ctx, args[0], client.UserUpdate{IsActive: &active}); err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Printf("User %s %sd\n", args[0], use)
			return nil
		},
	}
}

func newUserTokensCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "tokens <id> <amount>",
		Short: "Credit (positive) or debit (negative) a token balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount == 0 {
				return fmt.Errorf("invalid amount: %s", args[1])
			}

			ctx := cmd.Context()
			adj, err := apiClient.Users().AdjustTokens(ctx, args[0], amount, reason)
			if err != nil {
				return fmt.Errorf("failed to adjust tokens: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(adj)
			}
			fmt.Printf("%s: %s -> %s\n", adj.Email, humanize.Comma(adj.OldBalance), humanize.Comma(adj.NewBalance))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the activity log")

	return cmd
}
