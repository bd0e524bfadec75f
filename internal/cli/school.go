package cli

import (
	"fmt"
	"strconv"

	"github.com/pratik-mahalle/adminservice/pkg/client"
	"github.com/spf13/cobra"
)

func newSchoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "school",
		Short: "Manage schools",
	}

	cmd.AddCommand(newSchoolListCmd())
	cmd.AddCommand(newSchoolGetCmd())
	cmd.AddCommand(newSchoolCreateCmd())
	cmd.AddCommand(newSchoolDeleteCmd())

	return cmd
}

func parseSchoolID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid school ID: %s", arg)
	}
	return id, nil
}

func newSchoolListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := apiClient.Schools().List(ctx, &opts)
			if err != nil {
				return fmt.Errorf("failed to list schools: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "NAME", "CITY", "PROVINCE")
			for _, s := range list.Schools {
				t.AddRow(strconv.FormatInt(s.ID, 10), truncate(s.Name, 40), deref(s.City), deref(s.Province))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "schools per page")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search name, city or province")

	return cmd
}

func newSchoolGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get school details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSchoolID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			detail, err := apiClient.Schools().Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get school: %w", err)
			}

			format := getOutputFormat()
			if format != "table" || detail.School == nil {
				return printOutput(detail)
			}

			fmt.Printf("ID:       %d\n", detail.School.ID)
			fmt.Printf("Name:     %s\n", detail.School.Name)
			fmt.Printf("Address:  %s\n", deref(detail.School.Address))
			fmt.Printf("City:     %s\n", deref(detail.School.City))
			fmt.Printf("Province: %s\n", deref(detail.School.Province))
			fmt.Printf("Users:    %d\n", detail.UserCount)
			return nil
		},
	}
}

func newSchoolCreateCmd() *cobra.Command {
	var name, address, city, province string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a school",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = promptInput("School name: ")
			}

			in := client.SchoolInput{Name: &name}
			if address != "" {
				in.Address = &address
			}
			if city != "" {
				in.City = &city
			}
			if province != "" {
				in.Province = &province
			}

			ctx := cmd.Context()
			school, err := apiClient.Schools().Create(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to create school: %w", err)
			}
			fmt.Printf("School '%s' created with ID %d\n", school.Name, school.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "school name")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&province, "province", "", "province")

	return cmd
}

func newSchoolDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a school no user references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSchoolID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := apiClient.Schools().Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete school: %w", err)
			}
			fmt.Printf("School %d deleted\n", id)
			return nil
		},
	}
}
