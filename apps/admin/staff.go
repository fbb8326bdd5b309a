package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/staff"
)

func (cli *commandLine) staffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff members",
	}

	var (
		filter           staff.QueryFilter
		active, from, to string
		ordering         string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List staff members",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if active != "" {
				isActive, pErr := strconv.ParseBool(active)
				if pErr != nil {
					return errors.Errorf("--active must be true or false (got %q)", active)
				}
				filter.IsActive = &isActive
			}
			if filter.HiredFrom, err = core.ParseDate(from); err != nil {
				return err
			}
			if filter.HiredTo, err = core.ParseDate(to); err != nil {
				return err
			}
			return cli.listStaff(filter, core.ParseOrderings(ordering))
		},
	}
	list.Flags().StringVarP(&filter.Search, "search", "s", "", "search names, emails and phones")
	list.Flags().StringSliceVar(&filter.Roles, "role", nil, "filter by role (repeatable or comma separated)")
	list.Flags().StringSliceVar(&filter.Departments, "department", nil, "filter by department")
	list.Flags().StringVar(&active, "active", "", "filter by active status (true or false)")
	list.Flags().StringVar(&from, "hired-from", "", "hired on or after (YYYY-MM-DD)")
	list.Flags().StringVar(&to, "hired-to", "", "hired on or before (YYYY-MM-DD)")
	list.Flags().StringVar(&ordering, "ordering", "", "comma separated fields, prefix with - for descending, eg. -hire_date,last_name")

	cmd.AddCommand(list)
	return cmd
}

func (cli *commandLine) listStaff(filter staff.QueryFilter, orderings []core.Ordering) error {
	svc := staff.NewService(cli.staffRepo, cli.validate, cli.logger)
	members, err := svc.Query(cli.context(), filter, orderings)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tEMAIL\tROLE\tDEPARTMENT\tHIRED\tACTIVE\t")
	for _, s := range members {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t\n", s.FullName(), s.Email, s.Role, s.Department, s.HireDate, s.IsActive)
	}
	return tw.Flush()
}
