package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/core/calendar"
)

func (cli *commandLine) calendarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Academic years and terms",
	}

	var (
		ny       calendar.NewAcademicYear
		template string
		terms    []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an academic year and its terms",
		Long: `Create an academic year, then its terms.

Dates default to September 1st - August 31st of a "YYYY-YYYY" name, and terms
default to an even split of the year following --template.

Examples:
  admin calendar create --name 2026-2027 --template 3
  admin calendar create --name 2026-2027 --term "Term 1,2026-09-01,2026-12-18" --term "Term 2,2027-01-06,2027-04-09"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseTerms(terms)
			if err != nil {
				return err
			}
			return cli.createCalendar(ny, template, parsed)
		},
	}
	create.Flags().StringVar(&ny.Name, "name", "", "academic year name, eg. 2026-2027")
	create.Flags().StringVar(&ny.StartDate, "start", "", "start date (YYYY-MM-DD)")
	create.Flags().StringVar(&ny.EndDate, "end", "", "end date (YYYY-MM-DD)")
	create.Flags().StringVar(&template, "template", "3", "term template used when no --term is given (2, 3 or 4)")
	create.Flags().StringArrayVar(&terms, "term", nil, `a term as "NAME,START,END" (repeatable)`)
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List academic years and their terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listCalendars()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func parseTerms(values []string) ([]calendar.NewTerm, error) {
	terms := make([]calendar.NewTerm, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ",")
		if len(parts) != 3 {
			return nil, errors.Errorf(`invalid term %q: expected "NAME,START,END"`, v)
		}
		terms = append(terms, calendar.NewTerm{Name: parts[0], StartDate: parts[1], EndDate: parts[2]})
	}
	return terms, nil
}

func (cli *commandLine) createCalendar(ny calendar.NewAcademicYear, template string, terms []calendar.NewTerm) error {
	ny, terms, err := calendar.FillDefaults(ny, template, terms)
	if err != nil {
		return err
	}

	ctx := cli.context()
	creator := calendar.NewCreator(cli.calendarRepo, cli.validate, cli.translator, cli.logger)
	if _, err := creator.CreateYear(ctx, ny); err != nil {
		return cli.printErr(err)
	}
	summary, err := creator.SubmitTerms(ctx, terms)
	if summary == nil {
		if err == nil {
			err = errors.New("no terms were created")
		}
		return cli.printErr(err)
	}

	_, _ = fmt.Fprintln(cli.out, summary.Message)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TERM\tSTART\tEND\t")
	for _, t := range summary.Terms {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t\n", t.Name, t.StartDate, t.EndDate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, f := range summary.Failures {
		_, _ = fmt.Fprintf(cli.out, "failed: %s: %s\n", f.Name, f.Error)
	}
	return err
}

func (cli *commandLine) listCalendars() error {
	years, err := cli.calendarRepo.QueryAcademicYears(cli.context())
	if err != nil {
		return errors.Wrap(err, "querying academic years")
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "YEAR\tSTART\tEND\tTERMS\t")
	for _, y := range years {
		name := y.Name
		if y.IsActive {
			name += " *"
		}
		termNames := make([]string, 0, len(y.Terms))
		for _, t := range y.Terms {
			termNames = append(termNames, t.Name)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", name, y.StartDate, y.EndDate, strings.Join(termNames, ", "))
	}
	return tw.Flush()
}
