package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/fee/document"
	"github.com/trezcool/masomo-admin/core/feewizard"
)

const (
	modeUniform = "uniform"
	modePerTerm = "per-term"
)

func (cli *commandLine) feesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Fee structures",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List fee structures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listStructures()
		},
	}

	var file, format string
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the fee document of a draft form (JSON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.previewForm(file, format)
		},
	}
	preview.Flags().StringVarP(&file, "file", "f", "", `draft form JSON file ("-" for stdin)`)
	preview.Flags().StringVar(&format, "format", "text", "text or html")

	var mode string
	save := &cobra.Command{
		Use:   "save",
		Short: "Save fee structures from a draft form (JSON)",
		Long: `Save fee structures from a draft form.

With --mode uniform the file holds a draft form (name, academicYear, gradeLevelIds,
termStructures) and one fee structure is created.
With --mode per-term the file holds a per-term form (name, academicYearId,
gradeLevelIds, selectedTermIds, selectedBuckets, termBucketAmounts) and one fee
structure is created per term when amounts differ between terms.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.saveStructures(file, mode)
		},
	}
	save.Flags().StringVarP(&file, "file", "f", "", `form JSON file ("-" for stdin)`)
	save.Flags().StringVar(&mode, "mode", modeUniform, "uniform or per-term")

	cmd.AddCommand(list, preview, save)
	return cmd
}

func (cli *commandLine) listStructures() error {
	structures, err := cli.feeRepo.QueryFeeStructures(cli.context())
	if err != nil {
		return errors.Wrap(err, "querying fee structures")
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "NAME\tYEAR\tTERMS\tGRADES\tTOTAL\t")
	for _, fs := range structures {
		terms := make([]string, 0, len(fs.Terms))
		for _, t := range fs.Terms {
			terms = append(terms, t.Name)
		}
		grades := make([]string, 0, len(fs.GradeLevels))
		for _, g := range fs.GradeLevels {
			grades = append(grades, g.Name)
		}
		total := fee.ItemsGrandTotal(fs.AggregatedItems())
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			fs.Name, fs.AcademicYear.Name, strings.Join(terms, ", "), strings.Join(grades, ", "), total.Format())
	}
	return tw.Flush()
}

func (cli *commandLine) previewForm(file, format string) error {
	var form fee.FeeStructureForm
	if err := cli.readJSON(file, &form); err != nil {
		return err
	}
	buckets, err := cli.feeRepo.QueryFeeBuckets(cli.context())
	if err != nil {
		return errors.Wrap(err, "querying fee buckets")
	}

	doc := document.Render(form, buckets)
	switch strings.ToLower(format) {
	case "text", "txt":
		return document.WriteText(cli.out, doc)
	case "html":
		return document.WriteHTML(cli.out, doc)
	default:
		return errors.Errorf("unknown format %q: expected text or html", format)
	}
}

func (cli *commandLine) saveStructures(file, mode string) error {
	ctx := cli.context()
	ref, err := feewizard.LoadReferenceData(ctx, cli.calendarRepo, cli.feeRepo, "")
	if err != nil {
		return errors.Wrap(err, "loading reference data")
	}

	var report *feewizard.SaveReport
	switch mode {
	case modeUniform:
		var form fee.FeeStructureForm
		if err := cli.readJSON(file, &form); err != nil {
			return err
		}
		w := feewizard.NewUniformAmountWizard(cli.feeRepo, ref, cli.validate, cli.translator, cli.logger)
		w.SetDraft(fee.Draft{Form: form, Catalog: ref.FeeBuckets})
		report, err = w.Save(ctx)
	case modePerTerm:
		var form feewizard.PerTermForm
		if err := cli.readJSON(file, &form); err != nil {
			return err
		}
		w := feewizard.NewPerTermAmountWizard(cli.feeRepo, ref, cli.validate, cli.translator, cli.logger)
		w.Resume(form, nil)
		report, err = w.Save(ctx)
	default:
		return errors.Errorf("unknown mode %q: expected %s or %s", mode, modeUniform, modePerTerm)
	}

	if report != nil {
		cli.printReport(report)
	}
	if err != nil {
		return cli.printErr(err)
	}
	return nil
}

func (cli *commandLine) printReport(report *feewizard.SaveReport) {
	for _, fs := range report.Structures {
		total := fee.ItemsGrandTotal(fs.AggregatedItems())
		_, _ = fmt.Fprintf(cli.out, "created %q (%s): %d item(s), total %s\n", fs.Name, fs.ID, len(fs.Items), total.Format())
	}
	for _, w := range report.Warnings {
		_, _ = fmt.Fprintf(cli.out, "warning: %s\n", w)
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(cli.out, "failed %q: %s\n", f.Name, f.Error)
	}
}
