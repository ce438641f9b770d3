package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/r3d91ll/tanita/pkg/config"
	"github.com/r3d91ll/tanita/pkg/export"
	"github.com/r3d91ll/tanita/pkg/reader"
	"github.com/r3d91ll/tanita/pkg/shell"
	"github.com/r3d91ll/tanita/pkg/spinner"
)

type reportFlags struct {
	input inputFlags

	output   string
	csv      string
	xlsx     string
	title    string
	author   string
	pageSize string

	noComparison bool
	noGauges     bool
	noRadars     bool
	hideUnknown  bool
	noProfiles   bool
	validate     bool
	force        bool
}

func newReportCmd(a *app) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report [files...]",
		Short: "Render a PDF report from scale exports",
		Long: `Render a PDF report from DATA and PROF export files.

The report lists every measurement with its fields, reference range gauges
and segment radars, then compares the two most recent measurements.
Without --data-dir, --system-dir or files, DATA*.CSV and PROF*.CSV files in
the working directory are used.

Exit status is 2 when no measurement could be decoded.

Examples:
  tanita report --data-dir /media/sd/GRAPHV1/DATA --system-dir /media/sd/GRAPHV1/SYSTEM
  tanita report DATA1.CSV -o january.pdf --csv january.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, f, args)
		},
	}
	f.input.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "PDF output path")
	fs.StringVar(&f.csv, "csv", "", "also write a CSV (or .tsv) table")
	fs.StringVar(&f.xlsx, "xlsx", "", "also write an XLSX workbook")
	fs.StringVar(&f.title, "title", "", "report title")
	fs.StringVar(&f.author, "author", "", "author shown on the cover")
	fs.StringVar(&f.pageSize, "page-size", "", "A4, A5, Letter or Legal")
	fs.BoolVar(&f.noComparison, "no-comparison", false, "omit the comparison section")
	fs.BoolVar(&f.noGauges, "no-gauges", false, "omit reference range gauges")
	fs.BoolVar(&f.noRadars, "no-radars", false, "omit segment radars")
	fs.BoolVar(&f.hideUnknown, "hide-unknown", false, "leave unrecognised codes out of the tables")
	fs.BoolVar(&f.noProfiles, "no-profiles", false, "omit the profiles appendix")
	fs.BoolVar(&f.validate, "validate", false, "check the written PDF with pdfcpu")
	fs.BoolVar(&f.force, "force", false, "overwrite existing outputs without asking")
	return cmd
}

// reportConfig merges config file values and flags.
func (a *app) reportConfig(cmd *cobra.Command, f *reportFlags) (*export.ReportConfig, string) {
	rc := a.cfg.Report
	flags := cmd.Flags()
	if flags.Changed("output") {
		rc.Output = f.output
	}
	if flags.Changed("title") {
		rc.Title = f.title
	}
	if flags.Changed("author") {
		rc.Author = f.author
	}
	if flags.Changed("page-size") {
		rc.PageSize = f.pageSize
	}
	if f.noComparison {
		rc.IncludeComparison = false
	}
	if f.noGauges {
		rc.IncludeGauges = false
	}
	if f.noRadars {
		rc.IncludeRadars = false
	}
	if f.hideUnknown {
		rc.ShowUnknownFields = false
	}

	out := export.DefaultReportConfig()
	if rc.Title != "" {
		out.Title = rc.Title
	}
	out.Author = rc.Author
	if rc.PageSize != "" {
		out.PageSize = pageSize(rc.PageSize)
	}
	out.IncludeComparison = rc.IncludeComparison
	out.IncludeGauges = rc.IncludeGauges
	out.IncludeRadars = rc.IncludeRadars
	out.ShowUnknownFields = rc.ShowUnknownFields
	out.IncludeProfiles = !f.noProfiles
	out.ToolVersion = "tanita " + Version

	output := rc.Output
	if output == "" {
		output = config.Default().Report.Output
	}
	return out, output
}

// pageSize maps config spellings to fpdf size names.
func pageSize(s string) string {
	switch strings.ToUpper(s) {
	case "LETTER":
		return "Letter"
	case "LEGAL":
		return "Legal"
	default:
		return strings.ToUpper(s)
	}
}

func (a *app) prompter(force bool) shell.Prompter {
	if force || !term.IsTerminal(int(os.Stdin.Fd())) {
		return shell.AlwaysYes{}
	}
	return shell.NewInteractivePrompter()
}

func (a *app) runReport(cmd *cobra.Command, f *reportFlags, args []string) error {
	res, err := a.load(cmd.Context(), cmd, &f.input, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Summary())
	if err := res.Err(); err != nil {
		return err
	}

	rc, output := a.reportConfig(cmd, f)
	ok, err := shell.ConfirmOverwrite(a.prompter(f.force), output)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "Skipped %s\n", output)
		return nil
	}

	builder := export.NewReportBuilder().
		WithConfig(rc).
		WithSubject(a.cfg.Report.Subject).
		WithKeywords(a.cfg.Report.Keywords).
		AddMeasurements(res.Measurements...).
		AddProfiles(res.Profiles...)

	spin := spinner.New(cmd.ErrOrStderr(), "Rendering "+output)
	spin.Start()
	if err := builder.WriteFile(output); err != nil {
		spin.Fail("Report failed")
		return err
	}
	spin.Success(fmt.Sprintf("Report written to %s (%d pages)", output, builder.Pages()))
	a.logger.Debug("report rendered", "report_id", builder.ReportID(), "dataset", builder.Dataset().ShortHash())

	if f.validate || a.cfg.Report.Validate {
		info, err := export.ValidatePDF(output)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Validated %s: %d pages, %.0fx%.0f pt\n", output, info.Pages, info.Width, info.Height)
	}

	return a.writeTables(cmd, res, tableTargets{
		csv:  pick(cmd, "csv", f.csv, a.cfg.Export.CSV),
		xlsx: pick(cmd, "xlsx", f.xlsx, a.cfg.Export.XLSX),
	}, a.prompter(f.force))
}

// pick returns the flag value when the flag was set, else the config value.
func pick(cmd *cobra.Command, flag, flagValue, configValue string) string {
	if cmd.Flags().Changed(flag) {
		return flagValue
	}
	return configValue
}

type tableTargets struct {
	csv  string
	xlsx string
}

// writeTables writes the requested CSV and XLSX tables. A declined
// overwrite skips that target only.
func (a *app) writeTables(cmd *cobra.Command, res *reader.LoadResult, t tableTargets, prompt shell.Prompter) error {
	out := cmd.OutOrStdout()

	if t.csv != "" {
		ok, err := shell.ConfirmOverwrite(prompt, t.csv)
		if err != nil {
			return err
		}
		if ok {
			cc := export.DefaultCSVConfig()
			cc.NAString = a.cfg.Export.NAString
			if err := export.WriteCSVFile(t.csv, res.Measurements, cc); err != nil {
				return err
			}
			fmt.Fprintf(out, "Table written to %s\n", t.csv)
		} else {
			fmt.Fprintf(out, "Skipped %s\n", t.csv)
		}
	}

	if t.xlsx != "" {
		ok, err := shell.ConfirmOverwrite(prompt, t.xlsx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "Skipped %s\n", t.xlsx)
			return nil
		}
		xc := export.DefaultXLSXConfig()
		xc.NAString = a.cfg.Export.NAString
		if err := export.WriteXLSXFile(t.xlsx, res.Measurements, xc); err != nil {
			return err
		}
		fmt.Fprintf(out, "Workbook written to %s\n", t.xlsx)
	}
	return nil
}
