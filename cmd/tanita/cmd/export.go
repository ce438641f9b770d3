package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/export"
	"github.com/r3d91ll/tanita/pkg/shell"
)

type exportFlags struct {
	input    inputFlags
	output   string
	format   string
	na       string
	allCodes bool
	profiles bool
	force    bool
}

func newExportCmd(a *app) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export -o <file> [files...]",
		Short: "Write decoded measurements as CSV, TSV or XLSX",
		Long: `Write one row per decoded measurement to a table.

Columns are the source file and line, then every field code present in
dictionary order, then unrecognised codes sorted. Values are written as
read from the scale. The format follows the output extension unless
--format is given.

Examples:
  tanita export -o measurements.csv --data-dir GRAPHV1/DATA
  tanita export -o measurements.xlsx DATA1.CSV DATA2.CSV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, f, args)
		},
	}
	f.input.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "output path (.csv, .tsv or .xlsx)")
	fs.StringVar(&f.format, "format", "", "csv, tsv or xlsx (default: from the extension)")
	fs.StringVar(&f.na, "na", "", "text for missing values (default from config)")
	fs.BoolVar(&f.allCodes, "all-codes", false, "one column per dictionary code, present or not")
	fs.BoolVar(&f.profiles, "profiles", false, "export profile rows instead of measurements")
	fs.BoolVar(&f.force, "force", false, "overwrite without asking")
	cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, f *exportFlags, args []string) error {
	format, err := export.FormatForPath(f.output)
	if f.format != "" {
		format, err = export.ParseFormat(f.format)
	}
	if err != nil {
		return err
	}
	if format == export.FormatPDF {
		return errors.ExportInvalidFormat(string(format)).
			WithSuggestion("Use tanita report for PDF output")
	}

	res, err := a.load(cmd.Context(), cmd, &f.input, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Summary())

	rows := res.Measurements
	if f.profiles {
		rows = res.Profiles
	} else if err := res.Err(); err != nil {
		return err
	}

	ok, err := shell.ConfirmOverwrite(a.prompter(f.force), f.output)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "Skipped %s\n", f.output)
		return nil
	}

	na := a.cfg.Export.NAString
	if cmd.Flags().Changed("na") {
		na = f.na
	}

	switch format {
	case export.FormatXLSX:
		xc := export.DefaultXLSXConfig()
		xc.NAString = na
		xc.AllCodes = f.allCodes
		err = export.WriteXLSXFile(f.output, rows, xc)
	default:
		cc := export.DefaultCSVConfig()
		cc.NAString = na
		cc.AllCodes = f.allCodes
		if format == export.FormatTSV {
			cc.Dialect = export.DialectTSV
		}
		err = export.WriteCSVFile(f.output, rows, cc)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d rows written to %s\n", len(rows), f.output)
	return nil
}
