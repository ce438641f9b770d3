package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/publish"
	"github.com/r3d91ll/tanita/pkg/reader"
)

type decodeFlags struct {
	input  inputFlags
	json   bool
	raw    bool
	groups bool
}

func newDecodeCmd(a *app) *cobra.Command {
	f := &decodeFlags{}
	cmd := &cobra.Command{
		Use:   "decode [files...]",
		Short: "Print decoded records for inspection",
		Long: `Decode export files and print every record.

Fields are listed in presentation order: primary vitals, regional fat,
regional muscle, then the rest, with unrecognised codes last. --json
writes one JSON object per record, the same body the publish command
sends.

Examples:
  tanita decode DATA1.CSV
  tanita decode --json PROF1.CSV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDecode(cmd, f, args)
		},
	}
	f.input.register(cmd)
	cmd.Flags().BoolVar(&f.json, "json", false, "one JSON object per record")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "print values as read instead of formatted")
	cmd.Flags().BoolVar(&f.groups, "groups", false, "print tier headings")
	return cmd
}

func (a *app) runDecode(cmd *cobra.Command, f *decodeFlags, args []string) error {
	f.input.quiet = true
	res, err := a.load(cmd.Context(), cmd, &f.input, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := append(append([]reader.Row(nil), res.Measurements...), res.Profiles...)
	if f.json {
		enc := json.NewEncoder(out)
		for _, row := range rows {
			if err := enc.Encode(publish.NewMessage(row)); err != nil {
				return err
			}
		}
	} else {
		for i, row := range rows {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s line %d\n", row.Source, row.Line)
			printRecord(out, fields.Grouped(row.Record.Fields()), f.raw, f.groups)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", res.Summary())
	}
	if len(rows) == 0 {
		return res.Err()
	}
	return nil
}

func printRecord(w io.Writer, groups []fields.Group, raw, headings bool) {
	for _, g := range groups {
		if headings {
			fmt.Fprintf(w, "  [%s]\n", g.Tier)
		}
		for _, e := range g.Entries {
			value := e.Display()
			if raw {
				value = e.Value
			}
			fmt.Fprintf(w, "  %-3s %-30s %s\n", e.Code, e.Meaning.Label, value)
		}
	}
}
