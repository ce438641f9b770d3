package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/sample"
)

func newSampleCmd(a *app) *cobra.Command {
	var (
		dir  string
		opts sample.Options
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write sample DATA1.CSV and PROF1.CSV files",
		Long: `Write synthetic export files in the scale's format.

The same seed always produces the same files, which makes them usable as
test input for report and export.

Examples:
  tanita sample --dir ./demo --count 12
  tanita report --files demo/DATA1.CSV,demo/PROF1.CSV`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := sample.WriteFiles(dir, opts)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&dir, "dir", ".", "output directory")
	fs.IntVarP(&opts.Count, "count", "n", 5, "number of measurements")
	fs.Int64Var(&opts.Seed, "seed", 1, "random seed")
	fs.BoolVar(&opts.Female, "female", false, "generate a female profile")
	fs.IntVar(&opts.Age, "age", 40, "age in years")
	fs.Float64Var(&opts.Height, "height", 175, "height in cm")
	fs.Float64Var(&opts.Weight, "weight", 80, "starting weight in kg")
	fs.StringVar(&opts.Model, "model", "BC-601", "scale model written in MO")
	return cmd
}
