package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/archive"
	"github.com/r3d91ll/tanita/pkg/config"
	"github.com/r3d91ll/tanita/pkg/fields"
)

type archiveFlags struct {
	db string
}

// path resolves --db, then input.archive, then the per-user default.
func (f *archiveFlags) path(cmd *cobra.Command, a *app) string {
	if p := pick(cmd, "db", f.db, a.cfg.Input.Archive); p != "" {
		return p
	}
	return config.DefaultArchivePath()
}

func newArchiveCmd(a *app) *cobra.Command {
	f := &archiveFlags{}
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Keep measurement history across card exports",
		Long: `Store decoded measurements in a local archive so history survives the
scale's card being cleared.

Imports are idempotent: a measurement already archived, under any file
name or line, is skipped. Set input.archive in the config, or pass
--archive to report, export, explore or serve, to merge archived
measurements into the input set.

Examples:
  tanita archive import --data-dir /media/card/GRAPHV1/DATA
  tanita archive list
  tanita report --archive ~/.config/tanita/archive`,
	}
	cmd.PersistentFlags().StringVar(&f.db, "db", "", "archive directory (default: input.archive or the user config directory)")
	cmd.AddCommand(
		newArchiveImportCmd(a, f),
		newArchiveListCmd(a, f),
		newArchiveShowCmd(a, f),
		newArchiveDeleteCmd(a, f),
	)
	return cmd
}

func newArchiveImportCmd(a *app, af *archiveFlags) *cobra.Command {
	in := &inputFlags{noArchive: true}
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Add decoded measurements to the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load(cmd.Context(), cmd, in, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Summary())
			if err := res.Err(); err != nil {
				return err
			}

			store, err := archive.Open(af.path(cmd, a))
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Import(res.Measurements)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Archived %d new measurements (%d already present) in %s\n",
				n, len(res.Measurements)-n, store.Path())
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func newArchiveListCmd(a *app, af *archiveFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived measurements, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open(af.path(cmd, a))
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Entries()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				weight := "N/A"
				if w := e.Fields[fields.CodeWeight]; w != "" {
					weight = fields.WithUnit(w, "kg")
				}
				fmt.Fprintf(out, "%s  %-10s %-8s  %8s  %s:%d\n",
					e.ID, e.Fields[fields.CodeDate], e.Fields[fields.CodeTime], weight, e.Source, e.Line)
			}
			fmt.Fprintf(out, "%d archived measurements\n", len(entries))
			return nil
		},
	}
}

func newArchiveShowCmd(a *app, af *archiveFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one archived measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open(af.path(cmd, a))
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s line %d (imported %s)\n", e.Source, e.Line, e.ImportedAt.Format("2006-01-02 15:04"))
			printRecord(out, fields.Grouped(e.Fields), raw, true)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print values as read instead of formatted")
	return cmd
}

func newArchiveDeleteCmd(a *app, af *archiveFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove one archived measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open(af.path(cmd, a))
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.Get(args[0]); err != nil {
				return err
			}
			ok, err := a.prompter(force).Confirm(fmt.Sprintf("Delete archived measurement %s?", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Kept %s\n", args[0])
				return nil
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "y", false, "do not ask for confirmation")
	return cmd
}
