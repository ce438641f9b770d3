package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
)

func newCodesCmd(a *app) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "codes [query]",
		Short: "List the field code dictionary",
		Long: `List the field codes the decoder recognises, grouped by tier.

With a query only codes whose code or label contains it are listed.
--interactive opens the explorer shell with tab completion over codes.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return a.runShell(cmd, nil)
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				found := fields.Search(args[0])
				if len(found) == 0 {
					return errors.Commandf(errors.ErrCommandInvalidArg, "no field code matches %q", args[0])
				}
				for _, m := range found {
					printMeaning(out, m)
				}
				return nil
			}
			tier := fields.Tier(-1)
			for _, m := range fields.All() {
				if m.Tier != tier {
					tier = m.Tier
					fmt.Fprintf(out, "%s\n", tier)
				}
				printMeaning(out, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the explorer shell")
	return cmd
}

func printMeaning(w io.Writer, m fields.Meaning) {
	unit := m.Unit
	if unit == "" {
		unit = "-"
	}
	fmt.Fprintf(w, "  %-3s %-30s %-6s %s\n", m.Code, m.Label, unit, m.Kind)
}

// historyFile is the explorer's readline history in the user cache
// directory, or empty when that is unavailable.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "tanita")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
