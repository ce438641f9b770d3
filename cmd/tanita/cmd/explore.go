package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/reader"
	"github.com/r3d91ll/tanita/pkg/shell"
)

func newExploreCmd(a *app) *cobra.Command {
	f := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "explore [files...]",
		Short: "Browse decoded measurements in an interactive shell",
		Long: `Load export files and open the explorer shell.

Inside the shell /list, /show, /gauges and /compare browse the loaded
measurements, /codes, /describe and /search explain field codes, and a
pasted export line is decoded on the spot. Type /help for the reference.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load(cmd.Context(), cmd, f, args)
			if err != nil {
				return err
			}
			opts, err := a.readerOptions(cmd, f)
			if err != nil {
				return err
			}
			return a.runShellWith(cmd, res, opts.Decoder)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) runShell(cmd *cobra.Command, res *reader.LoadResult) error {
	return a.runShellWith(cmd, res, nil)
}

func (a *app) runShellWith(cmd *cobra.Command, res *reader.LoadResult, dec *decoder.Decoder) error {
	var stdin io.ReadCloser = os.Stdin
	if in := cmd.InOrStdin(); in != os.Stdin {
		stdin = io.NopCloser(in)
	}
	sh, err := shell.New(res, shell.Config{
		HistoryFile: historyFile(),
		Decoder:     dec,
		Color:       term.IsTerminal(int(os.Stdout.Fd())),
		Stdin:       stdin,
		Stdout:      cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	return sh.Run(cmd.Context())
}
