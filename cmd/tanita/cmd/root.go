package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/config"
	"github.com/r3d91ll/tanita/pkg/errors"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "0.3.0"

// Exit codes.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitNoMeasurements = 2
)

// annotationNoConfig marks commands that run without loading a config file.
const annotationNoConfig = "tanita/no-config"

// app carries state shared by every command of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tanita",
		Short: "Decode Tanita body composition exports and render reports",
		Long: `tanita reads the CSV files written by Tanita BC-601/BC-603 FS scales.

Measurement rows (DATA*.CSV) and profile rows (PROF*.CSV) store alternating
field code and value cells. tanita decodes them with a fixed field
dictionary, keeps codes it does not recognise, and renders a PDF report,
CSV/TSV tables or an XLSX workbook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: ./tanita.yaml or the user config directory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log per-line diagnostics")

	root.AddCommand(
		newReportCmd(a),
		newExportCmd(a),
		newDecodeCmd(a),
		newCodesCmd(a),
		newExploreCmd(a),
		newSampleCmd(a),
		newConfigCmd(a),
		newPublishCmd(a),
		newServeCmd(a),
		newArchiveCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup configures logging and loads the config file.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	if cmd.Annotations[annotationNoConfig] == "true" {
		a.cfg = config.Default()
		return nil
	}

	path := a.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(path)
	} else {
		a.cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded", "path", path)
	return nil
}

// Execute runs the root command against os.Args and returns the process
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			errors.Display(errors.InternalPanic(r))
			code = ExitError
		}
	}()

	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	f := errors.DefaultFormatter()
	f.Writer = stderr
	if stderr != os.Stderr {
		f.UseColor = false
	}
	f.Display(err)
	return ExitCode(err)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsCode(err, errors.ErrNoMeasurements):
		return ExitNoMeasurements
	default:
		return ExitError
	}
}
