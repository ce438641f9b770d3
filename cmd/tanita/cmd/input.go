package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/archive"
	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/reader"
	"github.com/r3d91ll/tanita/pkg/spinner"
)

// inputFlags select and decode the input set. Unset flags fall back to the
// input section of the config.
type inputFlags struct {
	dataDir   string
	systemDir string
	files     []string
	matcher   string
	encoding  string
	workers   int
	archive   string
	quiet     bool

	// noArchive skips the archive merge for commands that write the archive.
	noArchive bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.dataDir, "data-dir", "d", "", "directory with DATA*.CSV measurement files")
	fs.StringVarP(&f.systemDir, "system-dir", "s", "", "directory with PROF*.CSV profile files")
	fs.StringSliceVarP(&f.files, "files", "f", nil, "explicit DATA/PROF files (repeatable)")
	fs.StringVar(&f.matcher, "matcher", "", "code detection: shape or parity")
	fs.StringVar(&f.encoding, "encoding", "", "charset for files that are not UTF-8")
	fs.IntVar(&f.workers, "workers", 0, "files parsed concurrently")
	fs.StringVar(&f.archive, "archive", "", "merge measurements from this archive")
}

// options resolves the reader options from flags and config.
func (a *app) readerOptions(cmd *cobra.Command, f *inputFlags) (reader.Options, error) {
	in := a.cfg.Input
	if cmd.Flags().Changed("matcher") {
		in.Matcher = f.matcher
	}
	if cmd.Flags().Changed("encoding") {
		in.Encoding = f.encoding
	}
	if cmd.Flags().Changed("workers") {
		in.Workers = f.workers
	}

	matcher, err := decoder.MatcherByName(in.Matcher)
	if err != nil {
		return reader.Options{}, err
	}
	enc, err := reader.LookupEncoding(in.Encoding)
	if err != nil {
		return reader.Options{}, err
	}
	return reader.Options{
		Decoder:  decoder.New(matcher),
		Fallback: enc,
		Workers:  in.Workers,
		Logger:   a.logger,
	}, nil
}

// sources resolves the input files. Positional args are treated as files.
func (a *app) sources(cmd *cobra.Command, f *inputFlags, args []string) []reader.Source {
	sel := reader.Sources{
		DataDir:   a.cfg.Input.DataDir,
		SystemDir: a.cfg.Input.SystemDir,
		Files:     append(append([]string(nil), f.files...), args...),
	}
	if cmd.Flags().Changed("data-dir") {
		sel.DataDir = f.dataDir
	}
	if cmd.Flags().Changed("system-dir") {
		sel.SystemDir = f.systemDir
	}
	if len(sel.Files) > 0 && !cmd.Flags().Changed("data-dir") && !cmd.Flags().Changed("system-dir") {
		// Explicit files replace the configured directories.
		sel.DataDir, sel.SystemDir = "", ""
	}

	srcs, warnings := reader.Scan(sel)
	for _, w := range warnings {
		a.logger.Warn(errors.Sprint(w))
	}
	return srcs
}

// load scans and parses the input set with a progress line on stderr.
func (a *app) load(ctx context.Context, cmd *cobra.Command, f *inputFlags, args []string) (*reader.LoadResult, error) {
	opts, err := a.readerOptions(cmd, f)
	if err != nil {
		return nil, err
	}
	srcs := a.sources(cmd, f, args)
	if len(srcs) == 0 {
		a.logger.Warn("no DATA or PROF files found; pass --data-dir, --system-dir or --files")
	}

	quiet := f.quiet || len(srcs) == 0
	progress := spinner.NewFileProgress(cmd.ErrOrStderr(), "Reading", len(srcs))
	if !quiet {
		progress.Start()
		opts.OnFile = func(file reader.File) {
			progress.Step(file.Name(), len(file.Rows), file.Err)
		}
	}

	res := reader.Load(ctx, srcs, opts)
	if !quiet {
		progress.Complete(fmt.Sprintf("Read %d files", len(res.Files)))
	}
	for _, file := range res.Failed() {
		a.logger.Warn("file skipped", "file", file.Path, "error", file.Err)
	}
	for _, file := range res.EmptyFiles() {
		a.logger.Info("file has no decodable rows", "file", file.Path, "skipped_lines", len(file.Issues))
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if path := pick(cmd, "archive", f.archive, a.cfg.Input.Archive); path != "" && !f.noArchive {
		if err := a.mergeArchive(path, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (a *app) mergeArchive(path string, res *reader.LoadResult) error {
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Merge(res)
	if err != nil {
		return err
	}
	a.logger.Info("merged archived measurements", "archive", path, "added", n)
	return nil
}
