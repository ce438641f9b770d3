// Package reader is the file boundary around the row decoder.
//
// It finds Tanita export files, turns their bytes into text, splits the
// text into CSV rows and hands every row to the decoder. Failures are
// isolated: a bad line is recorded against its file and a bad file is
// recorded in the load result, neither stops the rest of the input set.
package reader

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/encoding"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
)

// Row is one decoded line of an export file.
type Row struct {
	// Source is the base name of the file the row came from.
	Source string

	// Line is the 1-based line number in the source file.
	Line int

	Record decoder.Record

	// Raw holds the cells as read.
	Raw []string
}

// Issue is a line that produced no record.
type Issue struct {
	Line   int
	Reason string
	Err    error
}

// File is the outcome of parsing one export file.
type File struct {
	Path    string
	Kind    Kind
	Charset string
	Rows    []Row
	Issues  []Issue

	// Err is set when the file could not be read at all.
	Err error
}

// Name returns the file's base name.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// Options configures parsing.
type Options struct {
	// Decoder decodes rows. Nil uses the shape matcher.
	Decoder *decoder.Decoder

	// Fallback is the charset for files that are not UTF-8.
	// Nil means Windows-1252.
	Fallback encoding.Encoding

	// Workers bounds concurrent file parsing in Load. Values below 1 mean 1.
	Workers int

	// Logger receives per-row diagnostics at debug level.
	Logger *slog.Logger

	// OnFile is called after each file is parsed. Calls are serialised.
	OnFile func(File)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) decoder() *decoder.Decoder {
	if o.Decoder != nil {
		return o.Decoder
	}
	return &decoder.Decoder{}
}

// ParseFile reads and decodes one file.
func ParseFile(path string, kind Kind, opts Options) File {
	f := File{Path: path, Kind: kind}

	data, err := os.ReadFile(path)
	if err != nil {
		f.Err = errors.InputUnreadable(path, err).WithContext(errors.ContextKind, kind.String())
		return f
	}

	text, err := DecodeText(data, opts.Fallback)
	if err != nil {
		f.Err = err
		return f
	}
	f.Charset = text.Charset
	if text.Charset != "utf-8" {
		opts.logger().Debug("decoded with fallback charset", "file", f.Name(), "charset", text.Charset)
	}

	parseRows(&f, strings.NewReader(text.Content), opts)
	return f
}

// ParseReader decodes rows from already-decoded text. name is used as the
// row source.
func ParseReader(name string, kind Kind, r io.Reader, opts Options) File {
	f := File{Path: name, Kind: kind, Charset: "utf-8"}
	parseRows(&f, r, opts)
	return f
}

func parseRows(f *File, r io.Reader, opts Options) {
	log := opts.logger()
	dec := opts.decoder()
	source := f.Name()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for {
		cells, err := cr.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				f.Issues = append(f.Issues, Issue{
					Line:   perr.StartLine,
					Reason: "malformed CSV line",
					Err: errors.InputWrap(err, errors.ErrInputMalformedLine, "malformed CSV line").
						WithContext(errors.ContextPath, f.Path),
				})
				log.Debug("skipping malformed line", "file", source, "line", perr.StartLine, "error", err)
				continue
			}
			f.Err = errors.InputUnreadable(f.Path, err)
			return
		}

		line, _ := cr.FieldPos(0)
		if len(cells) < 2 {
			f.Issues = append(f.Issues, Issue{Line: line, Reason: "fewer than two cells"})
			continue
		}

		res, err := dec.DecodeDetailed(cells)
		if err != nil {
			f.Issues = append(f.Issues, Issue{Line: line, Reason: "row rejected by decoder", Err: err})
			continue
		}
		if res.Trailing {
			log.Debug("ignored unpaired trailing cell", "file", source, "line", line, "cell", cells[len(cells)-1])
		}
		if res.Skipped > 0 {
			log.Debug("skipped non-code pairs", "file", source, "line", line, "pairs", res.Skipped)
		}
		if res.Record.Len() == 0 {
			f.Issues = append(f.Issues, Issue{Line: line, Reason: "no field codes"})
			continue
		}

		f.Rows = append(f.Rows, Row{
			Source: source,
			Line:   line,
			Record: res.Record,
			Raw:    cells,
		})
	}
}

// -----------------------------------------------------------------------------
// Loading Input Sets
// -----------------------------------------------------------------------------

// LoadResult aggregates the parsed input set.
type LoadResult struct {
	Files        []File
	Measurements []Row
	Profiles     []Row
	Warnings     []error
}

// Load parses sources concurrently. Files keep the order of sources.
// Cancelling ctx stops scheduling; unscheduled files carry ctx.Err().
func Load(ctx context.Context, sources []Source, opts Options) *LoadResult {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(sources) && len(sources) > 0 {
		workers = len(sources)
	}

	files := make([]File, len(sources))
	scheduled := make([]bool, len(sources))
	jobs := make(chan int)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				f := ParseFile(sources[i].Path, sources[i].Kind, opts)
				files[i] = f
				if opts.OnFile != nil {
					mu.Lock()
					opts.OnFile(f)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for i := range sources {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
			scheduled[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	res := &LoadResult{}
	for i, f := range files {
		if !scheduled[i] {
			f = File{Path: sources[i].Path, Kind: sources[i].Kind, Err: ctx.Err()}
		}
		res.Files = append(res.Files, f)
		if f.Err != nil {
			res.Warnings = append(res.Warnings, f.Err)
			continue
		}
		switch f.Kind {
		case KindMeasurement:
			res.Measurements = append(res.Measurements, f.Rows...)
		case KindProfile:
			res.Profiles = append(res.Profiles, f.Rows...)
		default:
			res.Warnings = append(res.Warnings, fmt.Errorf("%s: unknown file kind, %d rows ignored", f.Name(), len(f.Rows)))
		}
	}
	return res
}

// Err returns the "no measurements found" condition when the set decoded
// to zero measurement records, nil otherwise.
func (r *LoadResult) Err() error {
	if len(r.Measurements) > 0 {
		return nil
	}
	kinds := map[string]bool{}
	for _, f := range r.Files {
		kinds[f.Kind.String()] = true
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return errors.NoMeasurements(len(r.Files), names...)
}

// EmptyFiles returns readable files that contributed no rows.
func (r *LoadResult) EmptyFiles() []File {
	var out []File
	for _, f := range r.Files {
		if f.Err == nil && len(f.Rows) == 0 {
			out = append(out, f)
		}
	}
	return out
}

// Failed returns files that could not be read.
func (r *LoadResult) Failed() []File {
	var out []File
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// IssueCount returns the number of skipped lines across all files.
func (r *LoadResult) IssueCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Issues)
	}
	return n
}

// Summary is the one-line user-facing count of the load.
func (r *LoadResult) Summary() string {
	return fmt.Sprintf("Processed %d files, decoded %d measurements and %d profiles (%d lines skipped, %d files failed)",
		len(r.Files), len(r.Measurements), len(r.Profiles), r.IssueCount(), len(r.Failed()))
}
