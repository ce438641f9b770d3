// Package shell provides the interactive explorer for decoded scale exports.
package shell

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/help"
	"github.com/r3d91ll/tanita/pkg/reader"
)

const cardWidth = 52

// Shell is the interactive explorer.
type Shell struct {
	data  *reader.LoadResult
	dec   *decoder.Decoder
	rl    *readline.Instance
	out   io.Writer
	help  *help.Renderer
	style help.Style
}

// Config holds shell configuration.
type Config struct {
	HistoryFile string

	// Decoder decodes pasted lines. Nil uses the shape matcher.
	Decoder *decoder.Decoder

	// Color enables ANSI styling.
	Color bool

	Stdin  io.ReadCloser
	Stdout io.Writer
}

// New creates a shell over data. data may be nil, in which case only the
// code commands are useful.
func New(data *reader.LoadResult, cfg Config) (*Shell, error) {
	s := newShell(data, cfg)

	prompt := "tanita> "
	if cfg.Color {
		prompt = "\033[32mtanita>\033[0m "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewShellCompleter(),
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCommandReadlineFailed, errors.CategoryCommand, "cannot start the interactive shell")
	}
	s.rl = rl
	return s, nil
}

func newShell(data *reader.LoadResult, cfg Config) *Shell {
	if data == nil {
		data = &reader.LoadResult{}
	}
	dec := cfg.Decoder
	if dec == nil {
		dec = decoder.New(decoder.ShapeMatcher{})
	}
	out := cfg.Stdout
	if out == nil {
		out = os.Stdout
	}
	r := help.NewRenderer(out).WithColor(cfg.Color)
	return &Shell{data: data, dec: dec, out: out, help: r, style: r.Style()}
}

// Run starts the interactive loop. It returns nil on /quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	s.printf("%d measurements and %d profiles loaded.\n", len(s.data.Measurements), len(s.data.Profiles))
	s.printf("Type /help for commands, or paste an export line to decode it.\n\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := s.Execute(line); err != nil {
			if err == errQuit {
				return nil
			}
			s.printf("%s\n", errors.Sprint(err))
		}
	}
}

var errQuit = fmt.Errorf("quit")

// Execute runs one input line. A line not starting with "/" is decoded as
// an export row.
func (s *Shell) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return s.decode(line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	if name == "/exit" {
		return errQuit
	}
	cmd, ok := help.Lookup(name)
	if !ok {
		return errors.Commandf(errors.ErrCommandInvalidArg, "unknown command %s", name).
			WithSuggestion("Type /help to list the commands")
	}

	switch cmd.Name {
	case "/quit":
		return errQuit
	case "/help":
		if arg == "" {
			s.help.RenderFull()
		} else {
			s.help.RenderCommand(arg)
		}
	case "/list":
		s.list()
	case "/show":
		row, err := s.pick(arg)
		if err != nil {
			return err
		}
		s.show(row)
	case "/gauges":
		row, err := s.pick(arg)
		if err != nil {
			return err
		}
		s.gauges(row)
	case "/compare":
		return s.compare()
	case "/files":
		s.files()
	case "/codes":
		s.codes()
	case "/describe":
		if arg == "" {
			return errors.Command(errors.ErrCommandMissingArgs, "usage: /describe <code>")
		}
		s.describe(arg)
	case "/search":
		if arg == "" {
			return errors.Command(errors.ErrCommandMissingArgs, "usage: /search <text>")
		}
		s.search(arg)
	case "/decode":
		if arg == "" {
			return errors.Command(errors.ErrCommandMissingArgs, "usage: /decode <csv line>")
		}
		return s.decode(arg)
	}
	return nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// pick resolves a 1-based measurement number, or "last" for the most
// recent by date. An empty argument means "last".
func (s *Shell) pick(arg string) (reader.Row, error) {
	rows := s.data.Measurements
	if len(rows) == 0 {
		return reader.Row{}, errors.Validation(errors.ErrValidationInvalidValue, "no measurements loaded")
	}
	if arg == "" || arg == "last" {
		sorted := analysis.Chronological(rows)
		return sorted[len(sorted)-1], nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(rows) {
		return reader.Row{}, errors.Validationf(errors.ErrValidationInvalidValue,
			"measurement must be a number between 1 and %d, or last", len(rows))
	}
	return rows[n-1], nil
}

func takenAt(row reader.Row) string {
	if t, ok := analysis.TakenAt(row.Record); ok {
		return t.Format("2006-01-02 15:04")
	}
	return "undated"
}

// -----------------------------------------------------------------------------
// Measurement Commands
// -----------------------------------------------------------------------------

func (s *Shell) list() {
	rows := s.data.Measurements
	if len(rows) == 0 {
		s.printf("No measurements loaded.\n")
		return
	}
	weight := fields.Describe(fields.CodeWeight)
	fat := fields.Describe(fields.CodeFat)
	for i, row := range rows {
		w := "-"
		if v, ok := row.Record.Get(fields.CodeWeight); ok {
			w = weight.Format(v)
		}
		f := "-"
		if v, ok := row.Record.Get(fields.CodeFat); ok {
			f = fat.Format(v)
		}
		s.printf("%4d  %-16s  %-10s %-7s  %s\n", i+1, takenAt(row), w, f,
			s.style.Dim(fmt.Sprintf("%s:%d", row.Source, row.Line)))
	}
}

func (s *Shell) show(row reader.Row) {
	box := help.NewBox(cardWidth)
	s.printf("%s\n", box.Top())
	s.printf("%s\n", box.Columns(" "+s.style.Bold(takenAt(row)), s.style.Dim(fmt.Sprintf("%s:%d ", row.Source, row.Line))))
	for _, g := range fields.Grouped(row.Record.Fields()) {
		s.printf("%s\n", box.Mid())
		s.printf("%s\n", box.Row(" "+s.style.Category(g.Tier.String())))
		for _, e := range g.Entries {
			label := e.Meaning.Label + " (" + e.Code + ")"
			if !e.Meaning.Known {
				label = s.style.Alert(e.Meaning.Label)
			}
			s.printf("%s\n", box.Columns(" "+label, e.Display()+" "))
		}
	}
	s.printf("%s\n", box.Bottom())
}

func (s *Shell) gauges(row reader.Row) {
	readings := analysis.Gauges(row.Record)
	if len(readings) == 0 {
		s.printf("No gauge metrics in this measurement.\n")
		return
	}
	s.printf("Reference ranges (%s)\n", analysis.SexOf(row.Record))
	for _, r := range readings {
		value := fields.WithUnit(strconv.FormatFloat(r.Value, 'f', -1, 64), r.Gauge.Unit)
		s.printf("  %-24s %-12s %s\n", r.Gauge.Title, value, s.bandStatus(r))
	}
}

func (s *Shell) bandStatus(r analysis.Reading) string {
	switch r.Gauge.Bands[r.Band].Color {
	case analysis.ColorGreen:
		return s.style.Good(r.Status())
	case analysis.ColorYellow, analysis.ColorRed:
		return s.style.Alert(r.Status())
	default:
		return r.Status()
	}
}

func (s *Shell) compare() error {
	cmp, ok := analysis.LatestComparison(s.data.Measurements)
	if !ok {
		return errors.Validation(errors.ErrValidationInvalidValue, "at least two measurements are needed to compare")
	}
	s.printf("Previous: %s  (%s:%d)\n", takenAt(cmp.Previous), cmp.Previous.Source, cmp.Previous.Line)
	s.printf("Current:  %s  (%s:%d)\n\n", takenAt(cmp.Latest), cmp.Latest.Source, cmp.Latest.Line)
	s.printf("  %-28s %10s %10s %12s\n", "Parameter", "Previous", "Current", "Difference")
	for _, d := range cmp.Deltas {
		diff := fmt.Sprintf("%12s", d.DiffText())
		switch d.Trend {
		case analysis.TrendUp:
			diff = s.style.Alert(diff)
		case analysis.TrendDown:
			diff = s.style.Good(diff)
		case analysis.TrendSteady:
			diff = s.style.Dim(diff)
		}
		s.printf("  %-28s %10s %10s %s\n", d.Label, d.PreviousText(), d.CurrentText(), diff)
	}
	return nil
}

func (s *Shell) files() {
	if len(s.data.Files) == 0 {
		s.printf("No files were read.\n")
		return
	}
	for _, f := range s.data.Files {
		if f.Err != nil {
			s.printf("  %-14s %-11s %s\n", f.Name(), f.Kind, s.style.Alert("failed: "+f.Err.Error()))
			continue
		}
		s.printf("  %-14s %-11s %-12s %d rows, %d skipped\n", f.Name(), f.Kind, f.Charset, len(f.Rows), len(f.Issues))
	}
	s.printf("%s\n", s.data.Summary())
}

// -----------------------------------------------------------------------------
// Code Commands
// -----------------------------------------------------------------------------

func (s *Shell) codes() {
	tier := fields.Tier(-1)
	for _, m := range fields.All() {
		if m.Tier != tier {
			tier = m.Tier
			s.printf("%s\n", s.style.Category(tier.String()))
		}
		s.printf("  %s  %-30s %s\n", s.style.Command(fmt.Sprintf("%-3s", m.Code)), m.Label, s.style.Dim(m.Unit))
	}
}

func (s *Shell) describe(code string) {
	m := fields.Describe(code)
	s.printf("%s  %s\n", s.style.Command(m.Code), s.style.Bold(m.Label))
	if !m.Known {
		s.printf("  Not in the field dictionary; values are shown verbatim.\n")
		return
	}
	s.printf("  kind: %s\n  tier: %s\n", m.Kind, m.Tier)
	if m.Unit != "" {
		s.printf("  unit: %s\n", m.Unit)
	}
	for _, c := range m.Choices {
		s.printf("  %s = %s\n", s.style.Argument(c.Value), c.Label)
	}
}

func (s *Shell) search(query string) {
	found := fields.Search(query)
	if len(found) == 0 {
		s.printf("No field matches %q.\n", query)
		return
	}
	for _, m := range found {
		s.printf("  %s  %s\n", s.style.Command(fmt.Sprintf("%-3s", m.Code)), m.Label)
	}
}

func (s *Shell) decode(line string) error {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cells, err := cr.Read()
	if err != nil {
		return errors.InputWrap(err, errors.ErrInputMalformedLine, "cannot split the line into cells")
	}

	rec, err := s.dec.Decode(cells)
	if err != nil {
		return err
	}
	if rec.Len() == 0 {
		s.printf("No field codes found in %d cells.\n", len(cells))
		return nil
	}
	for _, e := range rec.Ordered() {
		label := e.Meaning.Label
		if !e.Meaning.Known {
			label = s.style.Alert(label)
		}
		s.printf("  %s  %s %s\n", s.style.Command(fmt.Sprintf("%-3s", e.Code)), help.PadRight(label, 30), e.Display())
	}
	return nil
}
