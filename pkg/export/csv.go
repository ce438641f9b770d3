package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/reader"
)

// Format is an output file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))); f {
	case FormatPDF, FormatCSV, FormatTSV, FormatXLSX:
		return f, nil
	default:
		return "", errors.ExportInvalidFormat(name)
	}
}

// FormatForPath derives the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV (comma-separated, quoted strings).
	DialectStandard CSVDialect = "standard"

	// DialectExcel writes a UTF-8 byte order mark and CRLF line endings.
	DialectExcel CSVDialect = "excel"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// NAString is written for codes a row does not carry.
	// Default: "NA"
	NAString string

	// AllCodes emits a column for every dictionary code, not just the
	// codes present in the rows.
	AllCodes bool
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		NAString:      "NA",
	}
}

// Fixed leading columns of every tabular export.
const (
	ColumnSource = "source"
	ColumnLine   = "line"
)

// Columns returns the field code columns for rows: dictionary codes in
// dictionary order followed by unrecognised codes sorted. With all set,
// every dictionary code is included even when no row carries it.
func Columns(rows []reader.Row, all bool) []string {
	present := make(map[string]bool)
	for _, r := range rows {
		for _, c := range r.Record.Codes() {
			present[c] = true
		}
	}

	var cols []string
	for _, c := range fields.Codes() {
		if all || present[c] {
			cols = append(cols, c)
			delete(present, c)
		}
	}
	unknown := make([]string, 0, len(present))
	for c := range present {
		unknown = append(unknown, c)
	}
	sort.Strings(unknown)
	return append(cols, unknown...)
}

// CSVWriter writes decoded rows to CSV format.
type CSVWriter struct {
	config      *CSVConfig
	out         io.Writer
	writer      *csv.Writer
	columns     []string
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a new CSVWriter that writes to the given io.Writer.
// If config is nil, DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	switch config.Dialect {
	case DialectTSV:
		csvWriter.Comma = '\t'
	case DialectExcel:
		csvWriter.UseCRLF = true
	}

	return &CSVWriter{
		config: config,
		out:    w,
		writer: csvWriter,
	}
}

// WithColumns fixes the field code columns. Without it the columns are
// derived from the rows passed to WriteAll.
func (cw *CSVWriter) WithColumns(columns []string) *CSVWriter {
	cw.columns = columns
	return cw
}

// WriteHeader writes the CSV header row.
// This is called automatically on first Write if IncludeHeader is true.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if cw.config.Dialect == DialectExcel {
		if _, err := io.WriteString(cw.out, "\uFEFF"); err != nil {
			return fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}

	headers := append([]string{ColumnSource, ColumnLine}, cw.columns...)
	if err := cw.writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	cw.headerDone = true
	return nil
}

// Write writes a single row. Raw values are written unchanged.
func (cw *CSVWriter) Write(row reader.Row) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}

	out := make([]string, 0, len(cw.columns)+2)
	out = append(out, row.Source, strconv.Itoa(row.Line))
	for _, c := range cw.columns {
		if v, ok := row.Record.Get(c); ok {
			out = append(out, v)
		} else {
			out = append(out, cw.config.NAString)
		}
	}
	if err := cw.writer.Write(out); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	cw.rowsWritten++
	return nil
}

// WriteAll writes rows, deriving the columns first when none were set.
func (cw *CSVWriter) WriteAll(rows []reader.Row) error {
	if cw.columns == nil {
		cw.columns = Columns(rows, cw.config.AllCodes)
	}
	if cw.config.IncludeHeader {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding header).
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// ExportCSV is a convenience function to export rows to CSV.
// If config is nil, DefaultCSVConfig() is used.
func ExportCSV(w io.Writer, rows []reader.Row, config *CSVConfig) error {
	writer := NewCSVWriter(w, config)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Flush()
}

// WriteCSVFile exports rows to path. A ".tsv" extension selects the TSV
// dialect when config does not name one.
func WriteCSVFile(path string, rows []reader.Row, config *CSVConfig) error {
	if config == nil {
		config = DefaultCSVConfig()
	}
	format := "csv"
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		format = "tsv"
		if config.Dialect == "" || config.Dialect == DialectStandard {
			c := *config
			c.Dialect = DialectTSV
			config = &c
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.ExportWriteFailed(path, format, err)
	}
	if err := ExportCSV(f, rows, config); err != nil {
		f.Close()
		return errors.ExportWriteFailed(path, format, err)
	}
	if err := f.Close(); err != nil {
		return errors.ExportWriteFailed(path, format, err)
	}
	return nil
}
