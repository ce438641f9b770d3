package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/reader"
)

// Workbook sheet names.
const (
	SheetMeasurements = "Measurements"
	SheetDictionary   = "Dictionary"
)

// XLSXConfig specifies options for workbook export.
type XLSXConfig struct {
	// NAString fills cells for codes a row does not carry. Empty leaves
	// the cell blank.
	NAString string

	// AllCodes emits a column for every dictionary code.
	AllCodes bool

	// IncludeDictionary adds the code dictionary sheet.
	// Default: true
	IncludeDictionary bool
}

// DefaultXLSXConfig returns an XLSXConfig with sensible defaults.
func DefaultXLSXConfig() *XLSXConfig {
	return &XLSXConfig{IncludeDictionary: true}
}

// BuildWorkbook lays rows out in the CSV column order on a Measurements
// sheet. Numeric fields are stored as numbers, everything else as text.
func BuildWorkbook(rows []reader.Row, config *XLSXConfig) (*excelize.File, error) {
	if config == nil {
		config = DefaultXLSXConfig()
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetMeasurements); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	columns := Columns(rows, config.AllCodes)
	headers := []string{"Source", "Line"}
	for _, c := range columns {
		m := fields.Describe(c)
		if m.Known {
			headers = append(headers, fmt.Sprintf("%s (%s)", m.Label, c))
		} else {
			headers = append(headers, c)
		}
	}
	if err := writeHeader(f, SheetMeasurements, headers, bold); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{r.Source, r.Line}
		for _, c := range columns {
			raw, ok := r.Record.Get(c)
			switch {
			case !ok && config.NAString == "":
				values = append(values, nil)
			case !ok:
				values = append(values, config.NAString)
			default:
				if v, isNum := fields.Describe(c).Number(raw); isNum {
					values = append(values, v)
				} else {
					values = append(values, raw)
				}
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(SheetMeasurements, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	fitColumns(f, SheetMeasurements, headers)

	if config.IncludeDictionary {
		if err := dictionarySheet(f, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func fitColumns(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(h) + 2)
		if width < 10 {
			width = 10
		}
		f.SetColWidth(sheet, col, col, width)
	}
}

func dictionarySheet(f *excelize.File, style int) error {
	if _, err := f.NewSheet(SheetDictionary); err != nil {
		return err
	}
	headers := []string{"Code", "Label", "Unit", "Kind", "Tier"}
	if err := writeHeader(f, SheetDictionary, headers, style); err != nil {
		return err
	}
	for i, m := range fields.All() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{m.Code, m.Label, m.Unit, m.Kind.String(), m.Tier.String()}
		if err := f.SetSheetRow(SheetDictionary, cell, &row); err != nil {
			return err
		}
	}
	f.SetColWidth(SheetDictionary, "A", "A", 8)
	f.SetColWidth(SheetDictionary, "B", "B", 36)
	f.SetColWidth(SheetDictionary, "C", "E", 14)
	return nil
}

// ExportXLSX writes the workbook for rows to w.
func ExportXLSX(w io.Writer, rows []reader.Row, config *XLSXConfig) error {
	f, err := BuildWorkbook(rows, config)
	if err != nil {
		return errors.ExportWrap(err, errors.ErrExportFailed, "failed to build workbook")
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.ExportWrap(err, errors.ErrExportFailed, "failed to write workbook")
	}
	return nil
}

// WriteXLSXFile exports rows to a workbook at path.
func WriteXLSXFile(path string, rows []reader.Row, config *XLSXConfig) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.ExportWriteFailed(path, "xlsx", err)
	}
	if err := ExportXLSX(out, rows, config); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.ExportWriteFailed(path, "xlsx", err)
	}
	return nil
}
