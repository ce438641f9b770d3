package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/reader"
)

// DefaultReportTitle is the report heading when none is configured.
const DefaultReportTitle = "Tanita BC-601/BC-603 FS Measurement Report"

// ReportConfig specifies options for PDF report generation.
// Dimensions are in millimetres.
type ReportConfig struct {
	// PageSize is an fpdf page size name: A4, A5, Letter or Legal.
	// Default: A4
	PageSize string

	// Orientation is "P" (portrait) or "L" (landscape).
	Orientation string

	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64

	Title       string
	Author      string
	Subject     string
	Keywords    []string
	ToolVersion string

	// ReportID is printed in the footer. Empty generates a random UUID.
	ReportID string

	// GeneratedAt is the timestamp printed under the title.
	// Zero means the time Build is called.
	GeneratedAt time.Time

	// IncludeComparison adds the two-most-recent comparison section.
	// Default: true
	IncludeComparison bool

	// IncludeGauges draws reference band gauges per measurement.
	// Default: true
	IncludeGauges bool

	// IncludeRadars draws segment radars per measurement.
	// Default: true
	IncludeRadars bool

	// ShowUnknownFields lists codes missing from the dictionary.
	// Default: true
	ShowUnknownFields bool

	// IncludeProfiles appends the decoded profile rows.
	// Default: true
	IncludeProfiles bool

	// FontFamily is a PDF core font.
	// Default: "Helvetica"
	FontFamily string

	// BaseFontSize is the body font size in points.
	// Default: 10
	BaseFontSize float64

	// Compress enables stream compression.
	// Default: true
	Compress bool
}

// DefaultReportConfig returns a ReportConfig with sensible defaults.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		PageSize:          "A4",
		Orientation:       "P",
		MarginLeft:        15,
		MarginRight:       15,
		MarginTop:         15,
		MarginBottom:      18,
		Title:             DefaultReportTitle,
		IncludeComparison: true,
		IncludeGauges:     true,
		IncludeRadars:     true,
		ShowUnknownFields: true,
		IncludeProfiles:   true,
		FontFamily:        "Helvetica",
		BaseFontSize:      10,
		Compress:          true,
	}
}

// ReportBuilder constructs the measurement report with a fluent API.
type ReportBuilder struct {
	config       *ReportConfig
	measurements []reader.Row
	profiles     []reader.Row
	dataset      *DatasetHash
	pages        int
}

// NewReportBuilder creates a ReportBuilder with default configuration.
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{config: DefaultReportConfig()}
}

// WithConfig sets the configuration for the builder.
func (rb *ReportBuilder) WithConfig(config *ReportConfig) *ReportBuilder {
	if config != nil {
		rb.config = config
	}
	return rb
}

// WithTitle sets the report title.
func (rb *ReportBuilder) WithTitle(title string) *ReportBuilder {
	rb.config.Title = title
	return rb
}

// WithAuthor sets the report author.
func (rb *ReportBuilder) WithAuthor(author string) *ReportBuilder {
	rb.config.Author = author
	return rb
}

// WithSubject sets the PDF subject metadata.
func (rb *ReportBuilder) WithSubject(subject string) *ReportBuilder {
	rb.config.Subject = subject
	return rb
}

// WithKeywords sets the PDF metadata keywords.
func (rb *ReportBuilder) WithKeywords(keywords []string) *ReportBuilder {
	rb.config.Keywords = keywords
	return rb
}

// WithToolVersion sets the tool version for metadata.
func (rb *ReportBuilder) WithToolVersion(version string) *ReportBuilder {
	rb.config.ToolVersion = version
	return rb
}

// WithReportID sets the identifier printed in the footer.
func (rb *ReportBuilder) WithReportID(id string) *ReportBuilder {
	rb.config.ReportID = id
	return rb
}

// WithGeneratedAt fixes the generation timestamp.
func (rb *ReportBuilder) WithGeneratedAt(t time.Time) *ReportBuilder {
	rb.config.GeneratedAt = t
	return rb
}

// AddMeasurements appends measurement rows. They are rendered in the order
// added.
func (rb *ReportBuilder) AddMeasurements(rows ...reader.Row) *ReportBuilder {
	rb.measurements = append(rb.measurements, rows...)
	return rb
}

// AddProfiles appends profile rows for the appendix.
func (rb *ReportBuilder) AddProfiles(rows ...reader.Row) *ReportBuilder {
	rb.profiles = append(rb.profiles, rows...)
	return rb
}

// ReportID returns the identifier of the report, generating one if needed.
func (rb *ReportBuilder) ReportID() string {
	if rb.config.ReportID == "" {
		rb.config.ReportID = uuid.NewString()
	}
	return rb.config.ReportID
}

// Dataset returns the hash of the rows added so far.
func (rb *ReportBuilder) Dataset() *DatasetHash {
	if rb.dataset == nil || rb.dataset.Measurements != len(rb.measurements) || rb.dataset.Profiles != len(rb.profiles) {
		rb.dataset = ComputeDatasetHash(rb.measurements, rb.profiles)
	}
	return rb.dataset
}

// Pages returns the page count of the last Build.
func (rb *ReportBuilder) Pages() int {
	return rb.pages
}

// Build renders the report to w.
func (rb *ReportBuilder) Build(w io.Writer) error {
	pdf := rb.render()
	if err := pdf.Error(); err != nil {
		return errors.ExportWrap(err, errors.ErrExportFailed, "failed to render PDF report")
	}
	rb.pages = pdf.PageNo()
	if err := pdf.Output(w); err != nil {
		return errors.ExportWrap(err, errors.ErrExportFailed, "failed to write PDF report")
	}
	return nil
}

// Bytes renders the report into memory.
func (rb *ReportBuilder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := rb.Build(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path, creating parent directories.
func (rb *ReportBuilder) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.ExportWrap(err, errors.ErrExportDirCreateFailed, "failed to create output directory").
				WithContext(errors.ContextPath, dir)
		}
	}
	data, err := rb.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.ExportWriteFailed(path, "pdf", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Rendering
// -----------------------------------------------------------------------------

func (rb *ReportBuilder) newDocument() *canvas {
	cfg := rb.config
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: cfg.Orientation,
		UnitStr:        "mm",
		SizeStr:        cfg.PageSize,
	})
	pdf.SetMargins(cfg.MarginLeft, cfg.MarginTop, cfg.MarginRight)
	pdf.SetAutoPageBreak(true, cfg.MarginBottom)
	pdf.SetCompression(cfg.Compress)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(cfg.Title), false)
	pdf.SetSubject(tr(cfg.Subject), false)
	pdf.SetAuthor(tr(cfg.Author), false)
	pdf.SetKeywords(tr(strings.Join(cfg.Keywords, " ")), false)
	creator := "tanita"
	if cfg.ToolVersion != "" {
		creator += " " + cfg.ToolVersion
	}
	pdf.SetCreator(creator, false)

	font := cfg.FontFamily
	if font == "" {
		font = "Helvetica"
	}
	size := cfg.BaseFontSize
	if size <= 0 {
		size = 10
	}
	return &canvas{pdf: pdf, tr: tr, font: font, size: size}
}

func (rb *ReportBuilder) render() *fpdf.Fpdf {
	cfg := rb.config
	c := rb.newDocument()
	pdf := c.pdf

	id := rb.ReportID()
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		c.setFont("", 0.75)
		c.ink(colorMuted)
		left, _, _, _ := pdf.GetMargins()
		pdf.CellFormat(0, 5, c.text(fmt.Sprintf("Report %s", id)), "", 0, "L", false, 0, "")
		pdf.SetX(left)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	rb.cover(c)

	if len(rb.measurements) == 0 {
		c.setFont("B", 1.2)
		c.ink(colorText)
		pdf.Ln(6)
		pdf.CellFormat(0, 8, "No measurements found", "", 1, "L", false, 0, "")
	}

	for i, row := range rb.measurements {
		if i > 0 {
			pdf.AddPage()
		}
		rb.measurement(c, i+1, row)
	}

	if cfg.IncludeComparison {
		if cmp, ok := analysis.LatestComparison(rb.measurements); ok {
			pdf.AddPage()
			rb.comparison(c, cmp)
		}
	}

	if cfg.IncludeProfiles && len(rb.profiles) > 0 {
		pdf.AddPage()
		rb.profilesAppendix(c)
	}
	return pdf
}

func (rb *ReportBuilder) cover(c *canvas) {
	cfg := rb.config
	pdf := c.pdf

	title := cfg.Title
	if title == "" {
		title = DefaultReportTitle
	}
	generated := cfg.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	c.ink(colorText)
	c.setFont("B", 1.8)
	pdf.MultiCell(0, 9, c.text(title), "", "C", false)
	pdf.Ln(2)

	c.setFont("", 1)
	c.ink(colorMuted)
	lines := []string{"Generated on " + generated.Format("2006-01-02 15:04:05")}
	if cfg.Author != "" {
		lines = append(lines, "Prepared by "+cfg.Author)
	}
	lines = append(lines,
		fmt.Sprintf("Total measurements found: %d", len(rb.measurements)),
		fmt.Sprintf("Data fingerprint: %s", rb.Dataset().ShortHash()),
	)
	for _, l := range lines {
		pdf.CellFormat(0, 6, c.text(l), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

// heading writes a section heading and a rule beneath it.
func (rb *ReportBuilder) heading(c *canvas, s string) {
	pdf := c.pdf
	c.ink(colorText)
	c.setFont("B", 1.4)
	pdf.CellFormat(0, 9, c.text(s), "", 1, "L", false, 0, "")
	left, _, right, _ := pdf.GetMargins()
	w, _ := pdf.GetPageSize()
	y := pdf.GetY()
	c.draw(colorGrid)
	pdf.Line(left, y, w-right, y)
	pdf.Ln(3)
}

// ensure starts a new page when fewer than h millimetres remain.
func (rb *ReportBuilder) ensure(c *canvas, h float64) {
	_, pageH := c.pdf.GetPageSize()
	if c.pdf.GetY()+h > pageH-rb.config.MarginBottom {
		c.pdf.AddPage()
	}
}

func (rb *ReportBuilder) contentWidth(c *canvas) float64 {
	w, _ := c.pdf.GetPageSize()
	left, _, right, _ := c.pdf.GetMargins()
	return w - left - right
}

func (rb *ReportBuilder) measurement(c *canvas, n int, row reader.Row) {
	cfg := rb.config
	pdf := c.pdf

	rb.heading(c, fmt.Sprintf("Measurement %d - %s", n, row.Source))

	entries := row.Record.Ordered()
	rows := make([][2]string, 0, len(entries))
	for _, e := range entries {
		if !e.Meaning.Known && !cfg.ShowUnknownFields {
			continue
		}
		label := e.Meaning.Label
		if e.Meaning.Known {
			label = fmt.Sprintf("%s (%s)", label, e.Code)
		}
		rows = append(rows, [2]string{label, e.Display()})
	}
	rb.table(c, []string{"Field", "Value"}, []float64{0.6, 0.4}, len(rows), func(i int) ([]string, *Color) {
		return rows[i][:], nil
	})

	width := rb.contentWidth(c)
	left, _, _, _ := pdf.GetMargins()

	if cfg.IncludeGauges {
		if readings := analysis.Gauges(row.Record); len(readings) > 0 {
			pdf.Ln(4)
			rb.ensure(c, 12+gaugeBlock)
			rb.subheading(c, "Reference ranges")
			for _, r := range readings {
				rb.ensure(c, gaugeBlock)
				y := pdf.GetY()
				c.gauge(left, y, width, r)
				pdf.SetY(y + gaugeBlock)
			}
		}
	}

	if cfg.IncludeRadars {
		if radars := analysis.Radars(row.Record); len(radars) > 0 {
			const block = 80.0
			pdf.Ln(2)
			rb.ensure(c, block)
			y := pdf.GetY()
			colW := width / float64(len(radars))
			for i, r := range radars {
				cx := left + colW*(float64(i)+0.5)
				c.radar(cx, y+block/2+2, 24, r, nil)
			}
			pdf.SetY(y + block)
		}
	}
}

func (rb *ReportBuilder) subheading(c *canvas, s string) {
	c.ink(colorText)
	c.setFont("B", 1.1)
	c.pdf.CellFormat(0, 7, c.text(s), "", 1, "L", false, 0, "")
}

// table writes a bordered table. cell returns the cells of row i and an
// optional colour for the last cell.
func (rb *ReportBuilder) table(c *canvas, headers []string, widths []float64, n int, cell func(i int) ([]string, *Color)) {
	pdf := c.pdf
	total := rb.contentWidth(c)
	const lineH = 6.0

	header := func() {
		c.setFont("B", 1)
		c.ink(colorText)
		c.fill(colorHeaderRow)
		c.draw(colorGrid)
		for i, h := range headers {
			pdf.CellFormat(total*widths[i], lineH+1, c.text(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	c.setFont("", 1)
	for i := 0; i < n; i++ {
		if _, pageH := pdf.GetPageSize(); pdf.GetY()+lineH > pageH-rb.config.MarginBottom {
			pdf.AddPage()
			header()
			c.setFont("", 1)
		}
		cells, col := cell(i)
		for j, v := range cells {
			c.ink(colorText)
			if col != nil && j == len(cells)-1 {
				c.ink(*col)
			}
			pdf.CellFormat(total*widths[j], lineH, c.text(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	c.ink(colorText)
}

func (rb *ReportBuilder) comparison(c *canvas, cmp analysis.Comparison) {
	pdf := c.pdf
	rb.heading(c, "Comparison of the two most recent measurements")

	c.setFont("", 1)
	c.ink(colorMuted)
	for _, m := range []struct {
		label string
		row   reader.Row
	}{{"Previous", cmp.Previous}, {"Current", cmp.Latest}} {
		pdf.CellFormat(0, 6, c.text(fmt.Sprintf("%s: %s (%s line %d)", m.label, takenAt(m.row), m.row.Source, m.row.Line)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	rb.table(c, []string{"Parameter", "Previous", "Current", "Difference"}, []float64{0.4, 0.2, 0.2, 0.2}, len(cmp.Deltas),
		func(i int) ([]string, *Color) {
			d := cmp.Deltas[i]
			col := HexColor(d.Trend.Color())
			return []string{d.Label, d.PreviousText(), d.CurrentText(), d.DiffText()}, &col
		})

	width := rb.contentWidth(c)
	left, _, _, _ := pdf.GetMargins()

	prev, cur := cmp.Previous.Record, cmp.Latest.Record
	pw, _ := prev.Number(fields.CodeWeight)
	cw, _ := cur.Number(fields.CodeWeight)
	pb, _ := prev.Number(fields.CodeBMI)
	cb, _ := cur.Number(fields.CodeBMI)

	const chartH = 60.0
	pdf.Ln(6)
	rb.ensure(c, chartH)
	y := pdf.GetY() + 4
	c.bars(left, y, width/2-5, chartH, "Weight", "kg", pw, cw)
	c.bars(left+width/2+5, y, width/2-5, chartH, "BMI", "", pb, cb)
	pdf.SetY(y + chartH)

	var pc, cc [3]float64
	pc[0], pc[1], pc[2] = analysis.Composition(prev)
	cc[0], cc[1], cc[2] = analysis.Composition(cur)
	pdf.Ln(4)
	rb.ensure(c, chartH+10)
	y = pdf.GetY() + 4
	c.composition(left+width/4, y, width/2, chartH+10, pc, cc)
	pdf.SetY(y + chartH + 10)

	if !rb.config.IncludeRadars {
		return
	}
	pairs := []struct{ prev, cur analysis.Radar }{
		{analysis.FatRadar(prev), analysis.FatRadar(cur)},
		{analysis.MuscleRadar(prev), analysis.MuscleRadar(cur)},
	}
	var shown []struct{ prev, cur analysis.Radar }
	for _, p := range pairs {
		if !p.cur.Empty() || !p.prev.Empty() {
			shown = append(shown, p)
		}
	}
	if len(shown) == 0 {
		return
	}
	const block = 80.0
	pdf.Ln(2)
	rb.ensure(c, block)
	y = pdf.GetY()
	colW := width / float64(len(shown))
	for i, p := range shown {
		prevRadar := p.prev
		c.radar(left+colW*(float64(i)+0.5), y+block/2+2, 24, p.cur, &prevRadar)
	}
	pdf.SetY(y + block)
}

func takenAt(row reader.Row) string {
	if t, ok := analysis.TakenAt(row.Record); ok {
		return t.Format("2006-01-02 15:04")
	}
	return "unknown date"
}

func (rb *ReportBuilder) profilesAppendix(c *canvas) {
	rb.heading(c, "Profiles")
	for i, row := range rb.profiles {
		rb.ensure(c, 20)
		rb.subheading(c, fmt.Sprintf("Profile %d - %s", i+1, row.Source))
		entries := row.Record.Ordered()
		rb.table(c, []string{"Field", "Value"}, []float64{0.6, 0.4}, len(entries), func(j int) ([]string, *Color) {
			e := entries[j]
			return []string{e.Meaning.Label, e.Display()}, nil
		})
		c.pdf.Ln(4)
	}
}
