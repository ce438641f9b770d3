// Package export renders decoded scale measurements for people and for other
// tools: a PDF report, CSV/TSV tables and an XLSX workbook.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/fields"
)

// Color is an RGB colour in the 0-255 range used by fpdf.
type Color struct {
	R, G, B int
}

// HexColor converts a "#rrggbb" string to a Color. Invalid input is black.
func HexColor(hex string) Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}
	}
	var c Color
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}
	}
	return c
}

// Chart colours.
var (
	colorText      = Color{33, 33, 33}
	colorMuted     = Color{110, 110, 110}
	colorGrid      = Color{210, 210, 210}
	colorHeaderRow = Color{230, 230, 230}
	colorPrevious  = Color{160, 160, 160}
	colorCurrent   = HexColor("#3498db")

	compositionColors = []Color{HexColor("#ff6b6b"), HexColor("#4ecdc4"), HexColor("#45b7d1")}
)

// canvas wraps an fpdf document with the drawing primitives the report uses.
type canvas struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	font string
	size float64
}

func (c *canvas) fill(col Color) { c.pdf.SetFillColor(col.R, col.G, col.B) }

func (c *canvas) draw(col Color) { c.pdf.SetDrawColor(col.R, col.G, col.B) }

func (c *canvas) ink(col Color) { c.pdf.SetTextColor(col.R, col.G, col.B) }

func (c *canvas) text(s string) string { return c.tr(s) }

func (c *canvas) setFont(style string, scale float64) {
	c.pdf.SetFont(c.font, style, c.size*scale)
}

// textAt writes s at baseline y, aligned on x by align (L, C or R).
func (c *canvas) textAt(x, y float64, s string, align string) {
	s = c.text(s)
	w := c.pdf.GetStringWidth(s)
	switch align {
	case "C":
		x -= w / 2
	case "R":
		x -= w
	}
	c.pdf.Text(x, y, s)
}

// -----------------------------------------------------------------------------
// Gauge Bars
// -----------------------------------------------------------------------------

const (
	gaugeHeight = 6.0
	gaugeBlock  = 22.0
)

// gauge draws a horizontal band bar with a marker at the reading's value.
// The block occupies gaugeBlock millimetres starting at y.
func (c *canvas) gauge(x, y, w float64, r analysis.Reading) {
	g := r.Gauge

	c.ink(colorText)
	c.setFont("B", 1)
	label := fmt.Sprintf("%s: %s (%s)", g.Title, formatFloat(r.Value, g.Unit), r.Status())
	c.textAt(x, y+4, label, "L")

	barY := y + 7
	span := g.Max() - g.Min()
	c.setFont("", 0.7)
	for _, b := range g.Bands {
		bx := x + (b.Lower-g.Min())/span*w
		bw := (b.Upper - b.Lower) / span * w
		c.fill(HexColor(b.Color))
		c.pdf.Rect(bx, barY, bw, gaugeHeight, "F")
		c.ink(colorMuted)
		c.textAt(bx+bw/2, barY+gaugeHeight+3.5, b.Label, "C")
	}

	mx := x + r.Gauge.Position(r.Value)*w
	c.draw(colorText)
	c.fill(colorText)
	c.pdf.SetLineWidth(0.6)
	c.pdf.Line(mx, barY-1, mx, barY+gaugeHeight+1)
	c.pdf.Polygon([]fpdf.PointType{{X: mx - 1.5, Y: barY - 2.5}, {X: mx + 1.5, Y: barY - 2.5}, {X: mx, Y: barY - 0.5}}, "F")
	c.pdf.SetLineWidth(0.2)
}

// -----------------------------------------------------------------------------
// Radar Charts
// -----------------------------------------------------------------------------

// radarScale rounds the chart maximum up to a whole step.
func radarScale(values ...float64) float64 {
	m := 0.0
	for _, v := range values {
		m = math.Max(m, v)
	}
	if m <= 0 {
		return 1
	}
	step := math.Pow(10, math.Floor(math.Log10(m)))
	return math.Ceil(m*1.1/step) * step
}

func radarPoint(cx, cy, radius float64, i, n int, frac float64) fpdf.PointType {
	a := -math.Pi/2 + float64(i)*2*math.Pi/float64(n)
	return fpdf.PointType{X: cx + radius*frac*math.Cos(a), Y: cy + radius*frac*math.Sin(a)}
}

// radar draws one or more series on shared axes. series[0] is drawn with
// the radar colour; an optional second series (the previous measurement)
// is drawn dashed in gray underneath.
func (c *canvas) radar(cx, cy, radius float64, r analysis.Radar, previous *analysis.Radar) {
	n := len(r.Values)
	scale := r.Max()
	if previous != nil {
		scale = math.Max(scale, previous.Max())
	}
	scale = radarScale(scale)

	c.ink(colorText)
	c.setFont("B", 1)
	c.textAt(cx, cy-radius-8, r.Title, "C")

	c.draw(colorGrid)
	c.pdf.SetLineWidth(0.2)
	for ring := 1; ring <= 4; ring++ {
		pts := make([]fpdf.PointType, n)
		for i := range pts {
			pts[i] = radarPoint(cx, cy, radius, i, n, float64(ring)/4)
		}
		c.pdf.Polygon(pts, "D")
	}
	c.setFont("", 0.75)
	c.ink(colorMuted)
	for i := 0; i < n; i++ {
		end := radarPoint(cx, cy, radius, i, n, 1)
		c.pdf.Line(cx, cy, end.X, end.Y)
		lbl := radarPoint(cx, cy, radius+5, i, n, 1)
		c.textAt(lbl.X, lbl.Y+1, fmt.Sprintf("%s %s", analysis.SegmentLabels[i], formatFloat(r.Values[i], r.Unit)), "C")
	}

	if previous != nil {
		c.draw(colorPrevious)
		c.pdf.SetDashPattern([]float64{1, 1}, 0)
		c.pdf.Polygon(radarShape(cx, cy, radius, previous.Values, scale), "D")
		c.pdf.SetDashPattern([]float64{}, 0)
	}

	col := HexColor(r.Color)
	c.fill(col)
	c.draw(col)
	shape := radarShape(cx, cy, radius, r.Values, scale)
	c.pdf.SetAlpha(0.3, "Normal")
	c.pdf.Polygon(shape, "F")
	c.pdf.SetAlpha(1, "Normal")
	c.pdf.SetLineWidth(0.5)
	c.pdf.Polygon(shape, "D")
	c.pdf.SetLineWidth(0.2)
}

func radarShape(cx, cy, radius float64, values []float64, scale float64) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(values))
	for i, v := range values {
		pts[i] = radarPoint(cx, cy, radius, i, len(values), v/scale)
	}
	return pts
}

// -----------------------------------------------------------------------------
// Bar Charts
// -----------------------------------------------------------------------------

// bars draws a previous/current pair of vertical bars in the box x,y,w,h.
func (c *canvas) bars(x, y, w, h float64, title, unit string, prev, cur float64) {
	c.ink(colorText)
	c.setFont("B", 1)
	c.textAt(x+w/2, y, title, "C")

	top := y + 4
	base := y + h - 6
	scale := radarScale(prev, cur)
	bw := w / 5
	for i, bar := range []struct {
		label string
		value float64
		col   Color
	}{
		{"Previous", prev, colorPrevious},
		{"Current", cur, colorCurrent},
	} {
		bx := x + bw*(1+2*float64(i))
		bh := (base - top) * bar.value / scale
		c.fill(bar.col)
		c.pdf.Rect(bx, base-bh, bw, bh, "F")
		c.setFont("", 0.8)
		c.ink(colorText)
		c.textAt(bx+bw/2, base-bh-1.5, formatFloat(bar.value, unit), "C")
		c.ink(colorMuted)
		c.textAt(bx+bw/2, base+4, bar.label, "C")
	}
	c.draw(colorMuted)
	c.pdf.Line(x, base, x+w, base)
}

// composition draws stacked fat/muscle/water bars for the previous and
// current measurement, each labelled with its total.
func (c *canvas) composition(x, y, w, h float64, prev, cur [3]float64) {
	c.ink(colorText)
	c.setFont("B", 1)
	c.textAt(x+w/2, y, "Body composition", "C")

	top := y + 8
	base := y + h - 14
	total := func(v [3]float64) float64 { return v[0] + v[1] + v[2] }
	scale := radarScale(total(prev), total(cur))
	bw := w / 5

	for i, bar := range []struct {
		label  string
		values [3]float64
	}{{"Previous", prev}, {"Current", cur}} {
		bx := x + bw*(1+2*float64(i))
		by := base
		for j, v := range bar.values {
			sh := (base - top) * v / scale
			by -= sh
			c.fill(compositionColors[j])
			c.pdf.Rect(bx, by, bw, sh, "F")
		}
		c.setFont("", 0.8)
		c.ink(colorText)
		c.textAt(bx+bw/2, by-1.5, "Total "+formatFloat(total(bar.values), "%"), "C")
		c.ink(colorMuted)
		c.textAt(bx+bw/2, base+4, bar.label, "C")
	}
	c.draw(colorMuted)
	c.pdf.Line(x, base, x+w, base)

	lx := x
	c.setFont("", 0.8)
	for j, name := range []string{"Fat", "Muscle", "Water"} {
		c.fill(compositionColors[j])
		c.pdf.Rect(lx, base+7, 3, 3, "F")
		c.ink(colorText)
		c.textAt(lx+4, base+9.6, name, "L")
		lx += w / 3
	}
}

func formatFloat(v float64, unit string) string {
	return fields.WithUnit(fmt.Sprintf("%.1f", v), unit)
}
