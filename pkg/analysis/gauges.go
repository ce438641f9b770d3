// Package analysis derives presentation metrics from decoded measurements:
// reference-band gauges, segment radars, chronological ordering and the
// comparison of the two most recent measurements.
package analysis

import (
	"strings"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/fields"
)

// Band colours, shared by every gauge.
const (
	ColorBlue   = "#b3c6ff"
	ColorGreen  = "#b6fcb6"
	ColorYellow = "#ffe066"
	ColorRed    = "#ff9999"
)

// Sex selects sex-specific reference bands.
type Sex int

const (
	SexUnspecified Sex = iota
	SexMale
	SexFemale
)

// String returns the sex label.
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unspecified"
	}
}

// SexOf reads the GE field. Numeric codes and common spellings are accepted.
func SexOf(rec decoder.Record) Sex {
	switch strings.ToLower(strings.TrimSpace(rec.Value(fields.CodeGender))) {
	case "1", "m", "male", "hombre":
		return SexMale
	case "2", "f", "female", "mujer":
		return SexFemale
	default:
		return SexUnspecified
	}
}

// Band is one reference interval [Lower, Upper).
type Band struct {
	Lower float64
	Upper float64
	Label string
	Color string
}

// Gauge is a set of contiguous reference bands for one metric.
type Gauge struct {
	Code  string
	Title string
	Unit  string
	Bands []Band
}

// Min returns the lower bound of the first band.
func (g Gauge) Min() float64 { return g.Bands[0].Lower }

// Max returns the upper bound of the last band.
func (g Gauge) Max() float64 { return g.Bands[len(g.Bands)-1].Upper }

// Classify returns the index of the band containing v. Values outside
// the gauge clamp to the first or last band.
func (g Gauge) Classify(v float64) int {
	for i, b := range g.Bands {
		if v < b.Upper {
			return i
		}
	}
	return len(g.Bands) - 1
}

// Position returns v's relative position on the gauge in [0, 1].
func (g Gauge) Position(v float64) float64 {
	lo, hi := g.Min(), g.Max()
	if hi <= lo {
		return 0
	}
	p := (v - lo) / (hi - lo)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func bands(bounds []float64, labels, colors []string) []Band {
	out := make([]Band, len(labels))
	for i := range labels {
		out[i] = Band{Lower: bounds[i], Upper: bounds[i+1], Label: labels[i], Color: colors[i]}
	}
	return out
}

var (
	fatLabels    = []string{"Low", "Optimal", "High", "Very high"}
	fatColors    = []string{ColorBlue, ColorGreen, ColorYellow, ColorRed}
	muscleLabels = []string{"Very low", "Low", "Optimal", "High"}
	muscleColors = []string{ColorRed, ColorYellow, ColorGreen, ColorBlue}
	waterLabels  = []string{"Low", "Normal", "High"}
	waterColors  = []string{ColorYellow, ColorGreen, ColorBlue}
)

// FatGauge returns the global body fat bands for sex.
func FatGauge(sex Sex) Gauge {
	bounds := []float64{0, 10, 20, 30, 50}
	switch sex {
	case SexMale:
		bounds = []float64{0, 8, 20, 25, 45}
	case SexFemale:
		bounds = []float64{0, 21, 33, 39, 55}
	}
	return Gauge{Code: fields.CodeFat, Title: "Body fat analysis", Unit: "%", Bands: bands(bounds, fatLabels, fatColors)}
}

// BMIGauge returns the body mass index bands.
func BMIGauge() Gauge {
	return Gauge{
		Code:  fields.CodeBMI,
		Title: "BMI analysis",
		Unit:  "kg/m²",
		Bands: bands([]float64{0, 18.5, 25, 30, 40},
			[]string{"Underweight", "Normal", "Overweight", "Obese"}, fatColors),
	}
}

// MuscleGauge returns the global muscle mass bands for sex.
func MuscleGauge(sex Sex) Gauge {
	bounds := []float64{0, 30, 40, 50, 70}
	switch sex {
	case SexMale:
		bounds = []float64{0, 42, 49, 56, 70}
	case SexFemale:
		bounds = []float64{0, 30, 36, 42, 60}
	}
	return Gauge{Code: fields.CodeMuscle, Title: "Muscle mass analysis", Unit: "%", Bands: bands(bounds, muscleLabels, muscleColors)}
}

// WaterGauge returns the total body water bands for sex.
func WaterGauge(sex Sex) Gauge {
	bounds := []float64{0, 45, 60, 80}
	if sex == SexMale {
		bounds = []float64{0, 50, 65, 80}
	}
	return Gauge{Code: fields.CodeWater, Title: "Body water analysis", Unit: "%", Bands: bands(bounds, waterLabels, waterColors)}
}

// VisceralGauge returns the visceral fat rating bands.
func VisceralGauge() Gauge {
	return Gauge{
		Code:  fields.CodeVisceral,
		Title: "Visceral fat rating",
		Bands: bands([]float64{1, 10, 15, 30},
			[]string{"Optimal", "High", "Very high"}, []string{ColorGreen, ColorYellow, ColorRed}),
	}
}

// GaugesFor returns every gauge in report order.
func GaugesFor(sex Sex) []Gauge {
	return []Gauge{FatGauge(sex), BMIGauge(), MuscleGauge(sex), WaterGauge(sex), VisceralGauge()}
}

// Reading is a measured value placed on a gauge.
type Reading struct {
	Gauge Gauge
	Value float64
	Band  int
}

// Status returns the label of the band the value falls in.
func (r Reading) Status() string {
	return r.Gauge.Bands[r.Band].Label
}

// Gauges places every numeric gauge metric of rec on its gauge. Metrics
// that are absent or not numeric are left out.
func Gauges(rec decoder.Record) []Reading {
	var out []Reading
	for _, g := range GaugesFor(SexOf(rec)) {
		v, ok := rec.Number(g.Code)
		if !ok {
			continue
		}
		out = append(out, Reading{Gauge: g, Value: v, Band: g.Classify(v)})
	}
	return out
}
