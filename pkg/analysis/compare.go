package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/reader"
)

// -----------------------------------------------------------------------------
// Segment Radars
// -----------------------------------------------------------------------------

// SegmentLabels name the five body segments in radar order.
var SegmentLabels = []string{"Trunk", "Right arm", "Left arm", "Right leg", "Left leg"}

// Radar is a five-segment body chart.
type Radar struct {
	Title  string
	Unit   string
	Color  string
	Codes  []string
	Values []float64
}

// Empty reports whether every segment is zero.
func (r Radar) Empty() bool {
	for _, v := range r.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// Max returns the largest segment value.
func (r Radar) Max() float64 {
	m := 0.0
	for _, v := range r.Values {
		m = math.Max(m, v)
	}
	return m
}

func radar(rec decoder.Record, title, unit, color string, codes []string) Radar {
	r := Radar{Title: title, Unit: unit, Color: color, Codes: codes, Values: make([]float64, len(codes))}
	for i, c := range codes {
		if v, ok := rec.Number(c); ok {
			r.Values[i] = v
		}
	}
	return r
}

// FatRadar returns the segmental fat distribution of rec.
func FatRadar(rec decoder.Record) Radar {
	return radar(rec, "Segment distribution - fat level", "%", "#e67e22", []string{
		fields.CodeFatTrunk, fields.CodeFatRightArm, fields.CodeFatLeftArm,
		fields.CodeFatRightLeg, fields.CodeFatLeftLeg,
	})
}

// MuscleRadar returns the segmental muscle distribution of rec.
func MuscleRadar(rec decoder.Record) Radar {
	return radar(rec, "Segment distribution - muscle mass", "kg", "#3498db", []string{
		fields.CodeMuscleTrunk, fields.CodeMuscleRArm, fields.CodeMuscleLArm,
		fields.CodeMuscleRLeg, fields.CodeMuscleLLeg,
	})
}

// Radars returns the non-empty radars of rec.
func Radars(rec decoder.Record) []Radar {
	var out []Radar
	for _, r := range []Radar{FatRadar(rec), MuscleRadar(rec)} {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Chronological Ordering
// -----------------------------------------------------------------------------

// TakenAt returns the measurement timestamp from DT and Ti.
func TakenAt(rec decoder.Record) (time.Time, bool) {
	return fields.Timestamp(rec.Value(fields.CodeDate), rec.Value(fields.CodeTime))
}

// Chronological returns rows sorted oldest first. Rows without a usable
// date sort before dated ones and otherwise keep their input order.
// The input slice is not modified.
func Chronological(rows []reader.Row) []reader.Row {
	type keyed struct {
		row reader.Row
		at  time.Time
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		at, _ := TakenAt(r.Record)
		ks[i] = keyed{row: r, at: at}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].at.Before(ks[j].at) })

	out := make([]reader.Row, len(ks))
	for i, k := range ks {
		out[i] = k.row
	}
	return out
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// Trend is the direction of a change.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendSteady
	TrendUp
	TrendDown
)

// SteadyThreshold is the absolute change below which a metric is steady.
const SteadyThreshold = 0.1

func (t Trend) String() string {
	switch t {
	case TrendSteady:
		return "steady"
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "unknown"
	}
}

// Color returns the display colour: gray when steady, red when the value
// went up, green when it went down.
func (t Trend) Color() string {
	switch t {
	case TrendUp:
		return "#cc0000"
	case TrendDown:
		return "#008000"
	default:
		return "#808080"
	}
}

// CompareCodes are the metrics compared between measurements, with the
// unit suffix used for the difference.
var CompareCodes = []struct {
	Code string
	Unit string
}{
	{fields.CodeWeight, "kg"},
	{fields.CodeBMI, ""},
	{fields.CodeFat, "%"},
	{fields.CodeMuscle, "%"},
	{fields.CodeWater, "%"},
	{fields.CodeVisceral, ""},
	{fields.CodeMetabolicAge, "years"},
	{fields.CodeDailyCalories, "kcal"},
}

// Delta is the change of one metric between two measurements.
type Delta struct {
	Code     string
	Label    string
	Unit     string
	Previous string
	Current  string

	// Diff is Current - Previous; valid only when HasDiff.
	Diff    float64
	HasDiff bool
	Trend   Trend
}

// PreviousText returns the previous raw value or N/A.
func (d Delta) PreviousText() string { return orNA(d.Previous) }

// CurrentText returns the current raw value or N/A.
func (d Delta) CurrentText() string { return orNA(d.Current) }

// DiffText formats the difference with sign and one decimal.
func (d Delta) DiffText() string {
	if !d.HasDiff {
		return "N/A"
	}
	return fields.WithUnit(fmt.Sprintf("%+.1f", d.Diff), d.Unit)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Compare returns one Delta per compared metric.
func Compare(prev, last decoder.Record) []Delta {
	out := make([]Delta, 0, len(CompareCodes))
	for _, c := range CompareCodes {
		d := Delta{
			Code:     c.Code,
			Label:    fields.Describe(c.Code).Label,
			Unit:     c.Unit,
			Previous: prev.Value(c.Code),
			Current:  last.Value(c.Code),
		}
		a, okA := prev.Number(c.Code)
		b, okB := last.Number(c.Code)
		if okA && okB {
			d.Diff = b - a
			d.HasDiff = true
			switch {
			case math.Abs(d.Diff) < SteadyThreshold:
				d.Trend = TrendSteady
			case d.Diff > 0:
				d.Trend = TrendUp
			default:
				d.Trend = TrendDown
			}
		}
		out = append(out, d)
	}
	return out
}

// Comparison is the comparison of the two most recent measurements.
type Comparison struct {
	Previous reader.Row
	Latest   reader.Row
	Deltas   []Delta
}

// Composition returns fat, muscle and water percentages of a record,
// with missing values as zero.
func Composition(rec decoder.Record) (fat, muscle, water float64) {
	fat, _ = rec.Number(fields.CodeFat)
	muscle, _ = rec.Number(fields.CodeMuscle)
	water, _ = rec.Number(fields.CodeWater)
	return fat, muscle, water
}

// LatestComparison compares the two most recent rows in chronological
// order. It returns false when fewer than two rows are given.
func LatestComparison(rows []reader.Row) (Comparison, bool) {
	if len(rows) < 2 {
		return Comparison{}, false
	}
	sorted := Chronological(rows)
	prev, last := sorted[len(sorted)-2], sorted[len(sorted)-1]
	return Comparison{
		Previous: prev,
		Latest:   last,
		Deltas:   Compare(prev.Record, last.Record),
	}, true
}
