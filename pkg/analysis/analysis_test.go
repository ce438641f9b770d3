package analysis

import (
	"testing"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/reader"
)

func rec(kv ...string) decoder.Record {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return decoder.NewRecord(m)
}

func row(source string, kv ...string) reader.Row {
	return reader.Row{Source: source, Line: 1, Record: rec(kv...)}
}

// -----------------------------------------------------------------------------
// Gauge Tests
// -----------------------------------------------------------------------------

func TestSexOf(t *testing.T) {
	tests := map[string]Sex{"1": SexMale, "2": SexFemale, "F": SexFemale, "x": SexUnspecified}
	for v, want := range tests {
		if got := SexOf(rec("GE", v)); got != want {
			t.Errorf("SexOf(%q): expected %v, got %v", v, want, got)
		}
	}
	if got := SexOf(rec()); got != SexUnspecified {
		t.Errorf("expected unspecified without GE, got %v", got)
	}
}

func TestGauge_Classify(t *testing.T) {
	g := FatGauge(SexMale)
	if got := g.Bands[g.Classify(15)].Label; got != "Optimal" {
		t.Errorf("expected Optimal for 15%%, got %s", got)
	}
	if got := g.Classify(-5); got != 0 {
		t.Errorf("expected clamp to first band, got %d", got)
	}
	if got := g.Classify(99); got != len(g.Bands)-1 {
		t.Errorf("expected clamp to last band, got %d", got)
	}
}

func TestGauge_Position(t *testing.T) {
	g := BMIGauge()
	if p := g.Position(0); p != 0 {
		t.Errorf("expected 0 at minimum, got %v", p)
	}
	if p := g.Position(100); p != 1 {
		t.Errorf("expected clamp to 1, got %v", p)
	}
	if p := g.Position(20); p <= 0 || p >= 1 {
		t.Errorf("expected interior position, got %v", p)
	}
}

func TestGauges_SkipsMissing(t *testing.T) {
	readings := Gauges(rec("GE", "2", "FW", "30.0", "MI", "abc"))
	if len(readings) != 1 {
		t.Fatalf("expected a single reading, got %d", len(readings))
	}
	if readings[0].Status() != "Optimal" {
		t.Errorf("expected Optimal for a female at 30%%, got %s", readings[0].Status())
	}
}

// -----------------------------------------------------------------------------
// Radar Tests
// -----------------------------------------------------------------------------

func TestRadars(t *testing.T) {
	r := rec("FT", "22.4", "Fr", "16.0", "mT", "0")
	radars := Radars(r)
	if len(radars) != 1 {
		t.Fatalf("expected only the fat radar, got %d", len(radars))
	}
	fat := radars[0]
	if fat.Color != "#e67e22" {
		t.Errorf("expected fat colour, got %s", fat.Color)
	}
	if fat.Values[0] != 22.4 || fat.Values[2] != 0 {
		t.Errorf("expected missing segments as zero, got %v", fat.Values)
	}
	if fat.Max() != 22.4 {
		t.Errorf("expected max 22.4, got %v", fat.Max())
	}
	if len(Radars(rec("Wk", "80"))) != 0 {
		t.Error("expected no radars without segment data")
	}
}

// -----------------------------------------------------------------------------
// Comparison Tests
// -----------------------------------------------------------------------------

func TestChronological(t *testing.T) {
	rows := []reader.Row{
		row("b", "DT", "16/01/2024", "Ti", "07:30:00"),
		row("a", "DT", "15/01/2024", "Ti", "21:00:00"),
		row("x", "Wk", "70"),
		row("c", "DT", "16/01/2024", "Ti", "06:00:00"),
	}
	sorted := Chronological(rows)
	want := []string{"x", "a", "c", "b"}
	for i, w := range want {
		if sorted[i].Source != w {
			t.Errorf("position %d: expected %s, got %s", i, w, sorted[i].Source)
		}
	}
	if rows[0].Source != "b" {
		t.Error("expected input to be left untouched")
	}
}

func TestCompare(t *testing.T) {
	prev := rec("Wk", "80.2", "MI", "24.8", "FW", "20.1", "IF", "8")
	last := rec("Wk", "79.6", "MI", "24.85", "FW", "21.0")

	deltas := Compare(prev, last)
	if len(deltas) != len(CompareCodes) {
		t.Fatalf("expected %d deltas, got %d", len(CompareCodes), len(deltas))
	}
	byCode := map[string]Delta{}
	for _, d := range deltas {
		byCode[d.Code] = d
	}

	if d := byCode["Wk"]; d.Trend != TrendDown || d.DiffText() != "-0.6 kg" {
		t.Errorf("unexpected weight delta %+v %q", d, d.DiffText())
	}
	if d := byCode["MI"]; d.Trend != TrendSteady || d.Trend.Color() != "#808080" {
		t.Errorf("expected steady BMI, got %+v", d)
	}
	if d := byCode["FW"]; d.Trend != TrendUp || d.DiffText() != "+0.9%" {
		t.Errorf("unexpected fat delta %+v %q", d, d.DiffText())
	}
	if d := byCode["IF"]; d.HasDiff || d.DiffText() != "N/A" || d.CurrentText() != "N/A" {
		t.Errorf("expected N/A for missing current value, got %+v", d)
	}
}

func TestTrendString(t *testing.T) {
	for trend, want := range map[Trend]string{
		TrendUnknown: "unknown",
		TrendSteady:  "steady",
		TrendUp:      "up",
		TrendDown:    "down",
	} {
		if got := trend.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestLatestComparison(t *testing.T) {
	if _, ok := LatestComparison([]reader.Row{row("a", "Wk", "70")}); ok {
		t.Error("expected no comparison with one row")
	}

	rows := []reader.Row{
		row("new", "DT", "20240301", "Wk", "70"),
		row("old", "DT", "20240101", "Wk", "72"),
		row("mid", "DT", "20240201", "Wk", "71"),
	}
	cmp, ok := LatestComparison(rows)
	if !ok {
		t.Fatal("expected a comparison")
	}
	if cmp.Previous.Source != "mid" || cmp.Latest.Source != "new" {
		t.Errorf("expected mid -> new, got %s -> %s", cmp.Previous.Source, cmp.Latest.Source)
	}
}

func TestComposition(t *testing.T) {
	fat, muscle, water := Composition(rec("FW", "20.1", "ww", "56.1"))
	if fat != 20.1 || muscle != 0 || water != 56.1 {
		t.Errorf("unexpected composition %v %v %v", fat, muscle, water)
	}
}
