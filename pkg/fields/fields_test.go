package fields

import (
	"sync"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Describe Tests
// -----------------------------------------------------------------------------

func TestDescribe_Known(t *testing.T) {
	tests := []struct {
		code  string
		label string
		unit  string
		kind  Kind
		tier  Tier
	}{
		{"Wk", "Body mass", "kg", KindNumber, TierPrimary},
		{"MI", "Body mass index (BMI)", "kg/m²", KindNumber, TierPrimary},
		{"FW", "Global body fat", "%", KindNumber, TierPrimary},
		{"DT", "Measurement date", "", KindDate, TierPrimary},
		{"Ti", "Measurement time", "", KindTime, TierPrimary},
		{"Fr", "Right arm fat", "%", KindNumber, TierRegionalFat},
		{"FL", "Left leg fat", "%", KindNumber, TierRegionalFat},
		{"mr", "Right arm muscle", "kg", KindNumber, TierRegionalMuscle},
		{"mL", "Left leg muscle", "kg", KindNumber, TierRegionalMuscle},
		{"Bt", "Body type", "", KindEnum, TierOther},
		{"rD", "Daily calorie intake (DCI)", "kcal", KindNumber, TierOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m := Describe(tt.code)
			if !m.Known {
				t.Fatalf("expected %s to be known", tt.code)
			}
			if m.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, m.Code)
			}
			if m.Label != tt.label {
				t.Errorf("expected label %q, got %q", tt.label, m.Label)
			}
			if m.Unit != tt.unit {
				t.Errorf("expected unit %q, got %q", tt.unit, m.Unit)
			}
			if m.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, m.Kind)
			}
			if m.Tier != tt.tier {
				t.Errorf("expected tier %v, got %v", tt.tier, m.Tier)
			}
		})
	}
}

func TestDescribe_Unknown(t *testing.T) {
	m := Describe("ZZ")
	if m.Known {
		t.Error("expected ZZ to be unknown")
	}
	if m.Code != "ZZ" {
		t.Errorf("expected raw code to be carried, got %q", m.Code)
	}
	if m.Tier != TierOther {
		t.Errorf("expected unknown codes in the last tier, got %v", m.Tier)
	}
	if m.Label != "Unrecognized field (ZZ)" {
		t.Errorf("unexpected label %q", m.Label)
	}
	if got := m.Format("99"); got != "99" {
		t.Errorf("expected raw value to be shown, got %q", got)
	}
}

func TestDescribe_IsPure(t *testing.T) {
	codes := append(Codes(), "ZZ", "", "q1")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, c := range codes {
				a, b := Describe(c), Describe(c)
				if a.Code != b.Code || a.Label != b.Label || a.Unit != b.Unit ||
					a.Kind != b.Kind || a.Tier != b.Tier || a.Known != b.Known {
					t.Errorf("Describe(%q) not stable: %+v vs %+v", c, a, b)
				}
			}
		}()
	}
	wg.Wait()
}

func TestCodes_Vocabulary(t *testing.T) {
	required := []string{"Wk", "MI", "FW", "DT", "Ti", "GE", "AG", "Hm", "FT", "mW",
		"bw", "ww", "IF", "rA", "rD", "Bt", "Fr", "Fl", "FR", "FL", "mr", "ml", "mR", "mL"}
	for _, c := range required {
		if !IsKnown(c) {
			t.Errorf("expected %s in vocabulary", c)
		}
	}
	if IsKnown("0") {
		t.Error("expected leading metadata cell 0 not to be a code")
	}
	codes := Codes()
	if codes[0] != "DT" || codes[1] != "Ti" {
		t.Errorf("expected date and time first, got %v", codes[:2])
	}
	if len(All()) != len(codes) {
		t.Errorf("expected All and Codes to agree, got %d and %d", len(All()), len(codes))
	}
}

func TestSearch(t *testing.T) {
	got := Search("fat")
	if len(got) < 6 {
		t.Errorf("expected at least 6 fat fields, got %d", len(got))
	}
	exact := Search("FW")
	if len(exact) == 0 || exact[0].Code != "FW" {
		t.Errorf("expected exact match first, got %+v", exact)
	}
	if Search("  ") != nil {
		t.Error("expected nil for empty query")
	}
}

// -----------------------------------------------------------------------------
// Coercion Tests
// -----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"70.5", 70.5, true},
		{" 22,1 ", 22.1, true},
		{"18.4%", 18.4, true},
		{"", 0, false},
		{"abc", 0, false},
		{"%", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q): expected (%v, %v), got (%v, %v)", tt.raw, tt.want, tt.ok, got, ok)
		}
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		date, clock string
		want        time.Time
		ok          bool
	}{
		{"20231201", "1430", time.Date(2023, 12, 1, 14, 30, 0, 0, time.UTC), true},
		{"16/01/2012", "20:53:55", time.Date(2012, 1, 16, 20, 53, 55, 0, time.UTC), true},
		{"2024-02-29", "", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"garbage", "1430", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := Timestamp(tt.date, tt.clock)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("Timestamp(%q, %q): expected (%v, %v), got (%v, %v)", tt.date, tt.clock, tt.want, tt.ok, got, ok)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		code, raw, want string
	}{
		{"DT", "20231201", "2023-12-01"},
		{"DT", "16/01/2012", "2012-01-16"},
		{"Ti", "1430", "14:30"},
		{"Ti", "20:53:55", "20:53:55"},
		{"Wk", "70.5", "70.5 kg"},
		{"FW", "18,4", "18.4%"},
		{"MI", "22.10", "22.1 kg/m²"},
		{"Bt", "2", "Athlete"},
		{"Bt", "0", "Standard"},
		{"Bt", "7", "7"},
		{"GE", "2", "Female"},
		{"Wk", "n/a", "n/a"},
		{"MO", "BC-601", "BC-601"},
		{"IF", "5", "5"},
	}
	for _, tt := range tests {
		if got := Describe(tt.code).Format(tt.raw); got != tt.want {
			t.Errorf("Format(%s, %q): expected %q, got %q", tt.code, tt.raw, tt.want, got)
		}
	}
}

func TestMeaningNumber_NonNumeric(t *testing.T) {
	if _, ok := Describe("DT").Number("20231201"); ok {
		t.Error("expected date field not to yield a number")
	}
	if v, ok := Describe("Wk").Number("80"); !ok || v != 80 {
		t.Errorf("expected 80, got %v %v", v, ok)
	}
}

// -----------------------------------------------------------------------------
// Ordering Tests
// -----------------------------------------------------------------------------

func TestOrdered_Tiers(t *testing.T) {
	values := map[string]string{
		"ZZ": "99",
		"AB": "1",
		"mL": "8.1",
		"FR": "20",
		"AG": "40",
		"Wk": "70.5",
		"DT": "20231201",
		"FW": "18",
		"Ti": "1430",
		"MI": "22.1",
		"Fr": "19",
	}
	want := []string{"DT", "Ti", "Wk", "MI", "FW", "Fr", "FR", "mL", "AG", "AB", "ZZ"}

	got := Ordered(values)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Code != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], e.Code)
		}
		if e.Value != values[e.Code] {
			t.Errorf("expected value %q for %s, got %q", values[e.Code], e.Code, e.Value)
		}
	}
	if len(values) != 11 {
		t.Error("expected input map to be untouched")
	}
}

func TestGrouped(t *testing.T) {
	groups := Grouped(map[string]string{"Wk": "1", "mr": "2", "ZZ": "3"})
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Tier != TierPrimary || groups[1].Tier != TierRegionalMuscle || groups[2].Tier != TierOther {
		t.Errorf("unexpected tier order: %v %v %v", groups[0].Tier, groups[1].Tier, groups[2].Tier)
	}
	if Grouped(nil) != nil {
		t.Error("expected no groups for empty input")
	}
}

func TestEntryDisplay(t *testing.T) {
	e := Ordered(map[string]string{"Wk": "80.0"})[0]
	if e.Display() != "80 kg" {
		t.Errorf("expected '80 kg', got %q", e.Display())
	}
}
