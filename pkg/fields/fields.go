// Package fields is the static dictionary of Tanita field codes.
//
// A field code is the short identifier the scale writes in front of every
// value in its CSV exports ("Wk" for body mass, "FW" for global body fat and
// so on). The dictionary resolves a code to a human-readable label, a unit,
// the rule used to coerce its raw value for display, and the presentation
// tier it belongs to. The table is read-only and safe for concurrent use.
package fields

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the value-coercion rule applied at presentation time.
type Kind int

const (
	KindText   Kind = iota // shown verbatim
	KindNumber             // decimal, tolerates "%" and decimal commas
	KindDate               // YYYYMMDD, DD/MM/YYYY or YYYY-MM-DD
	KindTime               // HHMM, HH:MM or HH:MM:SS
	KindEnum               // small closed set of coded values
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindEnum:
		return "enum"
	default:
		return "text"
	}
}

// Tier is the presentation priority bucket of a field.
type Tier int

const (
	TierPrimary        Tier = iota // weight, BMI, global fat, date and time
	TierRegionalFat                // per-segment fat
	TierRegionalMuscle             // per-segment muscle
	TierOther                      // everything else, unknown codes included
)

// String returns a display name for the tier.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "Primary vitals"
	case TierRegionalFat:
		return "Regional fat"
	case TierRegionalMuscle:
		return "Regional muscle"
	default:
		return "Other"
	}
}

// Choice is one allowed value of an enumerated field.
type Choice struct {
	Value string
	Label string
}

// Meaning describes one field code. Meanings returned by Describe share
// their Choices slice with the dictionary and must be treated as read-only.
type Meaning struct {
	Code    string
	Label   string
	Unit    string
	Kind    Kind
	Tier    Tier
	Choices []Choice

	// Known is false for codes absent from the dictionary.
	Known bool
}

// Field codes in the scale's vocabulary.
const (
	CodeDate          = "DT"
	CodeTime          = "Ti"
	CodeWeight        = "Wk"
	CodeBMI           = "MI"
	CodeFat           = "FW"
	CodeFatTrunk      = "FT"
	CodeFatRightArm   = "Fr"
	CodeFatLeftArm    = "Fl"
	CodeFatRightLeg   = "FR"
	CodeFatLeftLeg    = "FL"
	CodeMuscleTrunk   = "mT"
	CodeMuscleRArm    = "mr"
	CodeMuscleLArm    = "ml"
	CodeMuscleRLeg    = "mR"
	CodeMuscleLLeg    = "mL"
	CodeGender        = "GE"
	CodeAge           = "AG"
	CodeHeight        = "Hm"
	CodeActivity      = "AL"
	CodeMuscle        = "mW"
	CodeWater         = "ww"
	CodeBone          = "bw"
	CodeVisceral      = "IF"
	CodeMetabolicAge  = "rA"
	CodeDailyCalories = "rD"
	CodeBodyType      = "Bt"
	CodeModel         = "MO"
	CodeChecksum      = "CS"
	CodeLengthUnit    = "~0"
	CodeMassUnit      = "~1"
	CodeUnitMarker2   = "~2"
	CodeUnitMarker3   = "~3"
)

// table is kept in presentation order.
var table = []Meaning{
	{Code: CodeDate, Label: "Measurement date", Kind: KindDate, Tier: TierPrimary},
	{Code: CodeTime, Label: "Measurement time", Kind: KindTime, Tier: TierPrimary},
	{Code: CodeWeight, Label: "Body mass", Unit: "kg", Kind: KindNumber, Tier: TierPrimary},
	{Code: CodeBMI, Label: "Body mass index (BMI)", Unit: "kg/m²", Kind: KindNumber, Tier: TierPrimary},
	{Code: CodeFat, Label: "Global body fat", Unit: "%", Kind: KindNumber, Tier: TierPrimary},

	{Code: CodeFatTrunk, Label: "Trunk fat", Unit: "%", Kind: KindNumber, Tier: TierRegionalFat},
	{Code: CodeFatRightArm, Label: "Right arm fat", Unit: "%", Kind: KindNumber, Tier: TierRegionalFat},
	{Code: CodeFatLeftArm, Label: "Left arm fat", Unit: "%", Kind: KindNumber, Tier: TierRegionalFat},
	{Code: CodeFatRightLeg, Label: "Right leg fat", Unit: "%", Kind: KindNumber, Tier: TierRegionalFat},
	{Code: CodeFatLeftLeg, Label: "Left leg fat", Unit: "%", Kind: KindNumber, Tier: TierRegionalFat},

	{Code: CodeMuscleTrunk, Label: "Trunk muscle", Unit: "kg", Kind: KindNumber, Tier: TierRegionalMuscle},
	{Code: CodeMuscleRArm, Label: "Right arm muscle", Unit: "kg", Kind: KindNumber, Tier: TierRegionalMuscle},
	{Code: CodeMuscleLArm, Label: "Left arm muscle", Unit: "kg", Kind: KindNumber, Tier: TierRegionalMuscle},
	{Code: CodeMuscleRLeg, Label: "Right leg muscle", Unit: "kg", Kind: KindNumber, Tier: TierRegionalMuscle},
	{Code: CodeMuscleLLeg, Label: "Left leg muscle", Unit: "kg", Kind: KindNumber, Tier: TierRegionalMuscle},

	{Code: CodeGender, Label: "Gender", Kind: KindEnum, Tier: TierOther,
		Choices: []Choice{{"1", "Male"}, {"2", "Female"}}},
	{Code: CodeAge, Label: "Age", Unit: "years", Kind: KindNumber, Tier: TierOther},
	{Code: CodeHeight, Label: "Height", Unit: "cm", Kind: KindNumber, Tier: TierOther},
	{Code: CodeActivity, Label: "Activity level", Kind: KindNumber, Tier: TierOther},
	{Code: CodeMuscle, Label: "Global muscle mass", Unit: "%", Kind: KindNumber, Tier: TierOther},
	{Code: CodeWater, Label: "Total body water", Unit: "%", Kind: KindNumber, Tier: TierOther},
	{Code: CodeBone, Label: "Estimated bone mass", Unit: "kg", Kind: KindNumber, Tier: TierOther},
	{Code: CodeVisceral, Label: "Visceral fat rating", Kind: KindNumber, Tier: TierOther},
	{Code: CodeMetabolicAge, Label: "Metabolic age", Unit: "years", Kind: KindNumber, Tier: TierOther},
	{Code: CodeDailyCalories, Label: "Daily calorie intake (DCI)", Unit: "kcal", Kind: KindNumber, Tier: TierOther},
	{Code: CodeBodyType, Label: "Body type", Kind: KindEnum, Tier: TierOther,
		Choices: []Choice{{"0", "Standard"}, {"2", "Athlete"}}},
	{Code: CodeModel, Label: "Scale model", Kind: KindText, Tier: TierOther},
	{Code: CodeChecksum, Label: "Checksum", Kind: KindText, Tier: TierOther},
	{Code: CodeLengthUnit, Label: "Length unit", Kind: KindText, Tier: TierOther},
	{Code: CodeMassUnit, Label: "Mass unit", Kind: KindText, Tier: TierOther},
	{Code: CodeUnitMarker2, Label: "Unit marker 2", Kind: KindText, Tier: TierOther},
	{Code: CodeUnitMarker3, Label: "Unit marker 3", Kind: KindText, Tier: TierOther},
}

// index maps a code to its position in table.
var index = func() map[string]int {
	m := make(map[string]int, len(table))
	for i := range table {
		table[i].Known = true
		m[table[i].Code] = i
	}
	return m
}()

// Describe resolves a field code. Codes outside the vocabulary yield a
// Meaning with Known == false that still carries the raw code.
func Describe(code string) Meaning {
	if i, ok := index[code]; ok {
		return table[i]
	}
	return Meaning{
		Code:  code,
		Label: fmt.Sprintf("Unrecognized field (%s)", code),
		Kind:  KindText,
		Tier:  TierOther,
	}
}

// IsKnown reports whether code is part of the vocabulary.
func IsKnown(code string) bool {
	_, ok := index[code]
	return ok
}

// Codes returns the vocabulary in presentation order.
func Codes() []string {
	codes := make([]string, len(table))
	for i, m := range table {
		codes[i] = m.Code
	}
	return codes
}

// All returns every known Meaning in presentation order.
func All() []Meaning {
	out := make([]Meaning, len(table))
	copy(out, table)
	return out
}

// Search returns the known meanings whose code or label contains query,
// case-insensitively. An exact code match is always returned first.
func Search(query string) []Meaning {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var exact, partial []Meaning
	for _, m := range table {
		switch {
		case m.Code == strings.TrimSpace(query):
			exact = append(exact, m)
		case strings.Contains(strings.ToLower(m.Code), q) || strings.Contains(strings.ToLower(m.Label), q):
			partial = append(partial, m)
		}
	}
	return append(exact, partial...)
}

// -----------------------------------------------------------------------------
// Presentation Ordering
// -----------------------------------------------------------------------------

// Entry is one decoded field paired with its meaning.
type Entry struct {
	Code    string
	Value   string
	Meaning Meaning
}

// Display returns the value formatted for presentation.
func (e Entry) Display() string {
	return e.Meaning.Format(e.Value)
}

// Ordered returns the fields bucketed by tier (primary vitals, regional fat,
// regional muscle, then everything else). Inside a tier known codes keep
// dictionary order; unknown codes come last, sorted by code. The input map
// is not modified.
func Ordered(values map[string]string) []Entry {
	entries := make([]Entry, 0, len(values))
	for code, value := range values {
		entries = append(entries, Entry{Code: code, Value: value, Meaning: Describe(code)})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Meaning, entries[j].Meaning
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Known != b.Known {
			return a.Known
		}
		if a.Known {
			return index[a.Code] < index[b.Code]
		}
		return a.Code < b.Code
	})
	return entries
}

// Group is the entries of one tier.
type Group struct {
	Tier    Tier
	Entries []Entry
}

// Grouped returns Ordered split into non-empty tier groups.
func Grouped(values map[string]string) []Group {
	var groups []Group
	for _, e := range Ordered(values) {
		if n := len(groups); n == 0 || groups[n-1].Tier != e.Meaning.Tier {
			groups = append(groups, Group{Tier: e.Meaning.Tier})
		}
		groups[len(groups)-1].Entries = append(groups[len(groups)-1].Entries, e)
	}
	return groups
}
