package decoder

import (
	"sort"

	"github.com/r3d91ll/tanita/pkg/fields"
)

// Record is the decoded set of code to raw value pairs of one row.
// It is immutable: accessors return copies.
type Record struct {
	values map[string]string
}

// NewRecord builds a Record from a copy of values.
func NewRecord(values map[string]string) Record {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Record{values: m}
}

// Get returns the raw value for code.
func (r Record) Get(code string) (string, bool) {
	v, ok := r.values[code]
	return v, ok
}

// Value returns the raw value for code or "" when absent.
func (r Record) Value(code string) string {
	return r.values[code]
}

// Has reports whether the record contains code.
func (r Record) Has(code string) bool {
	_, ok := r.values[code]
	return ok
}

// Len returns the number of decoded fields.
func (r Record) Len() int {
	return len(r.values)
}

// Codes returns the decoded codes sorted lexically.
func (r Record) Codes() []string {
	codes := make([]string, 0, len(r.values))
	for c := range r.values {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Fields returns a copy of the underlying mapping.
func (r Record) Fields() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Each calls fn for every field in presentation order.
func (r Record) Each(fn func(fields.Entry)) {
	for _, e := range r.Ordered() {
		fn(e)
	}
}

// Ordered returns the fields bucketed into presentation tiers.
func (r Record) Ordered() []fields.Entry {
	return fields.Ordered(r.values)
}

// Unknown returns the codes absent from the dictionary, sorted.
func (r Record) Unknown() []string {
	var codes []string
	for c := range r.values {
		if !fields.IsKnown(c) {
			codes = append(codes, c)
		}
	}
	sort.Strings(codes)
	return codes
}

// Number returns the numeric value of code.
func (r Record) Number(code string) (float64, bool) {
	v, ok := r.values[code]
	if !ok {
		return 0, false
	}
	return fields.ParseNumber(v)
}
