package fields

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{"20060102", "02/01/2006", "2006-01-02", "2/1/2006"}

var timeLayouts = []string{"1504", "15:04", "15:04:05", "150405"}

// ParseNumber parses a scale number. Surrounding whitespace and a trailing
// "%" are ignored and a decimal comma is accepted.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDate parses a measurement date.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime parses a measurement time of day. The returned time is on
// the zero date.
func ParseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp combines a DT and a Ti value. A missing or unparseable time
// counts as midnight; an unparseable date fails.
func Timestamp(date, clock string) (time.Time, bool) {
	d, ok := ParseDate(date)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := ParseTime(clock); ok {
		d = d.Add(time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second)
	}
	return d, true
}

// Number parses raw when the field is numeric.
func (m Meaning) Number(raw string) (float64, bool) {
	if m.Kind != KindNumber {
		return 0, false
	}
	return ParseNumber(raw)
}

// ChoiceLabel returns the label of an enumerated value.
func (m Meaning) ChoiceLabel(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	for _, c := range m.Choices {
		if c.Value == v {
			return c.Label, true
		}
	}
	return "", false
}

// Format renders raw for display. It never fails: values that do not
// coerce are returned unchanged.
func (m Meaning) Format(raw string) string {
	switch m.Kind {
	case KindDate:
		if t, ok := ParseDate(raw); ok {
			return t.Format("2006-01-02")
		}
	case KindTime:
		if t, ok := ParseTime(raw); ok {
			if t.Second() != 0 {
				return t.Format("15:04:05")
			}
			return t.Format("15:04")
		}
	case KindEnum:
		if label, ok := m.ChoiceLabel(raw); ok {
			return label
		}
	case KindNumber:
		if v, ok := ParseNumber(raw); ok {
			return WithUnit(strconv.FormatFloat(v, 'f', -1, 64), m.Unit)
		}
	}
	return raw
}

// WithUnit appends unit to value. Percentages are written without a space.
func WithUnit(value, unit string) string {
	switch unit {
	case "":
		return value
	case "%":
		return value + "%"
	default:
		return value + " " + unit
	}
}
