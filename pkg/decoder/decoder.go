// Package decoder turns one row of a Tanita CSV export into a Record.
//
// Rows are sequences of cells consumed two at a time as (code, value)
// pairs. Pairs whose code cell is not recognised as a field code are
// skipped, an odd trailing cell is ignored, and the last occurrence of a
// duplicated code wins. Values are kept exactly as read. Decoding is pure
// and safe for concurrent use.
package decoder

import (
	"strings"
	"unicode"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
)

// ErrMalformedInput matches any MalformedInputError via errors.Is.
var ErrMalformedInput = errors.Sentinel(errors.ErrDecodeMalformedInput)

// MalformedInputError reports a row that violates the decoder contract.
type MalformedInputError struct {
	*errors.TanitaError
}

func newMalformedInput(reason string) *MalformedInputError {
	return &MalformedInputError{
		TanitaError: errors.New(errors.ErrDecodeMalformedInput, errors.CategoryDecode, "malformed row: "+reason),
	}
}

// Unwrap exposes the structured error so errors.Is and errors.As see it.
func (e *MalformedInputError) Unwrap() error {
	return e.TanitaError
}

// Matcher decides whether a cell in code position is a field code.
type Matcher interface {
	Name() string
	IsCode(cell string) bool
}

// ShapeMatcher accepts vocabulary codes and any two-letter ASCII cell.
type ShapeMatcher struct{}

func (ShapeMatcher) Name() string { return "shape" }

func (ShapeMatcher) IsCode(cell string) bool {
	if fields.IsKnown(cell) {
		return true
	}
	if len(cell) != 2 {
		return false
	}
	for _, r := range cell {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParityMatcher treats every non-empty cell in code position as a code.
type ParityMatcher struct{}

func (ParityMatcher) Name() string { return "parity" }

func (ParityMatcher) IsCode(cell string) bool { return cell != "" }

// MatcherByName returns the matcher registered under name.
// An empty name selects the shape matcher.
func MatcherByName(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "shape":
		return ShapeMatcher{}, nil
	case "parity":
		return ParityMatcher{}, nil
	default:
		return nil, errors.New(errors.ErrDecodeUnknownMatcher, errors.CategoryDecode, "unknown matcher").
			WithContext("matcher", name).
			WithSuggestion("Valid matchers are: shape, parity")
	}
}

// Result is a decoded row plus pairing counters.
type Result struct {
	Record Record

	// Pairs is the number of (code, value) pairs stored.
	Pairs int

	// Skipped is the number of pairs dropped because the code cell did not match.
	Skipped int

	// Trailing is true when the row had an odd cell count.
	Trailing bool
}

// Decoder decodes rows with a configurable Matcher.
// The zero value uses ShapeMatcher.
type Decoder struct {
	Matcher Matcher
}

// New returns a Decoder using m.
func New(m Matcher) *Decoder {
	return &Decoder{Matcher: m}
}

// Decode decodes cells into a Record.
func (d *Decoder) Decode(cells []string) (Record, error) {
	res, err := d.DecodeDetailed(cells)
	if err != nil {
		return Record{}, err
	}
	return res.Record, nil
}

// DecodeDetailed decodes cells and reports how the pairing went.
func (d *Decoder) DecodeDetailed(cells []string) (Result, error) {
	if cells == nil {
		return Result{}, newMalformedInput("nil row")
	}

	m := d.Matcher
	if m == nil {
		m = ShapeMatcher{}
	}

	values := make(map[string]string, len(cells)/2)
	res := Result{Trailing: len(cells)%2 == 1}
	for i := 0; i+1 < len(cells); i += 2 {
		code := strings.TrimSpace(cells[i])
		if !m.IsCode(code) {
			res.Skipped++
			continue
		}
		if _, dup := values[code]; !dup {
			res.Pairs++
		}
		values[code] = cells[i+1]
	}
	res.Record = Record{values: values}
	return res, nil
}

var defaultDecoder = &Decoder{Matcher: ShapeMatcher{}}

// DecodeRow decodes cells with the default shape matcher.
func DecodeRow(cells []string) (Record, error) {
	return defaultDecoder.Decode(cells)
}

// DecodeRowDetailed is DecodeRow with pairing counters.
func DecodeRowDetailed(cells []string) (Result, error) {
	return defaultDecoder.DecodeDetailed(cells)
}
