package reader

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/r3d91ll/tanita/pkg/errors"
)

// DefaultEncoding is the charset assumed for files that are not UTF-8.
// The scale firmware writes Windows-1252 on European models.
const DefaultEncoding = "windows-1252"

// LookupEncoding resolves a WHATWG encoding label.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		return charmap.Windows1252, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.InputWrap(err, errors.ErrInputBadEncoding, "unknown text encoding").
			WithContext("encoding", name)
	}
	return enc, nil
}

// Text is the outcome of decoding a file's bytes.
type Text struct {
	Content string

	// Charset names the decoding that was applied: "utf-8", "utf-16" or the
	// fallback label.
	Charset string
}

// DecodeText turns raw file bytes into text. Byte order marks are honoured
// and stripped; BOM-less valid UTF-8 passes through; anything else is
// decoded with fallback.
func DecodeText(data []byte, fallback encoding.Encoding) (Text, error) {
	if fallback == nil {
		fallback = charmap.Windows1252
	}

	charset := "utf-8"
	if hasUTF16BOM(data) {
		charset = "utf-16"
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err == nil && utf8.Valid(out) {
		return Text{Content: string(out), Charset: charset}, nil
	}

	out, err = fallback.NewDecoder().Bytes(data)
	if err != nil {
		return Text{}, errors.InputWrap(err, errors.ErrInputBadEncoding, "cannot decode file text")
	}
	return Text{Content: string(out), Charset: encodingName(fallback)}, nil
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE))
}

func encodingName(enc encoding.Encoding) string {
	if name, err := htmlindex.Name(enc); err == nil {
		return name
	}
	if s, ok := enc.(interface{ String() string }); ok {
		return s.String()
	}
	return "fallback"
}
