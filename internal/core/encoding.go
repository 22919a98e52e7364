package core

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncoding is one candidate in the CSV decoding chain.
// A nil enc means UTF-8.
type textEncoding struct {
	name string
	enc  encoding.Encoding
}

// csvEncodings is tried in order; the first candidate producing clean text wins.
var csvEncodings = []textEncoding{
	{name: "utf-8"},
	{name: "latin-1", enc: charmap.ISO8859_1},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "windows-1252", enc: charmap.Windows1252},
}

// decodeText converts raw CSV bytes to text, returning the encoding used.
//
// The first candidate producing clean text wins. When none does, the first
// candidate that decoded at all is used, so a file with a stray C1 byte is
// still read as latin-1 rather than rejected.
func decodeText(data []byte) (string, string, error) {
	var fallbackText, fallbackName string
	for _, te := range csvEncodings {
		text, clean, ok := te.decode(data)
		if !ok {
			continue
		}
		if clean {
			return text, te.name, nil
		}
		if fallbackName == "" {
			fallbackText, fallbackName = text, te.name
		}
	}
	if fallbackName != "" {
		return fallbackText, fallbackName, nil
	}

	names := make([]string, len(csvEncodings))
	for i, te := range csvEncodings {
		names[i] = te.name
	}
	return "", "", fmt.Errorf("%w: file could not be decoded as %s", ErrEncodingFailure, strings.Join(names, ", "))
}

// decode reports whether data decoded at all (ok) and whether the result
// looks like real text (clean).
func (te textEncoding) decode(data []byte) (text string, clean, ok bool) {
	if te.enc == nil {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false, false
		}
		return string(data), true, true
	}

	out, _, err := transform.Bytes(te.enc.NewDecoder(), data)
	if err != nil {
		return "", false, false
	}
	text = string(out)
	return text, plausibleText(text), true
}

// plausibleText rejects single-byte decodings that produced replacement
// characters or C1 control codes (U+0080-U+009F). Latin-1 maps 0x80-0x9F to
// C1 controls, which is how Windows-1252 punctuation shows up when read with
// the wrong code page.
func plausibleText(s string) bool {
	for _, r := range s {
		if r == utf8.RuneError || (r >= 0x80 && r <= 0x9F) {
			return false
		}
	}
	return true
}
