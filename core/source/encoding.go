package source

import (
	"fmt"
	"unicode/utf8"

	"github.com/gaurav-prasanna/mdzip/core"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText returns data as UTF-8 text. A byte order mark selects UTF-8
// or UTF-16 and is dropped; input that is not valid UTF-8 is read as
// Windows-1252, the usual encoding of spreadsheet exports.
func DecodeText(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w: %w", core.ErrMalformedInput, err)
	}
	if utf8.Valid(out) {
		return string(out), nil
	}

	out, err = charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding text as windows-1252: %w: %w", core.ErrMalformedInput, err)
	}
	return string(out), nil
}
