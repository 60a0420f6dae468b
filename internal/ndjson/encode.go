// Package ndjson encodes records as line-delimited JSON.
//
// Every record is written on its own line with ", " and ": " separators and
// non-ASCII characters escaped. Lines are joined with a single '\n' and the
// output has no trailing newline.
package ndjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Encode converts records into a line-delimited JSON blob.
// Key order and number literals of every record are preserved.
func Encode(records []json.RawMessage) ([]byte, error) {
	var out bytes.Buffer
	var compacted bytes.Buffer

	for i, r := range records {
		compacted.Reset()
		err := json.Compact(&compacted, r)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d is not valid json", i)
		}

		if i > 0 {
			out.WriteByte('\n')
		}

		writeSpaced(&out, compacted.Bytes())
	}

	return out.Bytes(), nil
}

// writeSpaced copies compact json into out adding a space after
// every structural ',' and ':'.
func writeSpaced(out *bytes.Buffer, src []byte) {
	inString := false
	escaped := false

	for i := 0; i < len(src); {
		c := src[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c >= utf8.RuneSelf:
				r, size := utf8.DecodeRune(src[i:])
				writeEscapedRune(out, r)
				i += size

				continue
			}

			out.WriteByte(c)
			i++

			continue
		}

		out.WriteByte(c)
		switch c {
		case '"':
			inString = true
		case ',', ':':
			out.WriteByte(' ')
		}
		i++
	}
}

func writeEscapedRune(out *bytes.Buffer, r rune) {
	if r <= 0xFFFF {
		fmt.Fprintf(out, `\u%04x`, r)
		return
	}

	// Runes outside the BMP are written as a UTF-16 surrogate pair.
	r -= 0x10000
	fmt.Fprintf(out, `\u%04x\u%04x`, 0xD800+(r>>10), 0xDC00+(r&0x3FF))
}
