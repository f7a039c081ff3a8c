package csvimport

// read.go reads an uploaded file in a single step.
//
// Uploads come from spreadsheet exports, so two artifacts are cleaned up
// before parsing:
//   - a UTF-8 byte order mark written by Excel on Windows
//   - invalid UTF-8 bytes, replaced with U+FFFD

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads all of r and returns it as clean UTF-8 text.
// Inputs larger than maxBytes fail with ErrFileTooLarge; maxBytes <= 0
// disables the limit.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	return string(sanitizeUTF8(data)), nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
