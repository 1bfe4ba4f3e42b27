package csvload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRecords reads a semicolon-delimited CSV file, transparently handling
// the encodings source extracts arrive in: UTF-8 (with or without BOM),
// Windows-1251, and Latin-1, tried in that order.
func readRecords(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw = bytes.TrimPrefix(raw, utf8BOM)

	text := raw
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(decoded) {
			text = decoded
		} else {
			// Latin-1 decoding cannot fail: every byte maps to a rune.
			text, _ = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		}
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
