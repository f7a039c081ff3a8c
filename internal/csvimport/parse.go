package csvimport

import "strings"

// Parse converts raw CSV text into a RawTable.
//
// Blank and whitespace-only lines are discarded. Fewer than two remaining
// lines yields an empty table. Quoted fields may contain commas and
// doubled quotes but not line breaks. Rows whose cells are all empty are
// dropped; row length is not checked against the header.
func Parse(text string) RawTable {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) < 2 {
		return RawTable{Headers: []string{}, Rows: [][]string{}}
	}

	headers := ParseLine(lines[0])
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row := ParseLine(line)
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	return RawTable{Headers: headers, Rows: rows}
}

// ParseLine splits a single CSV line into trimmed fields.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
