package csvimport

// Transform applies mappings to rows and returns one record per row that
// carries data.
//
// Columns are visited in mapping order, so when several columns map to the
// same field the later column wins. Cells missing from short rows are
// skipped; empty cells are kept as empty strings. A record is dropped when
// none of its values is non-empty, not only when it has no keys, so a row
// whose mapped cells are all blank never reaches the sink even if its
// skipped columns carry data.
func Transform(rows [][]string, mappings Mappings) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record := make(Record, len(mappings))
		hasData := false

		for col, m := range mappings {
			if !m.Mapped || col >= len(row) {
				continue
			}
			record[m.Field] = row[col]
		}
		for _, v := range record {
			if v != "" {
				hasData = true
				break
			}
		}

		if hasData {
			records = append(records, record)
		}
	}
	return records
}
