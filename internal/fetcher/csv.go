package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSVTable reads a whole CSV table, returning the header row and the
// data rows. Fields are whitespace-trimmed; rows may have variable width.
func ReadCSVTable(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable fields

	first := true
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, eris.Wrap(readErr, "csv: read row")
		}

		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}

		if first {
			header = record
			first = false
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, nil, eris.New("csv: empty table")
	}

	return header, rows, nil
}

// MapColumns builds a case-insensitive column name to index map.
func MapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// GetCol gets a column value by name from a row, returning empty string if
// the column is absent or the row is short.
func GetCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
