package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSXTable reads the first sheet of an XLSX workbook, returning the
// header row and the data rows as trimmed strings.
func ReadXLSXTable(path string) (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}

		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}

	if header == nil {
		return nil, nil, eris.New("xlsx: empty sheet")
	}

	return header, rows, nil
}
