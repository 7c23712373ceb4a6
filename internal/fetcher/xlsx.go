package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// OpenXLSX opens the workbook at path.
func OpenXLSX(path string) (*xlsx.File, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return f, nil
}

// OpenXLSXBytes parses an in-memory workbook, e.g. an HTTP upload.
func OpenXLSXBytes(b []byte) (*xlsx.File, error) {
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}
	return f, nil
}

// HasSheet reports whether the workbook contains a sheet with exactly this name.
func HasSheet(f *xlsx.File, name string) bool {
	_, ok := f.Sheet[name]
	return ok
}

// ReadSheet returns every row of the named sheet as strings. Cells hold the
// stored value rather than the display string, so numbers and date serials
// come back unformatted.
func ReadSheet(f *xlsx.File, name string) ([][]string, error) {
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowValues(row))
	}
	return rows, nil
}

func rowValues(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell != nil {
			cells[j] = cell.Value
		}
	}
	return cells
}
