package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vendor-kpi/internal/model"
)

// WriteCSV writes rows with a header of model.Columns and no index column.
// Missing or undefined values are empty fields. Output is identical for
// identical input.
func WriteCSV(w io.Writer, rows []model.VendorKPI) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(model.Columns); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	for _, r := range rows {
		record := make([]string, len(model.Columns))
		record[0] = r.Vendor
		for i, col := range model.Columns[1:] {
			record[i+1] = formatMetric(r, col)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "report: write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush CSV")
	}
	return nil
}

func formatMetric(r model.VendorKPI, col string) string {
	if col == model.ColItemsSupplied {
		if r.ItemsSupplied == nil {
			return ""
		}
		return strconv.Itoa(*r.ItemsSupplied)
	}
	return formatFloat(r.Metric(col))
}

func formatFloat(p *float64) string {
	if p == nil || math.IsNaN(*p) {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// Table is a generic re-parse of a CSV export.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV parses a CSV export back into a Table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "report: read CSV")
	}
	if len(records) == 0 {
		return nil, eris.New("report: read CSV: missing header row")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// EncodeCSV renders rows with WriteCSV and re-reads the bytes, failing if
// any cell does not parse back to the value it was written from.
func EncodeCSV(rows []model.VendorKPI) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	table, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	if err := table.matches(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Table) matches(rows []model.VendorKPI) error {
	if !slices.Equal(t.Header, model.Columns) {
		return eris.Errorf("report: CSV header %v, want %v", t.Header, model.Columns)
	}
	if len(t.Rows) != len(rows) {
		return eris.Errorf("report: CSV has %d rows, want %d", len(t.Rows), len(rows))
	}
	for i, r := range rows {
		vendor, err := t.Value(i, model.ColVendor)
		if err != nil {
			return err
		}
		if vendor != r.Vendor {
			return eris.Errorf("report: CSV row %d vendor %q, want %q", i+1, vendor, r.Vendor)
		}
		for _, col := range model.Columns[1:] {
			got, err := t.Float(i, col)
			if err != nil {
				return err
			}
			want := r.Metric(col)
			if want == nil || math.IsNaN(*want) {
				if !math.IsNaN(got) {
					return eris.Errorf("report: CSV %s/%s is %v, want blank", r.Vendor, col, got)
				}
				continue
			}
			if got != *want {
				return eris.Errorf("report: CSV %s/%s is %v, want %v", r.Vendor, col, got, *want)
			}
		}
	}
	return nil
}

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Value returns the raw cell at row and col.
func (t *Table) Value(row int, col string) (string, error) {
	idx := t.Index(col)
	if idx < 0 {
		return "", eris.Errorf("report: no column %q", col)
	}
	if row < 0 || row >= len(t.Rows) {
		return "", eris.Errorf("report: row %d out of range", row)
	}
	if idx >= len(t.Rows[row]) {
		return "", nil
	}
	return t.Rows[row][idx], nil
}

// Float parses the cell at row and col. A blank cell is NaN.
func (t *Table) Float(row int, col string) (float64, error) {
	v, err := t.Value(row, col)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(v) == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "report: parse %q in column %q", v, col)
	}
	return f, nil
}
