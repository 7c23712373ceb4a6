// Package ingesttest builds procurement workbooks for tests.
package ingesttest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// Sheets maps a sheet name to its rows; the first row is the header.
type Sheets map[string][][]string

// Headers for the four sheets.
var (
	POHeader      = []string{"PO_ID", "Vendor", "Item", "PO_Amount", "PO_Date"}
	GRHeader      = []string{"Vendor", "Item", "PO_Date", "Expected_Delivery", "Delivery_Date"}
	InvoiceHeader = []string{"Vendor", "Invoice_Amount", "PO_Amount"}
	ReturnsHeader = []string{"Vendor", "Item", "Return_ID"}
	sheetOrder    = []string{"PO", "GR", "Invoices", "Returns"}
)

// File builds an in-memory workbook. Sheets are added in PO, GR, Invoices,
// Returns order, then any others.
func File(t testing.TB, sheets Sheets) *xlsx.File {
	t.Helper()
	f := xlsx.NewFile()
	added := map[string]bool{}
	add := func(name string, rows [][]string) {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, v := range rowData {
				row.AddCell().SetString(v)
			}
		}
		added[name] = true
	}
	for _, name := range sheetOrder {
		if rows, ok := sheets[name]; ok {
			add(name, rows)
		}
	}
	for name, rows := range sheets {
		if !added[name] {
			add(name, rows)
		}
	}
	return f
}

// Bytes serializes the workbook as an .xlsx upload body.
func Bytes(t testing.TB, sheets Sheets) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, File(t, sheets).Write(&buf))
	return buf.Bytes()
}

// Path writes the workbook under t.TempDir and returns its path.
func Path(t testing.TB, sheets Sheets) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendors.xlsx")
	require.NoError(t, os.WriteFile(path, Bytes(t, sheets), 0o644))
	return path
}

// TwoVendors is the reference scenario: vendor A is perfect, vendor B is late,
// overbilled and has a return.
func TwoVendors() Sheets {
	return Sheets{
		"PO": {
			POHeader,
			{"PO1", "A", "Bolts", "600", "2024-01-01"},
			{"PO2", "A", "Nuts", "400", "2024-01-02"},
			{"PO3", "B", "Bolts", "500", "2024-01-03"},
		},
		"GR": {
			GRHeader,
			{"A", "Bolts", "2024-01-01", "2024-01-08", "2024-01-08"},
			{"A", "Nuts", "2024-01-02", "2024-01-09", "2024-01-09"},
			{"B", "Bolts", "2024-01-03", "2024-01-10", "2024-01-13"},
		},
		"Invoices": {
			InvoiceHeader,
			{"A", "600", "600"},
			{"A", "400", "400"},
			{"B", "600", "500"},
		},
		"Returns": {
			ReturnsHeader,
			{"B", "Bolts", "R1"},
		},
	}
}
