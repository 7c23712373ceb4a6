// Package ingest converts an uploaded procurement workbook into typed records,
// validating sheets, columns and cell values at the boundary.
package ingest

import (
	"strings"
	"time"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/fetcher"
	"github.com/sells-group/vendor-kpi/internal/model"
)

// Sheet names. Matching is exact.
const (
	SheetPO       = "PO"
	SheetGR       = "GR"
	SheetInvoices = "Invoices"
	SheetReturns  = "Returns"
)

// Column names. Matching is exact and case-sensitive.
const (
	ColPOID             = "PO_ID"
	ColVendor           = "Vendor"
	ColItem             = "Item"
	ColPOAmount         = "PO_Amount"
	ColPODate           = "PO_Date"
	ColExpectedDelivery = "Expected_Delivery"
	ColDeliveryDate     = "Delivery_Date"
	ColInvoiceAmount    = "Invoice_Amount"
	ColReturnID         = "Return_ID"
)

// sheetTable is one sheet's header index and data rows.
type sheetTable struct {
	name  string
	index map[string]int
	rows  [][]string
}

// get returns the cell for col in row i, or "" when the row is short or
// the column is optional and absent.
func (t *sheetTable) get(i int, col string) string {
	j, ok := t.index[col]
	if !ok || j >= len(t.rows[i]) {
		return ""
	}
	return t.rows[i][j]
}

func (t *sheetTable) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// rowNumber maps a data row index to its 1-based sheet row.
func (t *sheetTable) rowNumber(i int) int {
	return i + 2
}

func (t *sheetTable) blank(i int) bool {
	for _, c := range t.rows[i] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readTable(f *xlsx.File, name string, required ...string) (*sheetTable, error) {
	if !fetcher.HasSheet(f, name) {
		return nil, &MissingSheetError{Sheet: name}
	}
	rows, err := fetcher.ReadSheet(f, name)
	if err != nil {
		return nil, err
	}

	t := &sheetTable{name: name, index: map[string]int{}}
	if len(rows) > 0 {
		for j, h := range rows[0] {
			if _, dup := t.index[h]; !dup {
				t.index[h] = j
			}
		}
		t.rows = rows[1:]
	}
	for _, col := range required {
		if !t.has(col) {
			return nil, &MissingColumnError{Sheet: name, Column: col}
		}
	}
	return t, nil
}

// Load reads the PO, GR, Invoices and Returns sheets into a model.Workbook.
// The first malformed sheet, column or cell aborts the whole load.
func Load(f *xlsx.File) (model.Workbook, error) {
	var wb model.Workbook

	po, err := readTable(f, SheetPO, ColPOID, ColVendor, ColItem, ColPOAmount)
	if err != nil {
		return wb, err
	}
	gr, err := readTable(f, SheetGR, ColVendor, ColPODate, ColExpectedDelivery, ColDeliveryDate)
	if err != nil {
		return wb, err
	}
	inv, err := readTable(f, SheetInvoices, ColVendor, ColInvoiceAmount, ColPOAmount)
	if err != nil {
		return wb, err
	}
	ret, err := readTable(f, SheetReturns, ColVendor, ColItem, ColReturnID)
	if err != nil {
		return wb, err
	}

	if wb.POs, err = loadPOs(po, f.Date1904); err != nil {
		return wb, err
	}
	if wb.Receipts, err = loadReceipts(gr, f.Date1904); err != nil {
		return wb, err
	}
	if wb.Invoices, err = loadInvoices(inv); err != nil {
		return wb, err
	}
	wb.Returns = loadReturns(ret)

	zap.L().Debug("ingest: workbook loaded",
		zap.Int("purchase_orders", len(wb.POs)),
		zap.Int("goods_receipts", len(wb.Receipts)),
		zap.Int("invoices", len(wb.Invoices)),
		zap.Int("returns", len(wb.Returns)),
	)
	return wb, nil
}

// OpenFile opens the workbook at path. An unreadable file is an
// *InvalidWorkbookError.
func OpenFile(path string) (*xlsx.File, error) {
	f, err := fetcher.OpenXLSX(path)
	if err != nil {
		return nil, &InvalidWorkbookError{Err: err}
	}
	return f, nil
}

// OpenBytes parses an in-memory workbook such as an upload body.
func OpenBytes(b []byte) (*xlsx.File, error) {
	f, err := fetcher.OpenXLSXBytes(b)
	if err != nil {
		return nil, &InvalidWorkbookError{Err: err}
	}
	return f, nil
}

// vendorOf returns the trimmed vendor key; rows without one are skipped the
// way a group-by drops null keys.
func vendorOf(t *sheetTable, i int) (string, bool) {
	if t.blank(i) {
		return "", false
	}
	v := strings.TrimSpace(t.get(i, ColVendor))
	return v, v != ""
}

func number(t *sheetTable, i int, col string) (float64, error) {
	raw := t.get(i, col)
	f, err := parseNumber(raw)
	if err != nil {
		return 0, &ParseError{Sheet: t.name, Row: t.rowNumber(i), Column: col, Value: raw, Kind: "number", Err: err}
	}
	return f, nil
}

func dateAt(t *sheetTable, i int, col string, date1904 bool) (time.Time, error) {
	raw := t.get(i, col)
	d, err := parseDate(raw, date1904)
	if err != nil {
		return time.Time{}, &ParseError{Sheet: t.name, Row: t.rowNumber(i), Column: col, Value: raw, Kind: "date", Err: err}
	}
	return d, nil
}

func loadPOs(t *sheetTable, date1904 bool) ([]model.PurchaseOrder, error) {
	out := make([]model.PurchaseOrder, 0, len(t.rows))
	for i := range t.rows {
		vendor, ok := vendorOf(t, i)
		if !ok {
			continue
		}
		amount, err := number(t, i, ColPOAmount)
		if err != nil {
			return nil, err
		}
		po := model.PurchaseOrder{
			POID:   strings.TrimSpace(t.get(i, ColPOID)),
			Vendor: vendor,
			Item:   strings.TrimSpace(t.get(i, ColItem)),
			Amount: amount,
		}
		// PO_Date is optional, but a value that is present must parse.
		if t.has(ColPODate) {
			if po.Date, err = dateAt(t, i, ColPODate, date1904); err != nil {
				return nil, err
			}
		}
		out = append(out, po)
	}
	return out, nil
}

func loadReceipts(t *sheetTable, date1904 bool) ([]model.GoodsReceipt, error) {
	out := make([]model.GoodsReceipt, 0, len(t.rows))
	for i := range t.rows {
		vendor, ok := vendorOf(t, i)
		if !ok {
			continue
		}
		gr := model.GoodsReceipt{
			Vendor: vendor,
			Item:   strings.TrimSpace(t.get(i, ColItem)),
		}
		var err error
		if gr.PODate, err = dateAt(t, i, ColPODate, date1904); err != nil {
			return nil, err
		}
		if gr.ExpectedDelivery, err = dateAt(t, i, ColExpectedDelivery, date1904); err != nil {
			return nil, err
		}
		if gr.DeliveryDate, err = dateAt(t, i, ColDeliveryDate, date1904); err != nil {
			return nil, err
		}
		out = append(out, gr)
	}
	return out, nil
}

func loadInvoices(t *sheetTable) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0, len(t.rows))
	for i := range t.rows {
		vendor, ok := vendorOf(t, i)
		if !ok {
			continue
		}
		invAmount, err := number(t, i, ColInvoiceAmount)
		if err != nil {
			return nil, err
		}
		poAmount, err := number(t, i, ColPOAmount)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Invoice{Vendor: vendor, InvoiceAmount: invAmount, POAmount: poAmount})
	}
	return out, nil
}

func loadReturns(t *sheetTable) []model.Return {
	out := make([]model.Return, 0, len(t.rows))
	for i := range t.rows {
		vendor, ok := vendorOf(t, i)
		if !ok {
			continue
		}
		out = append(out, model.Return{
			Vendor:   vendor,
			Item:     strings.TrimSpace(t.get(i, ColItem)),
			ReturnID: strings.TrimSpace(t.get(i, ColReturnID)),
		})
	}
	return out
}
