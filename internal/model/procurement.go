// Package model defines the typed procurement records and the derived vendor KPI row.
package model

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// PurchaseOrder is one row of the PO sheet.
type PurchaseOrder struct {
	POID   string    `json:"po_id"`
	Vendor string    `json:"vendor"`
	Item   string    `json:"item"`
	Amount float64   `json:"po_amount"` // NaN when the cell is blank
	Date   time.Time `json:"po_date"`
}

// GoodsReceipt is one row of the GR sheet. Zero dates mean the cell was blank.
type GoodsReceipt struct {
	Vendor           string    `json:"vendor"`
	Item             string    `json:"item"`
	PODate           time.Time `json:"po_date"`
	ExpectedDelivery time.Time `json:"expected_delivery"`
	DeliveryDate     time.Time `json:"delivery_date"`
}

// OnTime reports whether the delivery landed on or before the expected date.
// A receipt missing either date is not on time.
func (g GoodsReceipt) OnTime() bool {
	if g.DeliveryDate.IsZero() || g.ExpectedDelivery.IsZero() {
		return false
	}
	return !g.DeliveryDate.After(g.ExpectedDelivery)
}

// DelayDays is DeliveryDate minus ExpectedDelivery in whole days. Negative
// means early. ok is false when either date is missing.
func (g GoodsReceipt) DelayDays() (days float64, ok bool) {
	return daysBetween(g.ExpectedDelivery, g.DeliveryDate)
}

// CycleDays is DeliveryDate minus PODate in whole days.
func (g GoodsReceipt) CycleDays() (days float64, ok bool) {
	return daysBetween(g.PODate, g.DeliveryDate)
}

// daysBetween floors toward negative infinity, so 36 hours late is 1 day and
// 12 hours early is -1 day.
func daysBetween(from, to time.Time) (float64, bool) {
	if from.IsZero() || to.IsZero() {
		return 0, false
	}
	return math.Floor(float64(to.Sub(from)) / float64(day)), true
}

// Invoice is one row of the Invoices sheet.
type Invoice struct {
	Vendor        string  `json:"vendor"`
	InvoiceAmount float64 `json:"invoice_amount"`
	POAmount      float64 `json:"po_amount"`
}

// Accurate reports whether the billed amount is within tolerance*POAmount of
// the committed amount. Blank amounts are never accurate.
func (i Invoice) Accurate(tolerance float64) bool {
	return math.Abs(i.InvoiceAmount-i.POAmount) <= tolerance*i.POAmount
}

// Return is one row of the Returns sheet.
type Return struct {
	Vendor   string `json:"vendor"`
	Item     string `json:"item"`
	ReturnID string `json:"return_id"`
}

// Workbook holds the four typed tables of one upload.
type Workbook struct {
	POs      []PurchaseOrder `json:"purchase_orders"`
	Receipts []GoodsReceipt  `json:"goods_receipts"`
	Invoices []Invoice       `json:"invoices"`
	Returns  []Return        `json:"returns"`
}
