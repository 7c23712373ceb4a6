// Package kpi aggregates the four procurement tables into one row of seven
// metrics per vendor, plus the derived series used for charts and reports.
package kpi

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/model"
)

// DefaultInvoiceTolerance is the 5% band used for Invoice_Accuracy.
const DefaultInvoiceTolerance = 0.05

// Options configures aggregation.
type Options struct {
	InvoiceTolerance float64
}

// DefaultOptions returns the standard aggregation options.
func DefaultOptions() Options {
	return Options{InvoiceTolerance: DefaultInvoiceTolerance}
}

// Aggregate computes one VendorKPI row per vendor that appears in any of the
// four tables. Rows are sorted by vendor. Metrics a vendor has no source rows
// for are left nil.
func Aggregate(wb model.Workbook, opts Options) []model.VendorKPI {
	plan := joinPlan{
		{column: model.ColOnTimeDelivery, values: onTimePct(wb.Receipts), set: setOnTime},
		{column: model.ColInvoiceAccuracy, values: invoiceAccuracyPct(wb.Invoices, opts.InvoiceTolerance), set: setInvoiceAccuracy},
		{column: model.ColReturnRate, values: returnRatePct(wb.POs, wb.Returns), set: setReturnRate},
		{column: model.ColItemsSupplied, values: itemsSupplied(wb.POs), set: setItemsSupplied},
		{column: model.ColTotalSpend, values: totalSpend(wb.POs), set: setTotalSpend},
		{column: model.ColAvgDeliveryDelay, values: avgDelay(wb.Receipts), set: setAvgDelay},
		{column: model.ColPOCycleDays, values: avgCycle(wb.Receipts), set: setCycle},
	}

	rows := plan.join(vendorsOf(wb))

	zap.L().Debug("kpi: aggregated vendors",
		zap.Int("vendors", len(rows)),
		zap.Int("purchase_orders", len(wb.POs)),
		zap.Int("goods_receipts", len(wb.Receipts)),
		zap.Strings("columns", plan.columns()),
	)
	return rows
}

// vendorsOf returns every distinct vendor key across the four tables, sorted.
func vendorsOf(wb model.Workbook) []string {
	seen := map[string]struct{}{}
	for _, po := range wb.POs {
		seen[po.Vendor] = struct{}{}
	}
	for _, gr := range wb.Receipts {
		seen[gr.Vendor] = struct{}{}
	}
	for _, inv := range wb.Invoices {
		seen[inv.Vendor] = struct{}{}
	}
	for _, r := range wb.Returns {
		seen[r.Vendor] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// meanAcc accumulates a running mean in input order.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.n++
}

func (m meanAcc) mean() float64 {
	return m.sum / float64(m.n)
}

// means finalizes accumulators, dropping groups with no observations.
func means(groups map[string]*meanAcc, scale float64) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for vendor, acc := range groups {
		if acc.n == 0 {
			continue
		}
		out[vendor] = acc.mean() * scale
	}
	return out
}

func group(groups map[string]*meanAcc, vendor string) *meanAcc {
	acc, ok := groups[vendor]
	if !ok {
		acc = &meanAcc{}
		groups[vendor] = acc
	}
	return acc
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// onTimePct is mean(On_Time)*100 over every receipt of the vendor.
func onTimePct(receipts []model.GoodsReceipt) map[string]float64 {
	groups := map[string]*meanAcc{}
	for _, gr := range receipts {
		group(groups, gr.Vendor).add(boolValue(gr.OnTime()))
	}
	return means(groups, 100)
}

// invoiceAccuracyPct is mean(Invoice_Accuracy)*100 over every invoice of the vendor.
func invoiceAccuracyPct(invoices []model.Invoice, tolerance float64) map[string]float64 {
	groups := map[string]*meanAcc{}
	for _, inv := range invoices {
		group(groups, inv.Vendor).add(boolValue(inv.Accurate(tolerance)))
	}
	return means(groups, 100)
}

// returnRatePct is count(Return_ID)/count(PO_ID)*100. A vendor present in
// either table but with no counted POs gets 0.
func returnRatePct(pos []model.PurchaseOrder, returns []model.Return) map[string]float64 {
	poCounts := map[string]int{}
	retCounts := map[string]int{}
	for _, po := range pos {
		if _, ok := poCounts[po.Vendor]; !ok {
			poCounts[po.Vendor] = 0
		}
		if po.POID != "" {
			poCounts[po.Vendor]++
		}
	}
	for _, r := range returns {
		if _, ok := retCounts[r.Vendor]; !ok {
			retCounts[r.Vendor] = 0
		}
		if r.ReturnID != "" {
			retCounts[r.Vendor]++
		}
	}

	out := make(map[string]float64, len(poCounts)+len(retCounts))
	for vendor := range poCounts {
		out[vendor] = 0
	}
	for vendor := range retCounts {
		out[vendor] = 0
	}
	for vendor := range out {
		if n := poCounts[vendor]; n > 0 {
			out[vendor] = float64(retCounts[vendor]) / float64(n) * 100
		}
	}
	return out
}

// itemsSupplied counts distinct non-blank items per vendor in the PO table.
func itemsSupplied(pos []model.PurchaseOrder) map[string]float64 {
	items := map[string]map[string]struct{}{}
	for _, po := range pos {
		set, ok := items[po.Vendor]
		if !ok {
			set = map[string]struct{}{}
			items[po.Vendor] = set
		}
		if po.Item != "" {
			set[po.Item] = struct{}{}
		}
	}
	out := make(map[string]float64, len(items))
	for vendor, set := range items {
		out[vendor] = float64(len(set))
	}
	return out
}

// totalSpend sums PO_Amount per vendor, skipping blank amounts.
func totalSpend(pos []model.PurchaseOrder) map[string]float64 {
	out := map[string]float64{}
	for _, po := range pos {
		if _, ok := out[po.Vendor]; !ok {
			out[po.Vendor] = 0
		}
		if !math.IsNaN(po.Amount) {
			out[po.Vendor] += po.Amount
		}
	}
	return out
}

// avgDelay is the mean Delivery_Delay over receipts with both dates.
func avgDelay(receipts []model.GoodsReceipt) map[string]float64 {
	groups := map[string]*meanAcc{}
	for _, gr := range receipts {
		acc := group(groups, gr.Vendor)
		if d, ok := gr.DelayDays(); ok {
			acc.add(d)
		}
	}
	return means(groups, 1)
}

// avgCycle is the mean PO_Cycle_Days over receipts with both dates.
func avgCycle(receipts []model.GoodsReceipt) map[string]float64 {
	groups := map[string]*meanAcc{}
	for _, gr := range receipts {
		acc := group(groups, gr.Vendor)
		if d, ok := gr.CycleDays(); ok {
			acc.add(d)
		}
	}
	return means(groups, 1)
}
