package kpi

import (
	"github.com/sells-group/vendor-kpi/internal/model"
)

// metricTable is one per-vendor aggregation keyed on Vendor.
type metricTable struct {
	column string
	values map[string]float64
	set    func(row *model.VendorKPI, v float64)
}

// joinPlan is a full outer join of metric tables on Vendor. Every vendor key
// yields exactly one row; a table without the key leaves its column nil.
type joinPlan []metricTable

func (p joinPlan) join(vendors []string) []model.VendorKPI {
	rows := make([]model.VendorKPI, 0, len(vendors))
	for _, vendor := range vendors {
		row := model.VendorKPI{Vendor: vendor}
		for _, table := range p {
			if v, ok := table.values[vendor]; ok {
				table.set(&row, v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// columns lists the metric columns the plan fills, in join order.
func (p joinPlan) columns() []string {
	cols := make([]string, len(p))
	for i, table := range p {
		cols[i] = table.column
	}
	return cols
}

func setOnTime(row *model.VendorKPI, v float64)          { row.OnTimeDeliveryPct = model.Float(v) }
func setInvoiceAccuracy(row *model.VendorKPI, v float64) { row.InvoiceAccuracyPct = model.Float(v) }
func setReturnRate(row *model.VendorKPI, v float64)      { row.ReturnRatePct = model.Float(v) }
func setItemsSupplied(row *model.VendorKPI, v float64)   { row.ItemsSupplied = model.Int(int(v)) }
func setTotalSpend(row *model.VendorKPI, v float64)      { row.TotalSpend = model.Float(v) }
func setAvgDelay(row *model.VendorKPI, v float64)        { row.AvgDeliveryDelay = model.Float(v) }
func setCycle(row *model.VendorKPI, v float64)           { row.POCycleDays = model.Float(v) }
