package model

// Export column names for the scored vendor table.
const (
	ColVendor           = "Vendor"
	ColOnTimeDelivery   = "On_Time_Delivery_%"
	ColInvoiceAccuracy  = "Invoice_Accuracy_%"
	ColReturnRate       = "Return_Rate_%"
	ColItemsSupplied    = "Items_Supplied"
	ColTotalSpend       = "Total_Spend"
	ColAvgDeliveryDelay = "Avg_Delivery_Delay"
	ColPOCycleDays      = "PO_Cycle_Days"
	ColVendorScore      = "Vendor_Score"
)

// Columns lists the scored table's columns in export order.
var Columns = []string{
	ColVendor,
	ColOnTimeDelivery,
	ColInvoiceAccuracy,
	ColReturnRate,
	ColItemsSupplied,
	ColTotalSpend,
	ColAvgDeliveryDelay,
	ColPOCycleDays,
	ColVendorScore,
}

// VendorKPI is one row of the KPI table. A nil metric means the vendor is
// absent from every source table that metric is derived from.
type VendorKPI struct {
	Vendor             string   `json:"Vendor" yaml:"vendor"`
	OnTimeDeliveryPct  *float64 `json:"On_Time_Delivery_%" yaml:"on_time_delivery_pct"`
	InvoiceAccuracyPct *float64 `json:"Invoice_Accuracy_%" yaml:"invoice_accuracy_pct"`
	ReturnRatePct      *float64 `json:"Return_Rate_%" yaml:"return_rate_pct"`
	ItemsSupplied      *int     `json:"Items_Supplied" yaml:"items_supplied"`
	TotalSpend         *float64 `json:"Total_Spend" yaml:"total_spend"`
	AvgDeliveryDelay   *float64 `json:"Avg_Delivery_Delay" yaml:"avg_delivery_delay"`
	POCycleDays        *float64 `json:"PO_Cycle_Days" yaml:"po_cycle_days"`
	// VendorScore is nil when the composite is undefined.
	VendorScore *float64 `json:"Vendor_Score" yaml:"vendor_score"`
}

// Metric returns the named numeric column, or nil when unset or unknown.
func (v VendorKPI) Metric(col string) *float64 {
	switch col {
	case ColOnTimeDelivery:
		return v.OnTimeDeliveryPct
	case ColInvoiceAccuracy:
		return v.InvoiceAccuracyPct
	case ColReturnRate:
		return v.ReturnRatePct
	case ColItemsSupplied:
		if v.ItemsSupplied == nil {
			return nil
		}
		f := float64(*v.ItemsSupplied)
		return &f
	case ColTotalSpend:
		return v.TotalSpend
	case ColAvgDeliveryDelay:
		return v.AvgDeliveryDelay
	case ColPOCycleDays:
		return v.POCycleDays
	case ColVendorScore:
		return v.VendorScore
	}
	return nil
}

// Clone returns a deep copy, so callers may change pointer targets freely.
func (v VendorKPI) Clone() VendorKPI {
	out := VendorKPI{Vendor: v.Vendor}
	out.OnTimeDeliveryPct = cloneFloat(v.OnTimeDeliveryPct)
	out.InvoiceAccuracyPct = cloneFloat(v.InvoiceAccuracyPct)
	out.ReturnRatePct = cloneFloat(v.ReturnRatePct)
	out.TotalSpend = cloneFloat(v.TotalSpend)
	out.AvgDeliveryDelay = cloneFloat(v.AvgDeliveryDelay)
	out.POCycleDays = cloneFloat(v.POCycleDays)
	out.VendorScore = cloneFloat(v.VendorScore)
	if v.ItemsSupplied != nil {
		n := *v.ItemsSupplied
		out.ItemsSupplied = &n
	}
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	f := *p
	return &f
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
