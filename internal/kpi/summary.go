package kpi

import (
	"fmt"
	"math"

	"github.com/sells-group/vendor-kpi/internal/model"
)

// Summary holds the three headline figures across all vendors. A figure is
// NaN when no vendor has that metric.
type Summary struct {
	AvgOnTimeDeliveryPct  float64 `json:"avg_on_time_delivery_pct" yaml:"avg_on_time_delivery_pct"`
	AvgInvoiceAccuracyPct float64 `json:"avg_invoice_accuracy_pct" yaml:"avg_invoice_accuracy_pct"`
	AvgReturnRatePct      float64 `json:"avg_return_rate_pct" yaml:"avg_return_rate_pct"`
}

// FormattedSummary is Summary rendered for display, e.g. "87.50%".
type FormattedSummary struct {
	OnTimeDelivery  string `json:"on_time_delivery" yaml:"on_time_delivery"`
	InvoiceAccuracy string `json:"invoice_accuracy" yaml:"invoice_accuracy"`
	ReturnRate      string `json:"return_rate" yaml:"return_rate"`
}

// Summarize averages On_Time_Delivery_%, Invoice_Accuracy_% and
// Return_Rate_% over the vendors that have a value.
func Summarize(rows []model.VendorKPI) Summary {
	var onTime, invoice, returns meanAcc
	for _, row := range rows {
		addPtr(&onTime, row.OnTimeDeliveryPct)
		addPtr(&invoice, row.InvoiceAccuracyPct)
		addPtr(&returns, row.ReturnRatePct)
	}
	return Summary{
		AvgOnTimeDeliveryPct:  onTime.mean(),
		AvgInvoiceAccuracyPct: invoice.mean(),
		AvgReturnRatePct:      returns.mean(),
	}
}

func addPtr(acc *meanAcc, p *float64) {
	if p != nil && !math.IsNaN(*p) {
		acc.add(*p)
	}
}

// Format renders each figure with two decimals and a percent suffix.
func (s Summary) Format() FormattedSummary {
	return FormattedSummary{
		OnTimeDelivery:  pct(s.AvgOnTimeDeliveryPct),
		InvoiceAccuracy: pct(s.AvgInvoiceAccuracyPct),
		ReturnRate:      pct(s.AvgReturnRatePct),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
