// Package report exports scored vendor tables as CSV, aligned text, JSON and
// YAML.
package report

import (
	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
)

// DefaultCSVName is the download name of the CSV export.
const DefaultCSVName = "vendor_kpi_report.csv"

// Document is the full result of one run as written by WriteJSON and
// WriteYAML.
type Document struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	Vendors     []model.VendorKPI    `json:"vendors" yaml:"vendors"`
	Summary     kpi.FormattedSummary `json:"summary" yaml:"summary"`
	WeeklyDelay []kpi.WeekDelay      `json:"weekly_delay" yaml:"weekly_delay"`
	ItemReturns []kpi.ItemReturn     `json:"item_returns" yaml:"item_returns"`
	Spend       []kpi.VendorSpend    `json:"spend_by_vendor,omitempty" yaml:"spend_by_vendor,omitempty"`
}
