package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/vendor-kpi/internal/model"
)

// WeekDelay is the mean delivery delay of one vendor in one delivery week.
type WeekDelay struct {
	Week   time.Time `json:"Week" yaml:"week"`
	Vendor string    `json:"Vendor" yaml:"vendor"`
	// MeanDelay is nil when no receipt of that week has an expected date.
	MeanDelay *float64 `json:"Delivery_Delay" yaml:"delivery_delay"`
}

// ItemReturn is the number of returns recorded for one item.
type ItemReturn struct {
	Item  string `json:"Item" yaml:"item"`
	Count int    `json:"Return_Count" yaml:"return_count"`
}

// VendorSpend holds the individual PO amounts of one vendor.
type VendorSpend struct {
	Vendor  string    `json:"Vendor" yaml:"vendor"`
	Amounts []float64 `json:"PO_Amounts" yaml:"po_amounts"`
}

// WeekStart returns midnight UTC of the Monday starting t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

type weekKey struct {
	week   time.Time
	vendor string
}

// WeeklyDelay groups receipts by delivery week and vendor. Receipts without a
// delivery date have no week and are skipped. The result is sorted by week,
// then vendor.
func WeeklyDelay(receipts []model.GoodsReceipt) []WeekDelay {
	groups := map[weekKey]*meanAcc{}
	for _, gr := range receipts {
		if gr.DeliveryDate.IsZero() {
			continue
		}
		key := weekKey{week: WeekStart(gr.DeliveryDate), vendor: gr.Vendor}
		acc, ok := groups[key]
		if !ok {
			acc = &meanAcc{}
			groups[key] = acc
		}
		if d, ok := gr.DelayDays(); ok {
			acc.add(d)
		}
	}

	out := make([]WeekDelay, 0, len(groups))
	for key, acc := range groups {
		wd := WeekDelay{Week: key.week, Vendor: key.vendor}
		if acc.n > 0 {
			wd.MeanDelay = model.Float(acc.mean())
		}
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Week.Equal(out[j].Week) {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].Vendor < out[j].Vendor
	})
	return out
}

// ItemReturns counts returns per item, most returned first. Ties are broken
// by item name. Returns with a blank item are not counted.
func ItemReturns(returns []model.Return) []ItemReturn {
	counts := map[string]int{}
	for _, r := range returns {
		if r.Item == "" {
			continue
		}
		counts[r.Item]++
	}
	out := make([]ItemReturn, 0, len(counts))
	for item, n := range counts {
		out = append(out, ItemReturn{Item: item, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// SpendByVendor collects the non-blank PO amounts of each vendor in sheet
// order, vendors sorted.
func SpendByVendor(pos []model.PurchaseOrder) []VendorSpend {
	amounts := map[string][]float64{}
	for _, po := range pos {
		if _, ok := amounts[po.Vendor]; !ok {
			amounts[po.Vendor] = nil
		}
		if !math.IsNaN(po.Amount) {
			amounts[po.Vendor] = append(amounts[po.Vendor], po.Amount)
		}
	}
	out := make([]VendorSpend, 0, len(amounts))
	for _, vendor := range sortedKeys(amounts) {
		out = append(out, VendorSpend{Vendor: vendor, Amounts: amounts[vendor]})
	}
	return out
}
