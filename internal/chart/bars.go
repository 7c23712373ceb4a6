package chart

import (
	"sort"
	"strconv"

	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
)

// DefaultTopSpenders is the number of vendors in the top spenders chart.
const DefaultTopSpenders = 5

// Leaderboard draws Vendor_Score as horizontal bars, best first. Vendors
// with an undefined score are listed last as n/a.
func Leaderboard(rows []model.VendorKPI, opts Options) *Chart {
	c := newCanvas(NameLeaderboard, "Vendor Leaderboard", opts)
	if len(rows) == 0 {
		return c.empty()
	}

	sorted := make([]model.VendorKPI, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].VendorScore, sorted[j].VendorScore
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		case *a != *b:
			return *a > *b
		}
		return sorted[i].Vendor < sorted[j].Vendor
	})

	s := scale{lo: 0, hi: 1}
	c.xTicks(s, 5)
	c.frame()
	c.axisTitles(model.ColVendorScore, "")

	slot := c.height() / float64(len(sorted))
	bar := slot * 0.7
	for i, row := range sorted {
		y := c.y0 + slot*float64(i) + (slot-bar)/2
		mid := y + bar/2

		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(clip(row.Vendor, labelChars), c.x0-8, mid, 1, 0.5)

		if row.VendorScore == nil {
			c.dc.SetColor(mutedColor)
			c.dc.DrawStringAnchored("n/a", c.x0+6, mid, 0, 0.5)
			continue
		}
		w := s.frac(*row.VendorScore) * c.width()
		c.dc.SetColor(ramp(*row.VendorScore))
		c.dc.DrawRectangle(c.x0, y, w, bar)
		c.dc.Fill()

		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(strconv.FormatFloat(*row.VendorScore, 'f', 3, 64), c.x0+w+6, mid, 0, 0.5)
	}
	return c.chart()
}

// TopSpenders draws the n vendors with the highest Total_Spend.
func TopSpenders(rows []model.VendorKPI, n int, opts Options) *Chart {
	if n <= 0 {
		n = DefaultTopSpenders
	}
	var spenders []model.VendorKPI
	for _, row := range rows {
		if row.TotalSpend != nil {
			spenders = append(spenders, row)
		}
	}
	sort.SliceStable(spenders, func(i, j int) bool {
		if *spenders[i].TotalSpend != *spenders[j].TotalSpend {
			return *spenders[i].TotalSpend > *spenders[j].TotalSpend
		}
		return spenders[i].Vendor < spenders[j].Vendor
	})
	if len(spenders) > n {
		spenders = spenders[:n]
	}

	labels := make([]string, len(spenders))
	values := make([]float64, len(spenders))
	for i, row := range spenders {
		labels[i] = row.Vendor
		values[i] = *row.TotalSpend
	}
	title := "Top " + strconv.Itoa(n) + " Vendors by Procurement Spend"
	return columns(NameTopSpenders, title, model.ColTotalSpend, labels, values, true, opts)
}

// ReturnedItems draws return counts per item, most returned first.
func ReturnedItems(items []kpi.ItemReturn, opts Options) *Chart {
	labels := make([]string, len(items))
	values := make([]float64, len(items))
	for i, it := range items {
		labels[i] = it.Item
		values[i] = float64(it.Count)
	}
	return columns(NameReturnedItems, "Most Returned Items", "Return_Count", labels, values, false, opts)
}

// columns draws a vertical bar chart. When shaded, bars take the value ramp
// color instead of a flat fill.
func columns(name, title, yLabel string, labels []string, values []float64, shaded bool, opts Options) *Chart {
	c := newCanvas(name, title, opts)
	if len(values) == 0 {
		return c.empty()
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	s := niceScale(lo, hi, true)
	c.yTicks(s, 5)
	c.frame()
	c.axisTitles("", yLabel)
	c.categoryLabels(labels)

	slot := c.width() / float64(len(values))
	bar := slot * 0.7
	zero := c.y1 - s.frac(0)*c.height()
	for i, v := range values {
		x := c.x0 + slot*float64(i) + (slot-bar)/2
		y := c.y1 - s.frac(v)*c.height()
		if shaded {
			c.dc.SetColor(ramp(scale{lo: lo, hi: hi}.frac(v)))
		} else {
			c.dc.SetColor(barColor)
		}
		c.dc.DrawRectangle(x, min(y, zero), bar, abs(zero-y))
		c.dc.Fill()
	}
	return c.chart()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
