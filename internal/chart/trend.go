package chart

import (
	"sort"
	"time"

	"github.com/sells-group/vendor-kpi/internal/kpi"
)

// DelayTrend draws weekly mean delivery delay, one line per vendor. A week
// with no measurable delay breaks the vendor's line.
func DelayTrend(weekly []kpi.WeekDelay, opts Options) *Chart {
	c := newCanvas(NameDelayTrend, "Weekly Avg Delivery Delay by Vendor", opts)

	var weeks []time.Time
	weekIdx := map[time.Time]int{}
	var vendors []string
	series := map[string]map[int]float64{}
	lo, hi := 0.0, 0.0
	for _, wd := range weekly {
		if _, ok := weekIdx[wd.Week]; !ok {
			weekIdx[wd.Week] = -1
			weeks = append(weeks, wd.Week)
		}
		if _, ok := series[wd.Vendor]; !ok {
			series[wd.Vendor] = map[int]float64{}
			vendors = append(vendors, wd.Vendor)
		}
		if wd.MeanDelay != nil {
			lo, hi = min(lo, *wd.MeanDelay), max(hi, *wd.MeanDelay)
		}
	}
	if len(weeks) == 0 {
		return c.empty()
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	sort.Strings(vendors)
	for i, w := range weeks {
		weekIdx[w] = i
	}
	for _, wd := range weekly {
		if wd.MeanDelay != nil {
			series[wd.Vendor][weekIdx[wd.Week]] = *wd.MeanDelay
		}
	}

	// leave room for the legend
	c.x1 -= 120

	s := niceScale(lo, hi, true)
	c.yTicks(s, 5)
	c.frame()
	c.axisTitles("Week", "Delivery_Delay (days)")

	labels := make([]string, len(weeks))
	for i, w := range weeks {
		labels[i] = w.Format("2006-01-02")
	}
	c.categoryLabels(labels)

	slot := c.width() / float64(len(weeks))
	px := func(i int) float64 { return c.x0 + slot*(float64(i)+0.5) }
	py := func(v float64) float64 { return c.y1 - s.frac(v)*c.height() }

	for vi, vendor := range vendors {
		col := seriesColor(vi)
		c.dc.SetColor(col)
		c.dc.SetLineWidth(2)
		points := series[vendor]
		drawing := false
		for i := range weeks {
			v, ok := points[i]
			if !ok {
				drawing = false
				continue
			}
			if drawing {
				c.dc.LineTo(px(i), py(v))
			} else {
				c.dc.NewSubPath()
				c.dc.MoveTo(px(i), py(v))
				drawing = true
			}
		}
		c.dc.Stroke()
		for i, v := range points {
			c.dc.DrawCircle(px(i), py(v), 3)
			c.dc.Fill()
		}

		ly := c.y0 + 16*float64(vi)
		c.dc.DrawRectangle(c.x1+16, ly-4, 10, 8)
		c.dc.Fill()
		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(clip(vendor, 14), c.x1+32, ly, 0, 0.5)
	}
	return c.chart()
}
