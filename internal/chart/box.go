package chart

import (
	"math"
	"sort"

	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
)

// SpendBox draws a box plot of individual PO amounts per vendor with every
// point overlaid.
func SpendBox(spend []kpi.VendorSpend, opts Options) *Chart {
	c := newCanvas(NameSpendBox, "PO Spend Distribution by Vendor", opts)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range spend {
		for _, a := range vs.Amounts {
			lo, hi = math.Min(lo, a), math.Max(hi, a)
		}
	}
	if len(spend) == 0 || math.IsInf(lo, 1) {
		return c.empty()
	}

	s := niceScale(lo, hi, true)
	c.yTicks(s, 5)
	c.frame()
	c.axisTitles(model.ColVendor, "PO_Amount")

	labels := make([]string, len(spend))
	for i, vs := range spend {
		labels[i] = vs.Vendor
	}
	c.categoryLabels(labels)

	slot := c.width() / float64(len(spend))
	box := slot * 0.4
	py := func(v float64) float64 { return c.y1 - s.frac(v)*c.height() }

	for i, vs := range spend {
		if len(vs.Amounts) == 0 {
			continue
		}
		st := summarize(vs.Amounts)
		mid := c.x0 + slot*(float64(i)+0.5)
		col := seriesColor(i)

		c.dc.SetColor(col)
		c.dc.SetLineWidth(1.5)
		c.dc.DrawLine(mid, py(st.min), mid, py(st.q1))
		c.dc.DrawLine(mid, py(st.q3), mid, py(st.max))
		c.dc.DrawLine(mid-box/4, py(st.min), mid+box/4, py(st.min))
		c.dc.DrawLine(mid-box/4, py(st.max), mid+box/4, py(st.max))
		c.dc.Stroke()

		c.dc.DrawRectangle(mid-box/2, py(st.q3), box, py(st.q1)-py(st.q3))
		c.dc.SetRGBA(float64(col.R)/255, float64(col.G)/255, float64(col.B)/255, 0.3)
		c.dc.FillPreserve()
		c.dc.SetColor(col)
		c.dc.Stroke()

		c.dc.SetLineWidth(2)
		c.dc.DrawLine(mid-box/2, py(st.median), mid+box/2, py(st.median))
		c.dc.Stroke()

		for _, a := range vs.Amounts {
			c.dc.DrawCircle(mid-box/2-10, py(a), 2.5)
			c.dc.Fill()
		}
	}
	return c.chart()
}

type fiveNumber struct {
	min, q1, median, q3, max float64
}

func summarize(values []float64) fiveNumber {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return fiveNumber{
		min:    sorted[0],
		q1:     quantile(sorted, 0.25),
		median: quantile(sorted, 0.5),
		q3:     quantile(sorted, 0.75),
		max:    sorted[len(sorted)-1],
	}
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
