package chart

import (
	"math"
	"strconv"

	"github.com/sells-group/vendor-kpi/internal/model"
	"github.com/sells-group/vendor-kpi/internal/scorer"
)

// Heatmap draws the six scoring KPIs per vendor. Cells are shaded by the
// value's position within its column and labeled with the raw value.
func Heatmap(rows []model.VendorKPI, opts Options) *Chart {
	c := newCanvas(NameHeatmap, "KPI Heatmap", opts)
	if len(rows) == 0 {
		return c.empty()
	}

	cols := scorer.ScoringColumns
	ranges := make([]scale, len(cols))
	for j, col := range cols {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range rows {
			if p := row.Metric(col); p != nil {
				lo, hi = math.Min(lo, *p), math.Max(hi, *p)
			}
		}
		ranges[j] = scale{lo: lo, hi: hi}
	}

	cellW := c.width() / float64(len(cols))
	cellH := c.height() / float64(len(rows))

	for i, row := range rows {
		y := c.y0 + cellH*float64(i)
		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(clip(row.Vendor, labelChars), c.x0-8, y+cellH/2, 1, 0.5)

		for j, col := range cols {
			x := c.x0 + cellW*float64(j)
			t := math.NaN()
			label := "n/a"
			if p := row.Metric(col); p != nil {
				t = ranges[j].frac(*p)
				label = strconv.FormatFloat(*p, 'f', 1, 64)
			}
			fill := ramp(t)
			c.dc.SetColor(fill)
			c.dc.DrawRectangle(x, y, cellW, cellH)
			c.dc.Fill()
			if cellH >= 14 {
				c.dc.SetColor(contrast(fill))
				c.dc.DrawStringAnchored(clip(label, int(cellW/charWidth)), x+cellW/2, y+cellH/2, 0.5, 0.5)
			}
		}
	}
	c.categoryLabels(cols)
	return c.chart()
}
