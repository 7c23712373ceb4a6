package chart

import (
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vendor-kpi/internal/scorer"
)

// Radar draws one vendor's normalized scoring KPIs on a polar grid. Lower
// is better columns are drawn inverted, so outward is always better.
// Undefined values sit at the center.
func Radar(m *scorer.Matrix, vendor string, opts Options) (*Chart, error) {
	values := m.Row(vendor)
	if values == nil {
		return nil, eris.Errorf("chart: unknown vendor %q", vendor)
	}

	c := newCanvas(NameRadar, "Radar Chart - "+vendor, opts)
	cx := (c.x0 + c.x1) / 2
	cy := (c.y0 + c.y1) / 2
	radius := math.Min(c.width(), c.height())/2 - 20
	n := len(m.Columns)

	point := func(i int, r float64) (float64, float64) {
		angle := gg.Radians(-90 + 360*float64(i)/float64(n))
		return cx + r*radius*math.Cos(angle), cy + r*radius*math.Sin(angle)
	}

	c.dc.SetColor(gridColor)
	c.dc.SetLineWidth(1)
	for _, ring := range []float64{0.25, 0.5, 0.75, 1} {
		for i := 0; i < n; i++ {
			x, y := point(i, ring)
			if i == 0 {
				c.dc.MoveTo(x, y)
			} else {
				c.dc.LineTo(x, y)
			}
		}
		c.dc.ClosePath()
		c.dc.Stroke()
	}
	for i, col := range m.Columns {
		x, y := point(i, 1)
		c.dc.SetColor(gridColor)
		c.dc.DrawLine(cx, cy, x, y)
		c.dc.Stroke()

		lx, ly := point(i, 1.12)
		c.dc.SetColor(textColor)
		label := col
		if scorer.LowerIsBetter(col) {
			label += " (inv)"
		}
		if m.Excluded[col] {
			label += " *"
		}
		c.dc.DrawStringAnchored(label, lx, ly, 0.5, 0.5)
	}

	fill := palette[0]
	for i, v := range values {
		if math.IsNaN(v) {
			v = 0
		}
		x, y := point(i, v)
		if i == 0 {
			c.dc.MoveTo(x, y)
		} else {
			c.dc.LineTo(x, y)
		}
	}
	c.dc.ClosePath()
	c.dc.SetRGBA(float64(fill.R)/255, float64(fill.G)/255, float64(fill.B)/255, 0.35)
	c.dc.FillPreserve()
	c.dc.SetColor(fill)
	c.dc.SetLineWidth(2)
	c.dc.Stroke()

	return c.chart(), nil
}
