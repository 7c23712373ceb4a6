package chart

import (
	"math"

	"github.com/sells-group/vendor-kpi/internal/model"
)

const maxBubbleRadius = 20.0

// Bubble plots Invoice_Accuracy_% against On_Time_Delivery_% with bubble area
// proportional to Total_Spend. Vendors missing either percentage are left
// out.
func Bubble(rows []model.VendorKPI, opts Options) *Chart {
	c := newCanvas(NameBubble, "Invoice Accuracy vs Timeliness (Bubble Size = Spend)", opts)

	var plotted []model.VendorKPI
	maxSpend := 0.0
	for _, row := range rows {
		if row.InvoiceAccuracyPct == nil || row.OnTimeDeliveryPct == nil {
			continue
		}
		plotted = append(plotted, row)
		if row.TotalSpend != nil {
			maxSpend = math.Max(maxSpend, *row.TotalSpend)
		}
	}
	if len(plotted) == 0 {
		return c.empty()
	}

	c.x1 -= 120
	s := scale{lo: 0, hi: 100}
	c.xTicks(s, 5)
	c.yTicks(s, 5)
	c.frame()
	c.axisTitles(model.ColInvoiceAccuracy, model.ColOnTimeDelivery)

	for i, row := range plotted {
		x := c.x0 + s.frac(*row.InvoiceAccuracyPct)*c.width()
		y := c.y1 - s.frac(*row.OnTimeDeliveryPct)*c.height()
		r := 3.0
		if row.TotalSpend != nil && maxSpend > 0 && *row.TotalSpend > 0 {
			r = math.Max(r, maxBubbleRadius*math.Sqrt(*row.TotalSpend/maxSpend))
		}
		col := seriesColor(i)
		c.dc.DrawCircle(x, y, r)
		c.dc.SetRGBA(float64(col.R)/255, float64(col.G)/255, float64(col.B)/255, 0.6)
		c.dc.FillPreserve()
		c.dc.SetColor(col)
		c.dc.SetLineWidth(1)
		c.dc.Stroke()

		ly := c.y0 + 16*float64(i)
		c.dc.DrawCircle(c.x1+20, ly, 4)
		c.dc.Fill()
		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(clip(row.Vendor, 14), c.x1+32, ly, 0, 0.5)
	}
	return c.chart()
}
