// Package chart renders vendor KPI charts to PNG.
package chart

import (
	"image"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

// Options controls the canvas size and label font.
type Options struct {
	Width  int
	Height int
	Face   font.Face // nil means the 7x13 bitmap font
}

// DefaultOptions returns 1000x600 canvases with the bitmap font.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight}
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
	return o
}

// Chart is one rendered chart.
type Chart struct {
	Name string
	dc   *gg.Context
}

// Image returns the rendered raster.
func (c *Chart) Image() image.Image {
	return c.dc.Image()
}

// WritePNG encodes the chart as PNG to w.
func (c *Chart) WritePNG(w io.Writer) error {
	if err := c.dc.EncodePNG(w); err != nil {
		return eris.Wrapf(err, "chart: encode %s", c.Name)
	}
	return nil
}

// SavePNG writes the chart as a PNG file.
func (c *Chart) SavePNG(path string) error {
	if err := c.dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "chart: save %s", c.Name)
	}
	return nil
}

// Plot margins around the data area.
const (
	marginTop    = 50.0
	marginBottom = 70.0
	marginLeft   = 150.0
	marginRight  = 40.0
	charWidth    = 7.0
)

// labelChars is how many characters of a category label fit left of the plot.
const labelChars = 19

// canvas is a titled drawing surface with a rectangular plot area.
type canvas struct {
	name string
	dc   *gg.Context
	// plot area
	x0, y0, x1, y1 float64
}

func newCanvas(name, title string, opts Options) *canvas {
	opts = opts.withDefaults()
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetFontFace(opts.Face)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(opts.Width)/2, marginTop/2, 0.5, 0.5)

	return &canvas{
		name: name,
		dc:   dc,
		x0:   marginLeft,
		y0:   marginTop,
		x1:   float64(opts.Width) - marginRight,
		y1:   float64(opts.Height) - marginBottom,
	}
}

func (c *canvas) chart() *Chart {
	return &Chart{Name: c.name, dc: c.dc}
}

func (c *canvas) width() float64  { return c.x1 - c.x0 }
func (c *canvas) height() float64 { return c.y1 - c.y0 }

// empty marks a chart with nothing to plot.
func (c *canvas) empty() *Chart {
	c.dc.SetColor(mutedColor)
	c.dc.DrawStringAnchored("No data", (c.x0+c.x1)/2, (c.y0+c.y1)/2, 0.5, 0.5)
	return c.chart()
}

// frame draws the left and bottom axis lines.
func (c *canvas) frame() {
	c.dc.SetColor(axisColor)
	c.dc.SetLineWidth(1)
	c.dc.DrawLine(c.x0, c.y0, c.x0, c.y1)
	c.dc.DrawLine(c.x0, c.y1, c.x1, c.y1)
	c.dc.Stroke()
}

// yTicks draws horizontal grid lines and labels for a value axis.
func (c *canvas) yTicks(s scale, n int) {
	for i := 0; i <= n; i++ {
		v := s.lo + (s.hi-s.lo)*float64(i)/float64(n)
		y := c.y1 - s.frac(v)*c.height()
		c.dc.SetColor(gridColor)
		c.dc.SetLineWidth(1)
		c.dc.DrawLine(c.x0, y, c.x1, y)
		c.dc.Stroke()
		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(tickLabel(v), c.x0-6, y, 1, 0.5)
	}
}

// xTicks draws vertical grid lines and labels for a horizontal value axis.
func (c *canvas) xTicks(s scale, n int) {
	for i := 0; i <= n; i++ {
		v := s.lo + (s.hi-s.lo)*float64(i)/float64(n)
		x := c.x0 + s.frac(v)*c.width()
		c.dc.SetColor(gridColor)
		c.dc.SetLineWidth(1)
		c.dc.DrawLine(x, c.y0, x, c.y1)
		c.dc.Stroke()
		c.dc.SetColor(textColor)
		c.dc.DrawStringAnchored(tickLabel(v), x, c.y1+12, 0.5, 0.5)
	}
}

// axisTitles labels the x axis below the plot and the y axis above it.
func (c *canvas) axisTitles(x, y string) {
	c.dc.SetColor(textColor)
	if x != "" {
		c.dc.DrawStringAnchored(x, (c.x0+c.x1)/2, c.y1+marginBottom-12, 0.5, 0.5)
	}
	if y != "" {
		c.dc.DrawStringAnchored(y, c.x0, c.y0-10, 0.5, 0.5)
	}
}

// categoryLabels writes one label centered under each of n slots, clipped to
// the slot width.
func (c *canvas) categoryLabels(labels []string) {
	slot := c.width() / float64(len(labels))
	maxChars := int(slot / charWidth)
	c.dc.SetColor(textColor)
	for i, l := range labels {
		x := c.x0 + slot*(float64(i)+0.5)
		c.dc.DrawStringAnchored(clip(l, maxChars), x, c.y1+14, 0.5, 0.5)
	}
}

// scale maps a value range onto [0,1].
type scale struct {
	lo, hi float64
}

func (s scale) frac(v float64) float64 {
	if s.hi == s.lo {
		return 0.5
	}
	return (v - s.lo) / (s.hi - s.lo)
}

// niceScale widens [lo,hi] to round tick boundaries. When zero is true the
// range always includes 0.
func niceScale(lo, hi float64, zero bool) scale {
	if zero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	step := niceStep((hi - lo) / 5)
	return scale{lo: math.Floor(lo/step) * step, hi: math.Ceil(hi/step) * step}
}

func niceStep(raw float64) float64 {
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / exp; {
	case f <= 1:
		return exp
	case f <= 2:
		return 2 * exp
	case f <= 5:
		return 5 * exp
	default:
		return 10 * exp
	}
}

func tickLabel(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', -1, 64) + "M"
	case a >= 1e4:
		return strconv.FormatFloat(v/1e3, 'f', -1, 64) + "k"
	case a == math.Trunc(a):
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if n < 1 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}
