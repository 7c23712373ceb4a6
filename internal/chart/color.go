package chart

import (
	"image/color"
	"math"
)

var (
	textColor  = color.RGBA{0x2a, 0x3f, 0x5f, 0xff}
	mutedColor = color.RGBA{0x99, 0x99, 0x99, 0xff}
	axisColor  = color.RGBA{0x44, 0x44, 0x44, 0xff}
	gridColor  = color.RGBA{0xe5, 0xec, 0xf6, 0xff}
	barColor   = color.RGBA{0x63, 0x6e, 0xfa, 0xff}
	missing    = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
)

// series colors, cycled per vendor.
var palette = []color.RGBA{
	{0x63, 0x6e, 0xfa, 0xff},
	{0xef, 0x55, 0x3b, 0xff},
	{0x00, 0xcc, 0x96, 0xff},
	{0xab, 0x63, 0xfa, 0xff},
	{0xff, 0xa1, 0x5a, 0xff},
	{0x19, 0xd3, 0xf3, 0xff},
	{0xff, 0x66, 0x92, 0xff},
	{0xb6, 0xe8, 0x80, 0xff},
	{0xff, 0x97, 0xff, 0xff},
	{0xfe, 0xcb, 0x52, 0xff},
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// yellow-green-blue ramp stops.
var ylGnBu = []color.RGBA{
	{0xff, 0xff, 0xd9, 0xff},
	{0xc7, 0xe9, 0xb4, 0xff},
	{0x41, 0xb6, 0xc4, 0xff},
	{0x22, 0x5e, 0xa8, 0xff},
	{0x08, 0x1d, 0x58, 0xff},
}

// ramp maps t in [0,1] onto the yellow-green-blue scale. NaN is grey.
func ramp(t float64) color.RGBA {
	if math.IsNaN(t) {
		return missing
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(ylGnBu)-1)
	i := int(pos)
	if i >= len(ylGnBu)-1 {
		return ylGnBu[len(ylGnBu)-1]
	}
	f := pos - float64(i)
	a, b := ylGnBu[i], ylGnBu[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 0xff,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// contrast picks black or white text for a fill color.
func contrast(c color.RGBA) color.Color {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum > 140 {
		return color.Black
	}
	return color.White
}
