package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fogleman/gg"
)

const (
	colorBarWidth = 72
	colorBarInset = 12
	colorBarThick = 14
	lineWidth     = 1.2
	headLength    = 4.0
	headAngle     = math.Pi / 7
)

// drawField draws arrows from (X, Y) along (DX, DY)*scale on a width x height
// canvas, origin top-left, coloured by magnitude, with a colour bar on the right.
func drawField(f motion.Field, width, height int, scale float64) image.Image {
	dc := gg.NewContext(width+colorBarWidth, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.7, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(width)-1, float64(height)-1)
	dc.Stroke()

	maxMag := f.MaxMagnitude()
	dc.SetLineWidth(lineWidth)
	for i := 0; i < f.Len(); i++ {
		t := 0.0
		if maxMag > 0 {
			t = f.Magnitude[i] / maxMag
		}
		dc.SetColor(jet(t))
		drawArrow(dc, f.X[i], f.Y[i], f.DX[i]*scale, f.DY[i]*scale)
	}

	drawColorBar(dc, width, height, maxMag)
	return dc.Image()
}

func drawArrow(dc *gg.Context, x, y, dx, dy float64) {
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		dc.DrawPoint(x, y, lineWidth)
		dc.Fill()
		return
	}

	x1, y1 := x+dx, y+dy
	dc.DrawLine(x, y, x1, y1)
	dc.Stroke()

	head := math.Min(headLength, length*0.5)
	angle := math.Atan2(dy, dx)
	dc.MoveTo(x1, y1)
	dc.LineTo(x1-head*math.Cos(angle-headAngle), y1-head*math.Sin(angle-headAngle))
	dc.LineTo(x1-head*math.Cos(angle+headAngle), y1-head*math.Sin(angle+headAngle))
	dc.ClosePath()
	dc.Fill()
}

func drawColorBar(dc *gg.Context, width, height int, maxMag float64) {
	x := float64(width + colorBarInset)
	top, bottom := 14.0, float64(height)-14
	if bottom <= top {
		top, bottom = 0, float64(height)
	}

	for y := top; y < bottom; y++ {
		dc.SetColor(jet(1 - (y-top)/(bottom-top)))
		dc.DrawRectangle(x, y, colorBarThick, 1)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", maxMag), x, top-2, 0, 0)
	dc.DrawStringAnchored("0", x, bottom+12, 0, 0)
}

// jet maps t in [0, 1] to matplotlib's jet colormap, dark blue through red.
func jet(t float64) color.Color {
	t = clamp(t)
	return color.RGBA{
		R: channel(1.5 - math.Abs(4*t-3)),
		G: channel(1.5 - math.Abs(4*t-2)),
		B: channel(1.5 - math.Abs(4*t-1)),
		A: 255,
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v) * 255))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
