package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Ellipse is an axis-aligned ellipse in image coordinates.
type Ellipse struct {
	CX, CY float64
	RX, RY float64
}

// EllipseFromPoints returns the ellipse inscribed in the rectangle spanned by
// start and end: centred on the midpoint with radii of half the width and
// height.
func EllipseFromPoints(start, end image.Point) Ellipse {
	return Ellipse{
		CX: float64(start.X+end.X) / 2,
		CY: float64(start.Y+end.Y) / 2,
		RX: math.Abs(float64(end.X-start.X)) / 2,
		RY: math.Abs(float64(end.Y-start.Y)) / 2,
	}
}

// Empty reports whether the ellipse encloses no area.
func (e Ellipse) Empty() bool { return e.RX <= 0 || e.RY <= 0 }

// Contains reports whether the point lies strictly inside the ellipse.
func (e Ellipse) Contains(x, y float64) bool {
	if e.Empty() {
		return false
	}
	nx := (x - e.CX) / e.RX
	ny := (y - e.CY) / e.RY
	return nx*nx+ny*ny < 1
}

// Bounds returns the integer rectangle covering the ellipse.
func (e Ellipse) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(e.CX-e.RX)), int(math.Floor(e.CY-e.RY)),
		int(math.Ceil(e.CX+e.RX)), int(math.Ceil(e.CY+e.RY)),
	)
}

// point returns the perimeter point at angle a.
func (e Ellipse) point(a float64) (float64, float64) {
	return e.CX + e.RX*math.Cos(a), e.CY + e.RY*math.Sin(a)
}

func (e Ellipse) steps() int {
	s := int(math.Ceil(2 * math.Pi * math.Sqrt((e.RX*e.RX+e.RY*e.RY)/2)))
	if s < 16 {
		s = 16
	}
	return s
}

// Mask returns an alpha mask the size of bounds holding the ellipse's
// coverage.
func (e Ellipse) Mask(bounds image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(bounds)
	if e.Empty() || bounds.Empty() {
		return mask
	}
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	n := e.steps()
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	x, y := e.point(0)
	z.MoveTo(float32(x-ox), float32(y-oy))
	for i := 1; i < n; i++ {
		x, y = e.point(2 * math.Pi * float64(i) / float64(n))
		z.LineTo(float32(x-ox), float32(y-oy))
	}
	z.ClosePath()
	z.DrawOp = draw.Src
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// ClipEllipse returns a copy of src where only the pixels inside e survive;
// everything outside the ellipse is fully transparent.
func ClipEllipse(src *image.RGBA, e Ellipse) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	if e.Empty() {
		return out
	}
	mask := e.Mask(b)
	draw.DrawMask(out, b, src, b.Min, mask, b.Min, draw.Src)
	return out
}

// DashedEllipse outlines e with alternating dash-length segments and gaps.
func DashedEllipse(dst *image.RGBA, e Ellipse, dash, width int, col color.Color) {
	if e.RX <= 0 && e.RY <= 0 {
		return
	}
	if dash < 1 {
		dash = 1
	}
	n := e.steps()
	px, py := e.point(0)
	on := true
	run := 0.0
	for i := 1; i <= n; i++ {
		x, y := e.point(2 * math.Pi * float64(i) / float64(n))
		if on {
			Stroke(dst, image.Pt(int(math.Round(px)), int(math.Round(py))), image.Pt(int(math.Round(x)), int(math.Round(y))), width, col)
		}
		run += math.Hypot(x-px, y-py)
		if run >= float64(dash) {
			run = 0
			on = !on
		}
		px, py = x, y
	}
}
