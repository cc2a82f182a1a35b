package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// ToRGBA copies img into a new RGBA image whose bounds start at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Clone returns a deep copy of img.
func Clone(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

// Replace overwrites dst with the pixels of src. Both must share bounds.
func Replace(dst, src *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
}

// Equal reports whether a and b have identical bounds and pixels.
func Equal(a, b *image.RGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.Bounds().Eq(b.Bounds()) {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		ra := a.Pix[a.PixOffset(r.Min.X, y):a.PixOffset(r.Max.X-1, y)+4]
		rb := b.Pix[b.PixOffset(r.Min.X, y):b.PixOffset(r.Max.X-1, y)+4]
		if string(ra) != string(rb) {
			return false
		}
	}
	return true
}

// Clear makes every pixel of img fully transparent.
func Clear(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// Stroke paints the segment p0→p1 with round caps using source-over
// compositing. size is the stroke diameter in pixels.
func Stroke(dst *image.RGBA, p0, p1 image.Point, size int, col color.Color) {
	r, mask := capsuleMask(p0, p1, float64(size)/2)
	draw.DrawMask(dst, r, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
}

// Erase removes the pixels under the segment p0→p1 the way a
// destination-out composite does: coverage scales existing alpha to zero
// and nothing is painted.
func Erase(dst *image.RGBA, p0, p1 image.Point, size int) {
	r, mask := capsuleMask(p0, p1, float64(size)/2)
	clip := r.Intersect(dst.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			m := uint32(mask.AlphaAt(x-r.Min.X, y-r.Min.Y).A)
			if m == 0 {
				continue
			}
			// Premultiplied, so every channel scales by the uncovered share.
			keep := 0xff - m
			i := dst.PixOffset(x, y)
			px := dst.Pix[i : i+4 : i+4]
			for c := range px {
				px[c] = uint8(uint32(px[c]) * keep / 0xff)
			}
		}
	}
}

// capsuleMask rasterizes the capsule around p0→p1 into a mask covering only
// its bounding box, returned in image coordinates.
func capsuleMask(p0, p1 image.Point, radius float64) (image.Rectangle, *image.Alpha) {
	if radius < 0.5 {
		radius = 0.5
	}
	pad := int(math.Ceil(radius)) + 1
	r := image.Rect(p0.X, p0.Y, p1.X, p1.Y).Canon()
	r = image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad+1, r.Max.Y+pad+1)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	capsule(z, p0.Sub(r.Min), p1.Sub(r.Min), radius)
	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.DrawOp = draw.Src
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return r, mask
}

// capsule adds a closed path covering every point within r of the segment.
func capsule(z *vector.Rasterizer, p0, p1 image.Point, r float64) {
	ax, ay := float64(p0.X)+0.5, float64(p0.Y)+0.5
	bx, by := float64(p1.X)+0.5, float64(p1.Y)+0.5
	dx, dy := bx-ax, by-ay
	length := math.Hypot(dx, dy)
	theta := math.Pi / 2
	if length > 0 {
		theta = math.Atan2(dx, -dy)
	}
	steps := arcSteps(r)
	z.MoveTo(float32(bx+r*math.Cos(theta)), float32(by+r*math.Sin(theta)))
	for i := 1; i <= steps; i++ {
		a := theta - math.Pi*float64(i)/float64(steps)
		z.LineTo(float32(bx+r*math.Cos(a)), float32(by+r*math.Sin(a)))
	}
	for i := 0; i <= steps; i++ {
		a := theta - math.Pi - math.Pi*float64(i)/float64(steps)
		z.LineTo(float32(ax+r*math.Cos(a)), float32(ay+r*math.Sin(a)))
	}
	z.ClosePath()
}

func arcSteps(r float64) int {
	steps := int(math.Ceil(r * 2))
	if steps < 8 {
		steps = 8
	}
	if steps > 128 {
		steps = 128
	}
	return steps
}
