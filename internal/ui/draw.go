package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/theme"
)

const checkerSize = 8

// frame is everything one paint needs. It is built on the event goroutine
// and handed to the painter.
type frame struct {
	width, height int
	view          *image.RGBA
	status        editor.Status
	toolbar       toolbar
	hover         image.Point
	message       string
	isError       bool
	armed         bool
	theme         *theme.Theme
}

func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			c := light
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 == 1 {
				c = dark
			}
			r := image.Rect(x, y, x+size, y+size).Intersect(rect)
			draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}

func drawLabel(dst *image.RGBA, rect image.Rectangle, label string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{col}, Face: basicfont.Face7x13}
	w := d.MeasureString(label).Ceil()
	x := rect.Min.X + (rect.Dx()-w)/2
	y := rect.Min.Y + (rect.Dy()+basicfont.Face7x13.Ascent-basicfont.Face7x13.Descent)/2
	d.Dot = fixed.P(x, y)
	d.DrawString(label)
}

// mix returns the midpoint of two opaque colours.
func mix(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((int(a.R) + int(b.R)) / 2),
		G: uint8((int(a.G) + int(b.G)) / 2),
		B: uint8((int(a.B) + int(b.B)) / 2),
		A: 255,
	}
}

func drawButton(dst *image.RGBA, b button, state buttonState, th *theme.Theme) {
	bg := th.ButtonBackground
	fg := th.ButtonText
	switch state {
	case buttonHover, buttonActive:
		bg = th.ButtonActive
	case buttonDisabled:
		bg = th.ButtonDisabled
		fg = mix(th.ButtonText, th.ButtonDisabled)
	}
	draw.Draw(dst, b.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	drawRect(dst, b.rect, th.ButtonBorder, 1)
	drawLabel(dst, b.rect, b.label, fg)
}

func drawToolbar(dst *image.RGBA, f frame) {
	th := f.theme
	draw.Draw(dst, image.Rect(0, 0, f.width, toolbarHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for _, b := range f.toolbar.buttons {
		state := buttonStateFor(b.act, f.status, f.hover.In(b.rect))
		if f.armed && (b.act == actClear || b.act == actRestore) {
			state = buttonActive
		}
		drawButton(dst, b, state, th)
	}
	cur := f.status.Brush.Color
	for _, s := range f.toolbar.swatches {
		draw.Draw(dst, s.rect, &image.Uniform{s.col}, image.Point{}, draw.Src)
		border := 1
		if s.col == cur {
			border = 2
		}
		drawRect(dst, s.rect, th.ButtonBorder, border)
	}
}

func statusLine(st editor.Status) string {
	switch st.State {
	case editor.StateLoading:
		return "Loading image..."
	case editor.StateFailed:
		return "Failed to load image"
	}
	line := fmt.Sprintf("%s  size %d  %dx%d  step %d/%d",
		st.Tool, st.Brush.Size, st.Bounds.Dx(), st.Bounds.Dy(), st.HistoryIndex+1, st.HistoryLen)
	if st.CropPending {
		line += "  Enter: apply crop  Esc: cancel"
	}
	if st.Busy {
		line += "  working..."
	}
	return line
}

func drawStatus(dst *image.RGBA, f frame) {
	th := f.theme
	rect := image.Rect(0, f.height-statusHeight, f.width, f.height)
	draw.Draw(dst, rect, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)
	text := statusLine(f.status)
	col := th.StatusText
	if f.message != "" {
		text = f.message
		if f.isError {
			col = th.StatusError
		}
	}
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{col}, Face: basicfont.Face7x13}
	d.Dot = fixed.P(margin, rect.Min.Y+(statusHeight+basicfont.Face7x13.Ascent)/2-1)
	d.DrawString(text)
}

// drawFrame renders f into dst. It returns early when ctx is cancelled so
// a newer frame can take over.
func drawFrame(ctx context.Context, dst *image.RGBA, f frame) bool {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{f.theme.Background}, image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return false
	}

	if f.view != nil {
		v := fitCanvas(f.view.Bounds(), f.width, f.height)
		drawCheckerboard(dst, v.dst, checkerSize, f.theme.CheckerLight, f.theme.CheckerDark)
		if ctx.Err() != nil {
			return false
		}
		xdraw.NearestNeighbor.Scale(dst, v.dst, f.view, f.view.Bounds(), draw.Over, nil)
	}
	if ctx.Err() != nil {
		return false
	}

	drawToolbar(dst, f)
	drawStatus(dst, f)
	return ctx.Err() == nil
}
