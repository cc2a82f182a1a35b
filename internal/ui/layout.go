package ui

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/example/annotator/internal/editor"
)

const (
	toolbarHeight = 26
	statusHeight  = 22
	buttonPad     = 8
	swatchSize    = 16
	margin        = 8
)

// palette offered in the toolbar.
var palette = []color.RGBA{
	{0, 0, 0, 255},
	{255, 255, 255, 255},
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 0, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{255, 0, 255, 255},
}

// brushSizes are the steps used by the [ and ] keys.
var brushSizes = []int{1, 2, 4, 6, 10, 16, 24, 40, 64}

func nextBrushSize(cur, dir int) int {
	if dir > 0 {
		for _, s := range brushSizes {
			if s > cur {
				return s
			}
		}
		return brushSizes[len(brushSizes)-1]
	}
	for i := len(brushSizes) - 1; i >= 0; i-- {
		if brushSizes[i] < cur {
			return brushSizes[i]
		}
	}
	return brushSizes[0]
}

type buttonState int

const (
	buttonNormal buttonState = iota
	buttonHover
	buttonActive
	buttonDisabled
)

type button struct {
	label string
	act   action
	rect  image.Rectangle
}

type swatch struct {
	col  color.RGBA
	rect image.Rectangle
}

// toolbar holds the positioned controls for one window width.
type toolbar struct {
	buttons  []button
	swatches []swatch
}

var toolbarItems = []struct {
	label string
	act   action
}{
	{"B:Brush", actBrush},
	{"E:Eraser", actEraser},
	{"R:Crop", actCrop},
	{"Apply", actApplyCrop},
	{"Undo", actUndo},
	{"Redo", actRedo},
	{"Clear", actClear},
	{"Save", actSave},
	{"Restore", actRestore},
	{"Copy", actCopy},
	{"[-]", actSmaller},
	{"[+]", actLarger},
}

func layoutToolbar() toolbar {
	d := &font.Drawer{Face: basicfont.Face7x13}
	var tb toolbar
	x := margin / 2
	for _, it := range toolbarItems {
		w := d.MeasureString(it.label).Ceil() + buttonPad
		tb.buttons = append(tb.buttons, button{
			label: it.label,
			act:   it.act,
			rect:  image.Rect(x, 3, x+w, toolbarHeight-3),
		})
		x += w + 2
	}
	x += margin
	for _, c := range palette {
		tb.swatches = append(tb.swatches, swatch{col: c, rect: image.Rect(x, 5, x+swatchSize, 5+swatchSize)})
		x += swatchSize + 2
	}
	return tb
}

// width is the space needed to show every control.
func (tb toolbar) width() int {
	w := 0
	for _, b := range tb.buttons {
		w = max(w, b.rect.Max.X)
	}
	for _, s := range tb.swatches {
		w = max(w, s.rect.Max.X)
	}
	return w + margin
}

func (tb toolbar) hit(p image.Point) (action, *color.RGBA) {
	for _, b := range tb.buttons {
		if p.In(b.rect) {
			return b.act, nil
		}
	}
	for i := range tb.swatches {
		if p.In(tb.swatches[i].rect) {
			return "", &tb.swatches[i].col
		}
	}
	return "", nil
}

// buttonStateFor derives a button's look from the session status.
func buttonStateFor(a action, st editor.Status, hovered bool) buttonState {
	switch a {
	case actBrush:
		if st.Tool == editor.ToolBrush {
			return buttonActive
		}
	case actEraser:
		if st.Tool == editor.ToolEraser {
			return buttonActive
		}
	case actCrop:
		if st.Tool == editor.ToolCrop {
			return buttonActive
		}
	case actApplyCrop:
		if !st.CropPending {
			return buttonDisabled
		}
	case actUndo:
		if !st.CanUndo {
			return buttonDisabled
		}
	case actRedo:
		if !st.CanRedo {
			return buttonDisabled
		}
	case actSave, actRestore:
		if st.Busy {
			return buttonDisabled
		}
	}
	if st.State != editor.StateReady && a != actRestore {
		return buttonDisabled
	}
	if hovered {
		return buttonHover
	}
	return buttonNormal
}

// canvasView maps between window and image coordinates. The image is shown
// at the largest scale that fits, never enlarged beyond 1:1.
type canvasView struct {
	area  image.Rectangle // available window area
	dst   image.Rectangle // where the image is drawn
	scale float64
}

func fitCanvas(img image.Rectangle, winW, winH int) canvasView {
	area := image.Rect(0, toolbarHeight, winW, winH-statusHeight)
	v := canvasView{area: area, scale: 1}
	if img.Empty() || area.Empty() {
		return v
	}
	sx := float64(area.Dx()) / float64(img.Dx())
	sy := float64(area.Dy()) / float64(img.Dy())
	v.scale = min(sx, sy, 1)
	w := int(float64(img.Dx()) * v.scale)
	h := int(float64(img.Dy()) * v.scale)
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	v.dst = image.Rect(x0, y0, x0+w, y0+h)
	return v
}

// toImage converts a window position to image coordinates. Positions
// outside the image are still converted so strokes can be clipped.
func (v canvasView) toImage(x, y float32) image.Point {
	if v.scale == 0 {
		return image.Point{}
	}
	return image.Pt(
		int((float64(x)-float64(v.dst.Min.X))/v.scale),
		int((float64(y)-float64(v.dst.Min.Y))/v.scale),
	)
}

func (v canvasView) contains(x, y float32) bool {
	return image.Pt(int(x), int(y)).In(v.dst)
}
