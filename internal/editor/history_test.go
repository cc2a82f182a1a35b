package editor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func entry(t *testing.T, c color.RGBA) Entry {
	t.Helper()
	e, err := NewEntry(solid(2, 2, c))
	require.NoError(t, err)
	return e
}

func TestHistoryPushMovesCursor(t *testing.T) {
	h := NewHistory()
	require.Equal(t, 0, h.Len())
	require.Equal(t, -1, h.Index())
	_, ok := h.Current()
	require.False(t, ok)

	a := entry(t, color.RGBA{R: 1, A: 255})
	b := entry(t, color.RGBA{R: 2, A: 255})
	h.Push(a)
	h.Push(b)
	require.Equal(t, 2, h.Len())
	require.Equal(t, 1, h.Index())
	cur, ok := h.Current()
	require.True(t, ok)
	require.Equal(t, b.DataURL(), cur.DataURL())
}

func TestHistoryUndoRedoBounds(t *testing.T) {
	h := NewHistory()
	require.False(t, h.Undo())
	require.False(t, h.Redo())

	h.Push(entry(t, color.RGBA{A: 255}))
	require.False(t, h.CanUndo())
	require.False(t, h.Undo())
	require.False(t, h.Redo())

	h.Push(entry(t, color.RGBA{G: 9, A: 255}))
	require.True(t, h.Undo())
	require.Equal(t, 0, h.Index())
	require.False(t, h.Undo())
	require.True(t, h.Redo())
	require.False(t, h.Redo())
	require.Equal(t, 1, h.Index())
}

func TestHistoryPushDropsRedoBranch(t *testing.T) {
	a := entry(t, color.RGBA{R: 10, A: 255})
	b := entry(t, color.RGBA{R: 20, A: 255})
	c := entry(t, color.RGBA{R: 30, A: 255})
	d := entry(t, color.RGBA{R: 40, A: 255})

	h := NewHistory()
	h.Push(a)
	h.Push(b)
	h.Push(c)
	h.Undo()
	h.Undo()
	h.Push(d)

	require.Equal(t, 2, h.Len())
	require.Equal(t, 1, h.Index())
	first, _ := h.At(0)
	second, _ := h.At(1)
	require.Equal(t, a.DataURL(), first.DataURL())
	require.Equal(t, d.DataURL(), second.DataURL())
	require.False(t, h.CanRedo())
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	require.False(t, h.Reset())

	pristine := entry(t, color.RGBA{B: 5, A: 255})
	h.Push(pristine)
	h.Push(entry(t, color.RGBA{B: 6, A: 255}))
	h.Push(entry(t, color.RGBA{B: 7, A: 255}))
	h.Undo()

	require.True(t, h.Reset())
	require.Equal(t, 1, h.Len())
	require.Equal(t, 0, h.Index())
	cur, _ := h.Current()
	require.Equal(t, pristine.DataURL(), cur.DataURL())
}

func TestEntryImageRoundTrip(t *testing.T) {
	want := solid(3, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	e, err := NewEntry(want)
	require.NoError(t, err)
	got, err := e.Image()
	require.NoError(t, err)
	require.Equal(t, want.Pix, got.Pix)
	require.Equal(t, want.Bounds(), got.Bounds())
}
