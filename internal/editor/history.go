package editor

import (
	"image"

	"github.com/example/annotator/internal/raster"
)

// Entry is one immutable snapshot of the canvas, held as a PNG data URL.
type Entry struct {
	dataURL string
}

// encodeEntry is replaced in tests.
var encodeEntry = raster.EncodeDataURL

// NewEntry encodes img into a history entry.
func NewEntry(img image.Image) (Entry, error) {
	s, err := encodeEntry(img)
	if err != nil {
		return Entry{}, err
	}
	return Entry{dataURL: s}, nil
}

// DataURL returns the encoded snapshot.
func (e Entry) DataURL() string { return e.dataURL }

// Image decodes the snapshot.
func (e Entry) Image() (*image.RGBA, error) { return raster.DecodeDataURL(e.dataURL) }

// History is a linear undo/redo buffer. Entry 0 is the pristine image and
// the cursor always points at the entry the canvas currently shows.
type History struct {
	entries []Entry
	index   int
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{index: -1} }

// Push appends e after the cursor, dropping any redo branch.
func (h *History) Push(e Entry) {
	h.entries = append(h.entries[:h.index+1], e)
	h.index = len(h.entries) - 1
}

// Undo moves the cursor back one entry.
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	h.index--
	return true
}

// Redo moves the cursor forward one entry.
func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	h.index++
	return true
}

// Reset truncates the history to the pristine entry.
func (h *History) Reset() bool {
	if len(h.entries) == 0 {
		return false
	}
	clear(h.entries[1:])
	h.entries = h.entries[:1]
	h.index = 0
	return true
}

// Current returns the entry at the cursor.
func (h *History) Current() (Entry, bool) {
	if h.index < 0 || h.index >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[h.index], true
}

// At returns the entry at i.
func (h *History) At(i int) (Entry, bool) {
	if i < 0 || i >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[i], true
}

func (h *History) Len() int      { return len(h.entries) }
func (h *History) Index() int    { return h.index }
func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index >= 0 && h.index < len(h.entries)-1 }
