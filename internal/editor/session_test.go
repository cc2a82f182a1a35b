package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/example/annotator/internal/raster"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSession(t *testing.T, w, h int, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := NewFromImage(solid(w, h, white), opts...)
	require.NoError(t, err)
	return s
}

func stroke(t *testing.T, s *Session, from, to image.Point) {
	t.Helper()
	require.NoError(t, s.PointerDown(from))
	require.NoError(t, s.PointerMove(to))
	require.NoError(t, s.PointerUp(to))
}

type serverMsg string

func (m serverMsg) Error() string         { return "server: " + string(m) }
func (m serverMsg) ServerMessage() string { return string(m) }

type fakePersister struct {
	mu       sync.Mutex
	saved    []string
	saveErr  error
	redirect string
	restored int
	block    chan struct{}
}

func (f *fakePersister) Save(ctx context.Context, dataURL string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, dataURL)
	return nil
}

func (f *fakePersister) Restore(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored++
	return f.redirect, nil
}

func TestStrokesGrowHistory(t *testing.T) {
	s := newSession(t, 20, 20, WithBrush(Brush{Size: 2, Color: red}))
	for i := 0; i < 3; i++ {
		stroke(t, s, image.Pt(2, 2+i*5), image.Pt(17, 2+i*5))
	}
	st := s.Status()
	require.Equal(t, 4, st.HistoryLen)
	require.Equal(t, 3, st.HistoryIndex)
	require.True(t, st.CanUndo)
	require.False(t, st.CanRedo)
	require.Equal(t, red, s.Canvas().RGBAAt(10, 2))
}

func TestUndoRedoRestoresPixels(t *testing.T) {
	s := newSession(t, 20, 20, WithBrush(Brush{Size: 4, Color: red}))
	before := s.Canvas()
	stroke(t, s, image.Pt(2, 10), image.Pt(18, 10))
	after := s.Canvas()
	require.False(t, raster.Equal(before, after))

	require.True(t, s.Undo())
	require.True(t, raster.Equal(before, s.Canvas()))
	require.True(t, s.Redo())
	require.True(t, raster.Equal(after, s.Canvas()))
}

func TestUndoRedoAtBoundsAreNoOps(t *testing.T) {
	s := newSession(t, 10, 10)
	require.False(t, s.Undo())
	require.False(t, s.Redo())
	st := s.Status()
	require.Equal(t, 1, st.HistoryLen)
	require.Equal(t, 0, st.HistoryIndex)

	stroke(t, s, image.Pt(1, 1), image.Pt(8, 8))
	require.False(t, s.Redo())
	require.True(t, s.Undo())
	require.False(t, s.Undo())
}

func TestNewStrokeAfterUndoDropsRedoBranch(t *testing.T) {
	s := newSession(t, 20, 20, WithBrush(Brush{Size: 2, Color: red}))
	stroke(t, s, image.Pt(2, 2), image.Pt(18, 2))
	stroke(t, s, image.Pt(2, 6), image.Pt(18, 6))
	require.True(t, s.Undo())
	require.True(t, s.Undo())
	stroke(t, s, image.Pt(2, 12), image.Pt(18, 12))

	st := s.Status()
	require.Equal(t, 2, st.HistoryLen)
	require.Equal(t, 1, st.HistoryIndex)
	require.False(t, st.CanRedo)
	require.Equal(t, white, s.Canvas().RGBAAt(10, 2))
	require.Equal(t, red, s.Canvas().RGBAAt(10, 12))
}

func TestEraserMakesPixelsTransparent(t *testing.T) {
	s := newSession(t, 20, 20, WithTool(ToolEraser), WithBrush(Brush{Size: 4, Color: red}))
	stroke(t, s, image.Pt(2, 10), image.Pt(18, 10))
	require.Equal(t, color.RGBA{}, s.Canvas().RGBAAt(10, 10))
	require.Equal(t, white, s.Canvas().RGBAAt(10, 2))
}

func TestDiagonalEraseKeepsPixelsBesideStroke(t *testing.T) {
	s := newSession(t, 30, 30, WithTool(ToolEraser), WithBrush(Brush{Size: 4, Color: red}))
	stroke(t, s, image.Pt(2, 2), image.Pt(27, 27))
	canvas := s.Canvas()
	require.Equal(t, color.RGBA{}, canvas.RGBAAt(15, 15))
	require.Equal(t, white, canvas.RGBAAt(24, 5))
	require.Equal(t, white, canvas.RGBAAt(5, 24))
}

func TestClickWithoutMoveStillCommits(t *testing.T) {
	s := newSession(t, 10, 10)
	before := s.Canvas()
	require.NoError(t, s.PointerDown(image.Pt(5, 5)))
	require.NoError(t, s.PointerUp(image.Pt(5, 5)))
	require.Equal(t, 2, s.Status().HistoryLen)
	require.True(t, raster.Equal(before, s.Canvas()), "a click commits an unchanged entry")
}

func TestPointerLeaveEndsStroke(t *testing.T) {
	s := newSession(t, 10, 10)
	require.NoError(t, s.PointerDown(image.Pt(1, 1)))
	require.NoError(t, s.PointerMove(image.Pt(8, 1)))
	require.NoError(t, s.PointerLeave())
	st := s.Status()
	require.Equal(t, GestureNone{}, st.Gesture)
	require.Equal(t, 2, st.HistoryLen)
}

func TestClearAllRestoresPristine(t *testing.T) {
	s := newSession(t, 20, 20, WithBrush(Brush{Size: 3, Color: red}))
	pristine := s.Canvas()
	stroke(t, s, image.Pt(1, 1), image.Pt(18, 18))
	stroke(t, s, image.Pt(1, 18), image.Pt(18, 1))
	s.Undo()

	require.ErrorIs(t, s.ClearAll(ConfirmFunc(func(string) bool { return false })), ErrNotConfirmed)
	require.Equal(t, 3, s.Status().HistoryLen)

	var prompt string
	require.NoError(t, s.ClearAll(ConfirmFunc(func(p string) bool { prompt = p; return true })))
	require.Equal(t, ClearPrompt, prompt)
	st := s.Status()
	require.Equal(t, 1, st.HistoryLen)
	require.Equal(t, 0, st.HistoryIndex)
	require.True(t, raster.Equal(pristine, s.Canvas()))
}

func TestEllipticalCrop(t *testing.T) {
	s := newSession(t, 100, 50)
	require.NoError(t, s.SetTool(ToolCrop))
	require.Equal(t, "crosshair", s.Status().Cursor)

	require.NoError(t, s.PointerDown(image.Pt(0, 0)))
	require.NoError(t, s.PointerMove(image.Pt(60, 30)))
	require.NoError(t, s.PointerUp(image.Pt(100, 50)))
	st := s.Status()
	require.True(t, st.CropPending)
	require.Equal(t, &CropRegion{Start: image.Pt(0, 0), End: image.Pt(100, 50)}, st.Crop)
	require.Equal(t, 1, st.HistoryLen, "dragging does not commit")

	require.NoError(t, s.ApplyCrop())
	img := s.Canvas()
	require.Equal(t, white, img.RGBAAt(50, 25))
	require.Equal(t, white, img.RGBAAt(10, 25))
	require.Zero(t, img.RGBAAt(0, 0).A)
	require.Zero(t, img.RGBAAt(99, 49).A)
	require.Zero(t, img.RGBAAt(99, 0).A)

	st = s.Status()
	require.Equal(t, ToolBrush, st.Tool)
	require.False(t, st.CropPending)
	require.Equal(t, 2, st.HistoryLen)
}

func TestCropOverlayStaysOutOfCanvas(t *testing.T) {
	s := newSession(t, 40, 40)
	require.NoError(t, s.SetTool(ToolCrop))
	require.NoError(t, s.PointerDown(image.Pt(5, 5)))
	require.NoError(t, s.PointerMove(image.Pt(35, 35)))

	require.True(t, raster.Equal(solid(40, 40, white), s.Canvas()))
	require.False(t, raster.Equal(solid(40, 40, white), s.View()))
	require.NoError(t, s.PointerUp(image.Pt(35, 35)))

	s.CancelCrop()
	require.False(t, s.Status().CropPending)
	require.True(t, raster.Equal(s.Canvas(), s.View()))
}

func TestApplyCropWithoutRegion(t *testing.T) {
	s := newSession(t, 10, 10)
	require.ErrorIs(t, s.ApplyCrop(), ErrNoCropRegion)

	require.NoError(t, s.SetTool(ToolCrop))
	require.NoError(t, s.PointerDown(image.Pt(3, 3)))
	require.NoError(t, s.PointerUp(image.Pt(3, 8)))
	require.ErrorIs(t, s.ApplyCrop(), ErrEmptyCropRegion)
	require.Equal(t, 1, s.Status().HistoryLen)
}

func TestApplyCropEncodeFailureKeepsCanvas(t *testing.T) {
	s := newSession(t, 20, 10)
	require.NoError(t, s.SetTool(ToolCrop))
	require.NoError(t, s.PointerDown(image.Pt(0, 0)))
	require.NoError(t, s.PointerUp(image.Pt(20, 10)))
	before := s.Canvas()

	original := encodeEntry
	boom := errors.New("encode failed")
	encodeEntry = func(image.Image) (string, error) { return "", boom }
	t.Cleanup(func() { encodeEntry = original })

	require.ErrorIs(t, s.ApplyCrop(), boom)
	require.True(t, raster.Equal(before, s.Canvas()))
	require.Equal(t, white, s.Canvas().RGBAAt(0, 0), "corner must not be clipped")
	require.Equal(t, 1, s.Status().HistoryLen)
}

func TestLeavingCropDiscardsRegion(t *testing.T) {
	s := newSession(t, 10, 10)
	require.NoError(t, s.SetTool(ToolCrop))
	require.NoError(t, s.PointerDown(image.Pt(1, 1)))
	require.ErrorIs(t, s.SetTool(ToolBrush), ErrBusyGesture)
	require.NoError(t, s.PointerUp(image.Pt(8, 8)))
	require.NoError(t, s.SetTool(ToolBrush))
	require.Nil(t, s.Status().Crop)
}

func TestSaveSendsCanvas(t *testing.T) {
	p := &fakePersister{}
	s := newSession(t, 8, 8, WithPersister(p))
	stroke(t, s, image.Pt(1, 1), image.Pt(6, 6))

	require.NoError(t, s.Save(context.Background()))
	require.Len(t, p.saved, 1)
	got, err := raster.DecodeDataURL(p.saved[0])
	require.NoError(t, err)
	require.True(t, raster.Equal(s.Canvas(), got))
	require.Equal(t, 2, s.Status().HistoryLen)
}

func TestSaveFailureLeavesHistory(t *testing.T) {
	p := &fakePersister{saveErr: serverMsg("disk full")}
	s := newSession(t, 8, 8, WithPersister(p))
	stroke(t, s, image.Pt(1, 1), image.Pt(6, 6))
	before := s.Status()

	err := s.Save(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "Error saving image: disk full", reqErr.UserMessage())

	after := s.Status()
	require.Equal(t, before.HistoryLen, after.HistoryLen)
	require.Equal(t, before.HistoryIndex, after.HistoryIndex)
	require.False(t, after.Busy)
}

func TestSaveTransportFailureMessage(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("connection refused")}
	s := newSession(t, 4, 4, WithPersister(p))
	err := s.Save(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "An error occurred while saving the image.", reqErr.UserMessage())
}

func TestSaveWithoutPersister(t *testing.T) {
	s := newSession(t, 4, 4)
	require.ErrorIs(t, s.Save(context.Background()), ErrNoPersister)
}

func TestSecondSaveWhileInFlightIsRejected(t *testing.T) {
	p := &fakePersister{block: make(chan struct{})}
	s := newSession(t, 4, 4, WithPersister(p))

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	require.Eventually(t, s.Busy, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, s.Save(context.Background()), ErrRequestInFlight)
	_, err := s.RestoreOriginal(context.Background(), Always)
	require.ErrorIs(t, err, ErrRequestInFlight)

	close(p.block)
	require.NoError(t, <-done)
	require.False(t, s.Busy())
	require.Len(t, p.saved, 1)
}

func TestRestoreOriginal(t *testing.T) {
	p := &fakePersister{redirect: "/uploads/42"}
	s := newSession(t, 4, 4, WithPersister(p))

	_, err := s.RestoreOriginal(context.Background(), ConfirmFunc(func(string) bool { return false }))
	require.ErrorIs(t, err, ErrNotConfirmed)
	require.Zero(t, p.restored)

	var prompt string
	redirect, err := s.RestoreOriginal(context.Background(), ConfirmFunc(func(q string) bool { prompt = q; return true }))
	require.NoError(t, err)
	require.Equal(t, RestorePrompt, prompt)
	require.Equal(t, "/uploads/42", redirect)
	require.Equal(t, 1, p.restored)
}

func TestLoadFailureMarksSessionFailed(t *testing.T) {
	var events []EventKind
	s := New(WithLogger(quietLogger()), WithChangeListener(func(ev Event) { events = append(events, ev.Kind) }))
	boom := errors.New("404")
	err := s.Load(context.Background(), SourceFunc(func(context.Context) ([]byte, error) { return nil, boom }))
	require.ErrorIs(t, err, boom)

	state, loadErr := s.State()
	require.Equal(t, StateFailed, state)
	require.ErrorIs(t, loadErr, boom)
	require.Equal(t, []EventKind{EventLoadFailed}, events)
	require.ErrorIs(t, s.PointerDown(image.Pt(0, 0)), ErrNotReady)
	require.False(t, s.Undo())
}

func TestLoadDecodesSource(t *testing.T) {
	png, err := raster.EncodePNG(solid(6, 3, red))
	require.NoError(t, err)
	s := New(WithLogger(quietLogger()))
	require.NoError(t, s.Load(context.Background(), SourceFunc(func(context.Context) ([]byte, error) { return png, nil })))

	state, _ := s.State()
	require.Equal(t, StateReady, state)
	require.Equal(t, image.Rect(0, 0, 6, 3), s.Status().Bounds)
	require.ErrorIs(t, s.Load(context.Background(), SourceFunc(func(context.Context) ([]byte, error) { return png, nil })), ErrAlreadyLoaded)
}

func TestConcurrentLoadKeepsSinglePristineEntry(t *testing.T) {
	png, err := raster.EncodePNG(solid(4, 4, red))
	require.NoError(t, err)
	release := make(chan struct{})
	started := make(chan struct{})
	slow := SourceFunc(func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return png, nil
	})
	fast := SourceFunc(func(context.Context) ([]byte, error) { return png, nil })

	s := New(WithLogger(quietLogger()))
	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), slow) }()
	<-started

	require.ErrorIs(t, s.Load(context.Background(), fast), ErrAlreadyLoaded)
	close(release)
	require.NoError(t, <-done)

	st := s.Status()
	require.Equal(t, StateReady, st.State)
	require.Equal(t, 1, st.HistoryLen)
	require.Equal(t, 0, st.HistoryIndex)
}

func TestListenersSeeCommittedStatus(t *testing.T) {
	var last Status
	s := newSession(t, 10, 10, WithChangeListener(func(ev Event) {
		if ev.Kind == EventHistory {
			last = ev.Status
		}
	}))
	stroke(t, s, image.Pt(1, 1), image.Pt(8, 8))
	require.Equal(t, 2, last.HistoryLen)
	require.Equal(t, 1, last.HistoryIndex)
}

func TestBrushSizeIsClamped(t *testing.T) {
	s := newSession(t, 4, 4)
	s.SetBrushSize(0)
	require.Equal(t, 1, s.Status().Brush.Size)
	s.SetBrushSize(1000)
	require.Equal(t, MaxBrushSize, s.Status().Brush.Size)
	s.SetBrushColor(color.NRGBA{G: 255, A: 255})
	require.Equal(t, color.RGBA{G: 255, A: 255}, s.Status().Brush.Color)
}
