package editor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/raster"
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// overlay styling for the proposed crop ellipse.
var (
	overlayColor = color.RGBA{A: 178}
	overlayDash  = 5
	overlayWidth = 2
)

// Session is one image being annotated. It owns the canvas, the undo/redo
// history and the tool state. All methods are safe to call from a UI loop
// and from request completion goroutines.
type Session struct {
	mu sync.Mutex

	state   State
	loadErr error
	loading bool

	canvas  *image.RGBA
	history *History
	tool    Tool
	brush   Brush
	gesture Gesture
	crop    *CropRegion

	persister Persister
	inFlight  bool

	log       logrus.FieldLogger
	listeners []func(Event)
	pending   []Event
}

// Option modifies a Session during creation.
type Option func(*Session)

// WithPersister sets the endpoint used by Save and RestoreOriginal.
func WithPersister(p Persister) Option { return func(s *Session) { s.persister = p } }

// WithBrush sets the initial brush.
func WithBrush(b Brush) Option { return func(s *Session) { s.brush = b } }

// WithTool sets the initial tool.
func WithTool(t Tool) Option { return func(s *Session) { s.tool = t } }

// WithLogger sets the logger used for session diagnostics.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Session) { s.log = l } }

// WithChangeListener registers a callback for state changes. Callbacks run
// after the session lock is released.
func WithChangeListener(fn func(Event)) Option {
	return func(s *Session) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

// New creates a Session in the loading state.
func New(opts ...Option) *Session {
	s := &Session{
		history: NewHistory(),
		tool:    ToolBrush,
		brush:   DefaultBrush(),
		gesture: GestureNone{},
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.brush.Size = clampBrushSize(s.brush.Size)
	return s
}

// NewFromImage creates a ready Session showing img.
func NewFromImage(img image.Image, opts ...Option) (*Session, error) {
	s := New(opts...)
	s.mu.Lock()
	defer s.unlock()
	if err := s.init(img); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the initial bitmap from src. On failure the session moves to
// StateFailed and stays unusable.
func (s *Session) Load(ctx context.Context, src Source) error {
	s.mu.Lock()
	if s.state != StateLoading || s.loading {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loading = true
	s.mu.Unlock()

	data, err := src.Load(ctx)
	var img *image.RGBA
	if err == nil {
		img, err = raster.Decode(data)
	}

	s.mu.Lock()
	defer s.unlock()
	s.loading = false
	if err == nil {
		err = s.init(img)
	}
	if err != nil {
		s.state = StateFailed
		s.loadErr = err
		s.log.WithError(err).Error("image load failed")
		s.emit(EventLoadFailed)
		return fmt.Errorf("load image: %w", err)
	}
	return nil
}

func (s *Session) init(img image.Image) error {
	rgba := raster.ToRGBA(img)
	if rgba.Bounds().Empty() {
		return ErrEmptyImage
	}
	entry, err := NewEntry(rgba)
	if err != nil {
		return err
	}
	s.canvas = rgba
	s.history.Push(entry)
	s.state = StateReady
	s.log.WithFields(logrus.Fields{
		"width":  rgba.Bounds().Dx(),
		"height": rgba.Bounds().Dy(),
	}).Debug("session ready")
	s.emit(EventLoaded)
	return nil
}

// State returns the lifecycle state and, for StateFailed, the load error.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.loadErr
}

// Status returns a snapshot of the session for rendering controls.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	st := Status{
		State:        s.state,
		Tool:         s.tool,
		Brush:        s.brush,
		HistoryLen:   s.history.Len(),
		HistoryIndex: s.history.Index(),
		CanUndo:      s.history.CanUndo() && s.idle(),
		CanRedo:      s.history.CanRedo() && s.idle(),
		CropPending:  s.tool == ToolCrop && s.crop != nil,
		Busy:         s.inFlight,
		Cursor:       s.tool.Cursor(),
		Gesture:      s.gesture,
	}
	if s.crop != nil {
		c := *s.crop
		st.Crop = &c
	}
	if s.canvas != nil {
		st.Bounds = s.canvas.Bounds()
	}
	return st
}

// Canvas returns a copy of the current surface, without any crop overlay.
func (s *Session) Canvas() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return raster.Clone(s.canvas)
}

// View returns a copy of the surface with the crop overlay drawn on top.
func (s *Session) View() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := raster.Clone(s.canvas)
	if out != nil && s.crop != nil && s.tool == ToolCrop {
		e := raster.EllipseFromPoints(s.crop.Start, s.crop.End)
		raster.DashedEllipse(out, e, overlayDash, overlayWidth, overlayColor)
	}
	return out
}

// SetTool switches the active tool. Leaving ToolCrop discards the crop
// region. It fails while a pointer gesture is in progress.
func (s *Session) SetTool(t Tool) error {
	s.mu.Lock()
	defer s.unlock()
	if !s.idle() {
		return ErrBusyGesture
	}
	if t == s.tool {
		return nil
	}
	s.tool = t
	if t != ToolCrop && s.crop != nil {
		s.crop = nil
		s.emit(EventCrop)
	}
	s.log.WithField("tool", t).Debug("tool changed")
	s.emit(EventTool)
	return nil
}

// SetBrushSize sets the stroke diameter, clamped to [1, MaxBrushSize].
func (s *Session) SetBrushSize(n int) {
	s.mu.Lock()
	defer s.unlock()
	s.brush.Size = clampBrushSize(n)
	s.emit(EventBrush)
}

// SetBrushColor sets the brush colour. The eraser ignores it.
func (s *Session) SetBrushColor(c color.Color) {
	s.mu.Lock()
	defer s.unlock()
	s.brush.Color = color.RGBAModel.Convert(c).(color.RGBA)
	s.emit(EventBrush)
}

// PointerDown starts a stroke or a crop drag at p.
func (s *Session) PointerDown(p image.Point) error {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.tool == ToolCrop {
		s.gesture = GestureCropping{Start: p, End: p}
		s.crop = &CropRegion{Start: p, End: p}
		s.emit(EventCrop)
		return nil
	}
	s.gesture = GestureDrawing{Last: p}
	return nil
}

// PointerMove extends the current gesture to p.
func (s *Session) PointerMove(p image.Point) error {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	switch g := s.gesture.(type) {
	case GestureDrawing:
		s.paint(g.Last, p)
		s.gesture = GestureDrawing{Last: p}
		s.emit(EventCanvas)
	case GestureCropping:
		g.End = p
		s.gesture = g
		s.crop = &CropRegion{Start: g.Start, End: p}
		if err := s.showCurrent(); err != nil {
			return err
		}
		s.emit(EventCrop)
	}
	return nil
}

// PointerUp finishes the current gesture at p. A stroke is committed to
// history; a crop drag only fixes the region and waits for ApplyCrop.
func (s *Session) PointerUp(p image.Point) error {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	switch g := s.gesture.(type) {
	case GestureDrawing:
		if p != g.Last {
			s.paint(g.Last, p)
		}
		s.gesture = GestureNone{}
		return s.commit()
	case GestureCropping:
		s.crop = &CropRegion{Start: g.Start, End: p}
		s.gesture = GestureNone{}
		s.emit(EventCrop)
	}
	return nil
}

// PointerLeave ends the current gesture where it last was, as when the
// pointer exits the canvas.
func (s *Session) PointerLeave() error {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	switch s.gesture.(type) {
	case GestureDrawing:
		s.gesture = GestureNone{}
		return s.commit()
	case GestureCropping:
		s.gesture = GestureNone{}
		s.emit(EventCrop)
	}
	return nil
}

func (s *Session) paint(from, to image.Point) {
	if s.tool == ToolEraser {
		raster.Erase(s.canvas, from, to, s.brush.Size)
		return
	}
	raster.Stroke(s.canvas, from, to, s.brush.Size, s.brush.Color)
}

// ApplyCrop keeps only the pixels of the current history entry that fall
// inside the crop ellipse, commits the result and returns to ToolBrush.
func (s *Session) ApplyCrop() error {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if !s.idle() {
		return ErrBusyGesture
	}
	if s.crop == nil {
		return ErrNoCropRegion
	}
	e := raster.EllipseFromPoints(s.crop.Start, s.crop.End)
	if e.Empty() {
		return ErrEmptyCropRegion
	}
	base, err := s.currentImage()
	if err != nil {
		return err
	}
	live := s.canvas
	s.canvas = raster.ClipEllipse(base, e)
	if err := s.commit(); err != nil {
		s.canvas = live
		return err
	}
	s.log.WithFields(logrus.Fields{
		"cx": e.CX, "cy": e.CY, "rx": e.RX, "ry": e.RY,
	}).Info("crop applied")
	s.crop = nil
	s.tool = ToolBrush
	s.emit(EventCrop)
	s.emit(EventTool)
	return nil
}

// CancelCrop discards the crop region.
func (s *Session) CancelCrop() {
	s.mu.Lock()
	defer s.unlock()
	if _, ok := s.gesture.(GestureCropping); ok {
		s.gesture = GestureNone{}
	}
	if s.crop == nil {
		return
	}
	s.crop = nil
	s.emit(EventCrop)
}

// Undo steps back one history entry. It reports whether anything changed.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady || !s.idle() || !s.history.Undo() {
		return false
	}
	if err := s.showCurrent(); err != nil {
		s.history.Redo()
		return false
	}
	s.emit(EventHistory)
	return true
}

// Redo steps forward one history entry. It reports whether anything changed.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady || !s.idle() || !s.history.Redo() {
		return false
	}
	if err := s.showCurrent(); err != nil {
		s.history.Undo()
		return false
	}
	s.emit(EventHistory)
	return true
}

// ClearAll drops every edit and shows the pristine image again, after the
// user confirms.
func (s *Session) ClearAll(c Confirmer) error {
	if c == nil || !c.Confirm(ClearPrompt) {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if !s.idle() {
		return ErrBusyGesture
	}
	s.history.Reset()
	if err := s.showCurrent(); err != nil {
		return err
	}
	s.log.Info("edits cleared")
	s.emit(EventHistory)
	return nil
}

// Save sends the current canvas to the persistence endpoint. Failures are
// returned as *RequestError and leave the session untouched.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	if s.persister == nil {
		s.mu.Unlock()
		return ErrNoPersister
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	payload, err := raster.EncodeDataURL(s.canvas)
	if err != nil {
		s.mu.Unlock()
		return &RequestError{Op: "save", Err: err}
	}
	p := s.begin()
	s.unlock()

	err = p.Save(ctx, payload)
	s.finish()
	if err != nil {
		s.log.WithError(err).Warn("save failed")
		return &RequestError{Op: "save", Err: err}
	}
	s.log.WithField("bytes", len(payload)).Info("image saved")
	return nil
}

// RestoreOriginal asks the endpoint to discard the saved edit, after the
// user confirms. It returns the redirect target reported by the endpoint,
// which may be empty. Local history is not touched.
func (s *Session) RestoreOriginal(ctx context.Context, c Confirmer) (string, error) {
	if c == nil || !c.Confirm(RestorePrompt) {
		return "", ErrNotConfirmed
	}
	s.mu.Lock()
	if s.persister == nil {
		s.mu.Unlock()
		return "", ErrNoPersister
	}
	if s.inFlight {
		s.mu.Unlock()
		return "", ErrRequestInFlight
	}
	p := s.begin()
	s.unlock()

	redirect, err := p.Restore(ctx)
	s.finish()
	if err != nil {
		s.log.WithError(err).Warn("restore failed")
		return "", &RequestError{Op: "restore", Err: err}
	}
	s.log.WithField("redirect", redirect).Info("original restored")
	return redirect, nil
}

// Cursor returns the pointer style for the active tool.
func (s *Session) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool.Cursor()
}

// CropPending reports whether a crop region is waiting to be applied.
func (s *Session) CropPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool == ToolCrop && s.crop != nil
}

// Busy reports whether a save or restore request is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Session) begin() Persister {
	s.inFlight = true
	s.emit(EventRequest)
	return s.persister
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.unlock()
	s.inFlight = false
	s.emit(EventRequest)
}

func (s *Session) idle() bool {
	_, ok := s.gesture.(GestureNone)
	return ok
}

func (s *Session) commit() error {
	entry, err := NewEntry(s.canvas)
	if err != nil {
		s.log.WithError(err).Error("encode history entry")
		return err
	}
	s.history.Push(entry)
	s.log.WithFields(logrus.Fields{
		"history_index": s.history.Index(),
		"history_len":   s.history.Len(),
	}).Debug("history entry committed")
	s.emit(EventHistory)
	return nil
}

func (s *Session) currentImage() (*image.RGBA, error) {
	entry, ok := s.history.Current()
	if !ok {
		return nil, ErrNotReady
	}
	img, err := entry.Image()
	if err != nil {
		s.log.WithError(err).WithField("history_index", s.history.Index()).Error("decode history entry")
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	return img, nil
}

// showCurrent redraws the canvas from the entry at the cursor.
func (s *Session) showCurrent() error {
	img, err := s.currentImage()
	if err != nil {
		return err
	}
	s.canvas = img
	s.emit(EventCanvas)
	return nil
}

func (s *Session) emit(kind EventKind) {
	if len(s.listeners) == 0 {
		return
	}
	s.pending = append(s.pending, Event{Kind: kind, Status: s.status()})
}

// unlock releases the session lock and then delivers queued events.
func (s *Session) unlock() {
	events := s.pending
	s.pending = nil
	listeners := s.listeners
	s.mu.Unlock()
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
