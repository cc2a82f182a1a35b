// Package ui is the desktop editor window.
package ui

import (
	"context"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/notify"
	"github.com/example/annotator/internal/theme"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const (
	defaultWidth  = 800
	defaultHeight = 600
)

// ReloadFunc fetches the image again after a save or restore and returns a
// loaded session built with opts. redirect is the location the server
// asked for, if any.
type ReloadFunc func(ctx context.Context, redirect string, opts ...editor.Option) (*editor.Session, error)

// Window shows a Session and routes input to it.
type Window struct {
	title    string
	theme    *theme.Theme
	notifier *notify.Notifier
	reload   ReloadFunc
	copy     func(image.Image) error
	log      logrus.FieldLogger
	keys     keymap
	updateCh chan struct{}
}

// Option configures a Window.
type Option func(*Window)

// WithTheme sets the colours.
func WithTheme(t *theme.Theme) Option { return func(w *Window) { w.theme = t } }

// WithNotifier enables desktop notifications after save, restore and copy.
func WithNotifier(n *notify.Notifier) Option { return func(w *Window) { w.notifier = n } }

// WithReload sets how the image is fetched again after save or restore.
func WithReload(fn ReloadFunc) Option { return func(w *Window) { w.reload = fn } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(w *Window) { w.title = title } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(w *Window) { w.log = l } }

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(image.Image) error) Option { return func(w *Window) { w.copy = fn } }

// NewWindow returns a Window. Pass its SessionChanged method to
// editor.WithChangeListener so that session updates repaint the window.
func NewWindow(opts ...Option) *Window {
	w := &Window{
		title:    "Annotator",
		theme:    theme.Default(),
		copy:     defaultCopy,
		log:      logrus.StandardLogger(),
		keys:     defaultKeymap(),
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// SessionChanged requests a repaint. It never blocks.
func (w *Window) SessionChanged(editor.Event) {
	select {
	case w.updateCh <- struct{}{}:
	default:
	}
}

// Run opens the window and blocks until it is closed.
func (w *Window) Run(ctx context.Context, sess *editor.Session) {
	driver.Main(func(s screen.Screen) { w.main(ctx, s, sess) })
}

func (w *Window) main(ctx context.Context, s screen.Screen, sess *editor.Session) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tb := layoutToolbar()
	width, height := defaultWidth, defaultHeight
	if b := sess.Status().Bounds; !b.Empty() {
		width = max(b.Dx(), tb.width())
		height = b.Dy() + toolbarHeight + statusHeight
	}
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: w.title})
	if err != nil {
		w.log.WithField("error", err).Error("new window")
		return
	}
	defer win.Release()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-w.updateCh:
				win.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()

	c := &controller{
		ctx:      ctx,
		sess:     sess,
		send:     win.Send,
		reload:   w.reload,
		notifier: w.notifier,
		copy:     w.copy,
		log:      w.log,
		listener: w.SessionChanged,
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan frame, 1)
	defer close(paintCh)
	go func() {
		for f := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			w.paint(pctx, s, win, f)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	var hover image.Point
	var inCanvas bool
	for {
		switch e := win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				leave(c.sess)
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			win.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			f := frame{
				width:   width,
				height:  height,
				view:    c.sess.View(),
				status:  c.sess.Status(),
				toolbar: tb,
				hover:   hover,
				message: c.message,
				isError: c.isError,
				armed:   c.gate.pending(),
				theme:   w.theme,
			}
			select {
			case paintCh <- f:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- f
			}
		case requestDone:
			c.finish(e)
			win.Send(paint.Event{})
		case sessionLoaded:
			c.replace(e)
			win.Send(paint.Event{})
		case mouse.Event:
			hover = image.Pt(int(e.X), int(e.Y))
			v := fitCanvas(c.sess.Status().Bounds, width, height)
			if e.Y < toolbarHeight {
				if inCanvas {
					leave(c.sess)
					inCanvas = false
				}
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					if a, col := tb.hit(hover); a != "" {
						if !c.perform(a) {
							stopPaint()
							return
						}
					} else if col != nil {
						c.pickColor(*col)
					}
				}
				win.Send(paint.Event{})
				continue
			}
			inside := hover.In(v.area)
			if inCanvas && !inside {
				leave(c.sess)
			}
			inCanvas = inside
			if !inside {
				continue
			}
			p := v.toImage(e.X, e.Y)
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				c.gate.reset()
				if v.contains(e.X, e.Y) {
					ignore(c, c.sess.PointerDown(p))
				}
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				ignore(c, c.sess.PointerUp(p))
			case e.Direction == mouse.DirNone:
				ignore(c, c.sess.PointerMove(p))
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			a, ok := w.keys.resolve(e)
			if !ok {
				continue
			}
			if !c.perform(a) {
				stopPaint()
				return
			}
			win.Send(paint.Event{})
		case error:
			w.log.WithField("error", e).Error("window event")
		}
	}
}

func (w *Window) paint(ctx context.Context, s screen.Screen, win screen.Window, f frame) {
	b, err := s.NewBuffer(image.Point{f.width, f.height})
	if err != nil {
		w.log.WithField("error", err).Error("new buffer")
		return
	}
	defer b.Release()
	if !drawFrame(ctx, b.RGBA(), f) {
		return
	}
	win.Upload(image.Point{}, b, b.Bounds())
	win.Publish()
}

func leave(sess *editor.Session) {
	_ = sess.PointerLeave()
}

// ignore logs pointer errors; they only occur before the image has loaded.
func ignore(c *controller, err error) {
	if err != nil {
		c.log.WithField("error", err).Debug("pointer event ignored")
	}
}

