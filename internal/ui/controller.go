package ui

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/notify"
)

// requestDone is posted back to the event loop when a save or restore
// call returns.
type requestDone struct {
	op       string
	redirect string
	err      error
}

// sessionLoaded is posted when a reload after save or restore finishes.
type sessionLoaded struct {
	sess *editor.Session
	err  error
}

const (
	savedMessage    = "Image saved successfully!"
	restoredMessage = "Original image restored."
	copiedMessage   = "Image copied to clipboard"

	nothingRestoredMessage = "Nothing to restore."
)

// controller turns user actions into session calls. It is only used from
// the window's event goroutine; slow work runs in goroutines that report
// back through send.
type controller struct {
	ctx      context.Context
	sess     *editor.Session
	gate     confirmGate
	message  string
	isError  bool
	send     func(any)
	reload   ReloadFunc
	notifier *notify.Notifier
	copy     func(image.Image) error
	log      logrus.FieldLogger
	listener func(editor.Event)
}

func (c *controller) setMessage(msg string, isErr bool) {
	c.message = msg
	c.isError = isErr
}

// perform runs a. It reports false when the window should close.
func (c *controller) perform(a action) bool {
	if a != actClear && a != actRestore {
		c.gate.reset()
	}
	switch a {
	case actBrush:
		c.setTool(editor.ToolBrush)
	case actEraser:
		c.setTool(editor.ToolEraser)
	case actCrop:
		c.setTool(editor.ToolCrop)
	case actApplyCrop:
		if err := c.sess.ApplyCrop(); err != nil {
			c.setMessage(cropMessage(err), true)
		} else {
			c.setMessage("", false)
		}
	case actCancel:
		c.sess.CancelCrop()
		c.setMessage("", false)
	case actUndo:
		c.sess.Undo()
	case actRedo:
		c.sess.Redo()
	case actClear:
		c.clear()
	case actSave:
		c.save()
	case actRestore:
		c.restore()
	case actCopy:
		c.copyCanvas()
	case actSmaller:
		c.sess.SetBrushSize(nextBrushSize(c.sess.Status().Brush.Size, -1))
	case actLarger:
		c.sess.SetBrushSize(nextBrushSize(c.sess.Status().Brush.Size, 1))
	case actQuit:
		return false
	}
	return true
}

func (c *controller) setTool(t editor.Tool) {
	if err := c.sess.SetTool(t); err != nil {
		c.log.WithField("error", err).Debug("tool change ignored")
	}
}

func (c *controller) pickColor(col color.RGBA) {
	c.gate.reset()
	c.sess.SetBrushColor(col)
}

func cropMessage(err error) string {
	switch {
	case errors.Is(err, editor.ErrNoCropRegion):
		return "Drag on the image to select an area first"
	case errors.Is(err, editor.ErrEmptyCropRegion):
		return "Selection is too small to crop"
	}
	return err.Error()
}

func (c *controller) clear() {
	err := c.sess.ClearAll(&c.gate)
	switch {
	case errors.Is(err, editor.ErrNotConfirmed):
		c.setMessage(editor.ClearPrompt+" Press again to confirm.", false)
	case err != nil:
		c.setMessage(err.Error(), true)
	default:
		c.setMessage("", false)
	}
}

func (c *controller) save() {
	if c.sess.Busy() {
		return
	}
	c.setMessage("Saving...", false)
	sess := c.sess
	go func() {
		err := sess.Save(c.ctx)
		c.send(requestDone{op: "save", err: err})
	}()
}

func (c *controller) restore() {
	if c.sess.Busy() {
		return
	}
	if !c.gate.Confirm(editor.RestorePrompt) {
		c.setMessage(editor.RestorePrompt+" Press again to confirm.", false)
		return
	}
	c.setMessage("Restoring...", false)
	sess := c.sess
	go func() {
		redirect, err := sess.RestoreOriginal(c.ctx, editor.Always)
		c.send(requestDone{op: "restore", redirect: redirect, err: err})
	}()
}

func (c *controller) copyCanvas() {
	if c.copy == nil {
		return
	}
	if err := c.copy(c.sess.Canvas()); err != nil {
		c.setMessage("Copy failed: "+err.Error(), true)
		return
	}
	c.setMessage(copiedMessage, false)
	if c.notifier != nil {
		c.notifier.Copy(copiedMessage)
	}
}

// finish handles the result of a save or restore.
func (c *controller) finish(d requestDone) {
	if d.err != nil {
		var re *editor.RequestError
		if errors.As(d.err, &re) {
			c.setMessage(re.UserMessage(), true)
		} else {
			c.setMessage(d.err.Error(), true)
		}
		c.log.WithField("error", d.err).Errorf("%s failed", d.op)
		return
	}
	switch d.op {
	case "save":
		c.setMessage(savedMessage, false)
		if c.notifier != nil {
			c.notifier.Save(savedMessage, c.sess.Canvas())
		}
	case "restore":
		msg := restoredMessage
		if d.redirect == "" {
			msg = nothingRestoredMessage
		}
		c.setMessage(msg, false)
		if c.notifier != nil {
			c.notifier.Restore(msg)
		}
	}
	c.startReload(d.redirect)
}

func (c *controller) startReload(redirect string) {
	if c.reload == nil {
		return
	}
	brush := c.sess.Status().Brush
	go func() {
		sess, err := c.reload(c.ctx, redirect, editor.WithBrush(brush), editor.WithChangeListener(c.listener))
		c.send(sessionLoaded{sess: sess, err: err})
	}()
}

func (c *controller) replace(l sessionLoaded) {
	if l.err != nil {
		c.log.WithField("error", l.err).Error("reload failed")
		c.setMessage("Reload failed: "+l.err.Error(), true)
		return
	}
	c.sess = l.sess
}

// defaultCopy writes to the system clipboard.
func defaultCopy(img image.Image) error { return clipboard.WriteImage(img) }
