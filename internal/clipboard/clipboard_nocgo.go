//go:build !cgo && !windows

package clipboard

import (
	"image"
	"sync"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if needsDisplay() && !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = errCGODisabled
	})
	return initErr
}

// WriteImage reports that the clipboard is unavailable in this build.
func WriteImage(image.Image) error { return ensureInit() }

// WriteText reports that the clipboard is unavailable in this build.
func WriteText(string) error { return ensureInit() }
