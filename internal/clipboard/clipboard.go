// Package clipboard publishes the edited image to the system clipboard.
package clipboard

import (
	"errors"
	"os"
	"runtime"
)

var (
	errNoDisplay   = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	errCGODisabled = errors.New("clipboard operations require cgo support")
)

// needsDisplay reports whether the platform clipboard lives on an X11 or
// Wayland server.
func needsDisplay() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return false
	}
	return true
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
