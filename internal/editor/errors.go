package editor

import (
	"errors"
	"fmt"
)

var (
	ErrNotReady        = errors.New("session is not ready")
	ErrEmptyImage      = errors.New("image has no pixels")
	ErrBusyGesture     = errors.New("a pointer gesture is in progress")
	ErrNoCropRegion    = errors.New("no crop region selected")
	ErrEmptyCropRegion = errors.New("crop region has no area")
	ErrRequestInFlight = errors.New("a save or restore request is already in progress")
	ErrNotConfirmed    = errors.New("action not confirmed")
	ErrNoPersister     = errors.New("no persistence endpoint configured")
	ErrCorruptHistory  = errors.New("history entry could not be decoded")
	ErrAlreadyLoaded   = errors.New("session already loaded")
)

// ServerMessager is implemented by errors carrying a message reported by the
// persistence endpoint.
type ServerMessager interface {
	ServerMessage() string
}

// RequestError reports a failed save or restore call. The canvas and history
// are unaffected by it.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string { return fmt.Sprintf("%s image: %v", e.Op, e.Err) }

func (e *RequestError) Unwrap() error { return e.Err }

// UserMessage is the text to show the user for this failure.
func (e *RequestError) UserMessage() string {
	var sm ServerMessager
	if errors.As(e.Err, &sm) {
		if e.Op == "save" {
			return "Error saving image: " + sm.ServerMessage()
		}
		return "Error: " + sm.ServerMessage()
	}
	if e.Op == "save" {
		return "An error occurred while saving the image."
	}
	return "An unexpected error occurred."
}
