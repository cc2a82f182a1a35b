package editor

import "image"

// EventKind identifies what changed in a Session.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventLoadFailed
	EventCanvas
	EventHistory
	EventTool
	EventBrush
	EventCrop
	EventRequest
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load-failed"
	case EventCanvas:
		return "canvas"
	case EventHistory:
		return "history"
	case EventTool:
		return "tool"
	case EventBrush:
		return "brush"
	case EventCrop:
		return "crop"
	case EventRequest:
		return "request"
	}
	return "unknown"
}

// Event is delivered to change listeners with the status at the time of
// the change.
type Event struct {
	Kind   EventKind
	Status Status
}

// Status is a point-in-time view of a Session.
type Status struct {
	State        State
	Tool         Tool
	Brush        Brush
	Gesture      Gesture
	Crop         *CropRegion
	Bounds       image.Rectangle
	HistoryLen   int
	HistoryIndex int
	CanUndo      bool
	CanRedo      bool
	CropPending  bool
	Busy         bool
	Cursor       string
}
