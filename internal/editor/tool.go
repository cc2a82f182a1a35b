package editor

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Tool is the active pointer interpretation.
type Tool int

const (
	ToolBrush Tool = iota
	ToolEraser
	ToolCrop
)

func (t Tool) String() string {
	switch t {
	case ToolBrush:
		return "brush"
	case ToolEraser:
		return "eraser"
	case ToolCrop:
		return "crop"
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// Cursor returns the pointer style a front-end should show for the tool.
func (t Tool) Cursor() string {
	if t == ToolCrop {
		return "crosshair"
	}
	return "default"
}

// ParseTool maps a tool name to a Tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brush", "draw", "b":
		return ToolBrush, nil
	case "eraser", "erase", "e":
		return ToolEraser, nil
	case "crop", "c":
		return ToolCrop, nil
	}
	return ToolBrush, fmt.Errorf("unknown tool %q", s)
}

const (
	DefaultBrushSize = 10
	MaxBrushSize     = 200
)

// DefaultBrushColor matches the colour picker's initial value.
var DefaultBrushColor = color.RGBA{A: 255}

// Brush holds the stroke parameters used by ToolBrush and ToolEraser.
type Brush struct {
	Size  int
	Color color.RGBA
}

// DefaultBrush returns a 10px black brush.
func DefaultBrush() Brush { return Brush{Size: DefaultBrushSize, Color: DefaultBrushColor} }

func clampBrushSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBrushSize {
		return MaxBrushSize
	}
	return n
}

// Gesture is the in-progress pointer interaction. Exactly one of
// GestureNone, GestureDrawing or GestureCropping is active.
type Gesture interface{ gesture() }

// GestureNone means no pointer button is held.
type GestureNone struct{}

// GestureDrawing is a brush or eraser stroke; Last is the previous point.
type GestureDrawing struct{ Last image.Point }

// GestureCropping is a crop drag from Start to End.
type GestureCropping struct{ Start, End image.Point }

func (GestureNone) gesture()     {}
func (GestureDrawing) gesture()  {}
func (GestureCropping) gesture() {}

// CropRegion is the bounding box of a proposed elliptical crop.
type CropRegion struct {
	Start, End image.Point
}
