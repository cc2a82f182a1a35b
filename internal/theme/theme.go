package theme

import (
	"image/color"
)

// Theme is the colour palette of the editor window.
type Theme struct {
	Name string

	Background color.RGBA // behind the canvas
	Foreground color.RGBA

	ToolbarBackground color.RGBA
	ButtonBackground  color.RGBA
	ButtonActive      color.RGBA // selected tool, armed confirmation
	ButtonDisabled    color.RGBA
	ButtonText        color.RGBA
	ButtonBorder      color.RGBA

	StatusBackground color.RGBA
	StatusText       color.RGBA
	StatusError      color.RGBA

	// Transparent pixels are shown over a checkerboard.
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		ToolbarBackground: color.RGBA{220, 220, 220, 255},
		ButtonBackground:  color.RGBA{200, 200, 200, 255},
		ButtonActive:      color.RGBA{150, 150, 150, 255},
		ButtonDisabled:    color.RGBA{230, 230, 230, 255},
		ButtonText:        color.RGBA{0, 0, 0, 255},
		ButtonBorder:      color.RGBA{0, 0, 0, 255},
		StatusBackground:  color.RGBA{235, 235, 235, 255},
		StatusText:        color.RGBA{0, 0, 0, 255},
		StatusError:       color.RGBA{176, 0, 32, 255},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
	}
}
