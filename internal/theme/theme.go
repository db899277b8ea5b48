package theme

import (
	"image/color"
)

// Theme defines the colours used to paint the editor window.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // Behind the canvas when the checkerboard is off screen
	Foreground color.RGBA

	// Status bar
	StatusBackground color.RGBA
	StatusText       color.RGBA
	ErrorText        color.RGBA

	// Transient messages and the processing overlay
	MessageBackground color.RGBA
	MessageBorder     color.RGBA
	Overlay           color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
	BrushOutline color.RGBA
	BrushShadow  color.RGBA
	WipeHandle   color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		StatusBackground:  color.RGBA{235, 235, 235, 255},
		StatusText:        color.RGBA{0, 0, 0, 255},
		ErrorText:         color.RGBA{176, 0, 32, 255},
		MessageBackground: color.RGBA{255, 255, 255, 230},
		MessageBorder:     color.RGBA{0, 0, 0, 255},
		Overlay:           color.RGBA{0, 0, 0, 96},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
		BrushOutline:      color.RGBA{255, 255, 255, 255},
		BrushShadow:       color.RGBA{0, 0, 0, 160},
		WipeHandle:        color.RGBA{255, 255, 255, 255},
	}
}

// Clone returns a copy of t.
func (t *Theme) Clone() *Theme {
	c := *t
	return &c
}
