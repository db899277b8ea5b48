// Package viewport maps between screen pixels and image-space coordinates
// under pan and zoom.
package viewport

import (
	"math"

	"golang.org/x/image/math/f64"
)

const (
	// MinScale and MaxScale bound the zoom factor.
	MinScale = 0.1
	MaxScale = 10.0
	// ZoomStep is the relative change applied per wheel notch.
	ZoomStep = 0.1
	// FitMargin is the padding, in screen pixels, kept around a freshly
	// loaded image.
	FitMargin = 40.0
)

// Point is a coordinate pair. Whether it is in image or screen space depends
// on where it came from.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Viewport is the affine transform screen = image*Scale + Pan.
type Viewport struct {
	Scale float64
	PanX  float64
	PanY  float64
}

// Identity returns a viewport with no zoom or pan.
func Identity() Viewport { return Viewport{Scale: 1} }

// ToImageSpace converts a screen point into image space.
func (v Viewport) ToImageSpace(screen Point) Point {
	return Point{
		X: (screen.X - v.PanX) / v.Scale,
		Y: (screen.Y - v.PanY) / v.Scale,
	}
}

// ToScreenSpace converts an image-space point into screen pixels.
func (v Viewport) ToScreenSpace(img Point) Point {
	return Point{
		X: img.X*v.Scale + v.PanX,
		Y: img.Y*v.Scale + v.PanY,
	}
}

// ImageWidth converts a length measured on screen to image space.
func (v Viewport) ImageWidth(screenWidth float64) float64 { return screenWidth / v.Scale }

// ScreenWidth converts an image-space length to screen pixels.
func (v Viewport) ScreenWidth(imageWidth float64) float64 { return imageWidth * v.Scale }

// ZoomAt scales the viewport by one step in the given direction while keeping
// the image point under screen fixed. Positive directions zoom in, negative
// zoom out and zero leaves the viewport untouched.
func (v Viewport) ZoomAt(screen Point, direction float64) Viewport {
	if direction == 0 || v.Scale <= 0 {
		return v
	}
	factor := 1 + ZoomStep*sign(direction)
	next := ClampScale(v.Scale * factor)
	ratio := next / v.Scale
	return Viewport{
		Scale: next,
		PanX:  screen.X - (screen.X-v.PanX)*ratio,
		PanY:  screen.Y - (screen.Y-v.PanY)*ratio,
	}
}

// PanBy translates the viewport. Panning is never clamped so the image may be
// moved entirely off screen.
func (v Viewport) PanBy(dx, dy float64) Viewport {
	v.PanX += dx
	v.PanY += dy
	return v
}

// Fit returns a viewport that shows an imageW×imageH raster centred inside a
// containerW×containerH area, never enlarging past 100%.
func Fit(imageW, imageH, containerW, containerH, margin float64) Viewport {
	if imageW <= 0 || imageH <= 0 {
		return Identity()
	}
	scale := math.Min(math.Min((containerW-margin)/imageW, (containerH-margin)/imageH), 1)
	scale = ClampScale(scale)
	return Viewport{
		Scale: scale,
		PanX:  (containerW - imageW*scale) / 2,
		PanY:  (containerH - imageH*scale) / 2,
	}
}

// Affine returns the image→screen transform in the layout expected by
// golang.org/x/image/draw.Transformer.
func (v Viewport) Affine() f64.Aff3 {
	return f64.Aff3{
		v.Scale, 0, v.PanX,
		0, v.Scale, v.PanY,
	}
}

// ClampScale limits s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return MinScale
	}
	return math.Max(MinScale, math.Min(s, MaxScale))
}

func sign(f float64) float64 {
	if f > 0 {
		return 1
	}
	if f < 0 {
		return -1
	}
	return 0
}
