// Package compare implements the before/after wipe shown once an edit comes
// back from the backend.
package compare

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultPosition puts the boundary in the middle.
const DefaultPosition = 50.0

// HandleWidth is the thickness of the boundary line in screen pixels.
const HandleWidth = 2

// Wipe holds the boundary position as a percentage of the image width.
type Wipe struct {
	position float64
}

// New returns a wipe centred at DefaultPosition.
func New() *Wipe { return &Wipe{position: DefaultPosition} }

// Position returns the boundary in [0, 100].
func (w *Wipe) Position() float64 { return w.position }

// SetPosition moves the boundary, clamping to [0, 100].
func (w *Wipe) SetPosition(p float64) {
	if math.IsNaN(p) {
		return
	}
	w.position = math.Max(0, math.Min(100, p))
}

// Nudge moves the boundary by delta percentage points.
func (w *Wipe) Nudge(delta float64) { w.SetPosition(w.position + delta) }

// Reset returns the boundary to the middle.
func (w *Wipe) Reset() { w.position = DefaultPosition }

// DragTo sets the boundary from a pointer x inside a span starting at left
// and width pixels wide.
func (w *Wipe) DragTo(x, left, width float64) {
	if width <= 0 {
		return
	}
	w.SetPosition((x - left) / width * 100)
}

// Boundary returns the column inside a span of the given width where the
// result starts.
func Boundary(width int, position float64) int {
	return int(math.Round(float64(width) * position / 100))
}

// Render composes before and after side by side at before's size. Columns
// left of the boundary come from before and the rest from after. An after
// image of a different size is scaled to fit inside before's frame and
// centred, leaving transparent bars where the aspect ratios differ.
func Render(before, after image.Image, position float64) *image.NRGBA {
	bb := before.Bounds()
	w, h := bb.Dx(), bb.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	fitted := Fit(after, w, h)
	split := Boundary(w, math.Max(0, math.Min(100, position)))

	draw.Draw(out, image.Rect(split, 0, w, h), fitted, image.Pt(split, 0), draw.Src)
	draw.Draw(out, image.Rect(0, 0, split, h), before, bb.Min, draw.Src)
	return out
}

// Fit scales img to fit inside w×h preserving aspect ratio and centres it on
// a transparent canvas of exactly w×h. Images already w×h are returned as a
// zero-origin copy.
func Fit(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(img)
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	if b.Dx() == 0 || b.Dy() == 0 || w == 0 || h == 0 {
		return canvas
	}
	s := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	fw := max(1, int(math.Round(float64(b.Dx())*s)))
	fh := max(1, int(math.Round(float64(b.Dy())*s)))
	scaled := imaging.Resize(img, fw, fh, imaging.Lanczos)
	return imaging.Paste(canvas, scaled, image.Pt((w-fw)/2, (h-fh)/2))
}

// DrawHandle paints the boundary line over r, which is where the composed
// image appears on screen.
func DrawHandle(dst draw.Image, r image.Rectangle, position float64, col color.Color) {
	x := r.Min.X + Boundary(r.Dx(), position)
	line := image.Rect(x-HandleWidth/2, r.Min.Y, x-HandleWidth/2+HandleWidth, r.Max.Y).Intersect(dst.Bounds())
	draw.Draw(dst, line, image.NewUniform(col), image.Point{}, draw.Src)
}
