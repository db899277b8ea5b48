// Package render rasterises masks over images and composes the editor frame.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"

	"github.com/example/maskeraser/internal/mask"
)

// Mask colours. The preview is translucent so the user can still see what is
// under the brush; the transmission copy is opaque so the backend sees a
// solid region.
var (
	PreviewColor      = color.NRGBA{R: 255, A: 128}
	TransmissionColor = color.NRGBA{R: 255, A: 255}
)

// Preview draws the source with every stroke painted in translucent red.
// Overlapping strokes compound.
func Preview(src image.Image, m mask.Mask) *image.NRGBA {
	return paint(src, m, PreviewColor)
}

// Transmission draws the source with every stroke painted in opaque red. It is
// the raster sent to the backend and is never shown.
func Transmission(src image.Image, m mask.Mask) *image.NRGBA {
	return paint(src, m, TransmissionColor)
}

func paint(src image.Image, m mask.Mask, col color.NRGBA) *image.NRGBA {
	if len(m) == 0 {
		return ToNRGBA(src)
	}
	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)
	dc := gg.NewContextForRGBA(canvas)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetColor(col)
	for _, s := range m {
		strokePath(dc, s)
	}
	return ToNRGBA(canvas)
}

func strokePath(dc *gg.Context, s mask.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	if len(s.Points) == 1 {
		p := s.Points[0]
		dc.DrawCircle(p.X, p.Y, s.Width/2)
		dc.Fill()
		return
	}
	dc.SetLineWidth(s.Width)
	dc.MoveTo(s.Points[0].X, s.Points[0].Y)
	for _, p := range s.Points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// ToNRGBA returns a zero-origin NRGBA copy of img.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
