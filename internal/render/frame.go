package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/example/maskeraser/internal/theme"
	"github.com/example/maskeraser/internal/viewport"
)

// CheckerSize is the edge of one checkerboard square in screen pixels.
const CheckerSize = 8

// DrawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func DrawCheckerboard(dst draw.Image, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

type backdrop struct {
	mu          sync.Mutex
	img         *image.RGBA
	light, dark color.RGBA
}

var checker backdrop

// drawBackdrop copies the cached checkerboard into rect of dst, rebuilding the
// cache when the window size or colours change.
func drawBackdrop(dst *image.RGBA, rect image.Rectangle, th *theme.Theme) {
	checker.mu.Lock()
	defer checker.mu.Unlock()
	b := dst.Bounds()
	if checker.img == nil || checker.img.Bounds() != b || checker.light != th.CheckerLight || checker.dark != th.CheckerDark {
		checker.img = image.NewRGBA(b)
		checker.light, checker.dark = th.CheckerLight, th.CheckerDark
		DrawCheckerboard(checker.img, b, CheckerSize, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, rect.Intersect(b), checker.img, rect.Intersect(b).Min, draw.Src)
}

// ImageRect returns the on-screen rectangle covered by a w×h image.
func ImageRect(w, h int, vp viewport.Viewport) image.Rectangle {
	tl := vp.ToScreenSpace(viewport.Pt(0, 0))
	br := vp.ToScreenSpace(viewport.Pt(float64(w), float64(h)))
	return image.Rect(
		int(math.Floor(tl.X)), int(math.Floor(tl.Y)),
		int(math.Ceil(br.X)), int(math.Ceil(br.Y)),
	)
}

// Frame paints img into dst through vp. The area behind the image shows the
// transparency checkerboard and the rest of dst is filled with the theme
// background.
func Frame(dst *image.RGBA, img image.Image, vp viewport.Viewport, th *theme.Theme) {
	if th == nil {
		th = theme.Default()
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)
	if img == nil {
		return
	}
	ib := img.Bounds()
	area := ImageRect(ib.Dx(), ib.Dy(), vp).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	drawBackdrop(dst, area, th)

	m := vp.Affine()
	m[2] -= float64(ib.Min.X) * vp.Scale
	m[5] -= float64(ib.Min.Y) * vp.Scale
	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if vp.Scale < 1 {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(dst, m, img, ib, draw.Over, nil)
}

// BrushCursor outlines a circle of the given diameter centred on centre.
func BrushCursor(dst *image.RGBA, centre viewport.Point, diameter float64, th *theme.Theme) {
	if th == nil {
		th = theme.Default()
	}
	r := diameter / 2
	if r < 1 {
		r = 1
	}
	dc := gg.NewContextForRGBA(dst)
	dc.DrawCircle(centre.X, centre.Y, r)
	dc.SetColor(th.BrushShadow)
	dc.SetLineWidth(3)
	dc.Stroke()
	dc.DrawCircle(centre.X, centre.Y, r)
	dc.SetColor(th.BrushOutline)
	dc.SetLineWidth(1)
	dc.Stroke()
}
