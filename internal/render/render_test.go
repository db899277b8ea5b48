package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/theme"
	"github.com/example/maskeraser/internal/viewport"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func line(width float64, pts ...viewport.Point) mask.Stroke {
	return mask.Stroke{Points: pts, Width: width}
}

func TestOutputsKeepSourceSize(t *testing.T) {
	src := solid(800, 600, color.White)
	m := mask.Mask{line(60, viewport.Pt(-50, -50), viewport.Pt(2000, 2000))}

	assert.Equal(t, src.Bounds(), Preview(src, m).Bounds())
	assert.Equal(t, src.Bounds(), Transmission(src, m).Bounds())
}

func TestOffsetSourceIsRebased(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 50, 60))
	out := Transmission(src, mask.Mask{line(4, viewport.Pt(1, 1))})
	assert.Equal(t, image.Rect(0, 0, 40, 40), out.Bounds())
}

func TestTransmissionIsOpaqueRed(t *testing.T) {
	src := solid(100, 100, color.White)
	out := Transmission(src, mask.Mask{line(20, viewport.Pt(20, 50), viewport.Pt(80, 50))})

	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(50, 50))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(50, 5))
	// round caps extend past the end points by half the width
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(85, 50))
}

func TestPreviewIsTranslucentAndCompounds(t *testing.T) {
	src := solid(100, 100, color.White)
	one := Preview(src, mask.Mask{line(20, viewport.Pt(10, 50), viewport.Pt(90, 50))})
	two := Preview(src, mask.Mask{
		line(20, viewport.Pt(10, 50), viewport.Pt(90, 50)),
		line(20, viewport.Pt(50, 10), viewport.Pt(50, 90)),
	})

	c := one.NRGBAAt(30, 50)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.A)
	assert.InDelta(t, 127, int(c.G), 3)

	single := two.NRGBAAt(30, 50)
	crossed := two.NRGBAAt(50, 50)
	assert.InDelta(t, int(single.G), int(c.G), 1)
	assert.Less(t, crossed.G, single.G)
	assert.InDelta(t, 64, int(crossed.G), 4)
}

func TestSinglePointIsFilledCircle(t *testing.T) {
	src := solid(50, 50, color.White)
	out := Transmission(src, mask.Mask{line(20, viewport.Pt(25, 25))})

	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(25, 25))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(25, 17))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(25, 3))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(33, 33))
}

func TestEmptyMaskReturnsSourceCopy(t *testing.T) {
	src := solid(10, 10, color.NRGBA{1, 2, 3, 255})
	out := Preview(src, nil)
	assert.Equal(t, src.Pix, out.Pix)
	out.Pix[0] = 99
	assert.Equal(t, uint8(1), src.Pix[0])
}

func TestRenderingIsDeterministic(t *testing.T) {
	src := solid(64, 64, color.NRGBA{10, 120, 200, 255})
	m := mask.Mask{
		line(7.5, viewport.Pt(3, 3), viewport.Pt(40.25, 17), viewport.Pt(12, 60)),
		line(3, viewport.Pt(33, 33)),
	}
	a, err := EncodePNG(Transmission(src, m))
	require.NoError(t, err)
	b, err := EncodePNG(Transmission(src, m))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodePNGDecodes(t *testing.T) {
	src := solid(4, 3, color.NRGBA{0, 0, 255, 255})
	data, err := EncodePNG(src)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestFrameDrawsThroughViewport(t *testing.T) {
	th := theme.Default()
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	img := solid(10, 10, color.NRGBA{0, 0, 255, 255})
	vp := viewport.Viewport{Scale: 2, PanX: 30, PanY: 40}

	Frame(dst, img, vp, th)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, dst.RGBAAt(30, 40))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, dst.RGBAAt(49, 59))
	assert.Equal(t, th.Background, dst.RGBAAt(50, 60))
	assert.Equal(t, th.Background, dst.RGBAAt(5, 5))
}

func TestFrameShowsCheckerboardBehindTransparency(t *testing.T) {
	th := theme.Default()
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))

	Frame(dst, img, viewport.Identity(), th)

	assert.Equal(t, th.CheckerLight, dst.RGBAAt(0, 0))
	assert.Equal(t, th.CheckerDark, dst.RGBAAt(CheckerSize, 0))
	assert.Equal(t, th.Background, dst.RGBAAt(40, 40))
}

func TestBrushCursorLeavesCentreUntouched(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	BrushCursor(dst, viewport.Pt(20, 20), 20, nil)
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(20, 20))
	assert.NotEqual(t, color.RGBA{}, dst.RGBAAt(30, 20))
}

func TestImageRect(t *testing.T) {
	r := ImageRect(10, 5, viewport.Viewport{Scale: 1.5, PanX: -2, PanY: 3})
	assert.Equal(t, image.Rect(-2, 3, 13, 11), r)
}
