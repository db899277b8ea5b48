package mask

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maskeraser/internal/viewport"
)

func paint(r *Recorder, vp viewport.Viewport, brush float64, pts ...viewport.Point) {
	r.PointerDown(pts[0], ToolBrush, ButtonPrimary, vp, brush)
	for _, p := range pts[1:] {
		r.PointerMove(p, vp)
	}
	r.PointerUp()
}

func TestBrushStrokeIsRecordedInImageSpace(t *testing.T) {
	vp := viewport.Viewport{Scale: 2, PanX: 10, PanY: 20}
	r := NewRecorder()

	paint(r, vp, 30, viewport.Pt(10, 20), viewport.Pt(30, 40), viewport.Pt(30, 40))

	m := r.Mask()
	require.Len(t, m, 1)
	assert.Equal(t, 15.0, m[0].Width)
	// duplicates are kept
	assert.Equal(t, []viewport.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 10}}, m[0].Points)
	assert.Equal(t, 1, r.UndoDepth())
	assert.Equal(t, Idle, r.State())
}

func TestStrokeWidthUsesScaleAtCreation(t *testing.T) {
	r := NewRecorder()
	vp := viewport.Viewport{Scale: 0.5}
	r.PointerDown(viewport.Pt(0, 0), ToolBrush, ButtonPrimary, vp, 30)
	r.PointerMove(viewport.Pt(5, 5), viewport.Viewport{Scale: 4})
	r.PointerUp()
	assert.Equal(t, 60.0, r.Mask()[0].Width)
}

func TestSinglePointStroke(t *testing.T) {
	r := NewRecorder()
	r.PointerDown(viewport.Pt(4, 4), ToolBrush, ButtonPrimary, viewport.Identity(), 10)
	r.PointerUp()
	m := r.Mask()
	require.Len(t, m, 1)
	assert.Len(t, m[0].Points, 1)
}

func TestUndoRestoresPreviousStrokeCount(t *testing.T) {
	r := NewRecorder()
	vp := viewport.Identity()
	for i := 0; i < 3; i++ {
		paint(r, vp, 10, viewport.Pt(float64(i), 0), viewport.Pt(float64(i), 5))
	}
	require.Equal(t, 3, r.Len())
	for want := 2; want >= 0; want-- {
		require.True(t, r.Undo())
		assert.Equal(t, want, r.Len())
	}
	assert.False(t, r.Undo())
	assert.Equal(t, 0, r.Len())
}

func TestResetOnlyRecordsWhenNonEmpty(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.Reset())
	assert.Equal(t, 0, r.UndoDepth())

	paint(r, viewport.Identity(), 10, viewport.Pt(1, 1))
	paint(r, viewport.Identity(), 10, viewport.Pt(2, 2))
	before := r.Mask()

	require.True(t, r.Reset())
	assert.True(t, r.Empty())
	require.True(t, r.Undo())
	assert.Equal(t, before, r.Mask())
}

func TestSnapshotsAreNotAliased(t *testing.T) {
	r := NewRecorder()
	vp := viewport.Identity()
	paint(r, vp, 10, viewport.Pt(0, 0), viewport.Pt(1, 1))

	snap := r.Mask()
	snap[0].Points[0] = viewport.Pt(99, 99)

	r.PointerDown(viewport.Pt(5, 5), ToolBrush, ButtonPrimary, vp, 10)
	r.PointerMove(viewport.Pt(6, 6), vp)
	r.PointerUp()
	require.True(t, r.Undo())

	m := r.Mask()
	require.Len(t, m, 1)
	assert.Equal(t, viewport.Pt(0, 0), m[0].Points[0])
	assert.Len(t, m[0].Points, 2)
}

func TestHandToolPans(t *testing.T) {
	r := NewRecorder()
	vp := viewport.Identity()
	r.PointerDown(viewport.Pt(10, 10), ToolHand, ButtonPrimary, vp, 30)
	require.Equal(t, Panning, r.State())

	vp, moved := r.PointerMove(viewport.Pt(15, 7), vp)
	require.True(t, moved)
	vp, _ = r.PointerMove(viewport.Pt(20, 7), vp)
	r.PointerUp()

	assert.Equal(t, 10.0, vp.PanX)
	assert.Equal(t, -3.0, vp.PanY)
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.UndoDepth())
}

func TestMiddleButtonPansWithBrush(t *testing.T) {
	r := NewRecorder()
	r.PointerDown(viewport.Pt(0, 0), ToolBrush, ButtonMiddle, viewport.Identity(), 30)
	assert.Equal(t, Panning, r.State())
	assert.True(t, r.Empty())
}

func TestSecondaryButtonDoesNothing(t *testing.T) {
	r := NewRecorder()
	r.PointerDown(viewport.Pt(0, 0), ToolBrush, ButtonSecondary, viewport.Identity(), 30)
	assert.Equal(t, Idle, r.State())
	assert.True(t, r.Empty())
}

func TestPointerDownIgnoredWhileActive(t *testing.T) {
	r := NewRecorder()
	vp := viewport.Identity()
	r.PointerDown(viewport.Pt(0, 0), ToolBrush, ButtonPrimary, vp, 30)
	r.PointerDown(viewport.Pt(9, 9), ToolHand, ButtonPrimary, vp, 30)
	assert.Equal(t, Drawing, r.State())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.UndoDepth())
}

func TestMoveWhileIdleIsNoop(t *testing.T) {
	r := NewRecorder()
	vp, moved := r.PointerMove(viewport.Pt(3, 3), viewport.Identity())
	assert.False(t, moved)
	assert.Equal(t, viewport.Identity(), vp)
	assert.True(t, r.Empty())
}

func TestClearDropsHistory(t *testing.T) {
	r := NewRecorder()
	paint(r, viewport.Identity(), 10, viewport.Pt(1, 1))
	r.Clear()
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.UndoDepth())
	assert.False(t, r.Undo())
}

func TestBounds(t *testing.T) {
	_, _, ok := Mask{}.Bounds()
	assert.False(t, ok)

	m := Mask{
		{Points: []viewport.Point{{X: 10, Y: 10}, {X: 20, Y: 5}}, Width: 4},
		{Points: []viewport.Point{{X: 0, Y: 30}}, Width: 2},
	}
	min, max, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, viewport.Pt(-1, 3), min)
	assert.Equal(t, viewport.Pt(22, 31), max)
}

func TestJSONRoundTrip(t *testing.T) {
	in := `[{"points":[[1,2],[3.5,4]],"width":12}]`
	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, []viewport.Point{{X: 1, Y: 2}, {X: 3.5, Y: 4}}, m[0].Points)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))
	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestDecodeRejectsBadStrokes(t *testing.T) {
	for _, in := range []string{
		`[{"points":[],"width":3}]`,
		`[{"points":[[1,1]],"width":0}]`,
		`{"points":[]}`,
	} {
		_, err := Decode(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}
