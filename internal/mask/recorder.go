package mask

import "github.com/example/maskeraser/internal/viewport"

// Tool selects what a primary-button drag does.
type Tool int

const (
	ToolBrush Tool = iota
	ToolHand
)

func (t Tool) String() string {
	switch t {
	case ToolBrush:
		return "brush"
	case ToolHand:
		return "hand"
	}
	return "unknown"
}

// Button identifies which pointer button started an interaction.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// State is the recorder's pointer state.
type State int

const (
	Idle State = iota
	Drawing
	Panning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Panning:
		return "panning"
	}
	return "unknown"
}

// Recorder turns pointer gestures into strokes or pan deltas and owns the
// mask together with its undo history.
type Recorder struct {
	mask   Mask
	undo   []Mask
	state  State
	anchor viewport.Point
}

// NewRecorder returns an idle recorder with an empty mask.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// State returns the current pointer state.
func (r *Recorder) State() State { return r.state }

// Mask returns a copy of the current strokes.
func (r *Recorder) Mask() Mask { return r.mask.Clone() }

// Len returns the number of committed strokes.
func (r *Recorder) Len() int { return len(r.mask) }

// Empty reports whether there is nothing painted.
func (r *Recorder) Empty() bool { return len(r.mask) == 0 }

// UndoDepth returns how many snapshots can be restored.
func (r *Recorder) UndoDepth() int { return len(r.undo) }

// PointerDown starts a stroke or a pan. It is ignored unless the recorder is
// idle.
func (r *Recorder) PointerDown(screen viewport.Point, tool Tool, button Button, vp viewport.Viewport, brushSize float64) {
	if r.state != Idle {
		return
	}
	switch {
	case tool == ToolHand || button == ButtonMiddle:
		r.state = Panning
		r.anchor = screen
	case tool == ToolBrush && button == ButtonPrimary:
		r.push()
		r.mask = append(r.mask, Stroke{
			Points: []viewport.Point{vp.ToImageSpace(screen)},
			Width:  vp.ImageWidth(brushSize),
		})
		r.state = Drawing
	}
}

// PointerMove extends the active stroke or pans. When panning it returns the
// moved viewport and true.
func (r *Recorder) PointerMove(screen viewport.Point, vp viewport.Viewport) (viewport.Viewport, bool) {
	switch r.state {
	case Panning:
		d := screen.Sub(r.anchor)
		r.anchor = screen
		return vp.PanBy(d.X, d.Y), true
	case Drawing:
		last := &r.mask[len(r.mask)-1]
		last.Points = append(last.Points, vp.ToImageSpace(screen))
	}
	return vp, false
}

// PointerUp ends whatever gesture is active.
func (r *Recorder) PointerUp() {
	r.state = Idle
}

// Undo restores the previous snapshot. It reports false when there is no
// history.
func (r *Recorder) Undo() bool {
	if len(r.undo) == 0 {
		return false
	}
	r.mask = r.undo[len(r.undo)-1]
	r.undo = r.undo[:len(r.undo)-1]
	return true
}

// Reset clears the mask as an undoable step. Nothing happens when the mask is
// already empty.
func (r *Recorder) Reset() bool {
	if len(r.mask) == 0 {
		return false
	}
	r.push()
	r.mask = nil
	return true
}

// Clear drops the mask and the whole undo history.
func (r *Recorder) Clear() {
	r.mask = nil
	r.undo = nil
	r.state = Idle
}

// Replace installs m as the current mask as an undoable step.
func (r *Recorder) Replace(m Mask) {
	r.push()
	r.mask = m.Clone()
}

func (r *Recorder) push() {
	r.undo = append(r.undo, r.mask.Clone())
}
