// Package session holds the editing state for one loaded image: the source,
// its mask and undo history, the viewport, and the edit/compare mode
// machine that guards backend requests.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/maskeraser/internal/compare"
	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/pipeline"
	"github.com/example/maskeraser/internal/viewport"
)

// Mode is the top level state of a session.
type Mode int

const (
	ModeIdle Mode = iota
	ModeEditing
	ModeProcessing
	ModeComparing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditing:
		return "editing"
	case ModeProcessing:
		return "processing"
	case ModeComparing:
		return "comparing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// RequestKind selects which edit a job performs.
type RequestKind int

const (
	RemoveMasked RequestKind = iota
	RemoveBackground
)

func (k RequestKind) String() string {
	switch k {
	case RemoveMasked:
		return "remove-masked"
	case RemoveBackground:
		return "remove-background"
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// Phase tracks progress of the outstanding job.
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseSending
)

// Brush size limits in screen pixels.
const (
	DefaultBrushSize = 30
	MinBrushSize     = 5
	MaxBrushSize     = 100
	BrushStep        = 5
)

var (
	ErrNoImage      = errors.New("no image loaded")
	ErrBusy         = errors.New("a request is already in progress")
	ErrNotEditing   = errors.New("not in edit mode")
	ErrNotComparing = errors.New("no result to compare")
	// ErrStale reports a completion for a request that no longer matches the
	// session, for example because a new image was loaded meanwhile.
	ErrStale = errors.New("stale request")
)

// Ticket identifies an issued request. A completion is accepted only when
// its ticket matches the one the session is waiting for.
type Ticket struct {
	SessionID  uuid.UUID
	Generation uint64
	Kind       RequestKind
}

// Session is not safe for concurrent use. The owner, normally the UI event
// loop, calls every method from one goroutine; only Job.Run is meant to run
// elsewhere.
type Session struct {
	id         uuid.UUID
	generation uint64
	mode       Mode
	phase      Phase
	pending    *Ticket

	source *imageio.Image
	result *imageio.Image

	rec  *mask.Recorder
	vp   viewport.Viewport
	wipe *compare.Wipe

	tool     mask.Tool
	tempHand bool
	brush    int

	containerW, containerH float64
	revision               uint64
}

// Option configures a Session.
type Option func(*Session)

// WithBrushSize sets the initial brush size. Out of range values are clamped.
func WithBrushSize(n int) Option { return func(s *Session) { s.brush = clampBrush(n) } }

// WithContainer sets the size of the area the image is fitted into.
func WithContainer(w, h float64) Option {
	return func(s *Session) { s.containerW, s.containerH = w, h }
}

// New returns an idle session with no image.
func New(opts ...Option) *Session {
	s := &Session{
		id:    uuid.New(),
		rec:   mask.NewRecorder(),
		vp:    viewport.Identity(),
		wipe:  compare.New(),
		tool:  mask.ToolBrush,
		brush: DefaultBrushSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) ID() uuid.UUID                 { return s.id }
func (s *Session) Generation() uint64            { return s.generation }
func (s *Session) Mode() Mode                    { return s.mode }
func (s *Session) Source() *imageio.Image        { return s.source }
func (s *Session) Result() *imageio.Image        { return s.result }
func (s *Session) Viewport() viewport.Viewport   { return s.vp }
func (s *Session) Wipe() *compare.Wipe           { return s.wipe }
func (s *Session) Mask() mask.Mask               { return s.rec.Mask() }
func (s *Session) UndoDepth() int                { return s.rec.UndoDepth() }
func (s *Session) RecorderState() mask.State     { return s.rec.State() }
func (s *Session) BrushSize() int                { return s.brush }
func (s *Session) SelectedTool() mask.Tool       { return s.tool }
func (s *Session) Revision() uint64              { return s.revision }
func (s *Session) Container() (float64, float64) { return s.containerW, s.containerH }

// Tool returns the tool in effect, taking a held space bar into account.
func (s *Session) Tool() mask.Tool {
	if s.tempHand {
		return mask.ToolHand
	}
	return s.tool
}

// Pending returns the ticket of the outstanding job.
func (s *Session) Pending() (Ticket, bool) {
	if s.pending == nil {
		return Ticket{}, false
	}
	return *s.pending, true
}

// Display returns what is on screen and what download or copy exports: the
// result while comparing, the source otherwise.
func (s *Session) Display() *imageio.Image {
	if s.mode == ModeComparing && s.result != nil {
		return s.result
	}
	return s.source
}

// Status returns the loading text for the outstanding job.
func (s *Session) Status() string {
	if s.mode != ModeProcessing || s.pending == nil {
		return ""
	}
	if s.pending.Kind == RemoveBackground {
		return "Removing background..."
	}
	if s.phase == PhasePreparing {
		return "Preparing image..."
	}
	return "Erasing..."
}

// Load replaces everything with img. It is allowed in every mode; a job that
// is still running becomes stale.
func (s *Session) Load(img *imageio.Image) {
	s.id = uuid.New()
	s.generation++
	s.source = img
	s.result = nil
	s.pending = nil
	s.rec.Clear()
	s.wipe.Reset()
	s.mode = ModeEditing
	s.revision++
	s.Fit()
}

// SetContainer records the fit area. It does not move the image.
func (s *Session) SetContainer(w, h float64) {
	s.containerW, s.containerH = w, h
}

// Fit resets the viewport so the source is centred and fully visible. The
// compare canvas is drawn at the source size, so a result of another size
// fits the same way.
func (s *Session) Fit() {
	img := s.source
	if img == nil || s.containerW <= 0 || s.containerH <= 0 {
		s.vp = viewport.Identity()
		return
	}
	w, h := img.Size()
	s.vp = viewport.Fit(float64(w), float64(h), s.containerW, s.containerH, viewport.FitMargin)
}

// Zoom zooms at a screen point. Allowed while editing or comparing.
func (s *Session) Zoom(screen viewport.Point, direction float64) {
	if s.mode != ModeEditing && s.mode != ModeComparing {
		return
	}
	s.vp = s.vp.ZoomAt(screen, direction)
}

// SetTool selects the brush or hand.
func (s *Session) SetTool(t mask.Tool) {
	if s.mode != ModeEditing {
		return
	}
	s.tool = t
}

// HoldHand temporarily switches to the hand while on is true.
func (s *Session) HoldHand(on bool) {
	if on && s.mode != ModeEditing {
		return
	}
	s.tempHand = on
}

// AdjustBrush changes the brush size by delta, clamped to the allowed range.
func (s *Session) AdjustBrush(delta int) {
	if s.mode != ModeEditing {
		return
	}
	s.brush = clampBrush(s.brush + delta)
}

func clampBrush(n int) int {
	return max(MinBrushSize, min(MaxBrushSize, n))
}

// PointerDown forwards to the stroke recorder.
func (s *Session) PointerDown(screen viewport.Point, button mask.Button) {
	if s.mode != ModeEditing {
		return
	}
	before := s.rec.Len()
	s.rec.PointerDown(screen, s.Tool(), button, s.vp, float64(s.brush))
	if s.rec.Len() != before {
		s.revision++
	}
}

// PointerMove extends a stroke or pans.
func (s *Session) PointerMove(screen viewport.Point) {
	if s.mode != ModeEditing {
		return
	}
	if s.rec.State() == mask.Drawing {
		s.revision++
	}
	if vp, moved := s.rec.PointerMove(screen, s.vp); moved {
		s.vp = vp
	}
}

// PointerUp ends the gesture. It is honoured in every mode so a drag that
// started before a mode change does not stay stuck.
func (s *Session) PointerUp() {
	s.rec.PointerUp()
}

// Undo restores the previous mask.
func (s *Session) Undo() bool {
	if s.mode != ModeEditing || s.rec.State() != mask.Idle {
		return false
	}
	if !s.rec.Undo() {
		return false
	}
	s.revision++
	return true
}

// Reset clears the mask as an undoable step.
func (s *Session) Reset() bool {
	if s.mode != ModeEditing || s.rec.State() != mask.Idle {
		return false
	}
	if !s.rec.Reset() {
		return false
	}
	s.revision++
	return true
}

// ReplaceMask installs m as an undoable step. Used by headless callers that
// read strokes from a file.
func (s *Session) ReplaceMask(m mask.Mask) error {
	if s.mode != ModeEditing {
		return s.modeError()
	}
	s.rec.Replace(m)
	s.revision++
	return nil
}

func (s *Session) modeError() error {
	switch s.mode {
	case ModeIdle:
		return ErrNoImage
	case ModeProcessing:
		return ErrBusy
	case ModeComparing:
		return ErrNotEditing
	}
	return nil
}

// Begin snapshots the state needed for a request and enters Processing.
func (s *Session) Begin(kind RequestKind) (*Job, error) {
	if s.mode != ModeEditing {
		return nil, s.modeError()
	}
	m := s.rec.Mask()
	if kind == RemoveMasked && m.Empty() {
		return nil, pipeline.ErrEmptyMask
	}
	t := Ticket{SessionID: s.id, Generation: s.generation, Kind: kind}
	s.pending = &t
	s.phase = PhasePreparing
	s.mode = ModeProcessing
	s.rec.PointerUp()
	s.tempHand = false
	return &Job{Ticket: t, source: s.source, mask: m}, nil
}

// Progress records that the job identified by t moved to phase.
func (s *Session) Progress(t Ticket, phase Phase) {
	if s.matches(t) {
		s.phase = phase
	}
}

func (s *Session) matches(t Ticket) bool {
	return s.mode == ModeProcessing && s.pending != nil && *s.pending == t
}

// Complete delivers the outcome of a job. Completions that do not match the
// outstanding ticket return ErrStale and change nothing. A failed request
// returns to Editing with the mask intact and hands the error back for
// reporting.
func (s *Session) Complete(t Ticket, res *pipeline.Result, err error) error {
	if !s.matches(t) {
		return ErrStale
	}
	s.pending = nil
	if err == nil && (res == nil || res.Image == nil) {
		err = pipeline.ErrNoImageInResponse
	}
	if err != nil {
		s.mode = ModeEditing
		return err
	}
	img := res.Image
	if len(img.Encoded) == 0 {
		img.Encoded = res.Data
	}
	s.result = img
	s.wipe.Reset()
	s.mode = ModeComparing
	return nil
}

// Apply promotes the result to the new source and starts a fresh mask.
func (s *Session) Apply() error {
	if s.mode != ModeComparing || s.result == nil {
		return ErrNotComparing
	}
	s.source = s.result
	s.result = nil
	s.rec.Clear()
	s.mode = ModeEditing
	s.revision++
	s.Fit()
	return nil
}

// Discard drops the result and returns to editing with the mask unchanged.
func (s *Session) Discard() error {
	if s.mode != ModeComparing {
		return ErrNotComparing
	}
	s.result = nil
	s.mode = ModeEditing
	return nil
}

// Submit runs a request synchronously on the calling goroutine.
func (s *Session) Submit(ctx context.Context, p *pipeline.Pipeline, kind RequestKind) (*pipeline.Result, error) {
	job, err := s.Begin(kind)
	if err != nil {
		return nil, err
	}
	res, runErr := job.Run(ctx, p, func(ph Phase) { s.Progress(job.Ticket, ph) })
	if err := s.Complete(job.Ticket, res, runErr); err != nil {
		return nil, err
	}
	return res, nil
}
