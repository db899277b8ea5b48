package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/maskeraser/internal/compare"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/render"
	"github.com/example/maskeraser/internal/session"
	"github.com/example/maskeraser/internal/theme"
	"github.com/example/maskeraser/internal/viewport"
)

const (
	rowHeight = 24
	barHeight = 2 * rowHeight
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 24, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Shortcut is a clickable label in the status bar that runs an action.
type Shortcut struct {
	label  string
	action string
	rect   image.Rectangle
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	col := th.StatusBackground
	switch state {
	case StateHover:
		col = shade(col, 20)
	case StatePressed:
		col = shade(col, 50)
	}
	draw.Draw(dst, s.rect, &image.Uniform{col}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, th.Foreground, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func shade(c color.RGBA, by uint8) color.RGBA {
	sub := func(v uint8) uint8 {
		if v < by {
			return 0
		}
		return v - by
	}
	return color.RGBA{sub(c.R), sub(c.G), sub(c.B), c.A}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := image.NewUniform(col)
	for i := 0; i < thick; i++ {
		r := rect.Inset(i)
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	}
}

// shortcutsFor returns the status bar buttons for a mode.
func shortcutsFor(mode session.Mode) []Shortcut {
	switch mode {
	case session.ModeEditing:
		return []Shortcut{
			{label: "B:brush", action: ActionBrush},
			{label: "H:hand", action: ActionHand},
			{label: "-:smaller", action: ActionShrink},
			{label: "+:larger", action: ActionGrow},
			{label: "^Z:undo", action: ActionUndo},
			{label: "X:reset", action: ActionReset},
			{label: "R:erase", action: ActionErase},
			{label: "G:remove bg", action: ActionBackground},
			{label: "0:fit", action: ActionFit},
			{label: "^S:save", action: ActionSave},
			{label: "^C:copy", action: ActionCopy},
			{label: "^V:paste", action: ActionPaste},
		}
	case session.ModeComparing:
		return []Shortcut{
			{label: "Enter:apply", action: ActionApply},
			{label: "Esc:discard", action: ActionDiscard},
			{label: "<:wipe", action: ActionWipeLeft},
			{label: ">:wipe", action: ActionWipeRight},
			{label: "^S:save", action: ActionSave},
			{label: "^C:copy", action: ActionCopy},
		}
	case session.ModeIdle:
		return []Shortcut{{label: "^V:paste", action: ActionPaste}}
	}
	return nil
}

// statusLine summarises the session for the first status bar row.
func statusLine(s *session.Session) string {
	switch s.Mode() {
	case session.ModeIdle:
		return "No image loaded. Paste one or start with -file."
	case session.ModeProcessing:
		return s.Status()
	}
	zoom := fmt.Sprintf("%.0f%%", s.Viewport().Scale*100)
	if s.Mode() == session.ModeComparing {
		return fmt.Sprintf("compare  %.0f%%  zoom %s", s.Wipe().Position(), zoom)
	}
	tool := s.Tool().String()
	if tool != s.SelectedTool().String() {
		tool += " (held)"
	}
	return fmt.Sprintf("%s  size %d  zoom %s  strokes %d  undo %d", tool, s.BrushSize(), zoom, len(s.Mask()), s.UndoDepth())
}

// paintState is a snapshot of everything a frame needs. It is built on the
// event loop and drawn on the paint goroutine.
type paintState struct {
	width, height int
	theme         *theme.Theme
	mode          session.Mode

	canvas   image.Image
	vp       viewport.Viewport
	wipe     float64
	cursor   viewport.Point
	brush    bool
	diameter float64

	status       string
	loading      string
	shortcuts    []Shortcut
	hover        int
	message      string
	messageErr   bool
	messageUntil time.Time
}

// layoutShortcuts places the buttons along the bottom row.
func layoutShortcuts(shortcuts []Shortcut, width, height int) {
	x := 4
	y := height - rowHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for i := range shortcuts {
		w := meas.MeasureString(shortcuts[i].label).Ceil()
		shortcuts[i].rect = image.Rect(x-2, y-14, x+w+2, y+4)
		x = shortcuts[i].rect.Max.X + 8
	}
}

func drawStatus(dst *image.RGBA, st paintState) {
	th := st.theme
	rect := image.Rect(0, st.height-barHeight, st.width, st.height)
	draw.Draw(dst, rect, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: basicfont.Face7x13,
		Dot: fixed.P(6, st.height-barHeight+16)}
	d.DrawString(st.status)
	if st.message != "" && time.Now().Before(st.messageUntil) {
		col := th.StatusText
		if st.messageErr {
			col = th.ErrorText
		}
		d.Src = image.NewUniform(col)
		d.DrawString("   " + st.message)
	}
	for i := range st.shortcuts {
		state := StateDefault
		if i == st.hover {
			state = StateHover
		}
		st.shortcuts[i].Draw(dst, state, th)
	}
}

// drawCentred paints text in a framed box in the middle of area.
func drawCentred(dst *image.RGBA, area image.Rectangle, text string, th *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	wmsg := d.MeasureString(text).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := area.Min.X + (area.Dx()-wmsg)/2
	py := area.Min.Y + (area.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{th.MessageBackground}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.MessageBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(text)
}

// paintCanvas draws the image area: the viewport frame plus the brush cursor,
// the compare handle or the processing overlay depending on mode.
func paintCanvas(ctx context.Context, dst *image.RGBA, st paintState) {
	th := st.theme
	render.Frame(dst, st.canvas, st.vp, th)
	if st.canvas == nil {
		drawCentred(dst, dst.Bounds(), "Paste an image to start", th)
		return
	}
	if ctx.Err() != nil {
		return
	}
	b := st.canvas.Bounds()
	switch st.mode {
	case session.ModeEditing:
		if st.brush {
			render.BrushCursor(dst, st.cursor, st.diameter, th)
		}
	case session.ModeComparing:
		compare.DrawHandle(dst, render.ImageRect(b.Dx(), b.Dy(), st.vp), st.wipe, th.WipeHandle)
	case session.ModeProcessing:
		draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Overlay}, image.Point{}, draw.Over)
		drawCentred(dst, dst.Bounds(), st.loading, th)
	}
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	canvasH := max(0, st.height-barHeight)
	canvas := b.RGBA().SubImage(image.Rect(0, 0, st.width, canvasH)).(*image.RGBA)
	paintCanvas(ctx, canvas, st)
	if ctx.Err() != nil {
		return
	}

	drawStatus(b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// brushVisible reports whether the brush outline should follow the pointer.
func brushVisible(s *session.Session, c *Controller) bool {
	_, in := c.Cursor()
	return in && s.Mode() == session.ModeEditing && s.Tool() == mask.ToolBrush && s.RecorderState() != mask.Panning
}
