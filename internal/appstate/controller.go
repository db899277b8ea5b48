package appstate

import (
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/render"
	"github.com/example/maskeraser/internal/session"
	"github.com/example/maskeraser/internal/viewport"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Shortcuts are matched either by Rune or, when Rune is zero, by Code.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// accel binds r with both Control and Meta so the same action works with
// ctrl on Linux and Windows and cmd on macOS. The code form catches drivers
// that report a control character as the rune.
func accel(r rune, code key.Code) shortcutList {
	var out shortcutList
	for _, m := range []key.Modifiers{key.ModControl, key.ModMeta} {
		out = append(out, KeyShortcut{Rune: r, Modifiers: m}, KeyShortcut{Code: code, Modifiers: m})
	}
	return out
}

// Handlers are the side effects the controller cannot perform on the
// session alone. Nil handlers are skipped.
type Handlers struct {
	Save   func()
	Copy   func()
	Paste  func()
	Submit func(session.RequestKind)
}

// Action names accepted by Trigger.
const (
	ActionBrush      = "brush"
	ActionHand       = "hand"
	ActionShrink     = "shrink"
	ActionGrow       = "grow"
	ActionUndo       = "undo"
	ActionReset      = "reset"
	ActionErase      = "erase"
	ActionBackground = "background"
	ActionFit        = "fit"
	ActionSave       = "save"
	ActionCopy       = "copy"
	ActionPaste      = "paste"
	ActionApply      = "apply"
	ActionDiscard    = "discard"
	ActionWipeLeft   = "wipe-left"
	ActionWipeRight  = "wipe-right"
)

// WipeStep is how far the arrow keys move the compare boundary, in percent.
const WipeStep = 1.0

type action struct {
	modes []session.Mode
	fn    func() bool
}

// Controller turns window input into session operations. It has no display
// dependency; the window owns it and repaints whenever a method returns true.
type Controller struct {
	sess *session.Session
	h    Handlers

	actions        map[string]action
	keyboardAction map[KeyShortcut]string

	canvasW, canvasH int
	cursor           viewport.Point
	hasCursor        bool
	wiping           bool
}

// NewController binds the default shortcuts to sess.
func NewController(sess *session.Session, h Handlers) *Controller {
	c := &Controller{
		sess:           sess,
		h:              h,
		actions:        map[string]action{},
		keyboardAction: map[KeyShortcut]string{},
	}
	c.registerDefaults()
	return c
}

func (c *Controller) register(name string, keys KeyboardShortcuts, modes []session.Mode, fn func() bool) {
	c.actions[name] = action{modes: modes, fn: fn}
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keyboardAction[sc] = name
		}
	}
}

func (c *Controller) registerDefaults() {
	editing := []session.Mode{session.ModeEditing}
	comparing := []session.Mode{session.ModeComparing}
	viewing := []session.Mode{session.ModeEditing, session.ModeComparing}
	anyIdle := []session.Mode{session.ModeIdle, session.ModeEditing, session.ModeComparing}

	c.register(ActionBrush, shortcutList{{Rune: 'b'}}, editing, func() bool {
		c.sess.SetTool(mask.ToolBrush)
		return true
	})
	c.register(ActionHand, shortcutList{{Rune: 'h'}}, editing, func() bool {
		c.sess.SetTool(mask.ToolHand)
		return true
	})
	c.register(ActionShrink, shortcutList{{Rune: '-'}, {Rune: '_'}}, editing, func() bool {
		c.sess.AdjustBrush(-session.BrushStep)
		return true
	})
	c.register(ActionGrow, shortcutList{{Rune: '='}, {Rune: '+'}}, editing, func() bool {
		c.sess.AdjustBrush(session.BrushStep)
		return true
	})
	c.register(ActionUndo, accel('z', key.CodeZ), editing, c.sess.Undo)
	c.register(ActionReset, shortcutList{{Rune: 'x'}}, editing, c.sess.Reset)
	c.register(ActionErase, shortcutList{{Rune: 'r'}}, editing, func() bool {
		return c.call(func() { c.h.Submit(session.RemoveMasked) }, c.h.Submit != nil)
	})
	c.register(ActionBackground, shortcutList{{Rune: 'g'}}, editing, func() bool {
		return c.call(func() { c.h.Submit(session.RemoveBackground) }, c.h.Submit != nil)
	})
	c.register(ActionFit, shortcutList{{Rune: '0'}}, viewing, func() bool {
		c.sess.Fit()
		return true
	})
	c.register(ActionSave, accel('s', key.CodeS), viewing, func() bool { return c.call(c.h.Save, c.h.Save != nil) })
	c.register(ActionCopy, accel('c', key.CodeC), viewing, func() bool { return c.call(c.h.Copy, c.h.Copy != nil) })
	c.register(ActionPaste, accel('v', key.CodeV), anyIdle, func() bool { return c.call(c.h.Paste, c.h.Paste != nil) })
	c.register(ActionApply, shortcutList{{Code: key.CodeReturnEnter}}, comparing, func() bool {
		return c.sess.Apply() == nil
	})
	c.register(ActionDiscard, shortcutList{{Code: key.CodeEscape}}, comparing, func() bool {
		return c.sess.Discard() == nil
	})
	c.register(ActionWipeLeft, shortcutList{{Code: key.CodeLeftArrow}}, comparing, func() bool {
		c.sess.Wipe().Nudge(-WipeStep)
		return true
	})
	c.register(ActionWipeRight, shortcutList{{Code: key.CodeRightArrow}}, comparing, func() bool {
		c.sess.Wipe().Nudge(WipeStep)
		return true
	})
}

func (c *Controller) call(fn func(), ok bool) bool {
	if !ok {
		return false
	}
	fn()
	return true
}

// Trigger runs the named action if the session is in a mode that allows it.
func (c *Controller) Trigger(name string) bool {
	a, ok := c.actions[name]
	if !ok {
		return false
	}
	mode := c.sess.Mode()
	for _, m := range a.modes {
		if m == mode {
			return a.fn()
		}
	}
	return false
}

// Lookup returns the action bound to e, if any.
func (c *Controller) Lookup(e key.Event) (string, bool) {
	mods := e.Modifiers &^ key.ModShift
	if e.Rune > 0 {
		if name, ok := c.keyboardAction[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: mods}]; ok {
			return name, true
		}
	}
	name, ok := c.keyboardAction[KeyShortcut{Code: e.Code, Modifiers: mods}]
	return name, ok
}

// Key handles a keyboard event.
func (c *Controller) Key(e key.Event) bool {
	if e.Code == key.CodeSpacebar {
		switch e.Direction {
		case key.DirPress:
			if c.sess.Mode() != session.ModeEditing || c.sess.Tool() == mask.ToolHand {
				return false
			}
			c.sess.HoldHand(true)
			return true
		case key.DirRelease:
			c.sess.HoldHand(false)
			return true
		}
		return false
	}
	if e.Direction != key.DirPress {
		return false
	}
	name, ok := c.Lookup(e)
	if !ok {
		return false
	}
	return c.Trigger(name)
}

// SetCanvas records the size of the drawing area. The session uses it as
// the area to fit into.
func (c *Controller) SetCanvas(w, h int) {
	c.canvasW, c.canvasH = w, h
	c.sess.SetContainer(float64(w), float64(h))
}

// Canvas returns the drawing area size.
func (c *Controller) Canvas() (int, int) { return c.canvasW, c.canvasH }

// Cursor returns the last pointer position inside the canvas.
func (c *Controller) Cursor() (viewport.Point, bool) { return c.cursor, c.hasCursor }

// Wiping reports whether the compare boundary is being dragged.
func (c *Controller) Wiping() bool { return c.wiping }

func buttonOf(b mouse.Button) (mask.Button, bool) {
	switch b {
	case mouse.ButtonLeft:
		return mask.ButtonPrimary, true
	case mouse.ButtonMiddle:
		return mask.ButtonMiddle, true
	case mouse.ButtonRight:
		return mask.ButtonSecondary, true
	}
	return 0, false
}

// Mouse handles a pointer event. Coordinates are relative to the canvas.
func (c *Controller) Mouse(e mouse.Event) bool {
	p := viewport.Pt(float64(e.X), float64(e.Y))
	c.cursor = p
	c.hasCursor = c.canvasH == 0 || int(e.Y) < c.canvasH

	if e.Direction == mouse.DirRelease {
		c.wiping = false
		c.sess.PointerUp()
		return true
	}

	switch e.Button {
	case mouse.ButtonWheelUp, mouse.ButtonWheelDown:
		if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
			dir := 1.0
			if e.Button == mouse.ButtonWheelDown {
				dir = -1
			}
			c.sess.Zoom(p, dir)
			return true
		}
		return false
	}

	switch c.sess.Mode() {
	case session.ModeEditing:
		return c.editMouse(e, p)
	case session.ModeComparing:
		return c.compareMouse(e, p)
	}
	return false
}

func (c *Controller) editMouse(e mouse.Event, p viewport.Point) bool {
	switch e.Direction {
	case mouse.DirPress:
		if !c.hasCursor {
			return false
		}
		b, ok := buttonOf(e.Button)
		if !ok {
			return false
		}
		c.sess.PointerDown(p, b)
		return true
	case mouse.DirNone:
		c.sess.PointerMove(p)
		return true
	}
	return false
}

func (c *Controller) compareMouse(e mouse.Event, p viewport.Point) bool {
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft || !c.hasCursor {
			return false
		}
		c.wiping = true
	case mouse.DirNone:
		if !c.wiping {
			return false
		}
	default:
		return false
	}
	src := c.sess.Source()
	if src == nil {
		return false
	}
	w, h := src.Size()
	r := render.ImageRect(w, h, c.sess.Viewport())
	c.sess.Wipe().DragTo(p.X, float64(r.Min.X), float64(r.Dx()))
	return true
}
