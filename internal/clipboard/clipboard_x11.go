//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Backend owns the CLIPBOARD selection through a hidden window when cgo
// is unavailable. It only ever offers image/png.
type x11Backend struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  x11Atoms

	mu    sync.RWMutex
	owned []byte
}

type x11Atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

var active backend = &x11Backend{}

func (b *x11Backend) init() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	mask := uint32(xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify)
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return err
	}
	atoms, err := internX11Atoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	b.conn, b.window, b.atoms = conn, window, atoms
	go b.serve()
	return nil
}

func internX11Atoms(conn *xgb.Conn) (x11Atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "image/png", "MASKERASER_CLIPBOARD"}
	got := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return x11Atoms{}, fmt.Errorf("intern %s: %w", name, err)
		}
		got[i] = reply.Atom
	}
	return x11Atoms{clipboard: got[0], targets: got[1], png: got[2], property: got[3]}, nil
}

func (b *x11Backend) writePNG(data []byte) error {
	b.mu.Lock()
	b.owned = append([]byte(nil), data...)
	b.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(b.conn, b.window, b.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

// serve answers selection requests from other clients while we own the
// clipboard.
func (b *x11Backend) serve() {
	for {
		ev, err := b.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			b.answer(e)
		case xproto.SelectionClearEvent:
			b.mu.Lock()
			b.owned = nil
			b.mu.Unlock()
		}
	}
}

func (b *x11Backend) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	b.mu.RLock()
	data := b.owned
	b.mu.RUnlock()

	switch {
	case e.Target == b.atoms.targets:
		targets := []xproto.Atom{b.atoms.targets}
		if len(data) > 0 {
			targets = append(targets, b.atoms.png)
		}
		buf := make([]byte, len(targets)*4)
		for i, a := range targets {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(targets)), buf)
	case e.Target == b.atoms.png && len(data) > 0:
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, property, b.atoms.png, 8, uint32(len(data)), data)
	default:
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(b.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// readPNG asks the current owner for image/png using a throwaway connection
// so that our own serve loop can answer when we are the owner.
func (b *x11Backend) readPNG() ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, b.atoms.clipboard, b.atoms.png, b.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, errNoImage
		}
		reply, gerr := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if gerr != nil {
			return nil, gerr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
