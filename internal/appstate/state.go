// Package appstate runs the editor window: it feeds input to a session,
// sends requests through the pipeline in the background and paints frames.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/maskeraser/internal/clipboard"
	"github.com/example/maskeraser/internal/compare"
	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/notify"
	"github.com/example/maskeraser/internal/pipeline"
	"github.com/example/maskeraser/internal/render"
	"github.com/example/maskeraser/internal/session"
	"github.com/example/maskeraser/internal/theme"
	"github.com/example/maskeraser/internal/viewport"
)

// Default and limit window sizes in pixels.
const (
	defaultWidth  = 1024
	defaultHeight = 768
	maxWidth      = 1600
	maxHeight     = 1000
	minWidth      = 640
	minHeight     = 480
)

const (
	messageTime = 2 * time.Second
	errorTime   = 5 * time.Second
)

// AppState holds the pieces the window works with.
type AppState struct {
	Session   *session.Session
	Pipeline  *pipeline.Pipeline
	OutputDir string
	Notifier  *notify.Notifier
	Theme     *theme.Theme
	Title     string

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSession sets the session edited by the window.
func WithSession(s *session.Session) Option { return func(a *AppState) { a.Session = s } }

// WithPipeline sets the pipeline used for removal requests.
func WithPipeline(p *pipeline.Pipeline) Option { return func(a *AppState) { a.Pipeline = p } }

// WithOutputDir sets the directory that saved images are written to.
func WithOutputDir(dir string) Option { return func(a *AppState) { a.OutputDir = dir } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{OutputDir: ".", Title: "Mask Eraser"}
	for _, o := range opts {
		o(a)
	}
	if a.Session == nil {
		a.Session = session.New()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

// jobProgressEvent and jobDoneEvent carry job updates from the request
// goroutine back to the event loop, which owns the session.
type jobProgressEvent struct {
	ticket session.Ticket
	phase  session.Phase
}

type jobDoneEvent struct {
	ticket  session.Ticket
	result  *pipeline.Result
	err     error
	elapsed time.Duration
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func initialSize(img *imageio.Image) (int, int) {
	if img == nil {
		return defaultWidth, defaultHeight
	}
	w, h := img.Size()
	w += 2 * int(viewport.FitMargin)
	h += 2*int(viewport.FitMargin) + barHeight
	return min(maxWidth, max(minWidth, w)), min(maxHeight, max(minHeight, h))
}

// Main runs the event loop on an existing screen.
func (a *AppState) Main(s screen.Screen) {
	sess := a.Session
	width, height := initialSize(sess.Source())
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer a.notifyClose()

	var message string
	var messageErr bool
	var messageUntil time.Time
	say := func(msg string) {
		message, messageErr, messageUntil = msg, false, time.Now().Add(messageTime)
		log.Print(msg)
	}
	fail := func(op string, err error) {
		log.Printf("%s: %v", op, err)
		message, messageErr, messageUntil = pipeline.Describe(err), true, time.Now().Add(errorTime)
	}

	var jobCancel context.CancelFunc
	stopJob := func() {
		if jobCancel != nil {
			jobCancel()
			jobCancel = nil
		}
	}
	defer stopJob()

	handlers := Handlers{
		Save: func() {
			img := sess.Display()
			path := filepath.Join(a.OutputDir, imageio.DownloadName(img.MediaType, time.Now()))
			if err := imageio.Save(path, img); err != nil {
				fail("save", err)
				return
			}
			say(fmt.Sprintf("saved %s", path))
			a.Notifier.Save(path)
		},
		Copy: func() {
			if err := clipboard.WriteImage(sess.Display().Pixels); err != nil {
				fail("copy", err)
				return
			}
			say("image copied to clipboard")
			a.Notifier.Copy("image")
		},
		Paste: func() {
			img, err := clipboard.ReadImage()
			if err != nil {
				fail("paste", err)
				return
			}
			stopJob()
			sess.Load(img)
			say("pasted new image")
		},
		Submit: func(kind session.RequestKind) {
			if a.Pipeline == nil {
				fail("submit", errors.New("no backend configured"))
				return
			}
			job, err := sess.Begin(kind)
			if err != nil {
				fail(kind.String(), err)
				return
			}
			ctx, cancel := context.WithCancel(context.Background())
			jobCancel = cancel
			go func() {
				start := time.Now()
				res, err := job.Run(ctx, a.Pipeline, func(ph session.Phase) {
					w.Send(jobProgressEvent{ticket: job.Ticket, phase: ph})
				})
				w.Send(jobDoneEvent{ticket: job.Ticket, result: res, err: err, elapsed: time.Since(start)})
			}()
		},
	}
	ctrl := NewController(sess, handlers)
	ctrl.SetCanvas(width, height-barHeight)
	sess.Fit()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)
	cancelPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	preview := &previewCache{}
	sized := false
	var shortcuts []Shortcut
	hover := -1

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				cancelPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			ctrl.SetCanvas(width, max(0, height-barHeight))
			if !sized {
				sess.Fit()
				sized = true
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			shortcuts = shortcutsFor(sess.Mode())
			layoutShortcuts(shortcuts, width, height)
			cursor, _ := ctrl.Cursor()
			st := paintState{
				width:        width,
				height:       height,
				theme:        a.Theme,
				mode:         sess.Mode(),
				vp:           sess.Viewport(),
				wipe:         sess.Wipe().Position(),
				cursor:       cursor,
				brush:        brushVisible(sess, ctrl),
				diameter:     float64(sess.BrushSize()),
				status:       statusLine(sess),
				loading:      sess.Status(),
				shortcuts:    shortcuts,
				hover:        hover,
				message:      message,
				messageErr:   messageErr,
				messageUntil: messageUntil,
			}
			if img := preview.canvas(sess); img != nil {
				st.canvas = img
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case jobProgressEvent:
			sess.Progress(e.ticket, e.phase)
			w.Send(paint.Event{})
		case jobDoneEvent:
			err := sess.Complete(e.ticket, e.result, e.err)
			switch {
			case errors.Is(err, session.ErrStale):
				log.Printf("dropping result for an outdated request")
				continue
			case err != nil:
				jobCancel = nil
				fail(e.ticket.Kind.String(), err)
				a.Notifier.Failure(pipeline.Describe(err))
			default:
				jobCancel = nil
				say("Enter to apply, Esc to discard")
				a.Notifier.Result(e.ticket.Kind.String(), e.elapsed, e.result.Image.Pixels)
			}
			w.Send(paint.Event{})
		case mouse.Event:
			if int(e.Y) >= height-barHeight && e.Direction != mouse.DirRelease && sess.RecorderState() == mask.Idle && !ctrl.Wiping() {
				p := image.Point{int(e.X), int(e.Y)}
				prev := hover
				hover = -1
				for i, sc := range shortcuts {
					if p.In(sc.Rect()) {
						hover = i
						if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && sess.Mode() != session.ModeProcessing {
							ctrl.Trigger(sc.action)
						}
						break
					}
				}
				ctrl.hasCursor = false
				if hover != prev || e.Direction == mouse.DirPress {
					w.Send(paint.Event{})
				}
				continue
			}
			hover = -1
			if ctrl.Mouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if ctrl.Key(e) {
				w.Send(paint.Event{})
			}
		case error:
			log.Printf("window: %v", e)
		}
	}
}

// previewCache keeps the last composed canvas so that frames which only move
// the cursor do not re-rasterise the mask.
type previewCache struct {
	generation uint64
	revision   uint64
	mode       session.Mode
	wipe       float64
	result     *imageio.Image
	img        *image.NRGBA
}

func (p *previewCache) canvas(s *session.Session) *image.NRGBA {
	src := s.Source()
	if src == nil {
		return nil
	}
	mode := s.Mode()
	if mode == session.ModeComparing {
		res, pos := s.Result(), s.Wipe().Position()
		if p.img == nil || p.mode != mode || p.result != res || p.wipe != pos || p.generation != s.Generation() {
			p.img = compare.Render(src.Pixels, res.Pixels, pos)
		}
		p.mode, p.result, p.wipe, p.generation = mode, res, pos, s.Generation()
		return p.img
	}
	if p.img == nil || p.mode == session.ModeComparing || p.revision != s.Revision() || p.generation != s.Generation() {
		p.img = render.Preview(src.Pixels, s.Mask())
	}
	p.mode, p.revision, p.generation, p.result = mode, s.Revision(), s.Generation(), nil
	return p.img
}
