package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/example/maskeraser/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventResult fires when an edit comes back and is ready to compare.
	EventResult Event = "result"
	// EventFailure fires when an edit request fails.
	EventFailure Event = "failure"
	// EventSave fires when an image is written to disk.
	EventSave Event = "save"
	// EventCopy fires when an image is copied to the clipboard.
	EventCopy Event = "copy"
)

// Events lists every event in a stable order.
var Events = []Event{EventResult, EventFailure, EventSave, EventCopy}

// envKey is the variable that overrides the event's template.
func (e Event) envKey() string {
	return "MASKERASER_NOTIFY_" + strings.ToUpper(string(e)) + "_TEXT"
}

// EventPreference describes formatting for a notification event. Template
// may hold one %s for the event detail.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Mask Eraser",
		Events: map[Event]EventPreference{
			EventResult:  {Template: "Finished %s"},
			EventFailure: {Template: "Edit failed: %s"},
			EventSave:    {Template: "Saved %s"},
			EventCopy:    {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences applies MASKERASER_NOTIFY_TITLE and the per-event
// MASKERASER_NOTIFY_<EVENT>_TEXT overrides to the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("MASKERASER_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, event := range Events {
		if v := strings.TrimSpace(os.Getenv(event.envKey())); v != "" {
			prefs.Events[event] = EventPreference{Template: v}
		}
	}
	return prefs
}

// Notifier turns edit outcomes into desktop notifications. Events are off
// until enabled.
type Notifier struct {
	title     string
	templates map[Event]string
	enabled   map[Event]bool
	send      func(title, body string, opts platform.Options) error
}

func New(prefs Preferences) *Notifier {
	n := &Notifier{
		title:     prefs.Title,
		templates: make(map[Event]string, len(prefs.Events)),
		enabled:   make(map[Event]bool),
		send:      platform.Notify,
	}
	for e, p := range prefs.Events {
		n.templates[e] = strings.TrimSpace(p.Template)
	}
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

func (n *Notifier) on(event Event) bool {
	return n != nil && n.enabled[event]
}

// Result announces a finished edit. kind names the request; elapsed, when
// positive, is appended to it. img becomes the notification thumbnail.
func (n *Notifier) Result(kind string, elapsed time.Duration, img image.Image) {
	if !n.on(EventResult) {
		return
	}
	detail := strings.ToLower(kind)
	if elapsed > 0 {
		detail += " in " + elapsed.Round(100*time.Millisecond).String()
	}
	var opts platform.Options
	if img != nil {
		path, cleanup, err := createPreview(img)
		if err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventResult, detail, opts)
}

// Failure announces a failed edit. detail is the short user message.
func (n *Notifier) Failure(detail string) {
	n.dispatch(EventFailure, detail, platform.Options{Urgent: true})
}

// Save announces a written file, using the file itself as the icon.
func (n *Notifier) Save(path string) {
	if !n.on(EventSave) {
		return
	}
	var opts platform.Options
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = strings.TrimSpace(path)
	} else if _, err := os.Stat(abs); err == nil {
		opts.IconPath = abs
	}
	n.dispatch(EventSave, abs, opts)
}

// Copy announces a clipboard copy.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.on(event) {
		return
	}
	body := n.Format(event, detail)
	if body == "" {
		return
	}
	if err := n.send(n.title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

// Format renders the template for event. Templates without a verb are used
// as is.
func (n *Notifier) Format(event Event, detail string) string {
	if n == nil {
		return ""
	}
	tmpl := n.templates[event]
	if tmpl == "" || !strings.Contains(tmpl, "%") {
		return tmpl
	}
	return strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
}

// previewSize bounds the notification thumbnail.
const previewSize = 256

// createPreview writes a PNG thumbnail of img to a temp file. The returned
// func removes it.
func createPreview(img image.Image) (string, func(), error) {
	if b := img.Bounds(); b.Dx() > previewSize || b.Dy() > previewSize {
		img = imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)
	}
	f, err := os.CreateTemp("", "maskeraser-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}, nil
}
