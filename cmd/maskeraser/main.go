package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/maskeraser/internal/config"
	"github.com/example/maskeraser/internal/notify"
	"github.com/example/maskeraser/internal/pipeline"
	"github.com/example/maskeraser/internal/session"
	"github.com/example/maskeraser/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs             *flag.FlagSet
	program        string
	notifier       *notify.Notifier
	config         *config.Config
	resultAlerts   bool
	failureAlerts  bool
	saveAlerts     bool
	copyAlerts     bool
	themeName      string
	model          string
	activeTheme    *theme.Theme
	newBackendFunc backendFactory
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("maskeraser", flag.ExitOnError),
		program:  "maskeraser",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.resultAlerts, "notify-result", cfg.Notify.Result, "show a desktop notification when an edit finishes")
	r.fs.BoolVar(&r.failureAlerts, "notify-failure", cfg.Notify.Failure, "show a desktop notification when an edit fails")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default. Empty flags fall through in Run.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.StringVar(&r.model, "model", "", "backend model name")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventResult, r.resultAlerts)
		r.notifier.Enable(notify.EventFailure, r.failureAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "erase":
		cmd, err = parseEraseCmd(subArgs, r)
	case "unbg":
		cmd, err = parseUnbgCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "interactive":
		cmd = &interactiveCmd{r: r, in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// resolveTheme picks the theme named by the flag, the environment or the
// config in that order. Config-defined themes win over files of the same
// name.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("MASKERASER_THEME")
	}
	if name == "" && r.config != nil {
		name = r.config.Theme
	}
	loader := theme.NewLoader()
	if r.config != nil {
		loader.Inline = r.config.Themes
	}
	t, err := loader.Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) notifyResult(kind session.RequestKind, elapsed time.Duration, res *pipeline.Result) {
	if r == nil || r.notifier == nil || res == nil || res.Image == nil {
		return
	}
	r.notifier.Result(kind.String(), elapsed, res.Image.Pixels)
}

func (r *root) notifyFailure(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Failure(detail)
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
