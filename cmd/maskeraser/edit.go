package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/maskeraser/internal/appstate"
	"github.com/example/maskeraser/internal/session"
)

// editCmd opens the editor window.
type editCmd struct {
	file          string
	fromClipboard bool
	outputDir     string
	*root
	fs *flag.FlagSet
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func (e *editCmd) Program() string {
	return e.root.Program() + " edit"
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "image file to open, or - for stdin")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "open the image on the clipboard")
	fs.BoolVar(&e.fromClipboard, "from-clip", false, "open the image on the clipboard (alias)")
	fs.StringVar(&e.outputDir, "output-dir", "", "directory that Ctrl+S saves into (defaults to save_dir from the config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" && fs.NArg() > 0 {
		e.file = fs.Arg(0)
	}
	return e, nil
}

func (e *editCmd) options() ([]appstate.Option, error) {
	brush := session.DefaultBrushSize
	dir := e.outputDir
	if cfg := e.root.config; cfg != nil {
		if cfg.BrushSize > 0 {
			brush = cfg.BrushSize
		}
		if dir == "" {
			dir = cfg.SaveDir
		}
	}
	if dir == "" {
		dir = "."
	}
	sess := session.New(session.WithBrushSize(brush))
	if e.file != "" || e.fromClipboard {
		img, err := loadInput(e.file, e.fromClipboard)
		if err != nil {
			return nil, err
		}
		sess.Load(img)
	}
	opts := []appstate.Option{
		appstate.WithSession(sess),
		appstate.WithOutputDir(dir),
		appstate.WithNotifier(e.root.notifier),
		appstate.WithTheme(e.root.activeTheme),
	}
	p, err := e.root.pipeline(context.Background())
	if err != nil {
		// Requests report the missing backend when attempted.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	} else {
		opts = append(opts, appstate.WithPipeline(p))
	}
	return opts, nil
}

func (e *editCmd) Run() error {
	opts, err := e.options()
	if err != nil {
		return err
	}
	appstate.New(opts...).Run()
	return nil
}
