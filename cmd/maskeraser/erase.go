package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/example/maskeraser/internal/clipboard"
	"github.com/example/maskeraser/internal/pipeline"
	"github.com/example/maskeraser/internal/session"
)

// eraseCmd runs one removal request without a window. It backs both the
// erase and unbg commands.
type eraseCmd struct {
	kind          session.RequestKind
	file          string
	strokes       string
	output        string
	outputDir     string
	fromClipboard bool
	toClipboard   bool
	quiet         bool
	*root
	fs     *flag.FlagSet
	errOut io.Writer
}

func (e *eraseCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func (e *eraseCmd) Program() string {
	return e.root.Program() + " " + e.fs.Name()
}

func newEraseCmd(name string, kind session.RequestKind, r *root) *eraseCmd {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	e := &eraseCmd{kind: kind, root: r, fs: fs, errOut: os.Stderr}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "input image file, or - for stdin")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "read the input image from the clipboard")
	fs.BoolVar(&e.fromClipboard, "from-clip", false, "read the input image from the clipboard (alias)")
	fs.StringVar(&e.output, "output", "", "output file, or - for stdout (defaults to a timestamped name in -output-dir)")
	fs.StringVar(&e.outputDir, "output-dir", "", "directory for the default output name (defaults to save_dir from the config)")
	fs.BoolVar(&e.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&e.toClipboard, "to-clip", false, "copy the result to the clipboard (alias)")
	fs.BoolVar(&e.quiet, "quiet", false, "do not show progress")
	if kind == session.RemoveMasked {
		fs.StringVar(&e.strokes, "strokes", "", "JSON stroke file in image coordinates")
	}
	return e
}

func parseEraseCmd(args []string, r *root) (*eraseCmd, error) {
	e := newEraseCmd("erase", session.RemoveMasked, r)
	if err := e.fs.Parse(args); err != nil {
		return nil, err
	}
	if (e.file == "" && !e.fromClipboard) || e.strokes == "" {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func parseUnbgCmd(args []string, r *root) (*eraseCmd, error) {
	e := newEraseCmd("unbg", session.RemoveBackground, r)
	if err := e.fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" && !e.fromClipboard {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *eraseCmd) Run() error {
	src, err := loadInput(e.file, e.fromClipboard)
	if err != nil {
		return err
	}
	sess := session.New()
	sess.Load(src)
	if e.kind == session.RemoveMasked {
		m, err := loadStrokes(e.strokes)
		if err != nil {
			return err
		}
		if err := sess.ReplaceMask(m); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	p, err := e.root.pipeline(ctx)
	if err != nil {
		return err
	}

	job, err := sess.Begin(e.kind)
	if err != nil {
		return e.fail(err)
	}
	var sp *spinner
	if f, ok := e.errOut.(*os.File); ok && !e.quiet && isTerminal(f) {
		sp = newSpinner(e.errOut, sess.Status(), 100*time.Millisecond)
		sp.Start()
	}
	start := time.Now()
	res, runErr := job.Run(ctx, p, func(ph session.Phase) {
		sess.Progress(job.Ticket, ph)
		if sp != nil {
			sp.SetMessage(sess.Status())
		}
	})
	err = sess.Complete(job.Ticket, res, runErr)
	if sp != nil {
		sp.Stop("")
	}
	if err != nil {
		return e.fail(err)
	}
	e.root.notifyResult(e.kind, time.Since(start), res)

	if err := sess.Apply(); err != nil {
		return err
	}
	out := sess.Source()
	dir := e.outputDir
	if dir == "" && e.root.config != nil {
		dir = e.root.config.SaveDir
	}
	if e.toClipboard {
		if err := clipboard.WriteImage(out.Pixels); err != nil {
			return fmt.Errorf("copy result to clipboard: %w", err)
		}
		fmt.Fprintln(e.errOut, "copied result to clipboard")
		e.root.notifyCopy("result")
		if e.output == "" && e.outputDir == "" {
			return nil
		}
	}
	path := outputPath(e.output, dir, out.MediaType, time.Now())
	if err := writeOutput(path, out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if path != pipeName {
		fmt.Fprintf(e.errOut, "saved %s\n", path)
		e.root.notifySave(path)
	}
	return nil
}

// fail reports a request error with the short user message while keeping
// the cause available to errors.Is.
func (e *eraseCmd) fail(err error) error {
	e.root.notifyFailure(pipeline.Describe(err))
	msg := pipeline.Describe(err)
	if msg == err.Error() {
		return err
	}
	return &requestError{msg: msg, err: err}
}

type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string { return fmt.Sprintf("%s (%v)", e.msg, e.err) }

func (e *requestError) Unwrap() error { return e.err }
