package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/example/maskeraser/internal/clipboard"
	"github.com/example/maskeraser/internal/gemini"
	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/pipeline"
)

// pipeName selects stdin or stdout in place of a file.
const pipeName = "-"

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout

	isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }
)

type backendFactory func(ctx context.Context, r *root) (pipeline.Backend, error)

// newBackend builds the Gemini client. The model comes from -model, then the
// config. A key missing from the config is looked up in the environment.
func newBackend(ctx context.Context, r *root) (pipeline.Backend, error) {
	if r.newBackendFunc != nil {
		return r.newBackendFunc(ctx, r)
	}
	model := r.model
	key := ""
	if r.config != nil {
		if model == "" {
			model = r.config.Model
		}
		key = r.config.APIKey
	}
	return gemini.New(ctx, gemini.WithAPIKey(key), gemini.WithModel(model))
}

func (r *root) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	backend, err := newBackend(ctx, r)
	if err != nil {
		return nil, err
	}
	var opts []pipeline.Option
	if r.config != nil && r.config.RequestTimeout > 0 {
		opts = append(opts, pipeline.WithTimeout(r.config.RequestTimeout))
	}
	return pipeline.New(backend, opts...), nil
}

// loadInput reads the source image from a path, stdin or the clipboard.
func loadInput(path string, fromClipboard bool) (*imageio.Image, error) {
	switch {
	case fromClipboard && path != "":
		return nil, errors.New("use either -file or -from-clipboard, not both")
	case fromClipboard:
		img, err := clipboard.ReadImage()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return img, nil
	case path == pipeName:
		if f, ok := stdin.(*os.File); ok && isTerminal(f) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return imageio.Decode(data)
	case path == "":
		return nil, errors.New("no input image given")
	}
	return imageio.Load(path)
}

// loadStrokes reads a JSON stroke file.
func loadStrokes(path string) (mask.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := mask.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// outputPath returns out, or a timestamped name inside dir when out is empty.
func outputPath(out, dir, mediaType string, now time.Time) string {
	if out != "" {
		return out
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, imageio.DownloadName(mediaType, now))
}

// writeOutput writes img to path or, for "-", to stdout.
func writeOutput(path string, img *imageio.Image) error {
	if path == pipeName {
		if f, ok := stdout.(*os.File); ok && isTerminal(f) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return imageio.WriteTo(stdout, img)
	}
	return imageio.Save(path, img)
}
