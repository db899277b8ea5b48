package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/render"
)

// renderCmd draws strokes over an image without calling the backend.
type renderCmd struct {
	file          string
	strokes       string
	output        string
	fromClipboard bool
	transmission  bool
	*root
	fs     *flag.FlagSet
	errOut io.Writer
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *renderCmd) Program() string {
	return c.root.Program() + " render"
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs, errOut: os.Stderr}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "input image file, or - for stdin")
	fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "read the input image from the clipboard")
	fs.StringVar(&c.strokes, "strokes", "", "JSON stroke file in image coordinates")
	fs.StringVar(&c.output, "output", "", "PNG output file, or - for stdout")
	fs.BoolVar(&c.transmission, "transmission", false, "write the opaque mask image sent to the model instead of the preview")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (c.file == "" && !c.fromClipboard) || c.strokes == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	src, err := loadInput(c.file, c.fromClipboard)
	if err != nil {
		return err
	}
	m, err := loadStrokes(c.strokes)
	if err != nil {
		return err
	}
	out := render.Preview(src.Pixels, m)
	if c.transmission {
		out = render.Transmission(src.Pixels, m)
	}
	img := imageio.FromImage(out, imageio.DefaultMediaType)
	if err := writeOutput(c.output, img); err != nil {
		return fmt.Errorf("write %s: %w", c.output, err)
	}
	if c.output != pipeName {
		fmt.Fprintf(c.errOut, "wrote %s\n", c.output)
	}
	return nil
}
