//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/render"
)

// backend moves PNG bytes in and out of the system clipboard.
type backend interface {
	init() error
	writePNG(data []byte) error
	readPNG() ([]byte, error)
}

var (
	initOnce     sync.Once
	initErr      error
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	errNoImage   = errors.New("clipboard does not contain image data")
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		initErr = active.init()
	})
	return initErr
}

// WriteImage publishes img to the clipboard as PNG.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return err
	}
	return active.writePNG(data)
}

// ReadImage decodes the image currently on the clipboard.
func ReadImage() (*imageio.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := active.readPNG()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errNoImage
	}
	img, err := imageio.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("clipboard: %w", err)
	}
	return img, nil
}
