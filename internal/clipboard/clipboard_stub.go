//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"errors"
	"image"

	"github.com/example/maskeraser/internal/imageio"
)

var errUnsupported = errors.New("clipboard image operations are not supported on this platform")

func WriteImage(image.Image) error {
	return errUnsupported
}

func ReadImage() (*imageio.Image, error) {
	return nil, errUnsupported
}
