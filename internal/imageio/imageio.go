// Package imageio decodes user supplied rasters, encodes them for export and
// names downloaded files.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMediaType is assumed when nothing better is known.
const DefaultMediaType = "image/png"

// ErrNotImage is returned when the bytes do not sniff as an image.
var ErrNotImage = errors.New("not an image")

// Image is a decoded raster together with the media type it arrived as.
// Encoded keeps the original bytes so exports can be written unchanged.
type Image struct {
	Pixels    *image.NRGBA
	MediaType string
	Encoded   []byte
}

// Bounds returns the pixel bounds, always anchored at the origin.
func (i *Image) Bounds() image.Rectangle { return i.Pixels.Bounds() }

// Size returns the intrinsic width and height.
func (i *Image) Size() (int, int) {
	b := i.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Sniff returns the media type of data.
func Sniff(data []byte) string {
	mt := http.DetectContentType(data)
	if mt == "application/octet-stream" || mt == "text/plain; charset=utf-8" {
		if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			return "image/" + format
		}
	}
	return mt
}

// Decode turns encoded bytes into an Image, applying EXIF orientation.
func Decode(data []byte) (*Image, error) {
	mt := Sniff(data)
	if !strings.HasPrefix(mt, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt, err)
	}
	return &Image{Pixels: imaging.Clone(img), MediaType: mt, Encoded: data}, nil
}

// Load reads and decodes a file.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// FromImage copies an in-memory raster. It has no original encoding.
func FromImage(img image.Image, mediaType string) *Image {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return &Image{Pixels: imaging.Clone(img), MediaType: mediaType}
}

// Encode returns bytes for export and their media type. The original bytes
// are reused when present. Otherwise the raster is encoded in its media
// type when imaging supports it and as PNG when it does not.
func Encode(img *Image) ([]byte, string, error) {
	if len(img.Encoded) > 0 {
		return img.Encoded, img.MediaType, nil
	}
	mt := img.MediaType
	format, ok := formats[mt]
	if !ok {
		format, mt = imaging.PNG, DefaultMediaType
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img.Pixels, format); err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", mt, err)
	}
	return buf.Bytes(), mt, nil
}

var formats = map[string]imaging.Format{
	"image/png":  imaging.PNG,
	"image/jpeg": imaging.JPEG,
	"image/gif":  imaging.GIF,
	"image/tiff": imaging.TIFF,
	"image/bmp":  imaging.BMP,
}

// Save writes img to path.
func Save(path string, img *Image) error {
	data, _, err := Encode(img)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteTo writes the exported bytes of img to w.
func WriteTo(w io.Writer, img *Image) error {
	data, _, err := Encode(img)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Extension maps a media type to the download file extension.
func Extension(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	}
	return "png"
}

// DownloadName returns image_<unix millis>.<ext>.
func DownloadName(mediaType string, now time.Time) string {
	return fmt.Sprintf("image_%d.%s", now.UnixMilli(), Extension(mediaType))
}

// DataURL formats data as a base64 data URL.
func DataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its media type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data url has no payload")
	}
	mt, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data url is not base64")
	}
	if mt == "" {
		mt = DefaultMediaType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data url payload: %w", err)
	}
	return mt, data, nil
}
