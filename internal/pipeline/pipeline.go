// Package pipeline turns a source image and mask into a backend edit request
// and extracts the edited image from the answer.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/render"
)

// Instructions sent alongside the image.
const (
	RemoveObjectInstruction     = "Remove the object covered by the red mask in this image. Replace it seamlessly with the background. Return only the image."
	RemoveBackgroundInstruction = "Remove the background of the image. The output image MUST be a PNG with an alpha channel (transparent background). CRITICAL: DO NOT RENDER A CHECKERBOARD OR GRID PATTERN TO SIMULATE TRANSPARENCY. The background pixels must be completely transparent (alpha=0). Return the main subject only."
)

// DefaultMediaType is used for requests and for response images that do not
// declare their own type.
const DefaultMediaType = "image/png"

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 120 * time.Second

// Result is an edited image returned by the backend.
type Result struct {
	MediaType string
	Data      []byte
	Image     *imageio.Image
}

// DataURL returns the result as data:<type>;base64,<data>.
func (r *Result) DataURL() string {
	return imageio.DataURL(r.MediaType, r.Data)
}

// Pipeline sends edit requests through a Backend.
type Pipeline struct {
	backend Backend
	timeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout sets the per-request deadline. Zero or negative disables it.
func WithTimeout(d time.Duration) Option { return func(p *Pipeline) { p.timeout = d } }

// New creates a Pipeline using backend.
func New(backend Backend, opts ...Option) *Pipeline {
	p := &Pipeline{backend: backend, timeout: DefaultTimeout}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RemoveMasked asks the backend to erase whatever is under the mask.
func (p *Pipeline) RemoveMasked(ctx context.Context, src image.Image, m mask.Mask) (*Result, error) {
	req, err := MaskedRequest(src, m)
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, req)
}

// RemoveBackground asks the backend to cut out the main subject.
func (p *Pipeline) RemoveBackground(ctx context.Context, src image.Image) (*Result, error) {
	req, err := BackgroundRequest(src)
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, req)
}

// MaskedRequest composes the opaque mask over src and builds the removal
// request.
func MaskedRequest(src image.Image, m mask.Mask) (EditRequest, error) {
	if m.Empty() {
		return EditRequest{}, ErrEmptyMask
	}
	data, err := render.EncodePNG(render.Transmission(src, m))
	if err != nil {
		return EditRequest{}, err
	}
	return EditRequest{Image: data, MediaType: DefaultMediaType, Instruction: RemoveObjectInstruction}, nil
}

// BackgroundRequest builds the background removal request for the bare
// source.
func BackgroundRequest(src image.Image) (EditRequest, error) {
	data, err := render.EncodePNG(src)
	if err != nil {
		return EditRequest{}, err
	}
	return EditRequest{Image: data, MediaType: DefaultMediaType, Instruction: RemoveBackgroundInstruction}, nil
}

// Send performs one backend call and parses the answer. Backend failures
// are wrapped in *TransportError.
func (p *Pipeline) Send(ctx context.Context, req EditRequest) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	resp, err := p.backend.Edit(ctx, req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return ParseResponse(resp)
}

// ParseResponse picks the first part carrying image bytes.
func ParseResponse(resp *EditResponse) (*Result, error) {
	if resp == nil {
		return nil, ErrNoImageInResponse
	}
	for _, part := range resp.Parts {
		if part.InlineImage == nil || len(part.InlineImage.Data) == 0 {
			continue
		}
		mt := part.InlineImage.MediaType
		if mt == "" {
			mt = DefaultMediaType
		}
		img, err := imageio.Decode(part.InlineImage.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoImageInResponse, err)
		}
		img.MediaType = mt
		return &Result{MediaType: mt, Data: part.InlineImage.Data, Image: img}, nil
	}
	return nil, ErrNoImageInResponse
}
