package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/viewport"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []EditRequest
	resp  *EditResponse
	err   error
}

func (f *fakeBackend) Edit(ctx context.Context, req EditRequest) (*EditResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageResponse(t *testing.T, mediaType string) *EditResponse {
	return &EditResponse{Parts: []Part{
		{Text: "here you go"},
		{InlineImage: &InlineImage{MediaType: mediaType, Data: encode(t, whiteImage(4, 4))}},
	}}
}

func TestRemoveMaskedSendsOpaqueMaskAtSourceSize(t *testing.T) {
	fb := &fakeBackend{resp: imageResponse(t, "")}
	p := New(fb)
	src := whiteImage(800, 600)
	m := mask.Mask{{Points: []viewport.Point{{X: 100, Y: 100}, {X: 300, Y: 100}}, Width: 40}}

	res, err := p.RemoveMasked(context.Background(), src, m)
	require.NoError(t, err)

	require.Len(t, fb.calls, 1)
	req := fb.calls[0]
	assert.Equal(t, "image/png", req.MediaType)
	assert.Equal(t, RemoveObjectInstruction, req.Instruction)

	sent, err := png.Decode(bytes.NewReader(req.Image))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), sent.Bounds())
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, color.NRGBAModel.Convert(sent.At(200, 100)))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, color.NRGBAModel.Convert(sent.At(500, 400)))

	assert.Equal(t, "image/png", res.MediaType)
	assert.True(t, strings.HasPrefix(res.DataURL(), "data:image/png;base64,"))
	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 4, 4), res.Image.Bounds())
}

func TestRemoveMaskedEmptyMaskSkipsBackend(t *testing.T) {
	fb := &fakeBackend{resp: imageResponse(t, "")}
	_, err := New(fb).RemoveMasked(context.Background(), whiteImage(10, 10), nil)
	require.ErrorIs(t, err, ErrEmptyMask)
	assert.Empty(t, fb.calls)
}

func TestRemoveBackgroundSendsBareSource(t *testing.T) {
	fb := &fakeBackend{resp: imageResponse(t, "image/webp")}
	src := whiteImage(20, 10)

	res, err := New(fb).RemoveBackground(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, fb.calls, 1)
	assert.Equal(t, RemoveBackgroundInstruction, fb.calls[0].Instruction)
	sent, err := png.Decode(bytes.NewReader(fb.calls[0].Image))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), sent.Bounds())
	assert.Equal(t, "image/webp", res.MediaType)
	assert.Equal(t, "image/webp", res.Image.MediaType)
}

func TestTransportErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	fb := &fakeBackend{err: cause}

	_, err := New(fb).RemoveBackground(context.Background(), whiteImage(2, 2))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestTimeoutIsTransportError(t *testing.T) {
	slow := BackendFunc(func(ctx context.Context, req EditRequest) (*EditResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := New(slow, WithTimeout(10*time.Millisecond)).RemoveBackground(context.Background(), whiteImage(2, 2))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseResponse(t *testing.T) {
	img := encode(t, whiteImage(3, 3))
	tests := []struct {
		name   string
		resp   *EditResponse
		wantMT string
		err    error
	}{
		{name: "nil", resp: nil, err: ErrNoImageInResponse},
		{name: "text only", resp: &EditResponse{Parts: []Part{{Text: "sorry"}}}, err: ErrNoImageInResponse},
		{name: "empty inline", resp: &EditResponse{Parts: []Part{{InlineImage: &InlineImage{MediaType: "image/png"}}}}, err: ErrNoImageInResponse},
		{name: "undecodable", resp: &EditResponse{Parts: []Part{{InlineImage: &InlineImage{Data: []byte("nope")}}}}, err: ErrNoImageInResponse},
		{name: "default media type", resp: &EditResponse{Parts: []Part{{InlineImage: &InlineImage{Data: img}}}}, wantMT: "image/png"},
		{name: "first image wins", resp: &EditResponse{Parts: []Part{
			{InlineImage: &InlineImage{MediaType: "image/jpeg", Data: img}},
			{InlineImage: &InlineImage{MediaType: "image/gif", Data: img}},
		}}, wantMT: "image/jpeg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseResponse(tc.resp)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMT, res.MediaType)
			assert.Equal(t, img, res.Data)
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Contains(t, Describe(ErrNoImageInResponse), "Could not generate")
	assert.Contains(t, Describe(&TransportError{Err: errors.New("x")}), "network")
	assert.Contains(t, Describe(ErrEmptyMask), "Paint")
	assert.Equal(t, "other", Describe(errors.New("other")))
}
