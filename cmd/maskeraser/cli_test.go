package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/maskeraser/internal/config"
	"github.com/example/maskeraser/internal/pipeline"
	"github.com/example/maskeraser/internal/session"
)

type fakeBackend struct {
	calls []pipeline.EditRequest
	resp  *pipeline.EditResponse
	err   error
}

func (f *fakeBackend) Edit(ctx context.Context, req pipeline.EditRequest) (*pipeline.EditResponse, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func testRoot(t *testing.T, backend pipeline.Backend) *root {
	t.Helper()
	t.Setenv("MASKERASER_THEME", "")
	r := &root{
		fs:      flag.NewFlagSet("maskeraser", flag.ContinueOnError),
		program: "maskeraser",
		config:  config.New(),
		newBackendFunc: func(context.Context, *root) (pipeline.Backend, error) {
			return backend, nil
		},
	}
	r.fs.StringVar(&r.themeName, "theme", "", "color theme")
	r.fs.StringVar(&r.model, "model", "", "backend model name")
	return r
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func imageResponse(t *testing.T, w, h int) *pipeline.EditResponse {
	return &pipeline.EditResponse{Parts: []pipeline.Part{
		{Text: "here you go"},
		{InlineImage: &pipeline.InlineImage{MediaType: "image/png", Data: pngBytes(t, w, h, color.White)}},
	}}
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func TestEraseWritesResult(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 40, 30, color.Black))
	strokes := writeFile(t, dir, "strokes.json", []byte(`[{"points":[[10,10],[20,10]],"width":6}]`))
	out := filepath.Join(dir, "out", "result.png")
	fb := &fakeBackend{resp: imageResponse(t, 40, 30)}

	r := testRoot(t, fb)
	if err := r.Run([]string{"erase", "-quiet", "-file", in, "-strokes", strokes, "-output", out}); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if len(fb.calls) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(fb.calls))
	}
	req := fb.calls[0]
	if req.Instruction != pipeline.RemoveObjectInstruction {
		t.Errorf("instruction = %q", req.Instruction)
	}
	if req.MediaType != "image/png" {
		t.Errorf("media type = %q", req.MediaType)
	}
	sent, err := png.Decode(bytes.NewReader(req.Image))
	if err != nil {
		t.Fatalf("decode request image: %v", err)
	}
	if got := color.NRGBAModel.Convert(sent.At(15, 10)).(color.NRGBA); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("masked pixel = %v, want opaque red", got)
	}
	if got := color.NRGBAModel.Convert(sent.At(35, 25)).(color.NRGBA); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("unmasked pixel = %v, want source", got)
	}

	img := decodeFile(t, out)
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("output size = %v", b)
	}
}

func TestEraseEmptyStrokesSkipsBackend(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 8, 8, color.Black))
	strokes := writeFile(t, dir, "strokes.json", []byte(`[]`))
	fb := &fakeBackend{resp: imageResponse(t, 8, 8)}

	err := testRoot(t, fb).Run([]string{"erase", "-quiet", "-file", in, "-strokes", strokes, "-output", filepath.Join(dir, "o.png")})
	if !errors.Is(err, pipeline.ErrEmptyMask) {
		t.Fatalf("expected ErrEmptyMask, got %v", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("backend was called %d times", len(fb.calls))
	}
	if _, statErr := os.Stat(filepath.Join(dir, "o.png")); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist: %v", statErr)
	}
}

func TestUnbgReportsMissingImage(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 8, 8, color.Black))
	fb := &fakeBackend{resp: &pipeline.EditResponse{Parts: []pipeline.Part{{Text: "I cannot do that"}}}}

	err := testRoot(t, fb).Run([]string{"unbg", "-quiet", "-file", in, "-output", filepath.Join(dir, "o.png")})
	if !errors.Is(err, pipeline.ErrNoImageInResponse) {
		t.Fatalf("expected ErrNoImageInResponse, got %v", err)
	}
	if want := "Could not generate an image"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected %q in %v", want, err)
	}
	if len(fb.calls) != 1 || fb.calls[0].Instruction != pipeline.RemoveBackgroundInstruction {
		t.Fatalf("unexpected calls %+v", fb.calls)
	}
}

func TestUnbgTransportFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 8, 8, color.Black))
	boom := errors.New("connection reset")

	err := testRoot(t, &fakeBackend{err: boom}).Run([]string{"unbg", "-quiet", "-file", in})
	var te *pipeline.TransportError
	if !errors.As(err, &te) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if want := "check the network"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected %q in %v", want, err)
	}
}

func TestUnbgDefaultOutputUsesSaveDir(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 8, 8, color.Black))
	saveDir := filepath.Join(dir, "saved")
	r := testRoot(t, &fakeBackend{resp: imageResponse(t, 8, 8)})
	r.config.SaveDir = saveDir

	if err := r.Run([]string{"unbg", "-quiet", "-file", in}); err != nil {
		t.Fatalf("unbg: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(saveDir, "image_*.png"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one image in %s, got %v (%v)", saveDir, matches, err)
	}
}

func TestRenderPreviewAndTransmission(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.png", pngBytes(t, 20, 20, color.White))
	strokes := writeFile(t, dir, "s.json", []byte(`[{"points":[[10,10]],"width":8}]`))
	r := testRoot(t, nil)

	preview := filepath.Join(dir, "preview.png")
	if err := r.Run([]string{"render", "-file", in, "-strokes", strokes, "-output", preview}); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := color.NRGBAModel.Convert(decodeFile(t, preview).At(10, 10)).(color.NRGBA)
	if got.R != 255 || got.G == 0 || got.G == 255 || got.A != 255 {
		t.Errorf("preview pixel = %v, want red blended over white", got)
	}

	mask := filepath.Join(dir, "mask.png")
	if err := r.Run([]string{"render", "-transmission", "-file", in, "-strokes", strokes, "-output", mask}); err != nil {
		t.Fatalf("render: %v", err)
	}
	got = color.NRGBAModel.Convert(decodeFile(t, mask).At(10, 10)).(color.NRGBA)
	if got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("transmission pixel = %v, want opaque red", got)
	}
}

func TestParseRequiresInputs(t *testing.T) {
	r := testRoot(t, nil)
	for _, args := range [][]string{
		{"erase", "-file", "in.png"},
		{"erase", "-strokes", "s.json"},
		{"unbg"},
		{"render", "-file", "in.png", "-strokes", "s.json"},
		{"nope"},
		{},
	} {
		err := r.Run(args)
		var uerr *UsageError
		if !errors.As(err, &uerr) {
			t.Errorf("%v: expected usage error, got %v", args, err)
		}
	}
}

func TestUsageTemplatesRender(t *testing.T) {
	r := testRoot(t, nil)
	help := (&UsageError{of: r}).Error()
	for _, want := range []string{"Usage: maskeraser", "erase", "unbg", "-theme"} {
		if !strings.Contains(help, want) {
			t.Errorf("root help missing %q:\n%s", want, help)
		}
	}

	e := newEraseCmd("unbg", session.RemoveBackground, r)
	if help := (&UsageError{of: e}).Error(); !strings.Contains(help, "background") || !strings.Contains(help, "-to-clipboard") {
		t.Errorf("unbg help:\n%s", help)
	}
	for _, of := range []HelpData{
		newEraseCmd("erase", session.RemoveMasked, r),
		&renderCmd{root: r, fs: flag.NewFlagSet("render", flag.ContinueOnError)},
		&editCmd{root: r, fs: flag.NewFlagSet("edit", flag.ContinueOnError)},
		&configCmd{root: r, fs: flag.NewFlagSet("config", flag.ContinueOnError)},
	} {
		if _, err := (&UsageError{of: of}).renderHelp(); err != nil {
			t.Errorf("%s: %v", of.Template(), err)
		}
	}
}

func TestLoadInputRejectsBoth(t *testing.T) {
	if _, err := loadInput("x.png", true); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := loadInput("", false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadInputFromPipe(t *testing.T) {
	old := stdin
	t.Cleanup(func() { stdin = old })
	stdin = bytes.NewReader(pngBytes(t, 3, 2, color.Black))

	img, err := loadInput(pipeName, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if w, h := img.Size(); w != 3 || h != 2 {
		t.Fatalf("size = %dx%d", w, h)
	}
}

func TestConfigPrintAndSave(t *testing.T) {
	r := testRoot(t, nil)
	r.config.Model = "custom-model"
	var out, errOut bytes.Buffer

	c, err := parseConfigCmd([]string{"print"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c.out = &out
	if err := c.Run(); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out.String(), "model = custom-model") {
		t.Fatalf("print output:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "nested", "config.rc")
	c, err = parseConfigCmd([]string{"-path", path, "save"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c.errOut = &errOut
	if err := c.Run(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if string(data) != out.String() {
		t.Fatalf("saved config differs from print:\n%s\n---\n%s", data, out.String())
	}
}

func TestInteractiveRunsCommands(t *testing.T) {
	r := testRoot(t, nil)
	var out, errOut bytes.Buffer
	cmd := &interactiveCmd{r: r, in: strings.NewReader("interactive\nbogus\nexit\nversion\n"), out: &out, errOut: &errOut}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errOut.String(), "already interactive") {
		t.Errorf("stderr: %s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Usage: maskeraser") {
		t.Errorf("expected usage for unknown command, got %s", errOut.String())
	}
	if strings.Count(out.String(), "> ") != 3 {
		t.Errorf("expected three prompts, got %q", out.String())
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	if err := (&versionCmd{r: &root{program: "maskeraser"}, out: &out}).Run(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.HasPrefix(got, "maskeraser version dev") {
		t.Fatalf("version output %q", got)
	}
}
