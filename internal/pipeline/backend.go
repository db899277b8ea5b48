package pipeline

import "context"

// EditRequest is one image plus one instruction sent to the backend.
type EditRequest struct {
	Image       []byte
	MediaType   string
	Instruction string
}

// InlineImage is image data embedded in a response part.
type InlineImage struct {
	MediaType string
	Data      []byte
}

// Part is one element of a backend response. Either field may be empty.
type Part struct {
	Text        string
	InlineImage *InlineImage
}

// EditResponse carries the parts of the first candidate answer.
type EditResponse struct {
	Parts []Part
}

// Backend performs a single generative edit.
type Backend interface {
	Edit(ctx context.Context, req EditRequest) (*EditResponse, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req EditRequest) (*EditResponse, error)

// Edit calls f.
func (f BackendFunc) Edit(ctx context.Context, req EditRequest) (*EditResponse, error) {
	return f(ctx, req)
}
