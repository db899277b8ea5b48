package session

import (
	"context"

	"github.com/example/maskeraser/internal/imageio"
	"github.com/example/maskeraser/internal/mask"
	"github.com/example/maskeraser/internal/pipeline"
)

// Job is a snapshot of what a request needs. It shares nothing mutable with
// the session and may run on any goroutine.
type Job struct {
	Ticket Ticket
	source *imageio.Image
	mask   mask.Mask
}

// Source returns the image the job edits.
func (j *Job) Source() *imageio.Image { return j.source }

// Mask returns the strokes captured when the job began.
func (j *Job) Mask() mask.Mask { return j.mask }

// Request builds the backend request for the job.
func (j *Job) Request() (pipeline.EditRequest, error) {
	if j.Ticket.Kind == RemoveBackground {
		return pipeline.BackgroundRequest(j.source.Pixels)
	}
	return pipeline.MaskedRequest(j.source.Pixels, j.mask)
}

// Run prepares the request and sends it. progress, when non-nil, is called
// once the request is ready to go out.
func (j *Job) Run(ctx context.Context, p *pipeline.Pipeline, progress func(Phase)) (*pipeline.Result, error) {
	req, err := j.Request()
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(PhaseSending)
	}
	return p.Send(ctx, req)
}
