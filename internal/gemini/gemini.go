// Package gemini implements the edit backend on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/example/maskeraser/internal/pipeline"
)

// DefaultModel is the image editing model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image"

// ErrMissingAPIKey is returned by New when no key was supplied or found in
// the environment.
var ErrMissingAPIKey = errors.New("gemini: no API key (set api_key in the config or GEMINI_API_KEY)")

// APIKeyFromEnv returns GEMINI_API_KEY, falling back to API_KEY.
func APIKeyFromEnv() string {
	for _, k := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is a pipeline.Backend backed by genai.
type Client struct {
	models generator
	model  string
}

var _ pipeline.Backend = (*Client)(nil)

type options struct {
	apiKey string
	model  string
}

// Option configures New.
type Option func(*options)

// WithAPIKey sets the key. An empty key falls back to the environment.
func WithAPIKey(key string) Option { return func(o *options) { o.apiKey = key } }

// WithModel overrides DefaultModel.
func WithModel(model string) Option { return func(o *options) { o.model = model } }

// New connects a client to the Gemini API.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.apiKey == "" {
		o.apiKey = APIKeyFromEnv()
	}
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  o.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newClient(c.Models, o.model), nil
}

func newClient(models generator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Edit sends the image followed by the instruction as a single user turn and
// returns the parts of the first candidate.
func (c *Client) Edit(ctx context.Context, req pipeline.EditRequest) (*pipeline.EditResponse, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: req.MediaType, Data: req.Image}},
			{Text: req.Instruction},
		},
	}}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, err
	}
	return convert(resp), nil
}

func convert(resp *genai.GenerateContentResponse) *pipeline.EditResponse {
	out := &pipeline.EditResponse{}
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return out
	}
	for _, p := range cand.Content.Parts {
		if p == nil {
			continue
		}
		part := pipeline.Part{Text: p.Text}
		if p.InlineData != nil {
			part.InlineImage = &pipeline.InlineImage{
				MediaType: p.InlineData.MIMEType,
				Data:      p.InlineData.Data,
			}
		}
		out.Parts = append(out.Parts, part)
	}
	return out
}
