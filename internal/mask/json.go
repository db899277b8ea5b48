package mask

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/example/maskeraser/internal/viewport"
)

type strokeJSON struct {
	Points [][2]float64 `json:"points"`
	Width  float64      `json:"width"`
}

// MarshalJSON writes points as [x, y] pairs.
func (s Stroke) MarshalJSON() ([]byte, error) {
	out := strokeJSON{Points: make([][2]float64, len(s.Points)), Width: s.Width}
	for i, p := range s.Points {
		out.Points[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (s *Stroke) UnmarshalJSON(b []byte) error {
	var in strokeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.Width = in.Width
	s.Points = make([]viewport.Point, len(in.Points))
	for i, p := range in.Points {
		s.Points[i] = viewport.Pt(p[0], p[1])
	}
	return nil
}

// Decode reads a JSON stroke list and validates it.
func Decode(r io.Reader) (Mask, error) {
	var m Mask
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode strokes: %w", err)
	}
	for i, s := range m {
		if len(s.Points) == 0 {
			return nil, fmt.Errorf("stroke %d has no points", i)
		}
		if s.Width <= 0 {
			return nil, fmt.Errorf("stroke %d has invalid width %v", i, s.Width)
		}
	}
	return m, nil
}

// Encode writes m as JSON.
func Encode(w io.Writer, m Mask) error {
	if m == nil {
		m = Mask{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
