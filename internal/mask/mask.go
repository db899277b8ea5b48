// Package mask records freehand strokes painted over an image and keeps the
// undo history for them.
package mask

import "github.com/example/maskeraser/internal/viewport"

// Stroke is one continuous brush drag. Points and Width are in image space.
type Stroke struct {
	Points []viewport.Point
	Width  float64
}

// Mask is the ordered list of strokes. Later strokes paint over earlier ones.
type Mask []Stroke

// Clone returns a deep copy so that snapshots never share point slices.
func (m Mask) Clone() Mask {
	if m == nil {
		return nil
	}
	out := make(Mask, len(m))
	for i, s := range m {
		pts := make([]viewport.Point, len(s.Points))
		copy(pts, s.Points)
		out[i] = Stroke{Points: pts, Width: s.Width}
	}
	return out
}

// Empty reports whether the mask has no strokes.
func (m Mask) Empty() bool { return len(m) == 0 }

// Bounds returns the image-space bounding box of all strokes including their
// half width. ok is false for an empty mask.
func (m Mask) Bounds() (min, max viewport.Point, ok bool) {
	for _, s := range m {
		r := s.Width / 2
		for _, p := range s.Points {
			if !ok {
				min = viewport.Pt(p.X-r, p.Y-r)
				max = viewport.Pt(p.X+r, p.Y+r)
				ok = true
				continue
			}
			if p.X-r < min.X {
				min.X = p.X - r
			}
			if p.Y-r < min.Y {
				min.Y = p.Y - r
			}
			if p.X+r > max.X {
				max.X = p.X + r
			}
			if p.Y+r > max.Y {
				max.Y = p.Y + r
			}
		}
	}
	return min, max, ok
}
