package gesture

import (
	"fmt"
	"image"
	"math"
)

// Smoother applies a first-order exponential filter to the fingertip
// position. Alpha is the weight of the previous position: higher values add
// inertia, lower values track the raw input more closely.
type Smoother struct {
	alpha float64
	prev  *image.Point
}

// NewSmoother creates a Smoother. Alpha must be in [0, 1).
func NewSmoother(alpha float64) (*Smoother, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha >= 1 {
		return nil, fmt.Errorf("smoothing factor %v outside [0, 1)", alpha)
	}
	return &Smoother{alpha: alpha}, nil
}

// Alpha returns the smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Update feeds a raw position and returns the new smoothed position.
// The first position after construction or Reset passes through unchanged.
func (s *Smoother) Update(raw image.Point) image.Point {
	next := Smooth(s.prev, raw, s.alpha)
	s.prev = &next
	return next
}

// Last returns the most recent smoothed position, or nil.
func (s *Smoother) Last() *image.Point {
	if s.prev == nil {
		return nil
	}
	p := *s.prev
	return &p
}

// Reset forgets the previous position, typically after the hand is lost.
func (s *Smoother) Reset() {
	s.prev = nil
}

// Smooth computes round(prev*alpha + raw*(1-alpha)) per axis. With no
// previous position the raw position is returned.
func Smooth(prev *image.Point, raw image.Point, alpha float64) image.Point {
	if prev == nil {
		return raw
	}
	return image.Point{
		X: smoothAxis(prev.X, raw.X, alpha),
		Y: smoothAxis(prev.Y, raw.Y, alpha),
	}
}

// smoothAxis rounds the filtered value. Rounding can pin the output one or
// more pixels short of a constant input once alpha >= 0.5; in that case it
// steps one pixel toward raw so a held position always settles exactly.
func smoothAxis(prev, raw int, alpha float64) int {
	v := int(math.Round(float64(prev)*alpha + float64(raw)*(1-alpha)))
	if v == prev && prev != raw {
		if raw > prev {
			return prev + 1
		}
		return prev - 1
	}
	return v
}
