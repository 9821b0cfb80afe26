// Package detector provides hand detection interfaces and types for the air canvas.
package detector

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedObservation is returned when an observation does not carry
// 21 landmarks with normalized, finite coordinates.
var ErrMalformedObservation = errors.New("malformed hand observation")

// Point3D represents a landmark position. X and Y are normalized to the
// frame width and height, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a HandLandmarks from a variable-length point list, as
// received over the wire. It rejects lists that are not exactly 21 points
// long or contain out-of-range coordinates.
func FromPoints(points []Point3D) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedObservation, len(points), NumLandmarks)
	}

	h := &HandLandmarks{}
	copy(h.Points[:], points)

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate reports whether every landmark has finite coordinates with X and Y
// inside [0, 1].
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return ErrMalformedObservation
	}

	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedObservation, i)
		}
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("%w: landmark %d (%.3f, %.3f) out of range", ErrMalformedObservation, i, p.X, p.Y)
		}
	}
	return nil
}

// Pixel projects landmark i onto a width x height frame. Coordinates are
// truncated and clamped to the frame.
func (h *HandLandmarks) Pixel(i, width, height int) image.Point {
	p := h.Points[i]
	return image.Point{
		X: clamp(int(p.X*float64(width)), 0, width-1),
		Y: clamp(int(p.Y*float64(height)), 0, height-1),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
