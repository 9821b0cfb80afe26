package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. The drawing
	// engine only ever follows the first one.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config tuned for single-hand drawing.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
	}
}

// First returns the first valid hand in hands, or nil when none is usable.
// A malformed detection counts as no hand.
func First(hands []HandLandmarks) *HandLandmarks {
	for i := range hands {
		if hands[i].Validate() == nil {
			return &hands[i]
		}
	}
	return nil
}
