package session

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ayusman/aircanvas/internal/canvas"
)

// ErrInvalidConfig is returned by New when the configuration cannot produce
// a working session.
var ErrInvalidConfig = errors.New("invalid session config")

// DefaultMaxDimension caps each canvas side when Config.MaxDimension is zero.
const DefaultMaxDimension = 4096

// Config holds the tunables for a drawing session.
type Config struct {
	// Width and Height size the canvas and lay out the palette.
	Width  int
	Height int

	// MaxDimension caps Width and Height. Zero selects DefaultMaxDimension.
	MaxDimension int

	// Smoothing is the pointer smoothing factor in [0, 1).
	Smoothing float64

	BrushThickness  int
	EraserThickness int
	CursorSize      int

	// PinchThreshold is the thumb-to-index pixel distance below which a
	// hovered swatch is selected.
	PinchThreshold float64

	Layout        canvas.Layout
	Background    color.RGBA
	InitialColor  color.RGBA
	Swatches      []canvas.Swatch
	ShowModeLabel bool
}

// DefaultConfig returns the stock settings for a width x height session.
func DefaultConfig(width, height int) Config {
	swatches := make([]canvas.Swatch, len(canvas.DefaultSwatches))
	copy(swatches, canvas.DefaultSwatches)

	return Config{
		Width:           width,
		Height:          height,
		MaxDimension:    DefaultMaxDimension,
		Smoothing:       0.3,
		BrushThickness:  3,
		EraserThickness: 25,
		CursorSize:      13,
		PinchThreshold:  30,
		Layout:          canvas.DefaultLayout(),
		Background:      canvas.White,
		InitialColor:    canvas.Black,
		Swatches:        swatches,
		ShowModeLabel:   true,
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	limit := c.MaxDimension
	if limit <= 0 {
		limit = DefaultMaxDimension
	}
	if c.Width > limit || c.Height > limit {
		return fmt.Errorf("%w: canvas size %dx%d exceeds %d", ErrInvalidConfig, c.Width, c.Height, limit)
	}
	if math.IsNaN(c.Smoothing) || c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("%w: smoothing %v outside [0, 1)", ErrInvalidConfig, c.Smoothing)
	}
	if c.BrushThickness < 1 || c.EraserThickness < 1 {
		return fmt.Errorf("%w: brush %d and eraser %d must be at least 1",
			ErrInvalidConfig, c.BrushThickness, c.EraserThickness)
	}
	if c.PinchThreshold <= 0 {
		return fmt.Errorf("%w: pinch threshold %v must be positive", ErrInvalidConfig, c.PinchThreshold)
	}
	if len(c.Swatches) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, canvas.ErrEmptyPalette)
	}
	return nil
}
