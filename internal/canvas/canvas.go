// Package canvas owns the persistent drawing surface, the color palette and
// the per-frame overlay rendered on top of them.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/gesture"
)

var (
	// ErrInvalidSize is returned when a canvas or palette is given non-positive dimensions.
	ErrInvalidSize = errors.New("canvas dimensions must be positive")

	// ErrClosed is returned when exporting a canvas whose raster has been released.
	ErrClosed = errors.New("canvas is closed")
)

// Canvas is a persistent BGR raster. Only committed strokes and Clear mutate it.
type Canvas struct {
	mat        gocv.Mat
	width      int
	height     int
	background color.RGBA
	closed     bool
}

// New creates a width x height canvas filled with background.
func New(width, height int, background color.RGBA) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	return &Canvas{
		mat:        gocv.NewMatWithSizeFromScalar(scalar(background), height, width, gocv.MatTypeCV8UC3),
		width:      width,
		height:     height,
		background: background,
	}, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Background returns the color used for clearing and erasing.
func (c *Canvas) Background() color.RGBA { return c.background }

// ApplyStroke commits a line segment from prev to cur. Draw paints with col
// at thickness; Erase paints the background color, ignoring col. Any other
// mode, or a missing endpoint, leaves the canvas untouched. It reports
// whether the canvas was mutated.
func (c *Canvas) ApplyStroke(prev, cur *image.Point, mode gesture.Mode, col color.RGBA, thickness int) bool {
	if prev == nil || cur == nil || c.closed {
		return false
	}
	if thickness < 1 {
		thickness = 1
	}

	switch mode {
	case gesture.ModeDraw:
		gocv.Line(&c.mat, *prev, *cur, opaque(col), thickness)
	case gesture.ModeErase:
		gocv.Line(&c.mat, *prev, *cur, c.background, thickness)
	default:
		return false
	}
	return true
}

// Clear resets every pixel to the background color.
func (c *Canvas) Clear() {
	if c.closed {
		return
	}
	c.mat.SetTo(scalar(c.background))
}

// At returns the color of pixel (x, y). Out-of-bounds reads return the zero color.
func (c *Canvas) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= c.width || y >= c.height || c.closed {
		return color.RGBA{}
	}
	bgr := c.mat.GetVecbAt(y, x)
	return color.RGBA{R: bgr[2], G: bgr[1], B: bgr[0], A: 255}
}

// Clone returns an independent copy of the raster. The caller must Close it.
// A closed canvas clones into a blank background raster.
func (c *Canvas) Clone() gocv.Mat {
	if c.closed {
		return gocv.NewMatWithSizeFromScalar(scalar(c.background), c.height, c.width, gocv.MatTypeCV8UC3)
	}
	return c.mat.Clone()
}

// Image converts the raster into an image.Image.
func (c *Canvas) Image() (image.Image, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return c.mat.ToImage()
}

// Close releases the underlying raster.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.mat.Close()
}

// scalar converts an RGB color into gocv's BGR scalar order.
func scalar(col color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(col.B), float64(col.G), float64(col.R), 255)
}

func opaque(col color.RGBA) color.RGBA {
	col.A = 255
	return col
}
