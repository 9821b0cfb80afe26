package canvas

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrEmptyPalette is returned when a palette has no swatches.
var ErrEmptyPalette = errors.New("palette has no swatches")

// Layout controls the size of the palette strip and its buttons.
type Layout struct {
	ButtonWidth  int
	ButtonHeight int
	Gap          int
	// StripHeight is the height of the reserved band at the bottom of the
	// canvas. Any pointer at y >= height-StripHeight is in the strip.
	StripHeight int
}

// DefaultLayout returns 50x50 buttons 10px apart in a 70px strip.
func DefaultLayout() Layout {
	return Layout{
		ButtonWidth:  50,
		ButtonHeight: 50,
		Gap:          10,
		StripHeight:  70,
	}
}

// Button is a swatch placed on screen. Rect bounds are inclusive on all sides.
type Button struct {
	Swatch
	Rect image.Rectangle
}

// Contains reports whether pt lies within the button, edges included.
func (b Button) Contains(pt image.Point) bool {
	return pt.X >= b.Rect.Min.X && pt.X <= b.Rect.Max.X &&
		pt.Y >= b.Rect.Min.Y && pt.Y <= b.Rect.Max.Y
}

// Palette is the row of color buttons inside the bottom strip, laid out once
// from the canvas size.
type Palette struct {
	buttons  []Button
	stripTop int
	width    int
	height   int
}

// NewPalette centers the swatches horizontally and vertically inside the strip.
func NewPalette(swatches []Swatch, width, height int, layout Layout) (*Palette, error) {
	if len(swatches) == 0 {
		return nil, ErrEmptyPalette
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if layout.ButtonWidth <= 0 || layout.ButtonHeight <= 0 || layout.Gap < 0 {
		return nil, fmt.Errorf("invalid button layout %+v", layout)
	}
	if layout.StripHeight < layout.ButtonHeight || layout.StripHeight >= height {
		return nil, fmt.Errorf("strip height %d must fit the buttons (%d) and the canvas (%d)",
			layout.StripHeight, layout.ButtonHeight, height)
	}

	n := len(swatches)
	total := n*layout.ButtonWidth + (n-1)*layout.Gap
	if total > width {
		return nil, fmt.Errorf("%d buttons need %dpx, canvas is %dpx wide", n, total, width)
	}

	stripTop := height - layout.StripHeight
	top := stripTop + (layout.StripHeight-layout.ButtonHeight)/2
	startX := (width - total) / 2

	buttons := make([]Button, n)
	for i, s := range swatches {
		x1 := startX + i*(layout.ButtonWidth+layout.Gap)
		buttons[i] = Button{
			Swatch: s,
			Rect:   image.Rect(x1, top, x1+layout.ButtonWidth, top+layout.ButtonHeight),
		}
	}

	return &Palette{
		buttons:  buttons,
		stripTop: stripTop,
		width:    width,
		height:   height,
	}, nil
}

// StripTop returns the first row of the palette strip.
func (p *Palette) StripTop() int { return p.stripTop }

// Len returns the number of buttons.
func (p *Palette) Len() int { return len(p.buttons) }

// Buttons returns a copy of the buttons in layout order.
func (p *Palette) Buttons() []Button {
	b := make([]Button, len(p.buttons))
	copy(b, p.buttons)
	return b
}

// Button returns button i.
func (p *Palette) Button(i int) (Button, bool) {
	if i < 0 || i >= len(p.buttons) {
		return Button{}, false
	}
	return p.buttons[i], true
}

// InStrip reports whether pt is inside the reserved palette strip.
func (p *Palette) InStrip(pt image.Point) bool {
	return pt.Y >= p.stripTop
}

// HitTest returns the index of the first button containing pt, or -1.
func (p *Palette) HitTest(pt image.Point) int {
	if !p.InStrip(pt) {
		return -1
	}
	for i, b := range p.buttons {
		if b.Contains(pt) {
			return i
		}
	}
	return -1
}

// PinchDistance is the Euclidean pixel distance between two fingertips.
func PinchDistance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
