package canvas

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Swatch is a named palette color.
type Swatch struct {
	Name  string
	Color color.RGBA
}

// Common colors.
var (
	White = RGB(255, 255, 255)
	Black = RGB(0, 0, 0)
)

// DefaultSwatches is the stock palette, left to right.
var DefaultSwatches = []Swatch{
	{Name: "Red", Color: RGB(255, 0, 0)},
	{Name: "Green", Color: RGB(0, 255, 0)},
	{Name: "Blue", Color: RGB(0, 0, 255)},
	{Name: "Black", Color: Black},
	{Name: "Pastel Pink", Color: RGB(255, 192, 203)},
	{Name: "Pastel Blue", Color: RGB(173, 216, 230)},
	{Name: "Pastel Green", Color: RGB(152, 251, 152)},
	{Name: "Pastel Yellow", Color: RGB(255, 255, 224)},
}

// RGB builds an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ClampRGB builds an opaque color from integer channels, clamping each to [0, 255].
func ClampRGB(r, g, b int) color.RGBA {
	return RGB(clampChannel(r), clampChannel(g), clampChannel(b))
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}

// Hex formats col as "#rrggbb".
func Hex(col color.RGBA) string {
	c, _ := colorful.MakeColor(opaque(col))
	return c.Hex()
}

// contrasting returns black or white, whichever reads better on col.
func contrasting(col color.RGBA) color.RGBA {
	c, _ := colorful.MakeColor(opaque(col))
	l, _, _ := c.Lab()
	if l < 0.35 {
		return White
	}
	return Black
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
