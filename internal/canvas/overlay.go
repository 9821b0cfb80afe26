package canvas

import (
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/gesture"
)

// Cursor glyph colors.
var (
	IdleCursorColor   = RGB(0, 255, 0)
	SelectCursorColor = RGB(255, 0, 0)
	EraseCursorColor  = RGB(255, 0, 0)
	ModeLabelColor    = RGB(0, 0, 255)
)

// Cursor is what the overlay needs to know about the pointer this frame.
type Cursor struct {
	Position *image.Point
	Mode     gesture.Mode
	// Hovered is the palette button under the pointer, or -1.
	Hovered int
	// Color is the brush color, used by the draw glyph.
	Color color.RGBA
}

// OverlayStyle controls decoration drawn on the overlay.
type OverlayStyle struct {
	CursorSize    int
	ShowModeLabel bool
}

// DefaultOverlayStyle returns a 13px cursor with the mode label shown.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{CursorSize: 13, ShowModeLabel: true}
}

// RenderOverlay composes the palette and cursor on a copy of the canvas.
// The canvas itself is never modified. The caller must Close the result.
func RenderOverlay(c *Canvas, cur Cursor, p *Palette, style OverlayStyle) gocv.Mat {
	frame := c.Clone()
	DrawPalette(&frame, p, cur)
	DrawCursor(&frame, cur, style.CursorSize)
	if style.ShowModeLabel {
		DrawModeLabel(&frame, cur.Mode)
	}
	return frame
}

// DrawPalette fills every button with its color and outlines the hovered
// one while selecting.
func DrawPalette(frame *gocv.Mat, p *Palette, cur Cursor) {
	if p == nil {
		return
	}
	for i, b := range p.buttons {
		gocv.Rectangle(frame, b.Rect, b.Color, -1)
		if cur.Mode == gesture.ModeSelect && cur.Hovered == i {
			gocv.Rectangle(frame, b.Rect, contrasting(b.Color), 2)
		}
	}
}

// DrawCursor draws the glyph for cur.Mode at cur.Position. A plus for idle,
// a filled circle with a tail for draw, an outlined box for erase, and a
// smaller plus for select.
func DrawCursor(frame *gocv.Mat, cur Cursor, size int) {
	if cur.Position == nil {
		return
	}
	if size < 2 {
		size = 2
	}
	pt := *cur.Position

	switch cur.Mode {
	case gesture.ModeDraw:
		gocv.Circle(frame, pt, size/2, opaque(cur.Color), -1)
		gocv.Line(frame, image.Pt(pt.X, pt.Y+size/2), image.Pt(pt.X, pt.Y+size), opaque(cur.Color), 2)
	case gesture.ModeErase:
		gocv.Rectangle(frame, image.Rect(pt.X-size, pt.Y-size/2, pt.X+size, pt.Y+size/2), EraseCursorColor, 2)
	case gesture.ModeSelect:
		drawPlus(frame, pt, size/3, SelectCursorColor)
	default:
		drawPlus(frame, pt, size/2, IdleCursorColor)
	}
}

// DrawModeLabel writes "MODE: <MODE>" in the top-left corner.
func DrawModeLabel(frame *gocv.Mat, mode gesture.Mode) {
	gocv.PutText(frame, "MODE: "+strings.ToUpper(mode.String()), image.Pt(10, 30),
		gocv.FontHersheySimplex, 1, ModeLabelColor, 2)
}

func drawPlus(frame *gocv.Mat, center image.Point, arm int, col color.RGBA) {
	gocv.Line(frame, image.Pt(center.X-arm, center.Y), image.Pt(center.X+arm, center.Y), col, 2)
	gocv.Line(frame, image.Pt(center.X, center.Y-arm), image.Pt(center.X, center.Y+arm), col, 2)
}
