package canvas

import (
	"errors"
	"image"
	"math"
	"testing"
)

func defaultPalette(t *testing.T) *Palette {
	t.Helper()
	p, err := NewPalette(DefaultSwatches, 640, 480, DefaultLayout())
	if err != nil {
		t.Fatalf("NewPalette() error = %v", err)
	}
	return p
}

func TestNewPalette_DefaultLayout(t *testing.T) {
	p := defaultPalette(t)

	if p.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", p.Len())
	}
	if p.StripTop() != 410 {
		t.Errorf("StripTop() = %d, want 410", p.StripTop())
	}

	for i, b := range p.Buttons() {
		wantX := 85 + i*60
		want := image.Rect(wantX, 420, wantX+50, 470)
		if b.Rect != want {
			t.Errorf("button %d (%s) rect = %v, want %v", i, b.Name, b.Rect, want)
		}
	}
}

func TestNewPalette_Errors(t *testing.T) {
	tests := []struct {
		name     string
		swatches []Swatch
		w, h     int
		layout   Layout
		wantErr  error
	}{
		{name: "no swatches", swatches: nil, w: 640, h: 480, layout: DefaultLayout(), wantErr: ErrEmptyPalette},
		{name: "bad size", swatches: DefaultSwatches, w: 0, h: 480, layout: DefaultLayout(), wantErr: ErrInvalidSize},
		{name: "too narrow", swatches: DefaultSwatches, w: 300, h: 480, layout: DefaultLayout()},
		{name: "strip shorter than buttons", swatches: DefaultSwatches, w: 640, h: 480,
			layout: Layout{ButtonWidth: 50, ButtonHeight: 50, Gap: 10, StripHeight: 40}},
		{name: "strip taller than canvas", swatches: DefaultSwatches, w: 640, h: 60, layout: DefaultLayout()},
		{name: "zero button width", swatches: DefaultSwatches, w: 640, h: 480,
			layout: Layout{ButtonWidth: 0, ButtonHeight: 50, Gap: 10, StripHeight: 70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPalette(tt.swatches, tt.w, tt.h, tt.layout)
			if err == nil {
				t.Fatal("NewPalette() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPalette() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPalette_HitTest(t *testing.T) {
	p := defaultPalette(t)

	tests := []struct {
		name string
		pt   image.Point
		want int
	}{
		{name: "center of first", pt: image.Pt(110, 445), want: 0},
		{name: "top-left corner inclusive", pt: image.Pt(85, 420), want: 0},
		{name: "right edge inclusive", pt: image.Pt(135, 470), want: 0},
		{name: "gap between buttons", pt: image.Pt(140, 445), want: -1},
		{name: "start of second", pt: image.Pt(145, 445), want: 1},
		{name: "last button", pt: image.Pt(530, 445), want: 7},
		{name: "strip margin left of buttons", pt: image.Pt(20, 445), want: -1},
		{name: "strip above buttons", pt: image.Pt(110, 412), want: -1},
		{name: "outside strip", pt: image.Pt(110, 300), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.HitTest(tt.pt); got != tt.want {
				t.Errorf("HitTest(%v) = %d, want %d", tt.pt, got, tt.want)
			}
		})
	}
}

func TestPalette_InStrip(t *testing.T) {
	p := defaultPalette(t)
	if p.InStrip(image.Pt(0, 409)) {
		t.Error("y=409 should be above the strip")
	}
	if !p.InStrip(image.Pt(0, 410)) {
		t.Error("y=410 should be in the strip")
	}
	if !p.InStrip(image.Pt(639, 479)) {
		t.Error("bottom-right corner should be in the strip")
	}
}

func TestPalette_Button(t *testing.T) {
	p := defaultPalette(t)
	b, ok := p.Button(4)
	if !ok || b.Name != "Pastel Pink" {
		t.Errorf("Button(4) = %+v, %v", b, ok)
	}
	if _, ok := p.Button(8); ok {
		t.Error("Button(8) should not exist")
	}
	if _, ok := p.Button(-1); ok {
		t.Error("Button(-1) should not exist")
	}

	// Buttons returns a copy.
	bs := p.Buttons()
	bs[0].Name = "changed"
	if b, _ := p.Button(0); b.Name != "Red" {
		t.Error("Buttons() exposed internal state")
	}
}

func TestPinchDistance(t *testing.T) {
	tests := []struct {
		a, b image.Point
		want float64
	}{
		{image.Pt(0, 0), image.Pt(3, 4), 5},
		{image.Pt(10, 10), image.Pt(10, 10), 0},
		{image.Pt(100, 440), image.Pt(100, 470), 30},
	}
	for _, tt := range tests {
		if got := PinchDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PinchDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]uint8
		wantErr bool
	}{
		{in: "#ff0000", want: [3]uint8{255, 0, 0}},
		{in: "#ADD8E6", want: [3]uint8{173, 216, 230}},
		{in: "#0f0", want: [3]uint8{0, 255, 0}},
		{in: "red", wantErr: true},
		{in: "#12345", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got.R != tt.want[0] || got.G != tt.want[1] || got.B != tt.want[2] || got.A != 255 {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHex(t *testing.T) {
	if got := Hex(RGB(255, 192, 203)); got != "#ffc0cb" {
		t.Errorf("Hex() = %q, want #ffc0cb", got)
	}
	if got := Hex(Black); got != "#000000" {
		t.Errorf("Hex(Black) = %q", got)
	}
}

func TestClampRGB(t *testing.T) {
	got := ClampRGB(-20, 128, 999)
	if got != RGB(0, 128, 255) {
		t.Errorf("ClampRGB() = %v", got)
	}
}

func TestContrasting(t *testing.T) {
	if contrasting(Black) != White {
		t.Error("black should contrast with white")
	}
	if contrasting(RGB(255, 255, 224)) != Black {
		t.Error("pastel yellow should contrast with black")
	}
}
