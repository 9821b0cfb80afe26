package gesture

import (
	"image"
	"testing"
)

func TestNewSmoother(t *testing.T) {
	tests := []struct {
		name    string
		alpha   float64
		wantErr bool
	}{
		{name: "zero is responsive", alpha: 0},
		{name: "default", alpha: 0.3},
		{name: "heavy inertia", alpha: 0.99},
		{name: "one is rejected", alpha: 1, wantErr: true},
		{name: "negative is rejected", alpha: -0.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSmoother(tt.alpha)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSmoother(%v) error = %v, wantErr %v", tt.alpha, err, tt.wantErr)
			}
			if err == nil && s.Alpha() != tt.alpha {
				t.Errorf("Alpha() = %v, want %v", s.Alpha(), tt.alpha)
			}
		})
	}
}

func TestSmooth(t *testing.T) {
	prev := image.Pt(100, 200)

	tests := []struct {
		name  string
		prev  *image.Point
		raw   image.Point
		alpha float64
		want  image.Point
	}{
		{name: "no previous passes raw through", prev: nil, raw: image.Pt(5, 7), alpha: 0.3, want: image.Pt(5, 7)},
		{name: "alpha zero follows raw", prev: &prev, raw: image.Pt(150, 100), alpha: 0, want: image.Pt(150, 100)},
		{name: "weighted blend", prev: &prev, raw: image.Pt(200, 100), alpha: 0.3, want: image.Pt(170, 130)},
		{name: "rounds half away from zero", prev: &prev, raw: image.Pt(101, 200), alpha: 0.5, want: image.Pt(101, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Smooth(tt.prev, tt.raw, tt.alpha); got != tt.want {
				t.Errorf("Smooth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSmoother_ConvergesToConstantInput(t *testing.T) {
	for _, alpha := range []float64{0, 0.3, 0.5, 0.7, 0.9, 0.95} {
		s, err := NewSmoother(alpha)
		if err != nil {
			t.Fatalf("NewSmoother(%v) error = %v", alpha, err)
		}

		s.Update(image.Pt(0, 479))
		target := image.Pt(320, 240)

		var got image.Point
		for i := 0; i < 500; i++ {
			got = s.Update(target)
		}
		if got != target {
			t.Errorf("alpha %v: settled at %v, want %v", alpha, got, target)
		}
	}
}

func TestSmoother_NeverOvershoots(t *testing.T) {
	s, _ := NewSmoother(0.6)
	s.Update(image.Pt(0, 0))

	prevX := 0
	for i := 0; i < 100; i++ {
		p := s.Update(image.Pt(100, 0))
		if p.X > 100 || p.X < prevX {
			t.Fatalf("step %d: x = %d, previous %d", i, p.X, prevX)
		}
		prevX = p.X
	}
}

func TestSmoother_Reset(t *testing.T) {
	s, _ := NewSmoother(0.5)

	if s.Last() != nil {
		t.Error("Last() should be nil before any update")
	}

	s.Update(image.Pt(10, 10))
	if got := s.Update(image.Pt(30, 30)); got != image.Pt(20, 20) {
		t.Errorf("Update() = %v, want (20,20)", got)
	}
	if last := s.Last(); last == nil || *last != image.Pt(20, 20) {
		t.Errorf("Last() = %v, want (20,20)", last)
	}

	s.Reset()
	if s.Last() != nil {
		t.Error("Last() should be nil after Reset")
	}
	if got := s.Update(image.Pt(300, 5)); got != image.Pt(300, 5) {
		t.Errorf("first Update() after Reset = %v, want raw (300,5)", got)
	}
}
