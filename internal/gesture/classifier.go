// Package gesture turns hand landmarks into drawing modes and a stable pointer.
package gesture

import (
	"fmt"

	"github.com/ayusman/aircanvas/internal/detector"
)

// Mode represents what the user intends to do in the current frame.
type Mode int

const (
	// ModeIdle moves the cursor without touching the canvas.
	ModeIdle Mode = iota
	// ModeDraw paints with the selected color.
	ModeDraw
	// ModeErase paints with the background color.
	ModeErase
	// ModeSelect is reported while the pointer is inside the palette strip.
	// The classifier never produces it.
	ModeSelect
)

// String returns the lowercase label used in API responses.
func (m Mode) String() string {
	switch m {
	case ModeDraw:
		return "draw"
	case ModeErase:
		return "erase"
	case ModeSelect:
		return "select"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode returns the mode with the given label.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeIdle, ModeDraw, ModeErase, ModeSelect} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeIdle, fmt.Errorf("unknown mode %q", s)
}

// FingerPairs lists the (tip, lower joint) landmark pairs compared for each
// finger, thumb first.
var FingerPairs = [5][2]int{
	{detector.ThumbTip, detector.ThumbIP},
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// Rule maps a pose predicate to a mode.
type Rule struct {
	Name  string
	Match func(h *detector.HandLandmarks) bool
	Mode  Mode
}

// DefaultRules is the pose policy, highest priority first.
var DefaultRules = []Rule{
	{Name: "open-palm", Match: AllFingersOpen, Mode: ModeErase},
	{Name: "fist", Match: AllFingersClosed, Mode: ModeIdle},
	{Name: "index-extended", Match: IndexExtended, Mode: ModeDraw},
}

// Classifier evaluates an ordered rule list; the first matching rule wins,
// otherwise the fallback mode is returned.
type Classifier struct {
	rules    []Rule
	fallback Mode
}

// NewClassifier creates a Classifier using DefaultRules and an idle fallback.
func NewClassifier() *Classifier {
	return NewClassifierWithRules(DefaultRules, ModeIdle)
}

// NewClassifierWithRules creates a Classifier with a custom rule list.
func NewClassifierWithRules(rules []Rule, fallback Mode) *Classifier {
	r := make([]Rule, len(rules))
	copy(r, rules)
	return &Classifier{rules: r, fallback: fallback}
}

// Classify returns the mode for h. A nil or malformed observation is idle.
func (c *Classifier) Classify(h *detector.HandLandmarks) Mode {
	mode, _ := c.Explain(h)
	return mode
}

// Explain returns the mode for h and the name of the rule that produced it,
// or "" when the fallback applied.
func (c *Classifier) Explain(h *detector.HandLandmarks) (Mode, string) {
	if h == nil || h.Validate() != nil {
		return ModeIdle, ""
	}

	for _, r := range c.rules {
		if r.Match(h) {
			return r.Mode, r.Name
		}
	}
	return c.fallback, ""
}

// Rules returns a copy of the rule list in priority order.
func (c *Classifier) Rules() []Rule {
	r := make([]Rule, len(c.rules))
	copy(r, c.rules)
	return r
}

// AllFingersOpen reports whether every fingertip is above its lower joint.
// Image y grows downward, so above means a smaller y.
func AllFingersOpen(h *detector.HandLandmarks) bool {
	for _, p := range FingerPairs {
		if !(h.Points[p[0]].Y < h.Points[p[1]].Y) {
			return false
		}
	}
	return true
}

// AllFingersClosed reports whether every fingertip is below its lower joint.
func AllFingersClosed(h *detector.HandLandmarks) bool {
	for _, p := range FingerPairs {
		if !(h.Points[p[0]].Y > h.Points[p[1]].Y) {
			return false
		}
	}
	return true
}

// IndexExtended reports whether the index fingertip is above its PIP joint.
func IndexExtended(h *detector.HandLandmarks) bool {
	return h.Points[detector.IndexTip].Y < h.Points[detector.IndexPIP].Y
}
