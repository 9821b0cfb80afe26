// Package session runs the per-frame drawing state machine: it classifies
// each hand observation, smooths the pointer, hit-tests the palette and
// commits strokes to the session's canvas.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
)

var (
	// ErrClosed is returned by operations on a session that has been closed.
	ErrClosed = errors.New("session is closed")

	// ErrInvalidBrush is returned when a brush thickness is below 1.
	ErrInvalidBrush = errors.New("brush thickness must be at least 1")
)

// State is the controller state after a frame.
type State int

const (
	StateNoHand State = iota
	StateIdle
	StateDrawing
	StateErasing
	StateSelecting
)

var stateNames = map[State]string{
	StateNoHand:    "no_hand",
	StateIdle:      "idle",
	StateDrawing:   "drawing",
	StateErasing:   "erasing",
	StateSelecting: "selecting",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Result describes what one frame did.
type Result struct {
	State State
	Mode  gesture.Mode
	// Rule is the classifier rule that matched, empty when none ran.
	Rule     string
	Position *image.Point
	Hovered  int
	Color    color.RGBA
	// Stroked is true when a segment was committed to the canvas.
	Stroked bool
	// Selected is true when a pinch picked a new color.
	Selected bool
}

// Point is a pixel position in JSON form.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Status is a JSON-friendly view of a session.
type Status struct {
	ID        string             `json:"id"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Mode      gesture.Mode       `json:"mode"`
	State     State              `json:"state"`
	Color     string             `json:"color"`
	Brush     int                `json:"brush"`
	Position  *Point             `json:"position"`
	Hovered   int                `json:"hovered"`
	HandData  []detector.Point3D `json:"hand_data"`
	Frames    uint64             `json:"frames"`
	Strokes   uint64             `json:"strokes"`
	CreatedAt time.Time          `json:"created_at"`
}

// Session owns one canvas and all mutable cursor state for a single user.
// Process calls are serialized, so a frame always completes before the next
// one for the same session starts.
type Session struct {
	id        string
	cfg       Config
	createdAt time.Time

	mu         sync.Mutex
	canvas     *canvas.Canvas
	palette    *canvas.Palette
	classifier *gesture.Classifier
	smoother   *gesture.Smoother

	state    State
	mode     gesture.Mode
	rule     string
	position *image.Point
	previous *image.Point
	hovered  int
	color    color.RGBA
	brush    int
	hand     *detector.HandLandmarks
	frames   uint64
	strokes  uint64
	closed   bool
}

// New creates a session. Configuration errors wrap ErrInvalidConfig.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	smoother, err := gesture.NewSmoother(cfg.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	palette, err := canvas.NewPalette(cfg.Swatches, cfg.Width, cfg.Height, cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c, err := canvas.New(cfg.Width, cfg.Height, cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Session{
		id:         uuid.New().String(),
		cfg:        cfg,
		createdAt:  time.Now(),
		canvas:     c,
		palette:    palette,
		classifier: gesture.NewClassifier(),
		smoother:   smoother,
		state:      StateNoHand,
		mode:       gesture.ModeIdle,
		hovered:    -1,
		color:      cfg.InitialColor,
		brush:      cfg.BrushThickness,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Config returns the configuration the session was created with.
func (s *Session) Config() Config { return s.cfg }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Palette returns the session's palette layout.
func (s *Session) Palette() *canvas.Palette { return s.palette }

// Process advances the state machine by one frame. A nil or malformed
// observation counts as no hand.
func (s *Session) Process(obs *detector.HandLandmarks) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.result(false, false)
	}
	s.frames++

	if obs == nil || obs.Validate() != nil {
		s.loseHand()
		return s.result(false, false)
	}

	hand := *obs
	s.hand = &hand

	raw := obs.Pixel(detector.IndexTip, s.cfg.Width, s.cfg.Height)
	pos := s.smoother.Update(raw)
	s.position = &pos

	if s.palette.InStrip(pos) {
		return s.selectAt(pos, raw, obs)
	}
	s.hovered = -1

	mode, rule := s.classifier.Explain(obs)
	s.rule = rule

	stroked := false
	switch mode {
	case gesture.ModeDraw:
		stroked = s.continueStroke(StateDrawing, mode, pos, s.color, s.brush)
	case gesture.ModeErase:
		stroked = s.continueStroke(StateErasing, mode, pos, s.color, s.cfg.EraserThickness)
	default:
		s.state = StateIdle
		s.mode = gesture.ModeIdle
		s.previous = nil
	}
	return s.result(stroked, false)
}

// selectAt handles a pointer inside the palette strip. The stroke anchor is
// always dropped there, whatever the pose.
func (s *Session) selectAt(pos, raw image.Point, obs *detector.HandLandmarks) Result {
	s.state = StateSelecting
	s.mode = gesture.ModeSelect
	s.rule = ""
	s.previous = nil
	s.hovered = s.palette.HitTest(pos)

	selected := false
	if s.hovered >= 0 {
		thumb := obs.Pixel(detector.ThumbTip, s.cfg.Width, s.cfg.Height)
		if canvas.PinchDistance(raw, thumb) < s.cfg.PinchThreshold {
			b, _ := s.palette.Button(s.hovered)
			s.color = b.Color
			selected = true
		}
	}
	return s.result(false, selected)
}

// continueStroke commits a segment only when the previous frame was in the
// same active state, then anchors the next segment at pos.
func (s *Session) continueStroke(next State, mode gesture.Mode, pos image.Point, col color.RGBA, thickness int) bool {
	stroked := false
	if s.state == next && s.previous != nil {
		stroked = s.canvas.ApplyStroke(s.previous, &pos, mode, col, thickness)
		if stroked {
			s.strokes++
		}
	}

	s.state = next
	s.mode = mode
	anchor := pos
	s.previous = &anchor
	return stroked
}

func (s *Session) loseHand() {
	s.state = StateNoHand
	s.mode = gesture.ModeIdle
	s.rule = ""
	s.position = nil
	s.previous = nil
	s.hovered = -1
	s.hand = nil
	s.smoother.Reset()
}

func (s *Session) result(stroked, selected bool) Result {
	return Result{
		State:    s.state,
		Mode:     s.mode,
		Rule:     s.rule,
		Position: copyPoint(s.position),
		Hovered:  s.hovered,
		Color:    s.color,
		Stroked:  stroked,
		Selected: selected,
	}
}

// Clear resets the canvas to the background. The selected color is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.Clear()
}

// SetColor overrides the selected color, clamping each channel to [0, 255].
func (s *Session) SetColor(r, g, b int) color.RGBA {
	col := canvas.ClampRGB(r, g, b)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = col
	return col
}

// SetColorHex overrides the selected color from a "#rrggbb" string.
func (s *Session) SetColorHex(hex string) (color.RGBA, error) {
	col, err := canvas.ParseHex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = col
	return col, nil
}

// Color returns the selected color.
func (s *Session) Color() color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// SetBrush changes the draw thickness.
func (s *Session) SetBrush(thickness int) error {
	if thickness < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBrush, thickness)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brush = thickness
	return nil
}

// Brush returns the draw thickness.
func (s *Session) Brush() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// Mode returns the mode reported for the last frame.
func (s *Session) Mode() gesture.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// State returns the controller state after the last frame.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Export encodes the persistent canvas, without cursor or palette.
func (s *Session) Export(format canvas.Format, scale float64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.canvas.Export(format, scale)
}

// Overlay renders the canvas with the palette and cursor for the last
// frame. The caller must Close the returned Mat.
func (s *Session) Overlay() gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlayLocked()
}

func (s *Session) overlayLocked() gocv.Mat {
	cur := canvas.Cursor{
		Position: s.position,
		Mode:     s.mode,
		Hovered:  s.hovered,
		Color:    s.color,
	}
	style := canvas.OverlayStyle{CursorSize: s.cfg.CursorSize, ShowModeLabel: s.cfg.ShowModeLabel}
	return canvas.RenderOverlay(s.canvas, cur, s.palette, style)
}

// EncodeOverlay renders the overlay and encodes it as JPEG.
func (s *Session) EncodeOverlay() ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	frame := s.overlayLocked()
	s.mu.Unlock()
	defer frame.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Status returns a snapshot of the session for reporting.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:        s.id,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Mode:      s.mode,
		State:     s.state,
		Color:     canvas.Hex(s.color),
		Brush:     s.brush,
		Hovered:   s.hovered,
		HandData:  []detector.Point3D{},
		Frames:    s.frames,
		Strokes:   s.strokes,
		CreatedAt: s.createdAt,
	}
	if s.position != nil {
		st.Position = &Point{X: s.position.X, Y: s.position.Y}
	}
	if s.hand != nil {
		st.HandData = append(st.HandData, s.hand.Points[:]...)
	}
	return st
}

// Close releases the canvas. Further frames are ignored.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.canvas.Close()
}

func copyPoint(p *image.Point) *image.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
