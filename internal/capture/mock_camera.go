package capture

import (
	"errors"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by MockCamera when playback is exhausted.
var ErrNoFrames = errors.New("no more frames")

// MockCamera plays back pre-recorded frames for testing.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	reads   int
	mu      sync.Mutex
	running bool
}

// NewMockCamera creates a camera that returns clones of frames in order,
// starting over at the end when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// SolidFrames creates n BGR frames of the given size filled with col.
// The caller must Close them.
func SolidFrames(n, width, height int, col color.RGBA) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(
			gocv.NewScalar(float64(col.B), float64(col.G), float64(col.R), 0),
			height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrNoFrames
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns how many frames have been delivered.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}
