// Package capture reads camera frames for the local drawing pipeline.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEmptyFrame is returned when the device delivers no image.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Config describes a capture device.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
	// Mirror flips frames horizontally so on-screen motion follows the hand.
	Mirror bool
}

// DefaultConfig returns device 0 at 640x480, mirrored.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
		Mirror:   true,
	}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns a BGR frame. The caller must Close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for cfg. Missing dimensions and FPS fall back
// to the defaults.
func NewCamera(cfg Config) Camera {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &cameraImpl{cfg: cfg}
}

// Open opens the camera and requests the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame, resized to the configured resolution when
// the device ignored it, and mirrored if configured.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	Normalize(&mat, c.cfg.Width, c.cfg.Height, c.cfg.Mirror)
	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg.FPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Normalize resizes frame in place to width x height if needed and
// optionally mirrors it around the vertical axis.
func Normalize(frame *gocv.Mat, width, height int, mirror bool) {
	if frame.Cols() != width || frame.Rows() != height {
		resized := gocv.NewMat()
		gocv.Resize(*frame, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		frame.Close()
		*frame = resized
	}
	if mirror {
		gocv.Flip(*frame, frame, 1)
	}
}
