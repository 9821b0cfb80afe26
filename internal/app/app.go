// Package app runs the local air canvas: camera frames are mirrored, passed
// through the hand detector and fed one at a time into the local drawing
// session.
package app

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/session"
	"github.com/ayusman/aircanvas/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no hand is visible.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand is tracked.
	ActiveFPS = 15
	// IdleTimeout is how long without a hand before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
	// DefaultMaxReuse bounds how many still frames reuse the last detection.
	DefaultMaxReuse = 3
)

var (
	// ErrNoSession is returned by New when no local session is configured.
	ErrNoSession = errors.New("app requires a session")
	// ErrNoStore is returned by SaveSnapshot when no store is configured.
	ErrNoStore = errors.New("no store configured")
)

// Config holds configuration options for the application.
type Config struct {
	// Session is the local drawing session fed by the camera.
	Session *session.Session
	// Store, if set, persists brush settings and snapshots.
	Store *store.Store
	// Camera overrides the device camera, mainly for tests.
	Camera       capture.Camera
	CameraConfig capture.Config
	// Detector overrides the MediaPipe detector.
	Detector     detector.Detector
	MotionThresh float64
	// MaxReuse bounds consecutive still frames that reuse the last
	// detection. Zero selects DefaultMaxReuse, negative disables reuse.
	MaxReuse int
}

// App is the local pipeline from camera to drawing session.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionGate
	detector detector.Detector
	session  *session.Session

	motionThreshold float64
	maxReuse        int

	overlay *Mailbox
	preview *Mailbox

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Pipeline state, only touched by the pipeline goroutine or under mu.
	lastHand   *detector.HandLandmarks
	haveLast   bool
	lastResult session.Result
	listeners  []func(session.Result)
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Session == nil {
		return nil, ErrNoSession
	}

	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}
	maxReuse := config.MaxReuse
	switch {
	case maxReuse == 0:
		maxReuse = DefaultMaxReuse
	case maxReuse < 0:
		maxReuse = 0
	}

	cam := config.Camera
	if cam == nil {
		camCfg := config.CameraConfig
		camCfg.Width = config.Session.Config().Width
		camCfg.Height = config.Session.Config().Height
		cam = capture.NewCamera(camCfg)
	}

	a := &App{
		config:  config,
		camera:  cam,
		motion:  capture.NewMotionGate(motionThreshold, maxReuse),
		session: config.Session,
		overlay: NewMailbox(),
		preview: NewMailbox(),
		enabled: true,

		motionThreshold: motionThreshold,
		maxReuse:        maxReuse,
	}

	if config.Detector != nil {
		a.detector = config.Detector
	} else if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetEnabled pauses or resumes frame processing. While paused the session
// sees no frames, so no strokes are drawn.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
	a.haveLast = false
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Session returns the local drawing session.
func (a *App) Session() *session.Session {
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Overlay returns the mailbox of JPEG-encoded canvas overlays.
func (a *App) Overlay() *Mailbox {
	return a.overlay
}

// Preview returns the mailbox of JPEG-encoded camera frames with the hand
// skeleton drawn on them.
func (a *App) Preview() *Mailbox {
	return a.preview
}

// OnResult registers a callback invoked after every processed frame from
// the pipeline goroutine.
func (a *App) OnResult(fn func(session.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LastResult returns the result of the most recent frame.
func (a *App) LastResult() session.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastResult
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(IdleFPS)

	a.motion.Close()
	a.motion = capture.NewMotionGate(a.motionThreshold, a.maxReuse)
	a.haveLast = false

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline and closes the camera and detector. The session
// is left open.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// LoadSettings restores the brush color and size saved by SaveSettings.
func (a *App) LoadSettings() error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()

	if hex, err := settings.Get(store.SettingBrushColor); err == nil {
		if _, err := a.session.SetColorHex(hex); err != nil {
			log.Printf("Ignoring stored brush color %q: %v", hex, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if v, err := settings.Get(store.SettingBrushSize); err == nil {
		size, convErr := strconv.Atoi(v)
		if convErr == nil {
			convErr = a.session.SetBrush(size)
		}
		if convErr != nil {
			log.Printf("Ignoring stored brush size %q: %v", v, convErr)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return nil
}

// SaveSettings persists the current brush color and size.
func (a *App) SaveSettings() error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()
	if err := settings.Set(store.SettingBrushColor, canvas.Hex(a.session.Color())); err != nil {
		return err
	}
	return settings.Set(store.SettingBrushSize, strconv.Itoa(a.session.Brush()))
}

// SaveSnapshot exports the local canvas as PNG and stores it.
func (a *App) SaveSnapshot() (*store.Snapshot, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}
	snap, err := a.session.Snapshot(canvas.FormatPNG, 1)
	if err != nil {
		return nil, err
	}
	if err := a.config.Store.Snapshots().Create(snap); err != nil {
		return nil, err
	}
	log.Printf("Saved snapshot %s (%d bytes)", snap.ID, snap.Size)
	return snap, nil
}

// ClearCanvas clears the local canvas.
func (a *App) ClearCanvas() {
	a.session.Clear()
	a.publishOverlay()
}

// Mode returns the mode reported for the last frame.
func (a *App) Mode() gesture.Mode {
	return a.session.Mode()
}
