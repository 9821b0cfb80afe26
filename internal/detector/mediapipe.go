package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the MediaPipe hand service script cannot be located.
var ErrServiceNotFound = errors.New("hand_service.py not found")

// ErrServiceFailed wraps errors reported by the hand service itself.
var ErrServiceFailed = errors.New("hand service failed")

// idleShutdown is how long the Python process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// maxFrameBytes bounds one encoded frame on the wire.
const maxFrameBytes = 16 << 20

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// The process is started on the first frame and stopped after idleShutdown
// without frames or after any protocol error, so the next frame restarts it.
type MediaPipeDetector struct {
	config Config
	script string

	mu        sync.Mutex
	proc      *handService
	idleTimer *time.Timer
}

// handService is one running Python process.
type handService struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := firstExisting(scriptCandidates())
	if script == "" {
		return nil, ErrServiceNotFound
	}
	return &MediaPipeDetector{config: config, script: script}, nil
}

// Detect analyzes a frame and returns detected hand landmarks, best score
// first and at most MaxHands of them.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	proc, err := d.service()
	if err != nil {
		return nil, err
	}

	hands, err := proc.roundTrip(buf.GetBytes())
	if err != nil {
		// The stream is out of step after a failed exchange.
		d.stop()
		return nil, err
	}
	d.resetIdleTimer()

	return filterHands(hands, d.config), nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) service() (*handService, error) {
	if d.proc != nil {
		return d.proc, nil
	}

	python := firstExisting(venvCandidates())
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	d.proc = &handService{cmd: cmd, in: in, out: bufio.NewReader(out)}
	return d.proc, nil
}

func (d *MediaPipeDetector) stop() error {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.proc == nil {
		return nil
	}
	proc := d.proc
	d.proc = nil

	proc.in.Close()
	return proc.cmd.Wait()
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stop()
	})
}

func (p *handService) roundTrip(jpeg []byte) ([]HandLandmarks, error) {
	if err := writeFrame(p.in, jpeg); err != nil {
		return nil, err
	}
	return readHands(p.out)
}

// writeFrame sends one frame as a 4-byte big-endian length followed by the
// encoded image.
func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameBytes {
		return fmt.Errorf("frame of %d bytes exceeds %d", len(data), maxFrameBytes)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// serviceReply is one JSON line from the hand service.
type serviceReply struct {
	Hands []struct {
		Points     []Point3D `json:"points"`
		Handedness string    `json:"handedness"`
		Score      float64   `json:"score"`
	} `json:"hands"`
	Error string `json:"error,omitempty"`
}

// readHands reads one reply line. Hands whose point list is not a valid
// observation are dropped.
func readHands(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var reply serviceReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailed, reply.Error)
	}

	hands := make([]HandLandmarks, 0, len(reply.Hands))
	for _, h := range reply.Hands {
		lm, err := FromPoints(h.Points)
		if err != nil {
			continue
		}
		lm.Handedness = h.Handedness
		lm.Score = h.Score
		hands = append(hands, *lm)
	}
	return hands, nil
}

// filterHands orders hands by score and keeps at most MaxHands. Confidence
// thresholds are applied by the service.
func filterHands(hands []HandLandmarks, cfg Config) []HandLandmarks {
	sort.SliceStable(hands, func(i, j int) bool { return hands[i].Score > hands[j].Score })
	if cfg.MaxHands > 0 && len(hands) > cfg.MaxHands {
		hands = hands[:cfg.MaxHands]
	}
	return hands
}

func executableDir() string {
	path, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(path)
}

func scriptCandidates() []string {
	return []string{
		"scripts/hand_service.py",
		"../scripts/hand_service.py",
		filepath.Join(executableDir(), "scripts/hand_service.py"),
		filepath.Join(os.Getenv("HOME"), ".aircanvas/scripts/hand_service.py"),
	}
}

func venvCandidates() []string {
	return []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(executableDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".aircanvas/venv/bin/python"),
	}
}

// firstExisting returns the absolute form of the first path that exists.
func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
