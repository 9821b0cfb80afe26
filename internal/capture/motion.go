package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing constants.
const (
	// BlurSize is the Gaussian kernel used to suppress sensor noise.
	BlurSize = 21
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
)

// MotionGate decides whether a frame differs enough from the last inspected
// one to be worth running hand detection on. Still frames may reuse the
// previous detection, but never more than MaxSkips times in a row.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64
	maxSkips  int
	skipped   int
	prevGray  gocv.Mat
	hasPrev   bool
	closed    bool
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change; maxSkips bounds consecutive reused frames.
func NewMotionGate(threshold float64, maxSkips int) *MotionGate {
	if maxSkips < 0 {
		maxSkips = 0
	}
	return &MotionGate{
		threshold: threshold,
		maxSkips:  maxSkips,
		prevGray:  gocv.NewMat(),
	}
}

// ShouldDetect reports whether frame needs a fresh detection, along with
// the percentage of pixels that changed.
func (g *MotionGate) ShouldDetect(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || frame == nil || frame.Empty() {
		return true, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault)

	if !g.hasPrev || gray.Cols() != g.prevGray.Cols() || gray.Rows() != g.prevGray.Rows() {
		gray.CopyTo(&g.prevGray)
		g.hasPrev = true
		g.skipped = 0
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, g.prevGray, &diff)
	gocv.Threshold(diff, &diff, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&g.prevGray)

	if changed > g.threshold || g.skipped >= g.maxSkips {
		g.skipped = 0
		return true, changed
	}
	g.skipped++
	return false, changed
}

// Reset forgets the baseline frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	g.skipped = 0
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.hasPrev = false
	g.prevGray.Close()
}
