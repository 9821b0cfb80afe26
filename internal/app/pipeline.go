package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/session"
)

// runPipeline is the main loop. Each tick reads one frame and runs it to
// completion before the next one is read, so the session never sees
// overlapping frames.
//
// Pipeline logic:
// 1. Start at IdleFPS
// 2. Read and mirror a frame, run hand detection unless the motion gate
//    says the frame is unchanged
// 3. Feed the first valid hand (or none) into the session
// 4. Publish the overlay and the annotated camera preview
// 5. Switch to ActiveFPS while a hand is tracked, back to IdleFPS after
//    IdleTimeout without one
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeMode := false
	lastHandTime := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if the pipeline is paused
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			res := a.processFrame(frame)
			frame.Close()

			if res.State != session.StateNoHand {
				lastHandTime = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / time.Duration(ActiveFPS))
					log.Println("Hand tracked, switched to active mode")
				}
			} else if activeMode && time.Since(lastHandTime) > IdleTimeout {
				activeMode = false
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / time.Duration(IdleFPS))
				log.Println("No hand, switched to idle mode")
			}
		}
	}
}

// processFrame runs one frame through detection and the session, then
// publishes the results. The frame is annotated in place.
func (a *App) processFrame(frame *gocv.Mat) session.Result {
	a.mu.RLock()
	det := a.detector
	motion := a.motion
	reuse, last := a.haveLast, a.lastHand
	a.mu.RUnlock()

	hand := last
	if detect, _ := motion.ShouldDetect(frame); detect || !reuse {
		hand = a.detect(det, frame)
	}

	res := a.session.Process(hand)

	if hand != nil {
		detector.DrawHand(frame, hand)
	}
	a.publishPreview(frame)
	a.publishOverlay()

	a.mu.Lock()
	a.lastResult = res
	listeners := make([]func(session.Result), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
	return res
}

// detect runs the detector and caches its answer for still frames. A
// detector error counts as no hand and is not cached.
func (a *App) detect(det detector.Detector, frame *gocv.Mat) *detector.HandLandmarks {
	var hand *detector.HandLandmarks
	ok := true
	if det != nil {
		hands, err := det.Detect(frame)
		if err != nil {
			log.Printf("Error detecting hands: %v", err)
			ok = false
		} else {
			hand = detector.First(hands)
		}
	}

	a.mu.Lock()
	a.lastHand, a.haveLast = hand, ok
	a.mu.Unlock()
	return hand
}

func (a *App) publishPreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.Printf("Error encoding preview: %v", err)
		return
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()
	a.preview.Publish(data)
}

func (a *App) publishOverlay() {
	data, err := a.session.EncodeOverlay()
	if err != nil {
		log.Printf("Error encoding overlay: %v", err)
		return
	}
	a.overlay.Publish(data)
}
