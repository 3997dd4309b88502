package app

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/aabharan/internal/detector"
	"github.com/ayusman/aabharan/internal/tryon"
)

// runPipeline is the frame-driven scheduler. One tick per available frame;
// all pipeline stages run synchronously inside the tick before the next is
// scheduled. Backpressure is handled by skipping frames, never queuing them.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected, switch to active mode (activeFPS=20)
// 3. Run face landmark detection
// 4. Mirror the frame for selfie-style preview
// 5. Step the try-on session (anchors, measurements, smoothing, compositing)
// 6. Publish the composited frame for stream consumers
// 7. After 2s without motion, switch back to idle mode
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeMode := false
	lastMotionTime := time.Now()
	lastStep := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if try-on is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Elapsed wall-clock time drives the spring integrator; the
			// smoother clamps it internally against long stalls.
			now := time.Now()
			dt := now.Sub(lastStep).Seconds()
			lastStep = now

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = now

				if !activeMode {
					activeMode = true
					a.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.Camera().SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			var lm *detector.FaceLandmarks

			if activeMode {
				faces, err := a.Detector().Detect(frame)
				if err != nil {
					log.Printf("Error detecting face: %v", err)
				} else if len(faces) > 0 {
					// Single-face pipeline: extra detections are ignored.
					lm = &faces[0]
				}
			}

			// Mirror for selfie-style preview; the compositor mirrors anchor
			// coordinates to match.
			gocv.Flip(*frame, frame, 1)

			if err := a.Session().Step(lm, frame, dt); err != nil {
				if !errors.Is(err, tryon.ErrDegenerateFace) {
					log.Printf("Pipeline step failed: %v", err)
				}
				// Degenerate geometry: no overlay this tick, frame still
				// published so the preview keeps moving.
			}

			a.storeFrame(frame)
			frame.Close()
		}
	}
}
