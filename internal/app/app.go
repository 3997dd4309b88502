// Package app provides the main application logic for the Aabharan virtual
// try-on system.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/oklog/ulid/v2"
	"gocv.io/x/gocv"

	"github.com/ayusman/aabharan/internal/capture"
	"github.com/ayusman/aabharan/internal/detector"
	"github.com/ayusman/aabharan/internal/store"
	"github.com/ayusman/aabharan/internal/tryon"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when nothing moves in front of the camera.
	IdleFPS = 5
	// ActiveFPS is the frame rate during an active try-on.
	ActiveFPS = 20
	// IdleTimeoutMs is the time in milliseconds without motion before
	// switching back to idle mode.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64
	TryOn        tryon.Config
	Calibration  tryon.Calibration
}

// App orchestrates the try-on pipeline: camera frames in, landmark
// detection, anchor resolution and smoothing in the session, composited
// preview frames out.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	session  *tryon.Session

	enabled     bool
	currentItem string
	mu          sync.RWMutex
	stopCh      chan struct{}
	doneCh      chan struct{}

	frameMu   sync.RWMutex
	lastFrame gocv.Mat
	hasFrame  bool
}

// New creates a new App instance with the given configuration. The try-on
// configuration is validated here: an invalid jewelry config is a setup
// error, never a per-frame one.
func New(config Config) (*App, error) {
	if config.Calibration == (tryon.Calibration{}) {
		config.Calibration = tryon.DefaultCalibration()
	}

	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	session, err := tryon.NewSession(config.TryOn, config.Calibration)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:    config,
		camera:    capture.NewCamera(config.CameraID),
		motion:    capture.NewMotionDetector(motionThreshold),
		session:   session,
		lastFrame: gocv.NewMat(),
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe face mesh detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetEnabled enables or disables the try-on overlay.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether try-on processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the face landmark detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera implementation, primarily for tests driving
// the pipeline with recorded or synthetic frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Session returns the current try-on session.
func (a *App) Session() *tryon.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the face landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// CurrentItem returns the name of the catalog item being tried on, if any.
func (a *App) CurrentItem() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentItem
}

// UseConfig replaces the try-on session with one for the given jewelry
// configuration. The old session's physics state is discarded; its Close
// blocks until any in-flight pipeline tick on it has finished.
func (a *App) UseConfig(cfg tryon.Config) error {
	session, err := tryon.NewSession(cfg, a.config.Calibration)
	if err != nil {
		return err
	}

	a.mu.Lock()
	old := a.session
	a.session = session
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// UseItem activates a catalog item for try-on: its AR config becomes the
// session configuration and a try_on analytics event is recorded.
func (a *App) UseItem(item *store.Item) error {
	cfg := tryon.DefaultConfig()
	if item.ARConfig != "" && item.ARConfig != "{}" {
		if err := json.Unmarshal([]byte(item.ARConfig), &cfg); err != nil {
			return fmt.Errorf("parse ar config for %s: %w", item.ID, err)
		}
	}

	if err := a.UseConfig(cfg); err != nil {
		return err
	}

	a.mu.Lock()
	a.currentItem = item.Name
	sessionID := a.session.ID()
	a.mu.Unlock()

	if a.config.Store != nil {
		ev := &store.Event{
			ID:        ulid.Make().String(),
			ItemID:    item.ID,
			Type:      store.EventTryOn,
			SessionID: sessionID,
		}
		if err := a.config.Store.Analytics().Track(ev); err != nil {
			log.Printf("Failed to track try-on for %s: %v", item.ID, err)
		}
	}

	return nil
}

// Start begins the try-on pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera; failure here is fatal to the session and surfaced
	// to the caller. Retry policy belongs to whoever called us.
	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Try-on pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources. It waits for the pipeline
// goroutine to exit, so after Stop returns no tick is in flight and no
// callbacks are invoked.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	// Join outside the lock: an in-flight tick takes the read lock for its
	// camera, detector and session accessors.
	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.session != nil {
		a.session.Close()
	}

	a.frameMu.Lock()
	if !a.lastFrame.Empty() {
		a.lastFrame.Close()
		a.lastFrame = gocv.NewMat()
	}
	a.hasFrame = false
	a.frameMu.Unlock()

	log.Println("Try-on pipeline stopped")
}

// Snapshot returns a copy of the most recent composited preview frame.
// The caller is responsible for closing the returned Mat.
func (a *App) Snapshot() (*gocv.Mat, error) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()

	if !a.hasFrame || a.lastFrame.Empty() {
		return nil, fmt.Errorf("no frame available")
	}

	frame := a.lastFrame.Clone()
	return &frame, nil
}

// storeFrame keeps the latest composited frame for stream consumers.
func (a *App) storeFrame(frame *gocv.Mat) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	frame.CopyTo(&a.lastFrame)
	a.hasFrame = true
}
