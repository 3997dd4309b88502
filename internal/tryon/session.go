package tryon

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/aabharan/internal/detector"
)

// measurePropagateInterval rate-limits measurement notifications to
// consumers. The computation itself always uses the freshest landmark set.
const measurePropagateInterval = 100 * time.Millisecond

// Session runs the try-on pipeline for one configured jewelry item. It owns
// the per-anchor physics table, the face presence state machine and the
// throttled measurement propagation. All pipeline stages run synchronously
// inside Step, once per video frame; the mutex only guards the snapshots
// read by the HTTP/WebSocket side.
type Session struct {
	id         string
	cfg        Config
	cal        Calibration
	resolver   *Resolver
	estimator  *Estimator
	smoother   *Smoother
	compositor *Compositor

	defs []AnchorDef

	facePresent bool
	anchors     []Anchor
	measure     Measurements
	measureOK   bool
	closed      bool

	onMeasure     func(Measurements)
	lastPropagate time.Time

	mu sync.RWMutex
}

// NewSession creates a try-on session for the given configuration. The
// configuration is validated up front; a config with out-of-range landmark
// indices never reaches the per-frame path.
func NewSession(cfg Config, cal Calibration) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stiffness := cfg.Physics.Stiffness
	damping := cfg.Physics.Damping

	leftIdx, rightIdx := cfg.anchorIndices()

	return &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		cal:        cal,
		resolver:   NewResolver(cal),
		estimator:  NewEstimator(cal),
		smoother:   NewSmoother(stiffness, damping),
		compositor: NewCompositor(cal),
		defs: []AnchorDef{
			{Name: "left_ear", Indices: anchorCluster(leftIdx, detector.LeftEarCluster), Side: SideLeft},
			{Name: "right_ear", Indices: anchorCluster(rightIdx, detector.RightEarCluster), Side: SideRight},
		},
	}, nil
}

// anchorCluster expands a primary landmark index into its jitter-absorbing
// ear cluster if it is the cluster's leading point; otherwise the anchor
// tracks the single configured landmark.
func anchorCluster(idx int, cluster []int) []int {
	if len(cluster) > 0 && cluster[0] == idx {
		return cluster
	}
	return []int{idx}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session's jewelry configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// OnMeasurements registers a callback invoked with fresh measurements at
// most once per propagation interval.
func (s *Session) OnMeasurements(fn func(Measurements)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMeasure = fn
}

// Step runs one pipeline tick: resolve anchors, estimate measurements,
// advance the smoother by dt seconds and composite the overlay onto frame.
// The frame is expected to be mirrored for selfie preview already.
//
// A nil landmark set means no face was detected this tick: the render is
// skipped, the frame stays clean and the physics state is left untouched.
// The session lock is held for the whole tick so Close can safely run from
// another goroutine; the measurement callback fires under that lock and
// must not call back into the session.
func (s *Session) Step(lm *detector.FaceLandmarks, frame *gocv.Mat, dt float64) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	if lm == nil {
		s.facePresent = false
		s.anchors = nil
		s.measureOK = false
		s.mu.Unlock()
		return nil
	}

	firstDetection := !s.facePresent
	s.facePresent = true

	anchors := make([]Anchor, 0, len(s.defs))
	frameW, frameH := frameDims(frame)

	for _, def := range s.defs {
		anchor, err := s.resolver.Resolve(lm, def, frameW, frameH)
		if err != nil {
			// Degenerate geometry: no overlay this tick.
			s.mu.Unlock()
			return err
		}

		switch {
		case !s.cfg.Physics.Enabled:
			s.smoother.Snap(def.Name, anchor.X, anchor.Y)
		case firstDetection:
			// Snapping on the no-face to face-detected transition prevents
			// a visible fly-in from a stale position.
			s.smoother.Snap(def.Name, anchor.X, anchor.Y)
		default:
			anchor.X, anchor.Y = s.smoother.Step(def.Name, anchor.X, anchor.Y, dt)
		}

		anchors = append(anchors, anchor)
	}

	m, err := s.estimator.Measure(lm)
	measureOK := err == nil

	if measureOK && s.onMeasure != nil && time.Since(s.lastPropagate) >= measurePropagateInterval {
		s.lastPropagate = time.Now()
		s.onMeasure(m)
	}

	s.anchors = anchors
	s.measure = m
	s.measureOK = measureOK
	s.mu.Unlock()

	if measureOK && frame != nil && !frame.Empty() {
		s.compositor.Draw(frame, anchors, m, s.cfg)
	}

	return nil
}

// Anchors returns a copy of the most recently smoothed anchors, or nil when
// no face is currently tracked.
func (s *Session) Anchors() []Anchor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.anchors) == 0 {
		return nil
	}
	out := make([]Anchor, len(s.anchors))
	copy(out, s.anchors)
	return out
}

// Measurements returns the most recent measurements and whether they were
// valid.
func (s *Session) Measurements() (Measurements, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.measure, s.measureOK
}

// FacePresent reports whether the session is currently in the face-detected
// state.
func (s *Session) FacePresent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facePresent
}

// Smoother exposes the physics state table, primarily for tests asserting
// state invariants.
func (s *Session) Smoother() *Smoother {
	return s.smoother
}

// Close tears the session down, discarding all physics state. No state
// persists across sessions. Close blocks until any in-flight Step finishes;
// afterwards further Step calls are no-ops and the measurement callback
// never fires again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.onMeasure = nil
	s.smoother.Reset()
	s.anchors = nil
	s.facePresent = false
	s.measureOK = false
}

func frameDims(frame *gocv.Mat) (int, int) {
	if frame == nil || frame.Empty() {
		// Keep anchor math meaningful for headless ticks (tests, detached
		// consumers) by assuming the default capture resolution.
		return 1280, 720
	}
	return frame.Cols(), frame.Rows()
}
