package tryon

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/aabharan/internal/detector"
)

const tickDt = 1.0 / 30

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := NewSession(cfg, DefaultCalibration())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewSession_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LandmarkIndices = []int{234, 9999}

	if _, err := NewSession(cfg, DefaultCalibration()); err == nil {
		t.Error("expected error for out-of-range landmark index")
	}
}

func TestSession_StepResolvesBothEarAnchors(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	lm := detector.FrontalFaceLandmarks()

	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	anchors := s.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].Name != "left_ear" || anchors[1].Name != "right_ear" {
		t.Errorf("unexpected anchor names %q, %q", anchors[0].Name, anchors[1].Name)
	}
	if !s.FacePresent() {
		t.Error("expected face-present state after detection")
	}
}

func TestSession_NoFaceTickIsIdempotent(t *testing.T) {
	// A no-face tick clears the published anchors but must not disturb
	// the physics table, no matter how many times it repeats.
	s := newTestSession(t, DefaultConfig())
	lm := detector.FrontalFaceLandmarks()

	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	before, ok := s.Smoother().State("left_ear")
	if !ok {
		t.Fatal("expected left_ear physics state after detection")
	}

	for i := 0; i < 3; i++ {
		if err := s.Step(nil, nil, tickDt); err != nil {
			t.Fatalf("no-face step %d: %v", i, err)
		}
	}

	if s.FacePresent() {
		t.Error("expected face-absent state")
	}
	if s.Anchors() != nil {
		t.Error("expected no published anchors while face is absent")
	}

	after, ok := s.Smoother().State("left_ear")
	if !ok {
		t.Fatal("expected physics state to survive no-face ticks")
	}
	if before != after {
		t.Errorf("physics state changed across no-face ticks: %+v vs %+v", before, after)
	}
}

func TestSession_SnapsOnFaceReacquisition(t *testing.T) {
	// After losing the face, the first detection must snap instead of
	// springing from the stale position.
	s := newTestSession(t, DefaultConfig())
	frontal := detector.FrontalFaceLandmarks()
	turned := detector.TurnedFaceLandmarks(0.8)

	if err := s.Step(&frontal, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := s.Step(nil, nil, tickDt); err != nil {
		t.Fatalf("no-face step: %v", err)
	}
	if err := s.Step(&turned, nil, tickDt); err != nil {
		t.Fatalf("reacquire step: %v", err)
	}

	state, _ := s.Smoother().State("left_ear")
	if state.VX != 0 || state.VY != 0 {
		t.Errorf("expected zero velocity after reacquisition snap, got (%f, %f)", state.VX, state.VY)
	}

	anchors := s.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].X != state.X || anchors[0].Y != state.Y {
		t.Errorf("published anchor (%f, %f) does not match snapped state (%f, %f)",
			anchors[0].X, anchors[0].Y, state.X, state.Y)
	}
}

func TestSession_PhysicsDisabledTracksRawAnchors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Physics.Enabled = false
	s := newTestSession(t, cfg)

	frontal := detector.FrontalFaceLandmarks()
	turned := detector.TurnedFaceLandmarks(0.5)

	if err := s.Step(&frontal, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := s.Step(&turned, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	raw, err := NewResolver(DefaultCalibration()).Resolve(&turned,
		AnchorDef{Name: "left_ear", Indices: detector.LeftEarCluster, Side: SideLeft}, 1280, 720)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	anchors := s.Anchors()
	if anchors[0].X != raw.X || anchors[0].Y != raw.Y {
		t.Errorf("expected raw anchor (%f, %f) with physics off, got (%f, %f)",
			raw.X, raw.Y, anchors[0].X, anchors[0].Y)
	}
}

func TestSession_DegenerateFaceKeepsLastAnchors(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	frontal := detector.FrontalFaceLandmarks()
	degenerate := detector.DegenerateFaceLandmarks()

	if err := s.Step(&frontal, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	err := s.Step(&degenerate, nil, tickDt)
	if !errors.Is(err, ErrDegenerateFace) {
		t.Fatalf("expected ErrDegenerateFace, got %v", err)
	}

	if len(s.Anchors()) != 2 {
		t.Error("expected previous anchors to remain published")
	}
}

func TestSession_MeasurementPropagationThrottled(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	lm := detector.FrontalFaceLandmarks()

	var calls int
	s.OnMeasurements(func(Measurements) { calls++ })

	for i := 0; i < 5; i++ {
		if err := s.Step(&lm, nil, tickDt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 propagation for a rapid burst, got %d", calls)
	}

	time.Sleep(measurePropagateInterval + 20*time.Millisecond)
	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a second propagation after the interval, got %d", calls)
	}

	m, ok := s.Measurements()
	if !ok {
		t.Fatal("expected valid measurements")
	}
	if m.EarWidth <= 0 || m.NeckWidth <= 0 {
		t.Errorf("expected positive measurements, got %+v", m)
	}
}

func TestSession_SingleLandmarkAnchors(t *testing.T) {
	// Non-default landmark indices track their single configured point
	// instead of the jitter-absorbing ear clusters.
	cfg := DefaultConfig()
	cfg.LandmarkIndices = []int{93, 323}
	cfg.Physics.Enabled = false
	s := newTestSession(t, cfg)

	lm := detector.FrontalFaceLandmarks()
	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	raw, err := NewResolver(DefaultCalibration()).Resolve(&lm,
		AnchorDef{Name: "left_ear", Indices: []int{93}, Side: SideLeft}, 1280, 720)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	anchors := s.Anchors()
	if anchors[0].X != raw.X || anchors[0].Y != raw.Y {
		t.Errorf("expected single-landmark anchor (%f, %f), got (%f, %f)",
			raw.X, raw.Y, anchors[0].X, anchors[0].Y)
	}
}

func TestSession_NoFaceClearsMeasurements(t *testing.T) {
	// Losing the face invalidates the published measurements along with the
	// anchors so consumers never pair stale widths with "no face".
	s := newTestSession(t, DefaultConfig())
	lm := detector.FrontalFaceLandmarks()

	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}
	if _, ok := s.Measurements(); !ok {
		t.Fatal("expected valid measurements after detection")
	}

	if err := s.Step(nil, nil, tickDt); err != nil {
		t.Fatalf("no-face step: %v", err)
	}
	if _, ok := s.Measurements(); ok {
		t.Error("expected measurements invalidated while face is absent")
	}
}

func TestSession_SkipsRenderWithoutMeasurements(t *testing.T) {
	// Anchors can resolve while the measurement span is degenerate; the
	// overlay is skipped for that tick instead of rendering at a stale or
	// default size.
	s := newTestSession(t, DefaultConfig())
	frame := testFrame(t)

	lm := detector.FrontalFaceLandmarks()
	lm.Points[detector.Forehead] = lm.Points[detector.Chin]

	if err := s.Step(&lm, frame, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	anchors := s.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if _, ok := s.Measurements(); ok {
		t.Error("expected invalid measurements for a collapsed face span")
	}

	for _, a := range anchors {
		px := frame.GetVecbAt(int(a.Y), testFrameW-int(a.X))
		if px[0] != 0 || px[1] != 0 || px[2] != 0 {
			t.Errorf("expected clean frame at anchor %q, got %v", a.Name, px)
		}
	}
}

func TestSession_StepAfterCloseIsNoOp(t *testing.T) {
	s, err := NewSession(DefaultConfig(), DefaultCalibration())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	var calls int
	s.OnMeasurements(func(Measurements) { calls++ })
	s.Close()

	lm := detector.FrontalFaceLandmarks()
	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step after close: %v", err)
	}

	if s.FacePresent() {
		t.Error("expected face-absent state on a closed session")
	}
	if s.Anchors() != nil {
		t.Error("expected no anchors on a closed session")
	}
	if s.Smoother().Len() != 0 {
		t.Error("expected physics table to stay empty on a closed session")
	}
	if calls != 0 {
		t.Errorf("expected no measurement callbacks after close, got %d", calls)
	}
}

func TestSession_CloseDuringStepIsSafe(t *testing.T) {
	// Close may arrive from another goroutine while the pipeline is
	// mid-tick; both sides serialize on the session lock, so this must be
	// clean under the race detector.
	s, err := NewSession(DefaultConfig(), DefaultCalibration())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	lm := detector.FrontalFaceLandmarks()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if i%10 == 9 {
				s.Step(nil, nil, tickDt)
				continue
			}
			s.Step(&lm, nil, tickDt)
		}
	}()

	time.Sleep(time.Millisecond)
	s.Close()
	<-done

	if s.Smoother().Len() != 0 {
		t.Error("expected physics table cleared after close")
	}
	if s.FacePresent() {
		t.Error("expected face-absent state after close")
	}
	if s.Anchors() != nil {
		t.Error("expected no anchors after close")
	}
}

func TestSession_CloseDiscardsState(t *testing.T) {
	cfg := DefaultConfig()
	s, err := NewSession(cfg, DefaultCalibration())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	lm := detector.FrontalFaceLandmarks()
	if err := s.Step(&lm, nil, tickDt); err != nil {
		t.Fatalf("step: %v", err)
	}

	s.Close()

	if s.Smoother().Len() != 0 {
		t.Error("expected physics table cleared on close")
	}
	if s.FacePresent() {
		t.Error("expected face-absent state after close")
	}
	if s.Anchors() != nil {
		t.Error("expected no anchors after close")
	}
	if _, ok := s.Measurements(); ok {
		t.Error("expected measurements invalidated after close")
	}
}
