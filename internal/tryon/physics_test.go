package tryon

import (
	"math"
	"testing"
)

func TestSmoother_FirstStepSnaps(t *testing.T) {
	// The first step for an anchor must land exactly on the target so
	// jewelry never flies in from an uninitialized position.
	s := NewSmoother(DefaultStiffness, DefaultDamping)

	x, y := s.Step("left_ear", 640, 360, 1.0/30)

	if x != 640 || y != 360 {
		t.Errorf("expected first step to snap to (640, 360), got (%f, %f)", x, y)
	}

	state, ok := s.State("left_ear")
	if !ok {
		t.Fatal("expected state to exist after first step")
	}
	if state.VX != 0 || state.VY != 0 {
		t.Errorf("expected zero velocity after snap, got (%f, %f)", state.VX, state.VY)
	}
}

func TestSmoother_ConvergesToStationaryTarget(t *testing.T) {
	// With the default coefficients a fixed target must be reached to
	// within 1% of the initial error in at most 60 ticks at 30 ticks/sec.
	s := NewSmoother(DefaultStiffness, DefaultDamping)
	s.Step("anchor", 0, 0, 1.0/30)

	targetX, targetY := 100.0, 50.0
	var x, y float64
	for i := 0; i < 60; i++ {
		x, y = s.Step("anchor", targetX, targetY, 1.0/30)
	}

	if math.Abs(targetX-x) > 1.0 {
		t.Errorf("x error after 60 ticks = %f, want < 1%% of initial (1.0)", math.Abs(targetX-x))
	}
	if math.Abs(targetY-y) > 0.5 {
		t.Errorf("y error after 60 ticks = %f, want < 1%% of initial (0.5)", math.Abs(targetY-y))
	}
}

func TestSmoother_Deterministic(t *testing.T) {
	// Same inputs must produce bit-identical trajectories.
	a := NewSmoother(DefaultStiffness, DefaultDamping)
	b := NewSmoother(DefaultStiffness, DefaultDamping)

	a.Step("anchor", 0, 0, 1.0/30)
	b.Step("anchor", 0, 0, 1.0/30)

	for i := 0; i < 40; i++ {
		ax, ay := a.Step("anchor", 200, 120, 1.0/30)
		bx, by := b.Step("anchor", 200, 120, 1.0/30)
		if ax != bx || ay != by {
			t.Fatalf("trajectories diverged at tick %d: (%f, %f) vs (%f, %f)", i, ax, ay, bx, by)
		}
	}
}

func TestSmoother_ClampsLargeDt(t *testing.T) {
	// A huge dt (stalled camera) must behave like the clamped step, not
	// blow up the integrator.
	clamped := NewSmoother(DefaultStiffness, DefaultDamping)
	huge := NewSmoother(DefaultStiffness, DefaultDamping)

	clamped.Step("anchor", 0, 0, 1.0/30)
	huge.Step("anchor", 0, 0, 1.0/30)

	cx, cy := clamped.Step("anchor", 100, 100, float64(maxFrameStep)/frameRate)
	hx, hy := huge.Step("anchor", 100, 100, 10.0)

	if cx != hx || cy != hy {
		t.Errorf("clamped step (%f, %f) != huge-dt step (%f, %f)", cx, cy, hx, hy)
	}
	if math.IsNaN(hx) || math.IsInf(hx, 0) {
		t.Errorf("huge dt produced non-finite position %f", hx)
	}
}

func TestSmoother_SnapZeroesVelocity(t *testing.T) {
	s := NewSmoother(DefaultStiffness, DefaultDamping)
	s.Step("anchor", 0, 0, 1.0/30)
	s.Step("anchor", 500, 500, 1.0/30)

	state, _ := s.State("anchor")
	if state.VX == 0 && state.VY == 0 {
		t.Fatal("expected nonzero velocity before snap")
	}

	s.Snap("anchor", 320, 240)

	state, _ = s.State("anchor")
	if state.X != 320 || state.Y != 240 {
		t.Errorf("expected snapped position (320, 240), got (%f, %f)", state.X, state.Y)
	}
	if state.VX != 0 || state.VY != 0 {
		t.Errorf("expected zero velocity after snap, got (%f, %f)", state.VX, state.VY)
	}
}

func TestSmoother_OutOfRangeCoefficientsUseDefaults(t *testing.T) {
	bad := NewSmoother(-3, 7)
	good := NewSmoother(DefaultStiffness, DefaultDamping)

	bad.Step("anchor", 0, 0, 1.0/30)
	good.Step("anchor", 0, 0, 1.0/30)

	for i := 0; i < 20; i++ {
		bx, by := bad.Step("anchor", 100, 60, 1.0/30)
		gx, gy := good.Step("anchor", 100, 60, 1.0/30)
		if bx != gx || by != gy {
			t.Fatalf("out-of-range coefficients did not fall back to defaults at tick %d", i)
		}
	}
}

func TestSmoother_IndependentAnchorStates(t *testing.T) {
	s := NewSmoother(DefaultStiffness, DefaultDamping)
	s.Step("left_ear", 100, 100, 1.0/30)
	s.Step("right_ear", 900, 100, 1.0/30)

	if s.Len() != 2 {
		t.Fatalf("expected 2 anchor states, got %d", s.Len())
	}

	s.Step("left_ear", 200, 100, 1.0/30)

	right, _ := s.State("right_ear")
	if right.X != 900 || right.VX != 0 {
		t.Errorf("stepping left_ear mutated right_ear state: %+v", right)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(DefaultStiffness, DefaultDamping)
	s.Step("left_ear", 1, 1, 1.0/30)
	s.Step("right_ear", 2, 2, 1.0/30)

	s.Reset()

	if s.Len() != 0 {
		t.Errorf("expected no states after reset, got %d", s.Len())
	}
	if _, ok := s.State("left_ear"); ok {
		t.Error("expected left_ear state to be gone after reset")
	}
}
