package tryon

import "math"

// Default spring-damper coefficients. Tuned so a stationary target is
// reached within a visually imperceptible epsilon in well under two
// seconds of ticks.
const (
	DefaultStiffness = 0.15
	DefaultDamping   = 0.85

	// frameRate normalizes dt into frame units. The stiffness and damping
	// coefficients are per-frame gains at a nominal 60 Hz display rate;
	// integrating in frame units keeps the feel identical across tick rates.
	frameRate = 60

	// maxFrameStep caps the integration step at three frame units so a long
	// pause (stalled camera, suspended process) cannot destabilize the
	// integrator. Anything above roughly five frame units diverges at the
	// default coefficients.
	maxFrameStep = 3
)

// SpringState is the persistent per-anchor physics state: display position
// plus velocity. Exactly one SpringState exists per configured anchor for
// the lifetime of a try-on session.
type SpringState struct {
	X, Y   float64
	VX, VY float64
}

// Smoother converts raw per-frame anchor targets into continuously evolving
// display positions using a spring-damper integrator. State is keyed by
// anchor name and owned exclusively by the smoother; it is touched by one
// tick at a time, so no locking is needed.
type Smoother struct {
	stiffness float64
	damping   float64
	states    map[string]*SpringState
}

// NewSmoother creates a Smoother with the given coefficients. Out-of-range
// values fall back to the defaults.
func NewSmoother(stiffness, damping float64) *Smoother {
	if stiffness <= 0 || stiffness > 1 {
		stiffness = DefaultStiffness
	}
	if damping < 0 || damping >= 1 {
		damping = DefaultDamping
	}
	return &Smoother{
		stiffness: stiffness,
		damping:   damping,
		states:    make(map[string]*SpringState),
	}
}

// Step advances the named anchor's state toward the target position by dt
// seconds and returns the new display position. The first step for an
// anchor snaps directly to the target so jewelry never flies in from a
// stale position.
func (s *Smoother) Step(name string, targetX, targetY, dt float64) (float64, float64) {
	state, ok := s.states[name]
	if !ok {
		state = &SpringState{X: targetX, Y: targetY}
		s.states[name] = state
		return state.X, state.Y
	}

	fr := math.Min(dt*frameRate, maxFrameStep)

	state.VX += ((targetX-state.X)*s.stiffness - state.VX*(1-s.damping)) * fr
	state.VY += ((targetY-state.Y)*s.stiffness - state.VY*(1-s.damping)) * fr
	state.X += state.VX * fr
	state.Y += state.VY * fr

	return state.X, state.Y
}

// Snap moves the named anchor directly to the target and zeroes its
// velocity. Used when physics is disabled and on the no-face to
// face-detected transition.
func (s *Smoother) Snap(name string, x, y float64) {
	state, ok := s.states[name]
	if !ok {
		state = &SpringState{}
		s.states[name] = state
	}
	state.X = x
	state.Y = y
	state.VX = 0
	state.VY = 0
}

// State returns a copy of the named anchor's state and whether it exists.
func (s *Smoother) State(name string) (SpringState, bool) {
	state, ok := s.states[name]
	if !ok {
		return SpringState{}, false
	}
	return *state, true
}

// Len returns the number of tracked anchor states.
func (s *Smoother) Len() int {
	return len(s.states)
}

// Reset discards all anchor states. Called when a try-on session ends so
// nothing leaks across sessions.
func (s *Smoother) Reset() {
	s.states = make(map[string]*SpringState)
}
