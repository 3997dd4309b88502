// Package tryon implements the virtual jewelry try-on pipeline: anchor
// resolution from face landmarks, proportional scale estimation, spring-damper
// motion smoothing, and frame compositing.
package tryon

// Calibration holds the empirically tuned constants used by the anchor
// resolver, measurement estimator and compositor. They are calibration
// values, not physical constants; callers may recalibrate for a different
// camera by constructing their own Calibration.
type Calibration struct {
	// PerspectiveStrength is the horizontal shift in pixels applied per unit
	// of depth factor when compensating for head rotation.
	PerspectiveStrength float64

	// PitchFactor converts head pitch in degrees to a vertical shift in pixels.
	PitchFactor float64

	// ReferenceFaceWidth is the face width in pixels at which the anchor
	// scale factor is 1.0.
	ReferenceFaceWidth float64

	// ReferenceEarWidth is the measured ear width (normalized units) at which
	// auto-scaled jewelry renders at its configured base size.
	ReferenceEarWidth float64

	// EarProportion scales the raw ear-to-ear span down to a typical
	// earring width.
	EarProportion float64

	// NeckProportion scales the chin-to-forehead span to approximate neck
	// width. The face mesh has no neck landmarks, so this is a proxy.
	NeckProportion float64
}

// DefaultCalibration returns the calibration tuned against a 720p selfie
// camera.
func DefaultCalibration() Calibration {
	return Calibration{
		PerspectiveStrength: 10,
		PitchFactor:         0.5,
		ReferenceFaceWidth:  150,
		ReferenceEarWidth:   0.09,
		EarProportion:       0.15,
		NeckProportion:      0.65,
	}
}
