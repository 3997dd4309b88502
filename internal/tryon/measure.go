package tryon

import (
	"errors"

	"github.com/ayusman/aabharan/internal/detector"
)

// ErrNoMeasurement is returned when the landmark set yields no usable spans,
// e.g. collapsed face-edge or chin/forehead points. It means "no valid
// measurement this tick".
var ErrNoMeasurement = errors.New("no valid measurement")

// Measurements holds the scale-reference distances derived from a landmark
// set, in normalized coordinate units. They feed sizing only and never feed
// back into anchor positioning.
type Measurements struct {
	EarWidth  float64 `json:"ear_width"`
	NeckWidth float64 `json:"neck_width"`
	FaceWidth float64 `json:"face_width"`
}

// Estimator derives Measurements from a landmark set. Sizing is kept
// decoupled from the anchor resolver so a sizing bug cannot desync position.
type Estimator struct {
	cal Calibration
}

// NewEstimator creates an Estimator with the given calibration.
func NewEstimator(cal Calibration) *Estimator {
	return &Estimator{cal: cal}
}

// Measure computes fresh measurements from the landmark set. No smoothing
// is applied here; smoothing happens downstream.
func (e *Estimator) Measure(lm *detector.FaceLandmarks) (Measurements, error) {
	faceWidth := lm.FaceWidth()
	if faceWidth < minFaceWidth {
		return Measurements{}, ErrNoMeasurement
	}

	earSpan := lm.Distance(detector.LeftFaceEdge, detector.RightFaceEdge)
	faceHeight := lm.Distance(detector.Chin, detector.Forehead)
	if earSpan < minFaceWidth || faceHeight < minFaceWidth {
		return Measurements{}, ErrNoMeasurement
	}

	return Measurements{
		EarWidth:  earSpan * e.cal.EarProportion,
		NeckWidth: faceHeight * e.cal.NeckProportion,
		FaceWidth: faceWidth,
	}, nil
}
