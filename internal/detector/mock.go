package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []FaceLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceLandmarks) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FrontalFaceLandmarks returns a synthetic, perfectly frontal face: every
// left-side landmark mirrors its right-side counterpart across x=0.5. Useful
// for asserting the left/right symmetry of resolved anchors.
func FrontalFaceLandmarks() FaceLandmarks {
	lm := FaceLandmarks{Score: 0.95}

	set := func(i int, x, y, z float64) {
		lm.Points[i] = Point3D{X: x, Y: y, Z: z}
	}

	// setPair mirrors a left-side landmark onto its right-side counterpart.
	setPair := func(left, right int, x, y, z float64) {
		set(left, x, y, z)
		set(right, 1-x, y, z)
	}

	// Face edges at x=0.2 and x=0.8 give faceWidth=0.6, which makes the
	// worked scale numbers easy to verify in tests.
	setPair(LeftFaceEdge, RightFaceEdge, 0.2, 0.50, 0.02)
	setPair(93, 323, 0.23, 0.46, 0.03)
	setPair(132, 361, 0.22, 0.56, 0.03)
	setPair(58, 288, 0.25, 0.62, 0.04)
	setPair(LeftEyeOuter, RightEyeOuter, 0.35, 0.40, -0.01)

	set(NoseTip, 0.5, 0.55, -0.05)
	set(Forehead, 0.5, 0.22, 0.0)
	set(Chin, 0.5, 0.84, 0.01)

	return lm
}

// TurnedFaceLandmarks returns the frontal face with the nose tip shifted so
// headTurnRatio equals turn. Positive turn drifts the nose right in
// normalized coordinates.
func TurnedFaceLandmarks(turn float64) FaceLandmarks {
	lm := FrontalFaceLandmarks()
	lm.Points[NoseTip].X = 0.5 + turn/2
	return lm
}

// DegenerateFaceLandmarks returns a landmark set whose face-edge points
// coincide, producing a zero face width. Exercises the division-by-zero
// guards downstream.
func DegenerateFaceLandmarks() FaceLandmarks {
	lm := FrontalFaceLandmarks()
	lm.Points[RightFaceEdge] = lm.Points[LeftFaceEdge]
	return lm
}
