// Package detector provides face landmark detection interfaces and types for
// the virtual try-on pipeline.
package detector

import "math"

// Face landmark indices following the MediaPipe Face Mesh convention.
// The mesh has 468 points; the try-on pipeline only relies on the
// reference points and ear-region clusters below.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip       = 1
	Forehead      = 10
	LeftEyeOuter  = 33
	RightEyeOuter = 263
	Chin          = 152
	LeftFaceEdge  = 234
	RightFaceEdge = 454
	NumLandmarks  = 468
)

// Ear-region landmark clusters. Each anchor is resolved from the centroid
// of its cluster rather than a single point, which absorbs per-frame jitter
// in any one landmark.
var (
	LeftEarCluster  = []int{234, 93, 132, 58}
	RightEarCluster = []int{454, 323, 361, 288}
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to [0, 1]; Z is relative depth on the same
// scale as X.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks represents the 468 face mesh landmarks detected by MediaPipe.
// A FaceLandmarks value is produced fresh each frame and never mutated after
// emission.
type FaceLandmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
	Score  float64               `json:"score"`
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance returns the Euclidean distance between the landmarks at indices
// i and j. Indices must be in range; configuration-supplied indices are
// validated at load time, not here.
func (f *FaceLandmarks) Distance(i, j int) float64 {
	return distance3D(f.Points[i], f.Points[j])
}

// Centroid returns the arithmetic mean of the landmarks at the given indices.
func (f *FaceLandmarks) Centroid(indices []int) Point3D {
	if len(indices) == 0 {
		return Point3D{}
	}

	var c Point3D
	for _, i := range indices {
		c.X += f.Points[i].X
		c.Y += f.Points[i].Y
		c.Z += f.Points[i].Z
	}

	n := float64(len(indices))
	c.X /= n
	c.Y /= n
	c.Z /= n

	return c
}

// FaceWidth returns the horizontal normalized distance between the two
// face-edge landmarks. This is the scale and depth denominator for the
// whole frame.
func (f *FaceLandmarks) FaceWidth() float64 {
	return math.Abs(f.Points[RightFaceEdge].X - f.Points[LeftFaceEdge].X)
}
