package tryon

import (
	"errors"
	"math"

	"github.com/ayusman/aabharan/internal/detector"
)

// ErrDegenerateFace is returned when the landmark set has no usable face
// width, e.g. both face-edge points collapsed to the same coordinate. It
// means "no valid anchor this tick", not a fatal condition.
var ErrDegenerateFace = errors.New("degenerate face width")

// minFaceWidth is the smallest normalized face width treated as a real
// detection. Below this the scale and depth denominators are meaningless.
const minFaceWidth = 1e-6

// Side tells the resolver which way an anchor sits relative to the face
// midline, which decides the sign of the perspective correction.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// AnchorDef describes how a semantic anchor is derived from landmarks: the
// landmark subgroup whose centroid places it, and which side of the face
// it sits on.
type AnchorDef struct {
	Name    string
	Indices []int
	Side    Side
}

// Anchor is a resolved placement point for one jewelry attachment location,
// in pixel space, valid for a single frame.
type Anchor struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Depth    float64 `json:"depth"`
	Rotation float64 `json:"rotation"`
}

// HeadRotation holds the estimated head orientation in degrees.
type HeadRotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Resolver maps landmark subgroups to anchors with perspective and
// head-rotation compensation.
type Resolver struct {
	cal Calibration
}

// NewResolver creates a Resolver with the given calibration.
func NewResolver(cal Calibration) *Resolver {
	return &Resolver{cal: cal}
}

// Resolve computes the anchor for def from the given landmark set and frame
// dimensions.
//
// Algorithm:
//  1. Centroid of the anchor's landmark subgroup.
//  2. Face width from the fixed face-edge pair (scale/depth denominator).
//  3. Depth factor = |centroid.z| / faceWidth.
//  4. Head pitch and yaw from the forehead/chin and eye reference pairs.
//  5. Normalized centroid to pixel space.
//  6. Horizontal perspective shift away from the head-turn direction.
//  7. Vertical shift tracking head pitch.
func (r *Resolver) Resolve(lm *detector.FaceLandmarks, def AnchorDef, frameW, frameH int) (Anchor, error) {
	faceWidth := lm.FaceWidth()
	if faceWidth < minFaceWidth {
		return Anchor{}, ErrDegenerateFace
	}

	centroid := lm.Centroid(def.Indices)
	depthFactor := math.Abs(centroid.Z) / faceWidth
	rotation := headRotation(lm)
	turnRatio := headTurnRatio(lm)

	x := centroid.X * float64(frameW)
	y := centroid.Y * float64(frameH)

	// Perspective correction: shift the anchor opposite to the head-turn
	// direction so an ear anchor stays visually behind the face instead of
	// sliding across it. Left and right anchors shift in opposite directions.
	shift := depthFactor * r.cal.PerspectiveStrength
	switch def.Side {
	case SideLeft:
		x -= shift * (1 + turnRatio)
	case SideRight:
		x += shift * (1 - turnRatio)
	}

	y += rotation.Pitch * r.cal.PitchFactor

	return Anchor{
		Name:     def.Name,
		X:        x,
		Y:        y,
		Scale:    faceWidth * float64(frameW) / r.cal.ReferenceFaceWidth,
		Depth:    depthFactor,
		Rotation: rotation.Yaw,
	}, nil
}

// headRotation estimates head pitch and yaw in degrees from fixed reference
// landmark pairs: pitch from the forehead/chin vertical-vs-depth angle, yaw
// from the inter-eye horizontal-vs-depth angle.
func headRotation(lm *detector.FaceLandmarks) HeadRotation {
	forehead := lm.Points[detector.Forehead]
	chin := lm.Points[detector.Chin]
	leftEye := lm.Points[detector.LeftEyeOuter]
	rightEye := lm.Points[detector.RightEyeOuter]

	pitch := math.Atan2(chin.Y-forehead.Y, math.Abs(chin.Z-forehead.Z)) * 180 / math.Pi
	yaw := math.Atan2(rightEye.X-leftEye.X, math.Abs(rightEye.Z-leftEye.Z)) * 180 / math.Pi

	return HeadRotation{Pitch: pitch, Yaw: yaw}
}

// headTurnRatio is a signed [-1, 1] measure of how far the head has turned,
// derived from the nose tip's horizontal offset from frame center. Positive
// means the nose has drifted right in normalized coordinates.
func headTurnRatio(lm *detector.FaceLandmarks) float64 {
	ratio := (lm.Points[detector.NoseTip].X - 0.5) * 2
	return math.Max(-1, math.Min(1, ratio))
}
