package tryon

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Compositor draws jewelry primitives onto camera frames. Drawing is
// stateless across frames: each call works on a fresh overlay derived from
// the incoming frame, so no filter or opacity state can leak between ticks.
type Compositor struct {
	cal Calibration
}

// NewCompositor creates a Compositor with the given calibration.
func NewCompositor(cal Calibration) *Compositor {
	return &Compositor{cal: cal}
}

// Draw composites the jewelry overlay for the current frame onto frame,
// which is assumed to already be mirrored for selfie-style preview. Anchor
// x coordinates are mirrored to match. Anchors with non-finite coordinates
// are skipped rather than propagated into the drawing calls.
func (c *Compositor) Draw(frame *gocv.Mat, anchors []Anchor, m Measurements, cfg Config) {
	if frame == nil || frame.Empty() || len(anchors) == 0 {
		return
	}

	size := c.resolveSize(m, cfg)
	if size <= 0 {
		return
	}

	baseColor := cfg.overlayColor()
	highlight := MaterialByName(cfg.Material.Type).Highlight
	opacity := cfg.overlayOpacity()

	width := frame.Cols()

	overlay := frame.Clone()
	defer overlay.Close()

	drawn := false
	for _, a := range anchors {
		if !isFinite(a.X) || !isFinite(a.Y) {
			continue
		}

		// Mirror x so the overlay lines up with the flipped preview.
		center := image.Point{X: width - int(a.X), Y: int(a.Y)}
		radius := int(size / 2)
		if radius < 1 {
			radius = 1
		}

		gocv.Circle(&overlay, center, radius, baseColor, -1)

		// Smaller highlight offset toward the upper left fakes a specular
		// shine on the primitive.
		highlightRadius := radius / 3
		if highlightRadius < 1 {
			highlightRadius = 1
		}
		highlightCenter := image.Point{
			X: center.X - radius/2,
			Y: center.Y - radius/2,
		}
		gocv.Circle(&overlay, highlightCenter, highlightRadius, highlight, -1)

		drawn = true
	}

	if !drawn {
		return
	}

	gocv.AddWeighted(overlay, opacity, *frame, 1-opacity, 0, frame)
}

// resolveSize returns the final draw size in pixels: proportional to the
// measured ear width when auto-scale is on, otherwise the configured size.
func (c *Compositor) resolveSize(m Measurements, cfg Config) float64 {
	if cfg.AutoScale && m.EarWidth > 0 && c.cal.ReferenceEarWidth > 0 {
		return cfg.Size * (m.EarWidth / c.cal.ReferenceEarWidth)
	}
	return cfg.Size
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
