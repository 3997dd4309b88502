package tryon

import (
	"fmt"
	"image/color"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaterialConfig selects the visual treatment for a jewelry item. An
// explicit Opacity overrides the material profile's default.
type MaterialConfig struct {
	Type    string  `json:"type"`
	Opacity float64 `json:"opacity" validate:"gte=0,lte=1"`
}

// PhysicsConfig controls the motion smoother for a jewelry item.
type PhysicsConfig struct {
	Enabled   bool    `json:"enabled"`
	Stiffness float64 `json:"stiffness" validate:"gte=0,lte=1"`
	Damping   float64 `json:"damping" validate:"gte=0,lt=1"`
}

// Config is the per-session jewelry configuration, typically supplied by the
// catalog service. It is read-only for the lifetime of a try-on session.
//
// LandmarkIndices name the primary attachment landmarks (left, right). They
// must reference valid positions in the face mesh index space; out-of-range
// indices are a configuration error caught by Validate, never a runtime
// condition.
type Config struct {
	LandmarkIndices []int          `json:"landmarks" validate:"omitempty,len=2,dive,gte=0,lt=468"`
	Size            float64        `json:"size" validate:"gte=1,lte=200"`
	Color           string         `json:"color" validate:"omitempty,hexcolor"`
	Material        MaterialConfig `json:"material"`
	Physics         PhysicsConfig  `json:"physics"`
	AutoScale       bool           `json:"auto_scale"`
}

// DefaultConfig returns the configuration used when the catalog supplies
// none: gold circle earrings anchored at the ear-region landmarks.
func DefaultConfig() Config {
	return Config{
		LandmarkIndices: []int{234, 454},
		Size:            30,
		Color:           "#FFD700",
		Material:        MaterialConfig{Type: "gold", Opacity: 0.9},
		Physics:         PhysicsConfig{Enabled: true, Stiffness: DefaultStiffness, Damping: DefaultDamping},
		AutoScale:       true,
	}
}

// Validate checks the configuration at load time. Landmark indices outside
// the face mesh index space, out-of-range sizes and physics coefficients
// are all rejected here so they can never surface as index panics during
// rendering.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid jewelry config: %w", err)
	}
	return nil
}

// anchorIndices returns the configured primary landmark pair, falling back
// to the default ear pair when the configuration omits one. The fallback is
// an explicit policy, not a silent failure.
func (c *Config) anchorIndices() (int, int) {
	if len(c.LandmarkIndices) == 2 {
		return c.LandmarkIndices[0], c.LandmarkIndices[1]
	}
	return 234, 454
}

// overlayColor resolves the draw color: an explicit hex color wins,
// otherwise the material profile's base color is used.
func (c *Config) overlayColor() color.RGBA {
	if c.Color != "" {
		if rgba, err := parseHexColor(c.Color); err == nil {
			return rgba
		}
	}
	return MaterialByName(c.Material.Type).Color
}

// overlayOpacity resolves the blend opacity: an explicit material opacity
// wins, otherwise the profile default applies.
func (c *Config) overlayOpacity() float64 {
	if c.Material.Opacity > 0 {
		return c.Material.Opacity
	}
	return MaterialByName(c.Material.Type).Opacity
}

// parseHexColor parses a #RRGGBB hex color string.
func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
