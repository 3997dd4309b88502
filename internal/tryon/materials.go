package tryon

import "image/color"

// MaterialProfile is the fixed visual treatment for one jewelry material:
// base and highlight colors plus an opacity used when blending the overlay
// onto the camera frame.
type MaterialProfile struct {
	Name      string
	Color     color.RGBA
	Highlight color.RGBA
	Opacity   float64
}

// materialProfiles maps material names to their visual profiles. The gold
// entry doubles as the guaranteed default for unknown materials.
var materialProfiles = map[string]MaterialProfile{
	"gold": {
		Name:      "gold",
		Color:     color.RGBA{R: 255, G: 215, B: 0, A: 255},
		Highlight: color.RGBA{R: 255, G: 245, B: 180, A: 255},
		Opacity:   0.9,
	},
	"silver": {
		Name:      "silver",
		Color:     color.RGBA{R: 192, G: 192, B: 192, A: 255},
		Highlight: color.RGBA{R: 240, G: 240, B: 240, A: 255},
		Opacity:   0.9,
	},
	"diamond": {
		Name:      "diamond",
		Color:     color.RGBA{R: 225, G: 240, B: 255, A: 255},
		Highlight: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Opacity:   0.75,
	},
	"pearl": {
		Name:      "pearl",
		Color:     color.RGBA{R: 245, G: 240, B: 230, A: 255},
		Highlight: color.RGBA{R: 255, G: 252, B: 245, A: 255},
		Opacity:   0.95,
	},
	"platinum": {
		Name:      "platinum",
		Color:     color.RGBA{R: 229, G: 228, B: 226, A: 255},
		Highlight: color.RGBA{R: 250, G: 250, B: 250, A: 255},
		Opacity:   0.9,
	},
	"rose-gold": {
		Name:      "rose-gold",
		Color:     color.RGBA{R: 233, G: 150, B: 122, A: 255},
		Highlight: color.RGBA{R: 250, G: 210, B: 190, A: 255},
		Opacity:   0.9,
	},
}

// MaterialByName returns the visual profile for the named material. Unknown
// names resolve to the gold profile; this is an explicit fallback, never an
// error.
func MaterialByName(name string) MaterialProfile {
	if p, ok := materialProfiles[name]; ok {
		return p
	}
	return materialProfiles["gold"]
}

// MaterialNames returns the recognized material names.
func MaterialNames() []string {
	names := make([]string, 0, len(materialProfiles))
	for name := range materialProfiles {
		names = append(names, name)
	}
	return names
}
