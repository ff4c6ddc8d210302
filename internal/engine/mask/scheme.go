package mask

import (
	"image/color"
	"sort"
)

// Scheme holds the colours used to draw the ring and the diagnostic view.
type Scheme struct {
	Name string
	Core color.NRGBA
	Glow color.NRGBA
	Sky  color.NRGBA
	// Background gray range for linear depth in the diagnostic view.
	NearGray uint8
	FarGray  uint8
}

var schemes = map[string]Scheme{
	"classic": {
		Name:     "classic",
		Core:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Glow:     color.NRGBA{R: 90, G: 200, B: 255, A: 255},
		Sky:      color.NRGBA{R: 20, G: 24, B: 48, A: 255},
		NearGray: 230,
		FarGray:  30,
	},
	"ember": {
		Name:     "ember",
		Core:     color.NRGBA{R: 255, G: 240, B: 180, A: 255},
		Glow:     color.NRGBA{R: 255, G: 90, B: 20, A: 255},
		Sky:      color.NRGBA{R: 30, G: 10, B: 10, A: 255},
		NearGray: 220,
		FarGray:  40,
	},
	"arcane": {
		Name:     "arcane",
		Core:     color.NRGBA{R: 240, G: 200, B: 255, A: 255},
		Glow:     color.NRGBA{R: 150, G: 60, B: 255, A: 255},
		Sky:      color.NRGBA{R: 12, G: 6, B: 30, A: 255},
		NearGray: 210,
		FarGray:  25,
	},
	"mono": {
		Name:     "mono",
		Core:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Glow:     color.NRGBA{R: 160, G: 160, B: 160, A: 255},
		Sky:      color.NRGBA{A: 255},
		NearGray: 200,
		FarGray:  20,
	},
}

// DefaultScheme is used when a scheme name is unknown.
const DefaultScheme = "classic"

// LookupScheme returns the named scheme and whether it exists. Unknown
// names fall back to DefaultScheme.
func LookupScheme(name string) (Scheme, bool) {
	s, ok := schemes[name]
	if !ok {
		return schemes[DefaultScheme], false
	}
	return s, true
}

// SchemeNames lists the available schemes in sorted order.
func SchemeNames() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
