// Package ring classifies world positions against the expanding shockwave ring.
package ring

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultGlowFactor is the glow band width relative to the core band.
const DefaultGlowFactor = 3.0

// MinThickness is the smallest core band width accepted.
const MinThickness = 0.01

// State is the ring geometry for one frame.
type State struct {
	Radius        float64
	Thickness     float64
	GlowThickness float64
	Intensity     float64
}

// Normalize enforces thickness > 0, glow >= thickness, radius >= 0 and
// intensity in [0,1].
func (s State) Normalize() State {
	if !(s.Radius >= 0) {
		s.Radius = 0
	}
	if !(s.Thickness >= MinThickness) {
		s.Thickness = MinThickness
	}
	if !(s.GlowThickness >= s.Thickness) {
		s.GlowThickness = s.Thickness
	}
	if !(s.Intensity >= 0) {
		s.Intensity = 0
	} else if s.Intensity > 1 {
		s.Intensity = 1
	}
	return s
}

// Band selects which intensity bands are computed.
type Band uint8

const (
	BandCore Band = 1 << iota
	BandGlow

	BandAll = BandCore | BandGlow
)

// Has reports whether b includes band.
func (b Band) Has(band Band) bool {
	return b&band != 0
}

// Classify returns the core and glow intensities for world point p.
// Both are zero outside the glow band.
func Classify(p, origin r3.Vec, s State) (core, glow float32) {
	return ClassifyDistance(r3.Norm(r3.Sub(p, origin)), s, BandAll)
}

// ClassifyDistance classifies a precomputed distance from the ring origin,
// computing only the requested bands.
func ClassifyDistance(d float64, s State, bands Band) (core, glow float32) {
	off := math.Abs(d - s.Radius)

	if bands.Has(BandCore) {
		half := s.Thickness / 2
		if off <= half {
			core = float32(clamp01(1 - off/half))
		}
	}
	if bands.Has(BandGlow) {
		half := s.GlowThickness / 2
		if off <= half {
			g := 1 - off/half
			glow = float32(clamp01(g * g))
		}
	}
	return core, glow
}

// Contains reports whether distance d falls inside the glow band, the
// outermost band that can produce a visible pixel.
func (s State) Contains(d float64) bool {
	return math.Abs(d-s.Radius) <= s.GlowThickness/2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
