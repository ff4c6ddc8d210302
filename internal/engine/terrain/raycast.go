package terrain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
)

// refineSteps is the number of bisection steps after a coarse hit.
const refineSteps = 20

// Raycast marches from origin along unit direction dir and returns the
// distance to the first terrain hit within maxDist. Rays that leave the
// map without hitting anything miss.
func (h *Heightmap) Raycast(origin, dir r3.Vec, maxDist float64) (float64, bool) {
	above := func(t float64) bool {
		p := r3.Add(origin, r3.Scale(t, dir))
		return p.Y > h.HeightAt(p.X, p.Z)
	}

	if !h.Contains(origin.X, origin.Z) && !h.enters(origin, dir) {
		return 0, false
	}
	if !above(0) {
		return 0, true
	}

	step := h.CellSize / 2
	prev := 0.0
	for t := step; ; t += step {
		if t > maxDist {
			t = maxDist
		}
		p := r3.Add(origin, r3.Scale(t, dir))
		if !above(t) && h.Contains(p.X, p.Z) {
			return h.refine(above, prev, t), true
		}
		// Once outside and heading away, nothing can be hit.
		if p.Y > h.MaxY && dir.Y >= 0 {
			return 0, false
		}
		if !h.Contains(p.X, p.Z) && !h.enters(p, dir) {
			return 0, false
		}
		if t >= maxDist {
			return 0, false
		}
		prev = t
	}
}

// refine bisects between an above-ground lo and a below-ground hi.
func (h *Heightmap) refine(above func(float64) bool, lo, hi float64) float64 {
	for i := 0; i < refineSteps; i++ {
		mid := (lo + hi) / 2
		if above(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// enters reports whether a ray from p outside the map footprint heads
// towards it on both horizontal axes.
func (h *Heightmap) enters(p, dir r3.Vec) bool {
	e := h.Extent()
	ok := func(pos, d float64) bool {
		return (pos >= -e && pos <= e) || (pos < -e && d > 0) || (pos > e && d < 0)
	}
	return ok(p.X, dir.X) && ok(p.Z, dir.Z)
}

// RenderDepth writes a w x h depth buffer of the map seen from cam into
// dst (reallocated when too small) and returns it. Misses and hits beyond
// the far plane are written as the sky sentinel. With settings.Planar the
// buffer holds view-axis depth instead of distance along the ray.
func (h *Heightmap) RenderDepth(cam camera.State, w, hgt int, settings reconstruct.Settings, dst []float32) []float32 {
	n := w * hgt
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	cam = cam.Sanitize()
	forward := cam.Basis().Forward
	radial := settings
	radial.Planar = false
	rec := reconstruct.New(cam, w, hgt, radial)

	sky := float32(1)
	if settings.ReversedZ {
		sky = 0
	}
	// Ray lengths grow towards the corners; march far enough to reach
	// the far plane everywhere.
	maxDist := cam.Far * math.Sqrt(1+cam.TanHalfFOV()*cam.TanHalfFOV()*(1+cam.Aspect*cam.Aspect))

	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			dir := rec.Direction(x, y)
			dist, ok := h.Raycast(cam.Position, dir, maxDist)
			if settings.Planar {
				dist *= r3.Dot(dir, forward)
			}
			if !ok || dist >= cam.Far {
				dst[y*w+x] = sky
				continue
			}
			dist = math.Max(dist, cam.Near)
			dst[y*w+x] = float32(reconstruct.DistanceToDepth(dist, cam.Near, cam.Far, settings.ReversedZ))
		}
	}
	return dst
}

// Source renders the map as a depth.Source for a camera that may move
// between frames.
type Source struct {
	Map      *Heightmap
	Camera   func() camera.State
	Width    int
	Height   int
	Settings reconstruct.Settings

	buf []float32
}

// Acquire implements depth.Source.
func (s *Source) Acquire() (depth.Buffer, bool) {
	if s.Map == nil || s.Camera == nil || s.Width <= 0 || s.Height <= 0 {
		return depth.Buffer{}, false
	}
	s.buf = s.Map.RenderDepth(s.Camera(), s.Width, s.Height, s.Settings, s.buf)
	return depth.Buffer{Width: s.Width, Height: s.Height, Data: s.buf}, true
}
