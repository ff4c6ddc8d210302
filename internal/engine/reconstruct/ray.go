// Package reconstruct rebuilds world-space positions from depth samples.
package reconstruct

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/camera"
)

// DefaultSkyThreshold marks depth at or beyond the far plane as sky.
const DefaultSkyThreshold = 1.0

// Settings describes how the active depth source encodes depth.
type Settings struct {
	ReversedZ    bool
	SkyThreshold float64 // normalized depth at or above which a sample is sky
	Planar       bool    // depth is view-axis distance rather than ray length
}

// DefaultSettings returns the conventional depth encoding.
func DefaultSettings() Settings {
	return Settings{SkyThreshold: DefaultSkyThreshold}
}

// Normalize returns depth in the conventional encoding (0 = near, 1 = far),
// clamped to [0,1]. NaN maps to the far plane.
func Normalize(depth float64, reversedZ bool) float64 {
	if math.IsNaN(depth) {
		return 1
	}
	if depth < 0 {
		depth = 0
	} else if depth > 1 {
		depth = 1
	}
	if reversedZ {
		depth = 1 - depth
	}
	return depth
}

// DepthToDistance linearizes a raw depth sample into eye-space distance.
// Result is exactly near at d=0 and exactly far at d=1.
func DepthToDistance(depth, near, far float64, reversedZ bool) float64 {
	d := Normalize(depth, reversedZ)
	switch d {
	case 0:
		return near
	case 1:
		return far
	}
	return (far * near) / (far - d*(far-near))
}

// DistanceToDepth is the inverse of DepthToDistance.
// Distances outside [near, far] clamp to the planes.
func DistanceToDepth(dist, near, far float64, reversedZ bool) float64 {
	var d float64
	switch {
	case dist <= near:
		d = 0
	case dist >= far:
		d = 1
	default:
		d = far * (dist - near) / (dist * (far - near))
	}
	if reversedZ {
		d = 1 - d
	}
	return d
}

// Reconstructor converts grid pixels plus depth into world positions for
// one frame. Build it once per frame; it caches the camera basis.
type Reconstructor struct {
	cam      camera.State
	basis    camera.Basis
	settings Settings

	gridW, gridH float64
	tanX, tanY   float64
}

// New builds a reconstructor for a sample grid of gridW x gridH.
func New(cam camera.State, gridW, gridH int, settings Settings) *Reconstructor {
	cam = cam.Sanitize()
	if gridW < 1 {
		gridW = 1
	}
	if gridH < 1 {
		gridH = 1
	}
	if !(settings.SkyThreshold > 0) {
		settings.SkyThreshold = DefaultSkyThreshold
	}
	tan := cam.TanHalfFOV()
	return &Reconstructor{
		cam:      cam,
		basis:    cam.Basis(),
		settings: settings,
		gridW:    float64(gridW),
		gridH:    float64(gridH),
		tanX:     tan * cam.Aspect,
		tanY:     tan,
	}
}

// Camera returns the sanitized camera snapshot.
func (r *Reconstructor) Camera() camera.State {
	return r.cam
}

// IsSky reports whether a raw depth sample is the far/sky sentinel.
func (r *Reconstructor) IsSky(depth float32) bool {
	return Normalize(float64(depth), r.settings.ReversedZ) >= r.settings.SkyThreshold
}

// Distance linearizes a raw depth sample with this frame's planes.
func (r *Reconstructor) Distance(depth float32) float64 {
	return DepthToDistance(float64(depth), r.cam.Near, r.cam.Far, r.settings.ReversedZ)
}

// Direction returns the view ray through the centre of grid pixel (px, py).
// Pixel (0,0) is the top-left of the grid.
func (r *Reconstructor) Direction(px, py int) r3.Vec {
	ndcX := (2*(float64(px)+0.5)/r.gridW - 1) * r.tanX
	ndcY := (1 - 2*(float64(py)+0.5)/r.gridH) * r.tanY

	dir := r3.Add(r.basis.Forward, r3.Add(r3.Scale(ndcX, r.basis.Right), r3.Scale(ndcY, r.basis.Up)))
	if r.settings.Planar {
		return dir
	}
	return r3.Unit(dir)
}

// Point reconstructs the world position of grid pixel (px, py).
// ok is false for sky samples, which are never reconstructed.
func (r *Reconstructor) Point(px, py int, depth float32) (p r3.Vec, ok bool) {
	if r.IsSky(depth) {
		return r3.Vec{}, false
	}
	dist := r.Distance(depth)
	return r3.Add(r.cam.Position, r3.Scale(dist, r.Direction(px, py))), true
}

// Reconstruct is the stateless form of Reconstructor.Point.
func Reconstruct(px, py, gridW, gridH int, cam camera.State, depth float32, settings Settings) (r3.Vec, bool) {
	return New(cam, gridW, gridH, settings).Point(px, py, depth)
}
