// Package camera provides the per-frame camera snapshot and the free-look
// camera used by the preview tools.
package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Limits applied by Sanitize.
const (
	MinFOV    = 1.0
	MaxFOV    = 179.0
	MinNear   = 1e-4
	MinAspect = 1e-3
)

// State is an immutable camera snapshot for one frame.
// Angles are in degrees; FOV is the vertical field of view.
type State struct {
	Position r3.Vec
	Yaw      float64
	Pitch    float64
	FOV      float64
	Near     float64
	Far      float64
	Aspect   float64
}

// Basis is the orthonormal camera frame in world space.
type Basis struct {
	Forward r3.Vec
	Right   r3.Vec
	Up      r3.Vec
}

// Validate reports the first parameter that would break reconstruction.
func (s State) Validate() error {
	switch {
	case !(s.Near > 0):
		return fmt.Errorf("near plane must be positive, got %g", s.Near)
	case !(s.Far > s.Near):
		return fmt.Errorf("far plane %g must exceed near plane %g", s.Far, s.Near)
	case !(s.FOV >= MinFOV && s.FOV <= MaxFOV):
		return fmt.Errorf("fov %g outside [%g, %g]", s.FOV, MinFOV, MaxFOV)
	case !(s.Aspect > 0):
		return fmt.Errorf("aspect must be positive, got %g", s.Aspect)
	}
	return nil
}

// Sanitize clamps every parameter into a usable range.
func (s State) Sanitize() State {
	if !(s.Near >= MinNear) {
		s.Near = MinNear
	}
	if !(s.Far > s.Near) {
		s.Far = s.Near * 2
	}
	s.FOV = clamp(s.FOV, MinFOV, MaxFOV)
	if !(s.Aspect >= MinAspect) {
		s.Aspect = 1
	}
	s.Pitch = clamp(s.Pitch, -90, 90)
	return s
}

// Basis builds forward/right/up from yaw and pitch.
// Yaw 0 and pitch 0 look down +Z; positive pitch looks down.
func (s State) Basis() Basis {
	yaw := s.Yaw * math.Pi / 180
	pitch := s.Pitch * math.Pi / 180
	sy, cy := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)

	forward := r3.Vec{X: -sy * cp, Y: -sp, Z: cy * cp}
	// Right only depends on yaw so looking straight up or down stays defined.
	right := r3.Vec{X: -cy, Y: 0, Z: -sy}
	up := r3.Cross(right, forward)
	return Basis{Forward: forward, Right: right, Up: up}
}

// TanHalfFOV returns tan(fov/2) for the vertical field of view.
func (s State) TanHalfFOV() float64 {
	return math.Tan(s.FOV * math.Pi / 360)
}

// ViewMatrix returns the world-to-view transform (row-major).
// View space is x right, y up, z forward.
func (s State) ViewMatrix() *mat.Dense {
	b := s.Basis()
	p := s.Position
	return mat.NewDense(4, 4, []float64{
		b.Right.X, b.Right.Y, b.Right.Z, -r3.Dot(b.Right, p),
		b.Up.X, b.Up.Y, b.Up.Z, -r3.Dot(b.Up, p),
		b.Forward.X, b.Forward.Y, b.Forward.Z, -r3.Dot(b.Forward, p),
		0, 0, 0, 1,
	})
}

// Projection returns a perspective projection mapping view depth
// [near, far] to [0, 1], the same convention reconstruct.DepthToDistance
// inverts.
func (s State) Projection() *mat.Dense {
	f := 1 / s.TanHalfFOV()
	rng := s.Far - s.Near
	return mat.NewDense(4, 4, []float64{
		f / s.Aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, s.Far / rng, -s.Far * s.Near / rng,
		0, 0, 1, 0,
	})
}

// ViewProjection returns Projection * View.
func (s State) ViewProjection() *mat.Dense {
	var vp mat.Dense
	vp.Mul(s.Projection(), s.ViewMatrix())
	return &vp
}

// InverseViewProjection maps (ndcX, ndcY, depth, 1) back to homogeneous
// world coordinates.
func (s State) InverseViewProjection() (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(s.ViewProjection()); err != nil {
		return nil, fmt.Errorf("inverting view-projection: %w", err)
	}
	return &inv, nil
}

// ColumnMajor converts a 4x4 matrix to the column-major float32 layout
// shaders expect.
func ColumnMajor(m mat.Matrix) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = float32(m.At(row, col))
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
