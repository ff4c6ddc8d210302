// Package entity implements moving world entities that a ring can follow.
package entity

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ground reports terrain height at a world (x, z).
type Ground interface {
	HeightAt(x, z float64) float64
}

// State represents what the walker is doing.
type State uint8

const (
	StateIdle State = iota
	StateWalking
)

// Walker loops along XZ waypoints at a constant speed, standing on the
// ground. It is updated by the frame loop and read by a tracked ring
// origin, possibly from another goroutine.
type Walker struct {
	mu sync.Mutex

	ID        uint32
	Name      string
	Path      []r3.Vec // Y is ignored; height comes from Ground
	MoveSpeed float64  // world units per second
	Offset    float64  // height above ground of the tracked point

	ground  Ground
	state   State
	segment int
	along   float64
	visible bool
}

// NewWalker creates a visible walker at the first waypoint.
func NewWalker(id uint32, name string, ground Ground, path []r3.Vec, speed float64) *Walker {
	w := &Walker{
		ID:        id,
		Name:      name,
		Path:      path,
		MoveSpeed: speed,
		ground:    ground,
		visible:   true,
	}
	if len(path) > 1 && speed > 0 {
		w.state = StateWalking
	}
	return w
}

// Loop builds a closed path of n waypoints on a circle of radius r.
func Loop(centre r3.Vec, r float64, n int) []r3.Vec {
	if n < 3 {
		n = 3
	}
	path := make([]r3.Vec, n)
	for i := range path {
		a := 2 * math.Pi * float64(i) / float64(n)
		path[i] = r3.Vec{X: centre.X + r*math.Cos(a), Z: centre.Z + r*math.Sin(a)}
	}
	return path
}

// Update advances the walker by dt seconds.
func (w *Walker) Update(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateWalking || dt <= 0 || w.length() == 0 {
		return
	}
	remaining := w.MoveSpeed * dt
	for remaining > 0 {
		a, b := w.Path[w.segment], w.Path[(w.segment+1)%len(w.Path)]
		length := math.Hypot(b.X-a.X, b.Z-a.Z)
		left := length - w.along
		if remaining < left {
			w.along += remaining
			return
		}
		remaining -= left
		w.along = 0
		w.segment = (w.segment + 1) % len(w.Path)
	}
}

// length returns the closed path length in the XZ plane.
func (w *Walker) length() float64 {
	total := 0.0
	for i, a := range w.Path {
		b := w.Path[(i+1)%len(w.Path)]
		total += math.Hypot(b.X-a.X, b.Z-a.Z)
	}
	return total
}

// SetVisible hides or shows the walker. A hidden walker reports no location.
func (w *Walker) SetVisible(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = v
}

// Stop halts movement.
func (w *Walker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateIdle
}

// State returns the movement state.
func (w *Walker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Location implements ring.Locator.
func (w *Walker) Location() (r3.Vec, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.visible || len(w.Path) == 0 {
		return r3.Vec{}, false
	}
	p := w.Path[w.segment]
	if len(w.Path) > 1 {
		b := w.Path[(w.segment+1)%len(w.Path)]
		length := math.Hypot(b.X-p.X, b.Z-p.Z)
		if length > 0 {
			t := w.along / length
			p = r3.Vec{X: p.X + (b.X-p.X)*t, Z: p.Z + (b.Z-p.Z)*t}
		}
	}
	if w.ground != nil {
		p.Y = w.ground.HeightAt(p.X, p.Z)
	}
	p.Y += w.Offset
	return p, true
}
