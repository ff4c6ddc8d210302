package ring

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Origin yields the point ring distances are measured from.
// ok is false when no position is known this frame.
type Origin interface {
	Position() (p r3.Vec, ok bool)
}

// FixedOrigin is a constant world position.
type FixedOrigin r3.Vec

// Position implements Origin.
func (o FixedOrigin) Position() (r3.Vec, bool) {
	return r3.Vec(o), true
}

// Locator reports the current position of a tracked entity.
type Locator interface {
	Location() (r3.Vec, bool)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func() (r3.Vec, bool)

// Location implements Locator.
func (f LocatorFunc) Location() (r3.Vec, bool) {
	return f()
}

// TrackedOrigin follows a moving entity, polled once per frame.
// When the entity drops out it keeps the last known position.
type TrackedOrigin struct {
	target Locator
	last   r3.Vec
	known  bool
}

// NewTrackedOrigin tracks target.
func NewTrackedOrigin(target Locator) *TrackedOrigin {
	return &TrackedOrigin{target: target}
}

// Position implements Origin.
func (o *TrackedOrigin) Position() (r3.Vec, bool) {
	if o.target != nil {
		if p, ok := o.target.Location(); ok {
			o.last = p
			o.known = true
		}
	}
	return o.last, o.known
}
