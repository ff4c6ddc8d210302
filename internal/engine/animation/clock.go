// Package animation drives the shockwave radius over time.
package animation

import (
	"math"
	"sync"
	"time"

	"github.com/Faultbox/shockwave/internal/engine/ring"
)

// State is the animation phase.
type State uint8

const (
	Idle State = iota
	Animating
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Parameter minimums applied by the setters.
const (
	MinSpeed     = 0.01
	MinMaxRadius = 0.1
	MinThickness = ring.MinThickness
	MinGlow      = 1.0
)

// Options configures a new Clock.
type Options struct {
	Speed      float64 // blocks per second
	MaxRadius  float64
	Thickness  float64
	GlowFactor float64 // glow thickness = GlowFactor * Thickness
	Intensity  float64
	Now        func() time.Time
}

// DefaultOptions returns the stock shockwave parameters.
func DefaultOptions() Options {
	return Options{
		Speed:      20,
		MaxRadius:  100,
		Thickness:  2,
		GlowFactor: ring.DefaultGlowFactor,
		Intensity:  1,
	}
}

// Snapshot is the clock's view for one frame.
type Snapshot struct {
	State   State
	Ring    ring.State
	Elapsed time.Duration
}

// Clock is the only state carried across frames. Control calls may come
// from another goroutine; the render pass reads it once per frame.
type Clock struct {
	mu sync.Mutex

	state State
	start time.Time
	base  float64 // radius at start; non-zero after a speed change
	fixed float64 // radius while stopped

	// capped is set when the ring stopped by reaching maxRadius.
	capped bool

	speed      float64
	maxRadius  float64
	thickness  float64
	glowFactor float64
	intensity  float64

	now func() time.Time
}

// NewClock creates an idle clock. Invalid options are clamped.
func NewClock(opts Options) *Clock {
	c := &Clock{now: opts.Now}
	if c.now == nil {
		c.now = time.Now
	}
	c.speed = atLeast(opts.Speed, MinSpeed)
	c.maxRadius = atLeast(opts.MaxRadius, MinMaxRadius)
	c.thickness = atLeast(opts.Thickness, MinThickness)
	c.glowFactor = atLeast(opts.GlowFactor, MinGlow)
	c.intensity = clamp01(opts.Intensity)
	return c
}

// Trigger restarts the ring from radius 0.
func (c *Clock) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Animating
	c.start = c.now()
	c.base = 0
	c.fixed = 0
	c.capped = false
}

// SetRadius jumps straight to a stopped ring at r.
func (c *Clock) SetRadius(r float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !(r >= 0) {
		r = 0
	}
	c.state = Stopped
	c.fixed = r
	c.capped = false
}

// SetSpeed changes the growth rate. A running animation continues from
// its current radius.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Animating {
		now := c.now()
		c.base = c.radiusAt(now)
		c.start = now
	}
	c.speed = atLeast(speed, MinSpeed)
}

// SetMaxRadius changes the stopping radius. A ring that already stopped
// at the old maximum shrinks to a lower one; a radius set explicitly with
// SetRadius is kept.
func (c *Clock) SetMaxRadius(max float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.update(c.now())
	c.maxRadius = atLeast(max, MinMaxRadius)
	if c.state == Stopped && c.capped {
		c.fixed = math.Min(c.fixed, c.maxRadius)
	}
}

// SetThickness changes the core band width.
func (c *Clock) SetThickness(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thickness = atLeast(t, MinThickness)
}

// SetGlowFactor changes the glow width relative to the core.
func (c *Clock) SetGlowFactor(f float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.glowFactor = atLeast(f, MinGlow)
}

// SetIntensity sets the overall ring opacity in [0,1].
func (c *Clock) SetIntensity(i float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intensity = clamp01(i)
}

// Radius returns the current radius, stopping the animation once it
// reaches the maximum.
func (c *Clock) Radius() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.now())
}

// State returns the current phase after advancing the clock.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update(c.now())
	return c.state
}

// IsAnimating reports whether the ring is still growing.
func (c *Clock) IsAnimating() bool {
	return c.State() == Animating
}

// Snapshot reads everything the render pass needs in one locked step.
func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	r := c.update(now)
	var elapsed time.Duration
	if c.state != Idle && !c.start.IsZero() {
		elapsed = now.Sub(c.start)
	}
	return Snapshot{
		State:   c.state,
		Elapsed: elapsed,
		Ring: ring.State{
			Radius:        r,
			Thickness:     c.thickness,
			GlowThickness: c.thickness * c.glowFactor,
			Intensity:     c.intensity,
		}.Normalize(),
	}
}

// Speed returns the growth rate in blocks per second.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// MaxRadius returns the stopping radius.
func (c *Clock) MaxRadius() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxRadius
}

// update advances the state machine to now and returns the radius.
// Caller holds mu.
func (c *Clock) update(now time.Time) float64 {
	switch c.state {
	case Animating:
		r := c.radiusAt(now)
		if r >= c.maxRadius {
			c.state = Stopped
			c.fixed = c.maxRadius
			c.capped = true
			return c.fixed
		}
		return r
	case Stopped:
		return c.fixed
	default:
		return 0
	}
}

func (c *Clock) radiusAt(now time.Time) float64 {
	elapsed := now.Sub(c.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Min(c.base+elapsed*c.speed, c.maxRadius)
}

func atLeast(v, min float64) float64 {
	if !(v >= min) {
		return min
	}
	return v
}

func clamp01(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
