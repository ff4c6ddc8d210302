package shockwave

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/animation"
	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/mask"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
	"github.com/Faultbox/shockwave/internal/engine/ring"
	"github.com/Faultbox/shockwave/internal/engine/uniform"
)

// FrameContext is everything one frame needs from the host.
type FrameContext struct {
	Index  uint64
	Camera camera.State
	// Viewport size in pixels. Zero uses the depth buffer size.
	Width  int
	Height int
	Depth  depth.Source
	// Region of the depth buffer to process; empty means all of it.
	Region        image.Rectangle
	DepthSettings reconstruct.Settings
	// Origin overrides the controller's configured origin when set.
	Origin ring.Origin
}

// Stats counts what a frame touched.
type Stats struct {
	Samples int
	Sky     int
	Ring    int
}

// Frame is the result of one Render call. Image and Uniform alias pooled
// buffers and are valid until the next Render.
type Frame struct {
	Index    uint64
	Mode     Mode
	Image    *image.RGBA
	Mask     *image.RGBA
	Uniform  []byte
	Grid     image.Point
	Snapshot animation.Snapshot
	Origin   r3.Vec
	Stats    Stats
}

// Options configures a Controller.
type Options struct {
	Mode    Mode
	Clock   *animation.Clock
	Fixed   r3.Vec
	Tracked ring.Locator
	Logger  *zap.Logger
}

// Controller owns the render mode and the per-mode scratch buffers.
// Control methods may be called from any goroutine; Render must only be
// called from one.
type Controller struct {
	log   *zap.Logger
	clock *animation.Clock

	mu      sync.Mutex
	mode    Mode
	fixed   r3.Vec
	tracked *ring.TrackedOrigin

	// Render-side state.
	applied    Mode
	sampler    *depth.Sampler
	compositor *mask.Compositor
	pixels     []mask.Pixel
	view       *image.RGBA
	packet     *uniform.Packet
	skipped    uint64
}

// NewController creates a controller. A nil clock gets default options.
func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = animation.NewClock(animation.DefaultOptions())
	}
	mode := opts.Mode
	if mode == (Mode{}) {
		mode = DefaultMode()
	}
	mode = mode.Normalize()
	scheme, _ := mask.LookupScheme(mode.Scheme)

	return &Controller{
		log:        log,
		clock:      clock,
		mode:       mode,
		fixed:      opts.Fixed,
		tracked:    ring.NewTrackedOrigin(opts.Tracked),
		applied:    mode,
		sampler:    depth.NewSampler(),
		compositor: mask.NewCompositor(scheme),
		packet:     uniform.NewPacket(uniform.ShockwaveLayout),
	}
}

// Clock returns the animation clock driven by this controller.
func (c *Controller) Clock() *animation.Clock {
	return c.clock
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode replaces the mode. Scratch sized for the old mode is released
// at the start of the next frame, before anything new is allocated.
func (c *Controller) SetMode(m Mode) {
	m = m.Normalize()
	c.mu.Lock()
	old := c.mode
	c.mode = m
	c.mu.Unlock()
	if old != m {
		c.log.Info("mode changed", zap.Stringer("from", old), zap.Stringer("to", m))
	}
}

func (c *Controller) updateMode(fn func(m *Mode)) {
	c.mu.Lock()
	m := c.mode
	c.mu.Unlock()
	fn(&m)
	c.SetMode(m)
}

// Trigger restarts the ring animation.
func (c *Controller) Trigger() { c.clock.Trigger() }

// SetRadius stops the animation at radius r.
func (c *Controller) SetRadius(r float64) { c.clock.SetRadius(r) }

// SetThickness sets the core band width.
func (c *Controller) SetThickness(t float64) { c.clock.SetThickness(t) }

// SetIntensity sets the ring opacity in [0,1].
func (c *Controller) SetIntensity(i float64) { c.clock.SetIntensity(i) }

// SetSpeed sets the expansion speed in blocks per second.
func (c *Controller) SetSpeed(s float64) { c.clock.SetSpeed(s) }

// SetMaxRadius sets where the animation stops.
func (c *Controller) SetMaxRadius(r float64) { c.clock.SetMaxRadius(r) }

// SetGlowFactor sets glow thickness relative to the core.
func (c *Controller) SetGlowFactor(f float64) { c.clock.SetGlowFactor(f) }

// SetResolutionDivisor sets the sampling divisor, clamped to [1, 16].
func (c *Controller) SetResolutionDivisor(n int) {
	c.updateMode(func(m *Mode) { m.Divisor = n })
}

// SetOutput selects the output contract.
func (c *Controller) SetOutput(k OutputKind) {
	c.updateMode(func(m *Mode) { m.Output = k })
}

// SetScheme selects a colour scheme; unknown names fall back to the default.
func (c *Controller) SetScheme(name string) {
	c.updateMode(func(m *Mode) { m.Scheme = name })
}

// SetBands selects which classifier bands are computed.
func (c *Controller) SetBands(b ring.Band) {
	c.updateMode(func(m *Mode) { m.Bands = b })
}

// SetHUD toggles diagnostic text.
func (c *Controller) SetHUD(on bool) {
	c.updateMode(func(m *Mode) { m.HUD = on })
}

// SetOrigin selects the origin source.
func (c *Controller) SetOrigin(k OriginKind) {
	c.updateMode(func(m *Mode) { m.Origin = k })
}

// SetFixedOrigin moves the fixed origin and selects it.
func (c *Controller) SetFixedOrigin(p r3.Vec) {
	c.mu.Lock()
	c.fixed = p
	c.mu.Unlock()
	c.SetOrigin(OriginFixed)
}

// Track follows target and selects the tracked origin.
func (c *Controller) Track(target ring.Locator) {
	c.mu.Lock()
	c.tracked = ring.NewTrackedOrigin(target)
	c.mu.Unlock()
	c.SetOrigin(OriginTracked)
}

// Skipped returns how many frames were skipped.
func (c *Controller) Skipped() uint64 {
	return c.skipped
}

// Release drops every scratch buffer.
func (c *Controller) Release() {
	c.sampler.Release()
	c.compositor.Release()
	c.pixels = nil
	c.view = nil
}

// Render runs one frame. ok is false when the frame was skipped because
// the depth buffer or the origin was unavailable.
func (c *Controller) Render(fc FrameContext) (Frame, bool) {
	c.mu.Lock()
	mode := c.mode
	origin := fc.Origin
	if origin == nil {
		if mode.Origin == OriginTracked {
			origin = c.tracked
		} else {
			origin = ring.FixedOrigin(c.fixed)
		}
	}
	c.mu.Unlock()

	c.apply(mode)

	snap := c.clock.Snapshot()
	frame := Frame{Index: fc.Index, Mode: mode, Snapshot: snap}

	pos, ok := origin.Position()
	if !ok {
		return c.skip(fc.Index, "origin unavailable")
	}
	frame.Origin = pos

	if mode.Output == OutputUniform {
		return c.renderUniform(fc, frame)
	}

	grid, ok := c.sampler.Sample(fc.Depth, fc.Region, mode.Divisor)
	if !ok {
		return c.skip(fc.Index, "depth unavailable")
	}
	frame.Grid = image.Pt(grid.Width, grid.Height)

	frame.Stats = c.classify(grid, fc, pos, snap, mode)
	frame.Mask = c.compositor.Compose(c.pixels, grid.Width, grid.Height, mode.Output.contract())
	frame.Image = c.present(frame.Mask, fc, grid)

	if mode.Output == OutputDiagnostic && mode.HUD {
		mask.DrawHUD(frame.Image, c.hudLines(frame, fc.Camera), color.RGBA{R: 255, G: 255, A: 255})
	}
	return frame, true
}

// apply releases scratch buffers when the mode changed resolution or
// contract since the last frame.
func (c *Controller) apply(mode Mode) {
	prev := c.applied
	c.applied = mode
	if prev.Scheme != mode.Scheme {
		scheme, _ := mask.LookupScheme(mode.Scheme)
		c.compositor.SetScheme(scheme)
	}
	if prev.Divisor != mode.Divisor || prev.Output != mode.Output {
		c.Release()
		c.log.Debug("scratch released",
			zap.Int("divisor", mode.Divisor),
			zap.Stringer("output", mode.Output),
		)
	}
}

func (c *Controller) skip(index uint64, reason string) (Frame, bool) {
	c.skipped++
	c.log.Debug("frame skipped", zap.Uint64("frame", index), zap.String("reason", reason))
	return Frame{}, false
}

// classify fills c.pixels for every grid sample.
func (c *Controller) classify(grid depth.Grid, fc FrameContext, origin r3.Vec, snap animation.Snapshot, mode Mode) Stats {
	n := grid.Width * grid.Height
	if cap(c.pixels) < n {
		c.pixels = nil
		c.pixels = make([]mask.Pixel, n)
	}
	c.pixels = c.pixels[:n]

	// Rays are cast through the texel each cell was read from, in the
	// projection of the whole buffer.
	rec := reconstruct.New(fc.Camera, grid.Bounds.Dx(), grid.Bounds.Dy(), fc.DepthSettings)
	cam := rec.Camera()
	span := cam.Far - cam.Near
	rs := snap.Ring.Normalize()
	active := snap.State != animation.Idle && rs.Intensity > 0

	stats := Stats{Samples: n}
	for y := 0; y < grid.Height; y++ {
		row := y * grid.Width
		for x := 0; x < grid.Width; x++ {
			px := &c.pixels[row+x]
			raw := grid.Data[row+x]
			sx, sy := grid.Texel(x, y)
			p, ok := rec.Point(sx, sy, raw)
			if !ok {
				*px = mask.Pixel{Depth: mask.SkyDepth}
				stats.Sky++
				continue
			}

			*px = mask.Pixel{Depth: float32((rec.Distance(raw) - cam.Near) / span)}
			if !active {
				continue
			}
			d := r3.Norm(r3.Sub(p, origin))
			if !rs.Contains(d) {
				continue
			}
			core, glow := ring.ClassifyDistance(d, rs, mode.Bands)
			a := core
			if glow > a {
				a = glow
			}
			px.Core, px.Glow, px.Alpha = core, glow, a*float32(rs.Intensity)
			if px.Alpha > 0 {
				stats.Ring++
			}
		}
	}
	return stats
}

// present scales the grid mask up to the viewport.
func (c *Controller) present(m *image.RGBA, fc FrameContext, grid depth.Grid) *image.RGBA {
	w, h := fc.Width, fc.Height
	if w <= 0 || h <= 0 {
		w, h = grid.Region.Dx(), grid.Region.Dy()
	}
	if w == grid.Width && h == grid.Height {
		return m
	}
	if c.view == nil || c.view.Rect.Dx() != w || c.view.Rect.Dy() != h {
		c.view = nil
		c.view = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	mask.Upscale(c.view, m)
	return c.view
}

func (c *Controller) renderUniform(fc FrameContext, frame Frame) (Frame, bool) {
	scheme := c.compositor.Scheme()
	rs := frame.Snapshot.Ring
	if frame.Snapshot.State == animation.Idle {
		rs.Intensity = 0
	}
	b, err := uniform.PackShockwave(c.packet, fc.Index, uniform.Params{
		Camera:     fc.Camera,
		Origin:     frame.Origin,
		Ring:       rs,
		ReversedZ:  fc.DepthSettings.ReversedZ,
		OutputMode: int32(frame.Mode.Output),
		Time:       float32(frame.Snapshot.Elapsed.Seconds()),
		CoreColor:  vec4(scheme.Core),
		GlowColor:  vec4(scheme.Glow),
	})
	if err != nil {
		// Only reachable through a layout programming error.
		c.log.Error("uniform pack failed", zap.Error(err))
		return c.skip(fc.Index, "uniform pack failed")
	}
	frame.Uniform = b
	return frame, true
}

func (c *Controller) hudLines(f Frame, cam camera.State) []string {
	lines := []string{
		f.Mode.String(),
		fmt.Sprintf("%s r=%.1f t=%.2f i=%.2f", f.Snapshot.State, f.Snapshot.Ring.Radius, f.Snapshot.Ring.Thickness, f.Snapshot.Ring.Intensity),
		fmt.Sprintf("grid %dx%d sky %d ring %d", f.Grid.X, f.Grid.Y, f.Stats.Sky, f.Stats.Ring),
		fmt.Sprintf("origin %.1f %.1f %.1f", f.Origin.X, f.Origin.Y, f.Origin.Z),
	}
	if err := cam.Validate(); err != nil {
		lines = append(lines, "camera: "+err.Error())
	}
	return lines
}

func vec4(c color.NRGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
