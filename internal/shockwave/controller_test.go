package shockwave

import (
	"image"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/animation"
	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
	"github.com/Faultbox/shockwave/internal/engine/ring"
	"github.com/Faultbox/shockwave/internal/engine/uniform"
)

const (
	testNear = 0.1
	testFar  = 1000.0
)

func testCamera() camera.State {
	return camera.State{FOV: 70, Near: testNear, Far: testFar, Aspect: 1}
}

// sphereDepth places every pixel at distance dist from the camera.
func sphereDepth(w, h int, dist float64) *depth.MemorySource {
	d := float32(reconstruct.DistanceToDepth(dist, testNear, testFar, false))
	return depth.NewMemorySource(w, h, depth.Fill(w, h, d))
}

func frameContext(src depth.Source, w, h int) FrameContext {
	return FrameContext{
		Camera:        testCamera(),
		Width:         w,
		Height:        h,
		Depth:         src,
		DepthSettings: reconstruct.DefaultSettings(),
	}
}

func newTestController(mode Mode) (*Controller, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewController(Options{Mode: mode, Logger: zap.New(core)}), logs
}

func TestRenderCentreScenario(t *testing.T) {
	mode := DefaultMode()
	mode.Output = OutputOverlay
	c, _ := newTestController(mode)
	c.SetRadius(10)

	f, ok := c.Render(frameContext(sphereDepth(65, 65, 10), 65, 65))
	require.True(t, ok)

	centre := c.pixels[32*65+32]
	assert.InDelta(t, 1.0, centre.Core, 1e-3)
	assert.Equal(t, uint8(255), f.Image.RGBAAt(32, 32).A)

	// Every pixel lies on the sphere of radius 10 around the camera.
	assert.Equal(t, 65*65, f.Stats.Samples)
	assert.Equal(t, 65*65, f.Stats.Ring)
	assert.Zero(t, f.Stats.Sky)
	assert.Equal(t, image.Pt(65, 65), f.Grid)
	assert.Equal(t, animation.Stopped, f.Snapshot.State)
}

func TestRenderOverlaySkyIsTransparent(t *testing.T) {
	c, _ := newTestController(DefaultMode())
	c.SetRadius(10)

	src := depth.NewMemorySource(16, 16, depth.Fill(16, 16, 1))
	f, ok := c.Render(frameContext(src, 16, 16))
	require.True(t, ok)

	assert.Equal(t, 256, f.Stats.Sky)
	assert.Zero(t, f.Stats.Ring)
	for i := 3; i < len(f.Image.Pix); i += 4 {
		if f.Image.Pix[i] != 0 {
			t.Fatalf("pixel %d has alpha %d", i/4, f.Image.Pix[i])
		}
	}
}

func TestRenderIdleDrawsNoRing(t *testing.T) {
	c, _ := newTestController(DefaultMode())

	f, ok := c.Render(frameContext(sphereDepth(8, 8, 0.1), 8, 8))
	require.True(t, ok)
	assert.Equal(t, animation.Idle, f.Snapshot.State)
	assert.Zero(t, f.Stats.Ring)
}

func TestRenderDiagnosticIsOpaque(t *testing.T) {
	mode := DefaultMode()
	mode.Output = OutputDiagnostic
	mode.HUD = true
	c, _ := newTestController(mode)
	c.SetRadius(50)

	f, ok := c.Render(frameContext(sphereDepth(32, 32, 10), 32, 32))
	require.True(t, ok)
	assert.Zero(t, f.Stats.Ring)
	for i := 3; i < len(f.Image.Pix); i += 4 {
		require.Equal(t, uint8(255), f.Image.Pix[i])
	}
}

func TestRenderDiagnosticHonoursIntensity(t *testing.T) {
	mode := DefaultMode()
	mode.Output = OutputDiagnostic
	c, _ := newTestController(mode)
	c.SetRadius(10)
	fc := frameContext(sphereDepth(8, 8, 10), 8, 8)

	f, ok := c.Render(fc)
	require.True(t, ok)
	bright := f.Image.RGBAAt(4, 4)

	c.SetIntensity(0)
	f, ok = c.Render(fc)
	require.True(t, ok)
	assert.Zero(t, f.Stats.Ring)
	assert.NotEqual(t, bright, f.Image.RGBAAt(4, 4))
}

func TestRenderSkipsWithoutDepth(t *testing.T) {
	c, logs := newTestController(DefaultMode())
	unavailable := depth.SourceFunc(func() (depth.Buffer, bool) { return depth.Buffer{}, false })

	f, ok := c.Render(frameContext(unavailable, 8, 8))
	assert.False(t, ok)
	assert.Nil(t, f.Image)
	assert.Equal(t, uint64(1), c.Skipped())
	assert.Equal(t, 1, logs.FilterMessage("frame skipped").Len())
}

func TestRenderTrackedOrigin(t *testing.T) {
	var (
		pos   r3.Vec
		known bool
	)
	c, _ := newTestController(DefaultMode())
	c.Track(ring.LocatorFunc(func() (r3.Vec, bool) { return pos, known }))
	c.SetRadius(10)
	src := sphereDepth(9, 9, 10)

	_, ok := c.Render(frameContext(src, 9, 9))
	assert.False(t, ok, "no position known yet")

	known = true
	f, ok := c.Render(frameContext(src, 9, 9))
	require.True(t, ok)
	assert.Equal(t, 81, f.Stats.Ring)

	// The entity vanishes; the ring stays at the last known position.
	known = false
	pos = r3.Vec{X: 500}
	f, ok = c.Render(frameContext(src, 9, 9))
	require.True(t, ok)
	assert.Equal(t, r3.Vec{}, f.Origin)
}

func TestRenderFrameOriginOverride(t *testing.T) {
	c, _ := newTestController(DefaultMode())
	c.SetRadius(10)

	fc := frameContext(sphereDepth(9, 9, 10), 9, 9)
	fc.Origin = ring.FixedOrigin{X: 300}
	f, ok := c.Render(fc)
	require.True(t, ok)
	assert.Zero(t, f.Stats.Ring)
	assert.Equal(t, 300.0, f.Origin.X)
}

func TestRenderDivisorUpscales(t *testing.T) {
	c, _ := newTestController(DefaultMode())
	c.SetRadius(10)
	c.SetResolutionDivisor(4)

	f, ok := c.Render(frameContext(sphereDepth(64, 64, 10), 64, 64))
	require.True(t, ok)
	assert.Equal(t, image.Pt(16, 16), f.Grid)
	assert.Equal(t, 16, f.Mask.Rect.Dx())
	assert.Equal(t, 64, f.Image.Rect.Dx())
	assert.Equal(t, 256, f.Stats.Samples)
}

// groundDepth renders the plane y = -5 seen by cam into a w x h buffer.
func groundDepth(cam camera.State, w, h int) *depth.MemorySource {
	rec := reconstruct.New(cam, w, h, reconstruct.DefaultSettings())
	data := depth.Fill(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if dir := rec.Direction(x, y); dir.Y < 0 {
				data[y*w+x] = float32(reconstruct.DistanceToDepth(-5/dir.Y, cam.Near, cam.Far, false))
			}
		}
	}
	return depth.NewMemorySource(w, h, data)
}

func TestRenderDownsampledMatchesFullResolution(t *testing.T) {
	const w, h = 30, 20
	cam := camera.State{Pitch: 60, FOV: 70, Near: 0.5, Far: 200, Aspect: float64(w) / h}
	src := groundDepth(cam, w, h)
	// Where the centre ray meets the ground.
	origin := ring.FixedOrigin{Y: -5, Z: 5 / math.Tan(60*math.Pi/180)}

	render := func(n int, region image.Rectangle) (*Controller, Frame) {
		c, _ := newTestController(DefaultMode())
		c.SetThickness(1)
		c.SetRadius(3)
		c.SetResolutionDivisor(n)
		fc := frameContext(src, w, h)
		fc.Camera = cam
		fc.Region = region
		fc.Origin = origin
		f, ok := c.Render(fc)
		require.True(t, ok)
		return c, f
	}

	full, f := render(1, image.Rectangle{})
	require.Positive(t, f.Stats.Ring)

	for _, region := range []image.Rectangle{{}, image.Rect(w/2, 0, w, h), image.Rect(4, 3, 27, 19)} {
		for _, n := range []int{2, 3, 4} {
			c, f := render(n, region)
			bounds := region
			if bounds.Empty() {
				bounds = image.Rect(0, 0, w, h)
			}
			for y := 0; y < f.Grid.Y; y++ {
				for x := 0; x < f.Grid.X; x++ {
					sx := min(bounds.Min.X+x*n+n/2, bounds.Max.X-1)
					sy := min(bounds.Min.Y+y*n+n/2, bounds.Max.Y-1)
					got := c.pixels[y*f.Grid.X+x]
					want := full.pixels[sy*w+sx]
					assert.InDelta(t, want.Core, got.Core, 1e-3, "region %v n=%d cell (%d,%d)", region, n, x, y)
					assert.InDelta(t, want.Depth, got.Depth, 1e-3, "region %v n=%d cell (%d,%d)", region, n, x, y)
				}
			}
		}
	}
}

func TestResolutionDivisorClamped(t *testing.T) {
	c, _ := newTestController(DefaultMode())

	c.SetResolutionDivisor(0)
	assert.Equal(t, MinDivisor, c.Mode().Divisor)
	c.SetResolutionDivisor(99)
	assert.Equal(t, MaxDivisor, c.Mode().Divisor)
}

func TestModeSwitchReleasesScratch(t *testing.T) {
	c, logs := newTestController(DefaultMode())
	c.SetRadius(10)
	fc := frameContext(sphereDepth(32, 32, 10), 32, 32)

	for i := 0; i < 3; i++ {
		_, ok := c.Render(fc)
		require.True(t, ok)
	}
	assert.Equal(t, 1, c.sampler.Allocations())
	assert.Equal(t, 1, c.compositor.Allocations())

	c.SetResolutionDivisor(2)
	_, ok := c.Render(fc)
	require.True(t, ok)
	assert.Equal(t, 2, c.sampler.Allocations())
	assert.Equal(t, 2, c.compositor.Allocations())
	assert.Len(t, c.pixels, 256)
	assert.Equal(t, 1, logs.FilterMessage("scratch released").Len())
	assert.Equal(t, 1, logs.FilterMessage("mode changed").Len())
}

func TestRenderUniform(t *testing.T) {
	mode := DefaultMode()
	mode.Output = OutputUniform
	c, _ := newTestController(mode)
	c.SetFixedOrigin(r3.Vec{X: 1, Y: 2, Z: 3})
	c.SetRadius(12)

	f, ok := c.Render(FrameContext{Index: 4, Camera: testCamera()})
	require.True(t, ok)
	assert.Nil(t, f.Image)
	assert.Len(t, f.Uniform, uniform.ShockwaveLayout.Size())

	r, _ := c.packet.Float(uniform.FieldRadius)
	assert.Equal(t, float32(12), r)
	out, _ := c.packet.Int(uniform.FieldOutputMode)
	assert.Equal(t, int32(OutputUniform), out)
	assert.Equal(t, uint64(4), c.packet.Frame())
}

func TestControlFromAnotherGoroutine(t *testing.T) {
	c, _ := newTestController(DefaultMode())
	fc := frameContext(sphereDepth(16, 16, 10), 16, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			c.Trigger()
			c.SetSpeed(float64(i + 1))
			c.SetResolutionDivisor(i%3 + 1)
		}
	}()
	for i := 0; i < 50; i++ {
		_, ok := c.Render(fc)
		require.True(t, ok)
	}
	wg.Wait()
}

func TestModeNormalize(t *testing.T) {
	m := Mode{Divisor: -3, Scheme: "nope"}.Normalize()
	assert.Equal(t, 1, m.Divisor)
	assert.Equal(t, ring.BandAll, m.Bands)
	assert.Equal(t, "classic", m.Scheme)
}

func TestParseKinds(t *testing.T) {
	k, err := ParseOutput("Uniform")
	require.NoError(t, err)
	assert.Equal(t, OutputUniform, k)
	_, err = ParseOutput("hologram")
	assert.Error(t, err)

	o, err := ParseOrigin("tracked")
	require.NoError(t, err)
	assert.Equal(t, OriginTracked, o)
	assert.Equal(t, "fixed", OriginFixed.String())
}
