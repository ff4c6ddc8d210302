// Package scene assembles what the ring controller needs each frame: a
// depth source, a camera and a walker the ring can follow.
package scene

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/config"
	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/entity"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
	"github.com/Faultbox/shockwave/internal/engine/terrain"
	"github.com/Faultbox/shockwave/internal/shockwave"
)

// Walker defaults.
const (
	walkRadius = 24.0
	walkPoints = 12
	walkSpeed  = 8.0
	walkHeight = 1.0
)

var skyColor = color.RGBA{R: 96, G: 128, B: 168, A: 255}

// Scene is either a procedural terrain rendered from a moving camera or
// a static depth image captured from a fixed camera.
type Scene struct {
	Map      *terrain.Heightmap // nil for a static depth image
	Fly      *camera.FlyCamera
	Walker   *entity.Walker
	Settings reconstruct.Settings

	scale  int
	static depth.Buffer
	source *terrain.Source
	last   depth.Buffer
	shade  *image.RGBA
}

// New builds the scene described by cfg. A configured depth file wins
// over procedural terrain.
func New(cfg *config.Config) (*Scene, error) {
	s := &Scene{
		Fly:      camera.NewFlyCamera(),
		Settings: cfg.Depth.Settings(),
		scale:    max(cfg.Depth.Scale, 1),
	}
	s.Fly.Position = r3.Vec{X: cfg.Camera.Position[0], Y: cfg.Camera.Position[1], Z: cfg.Camera.Position[2]}
	s.Fly.Yaw, s.Fly.Pitch = cfg.Camera.Yaw, cfg.Camera.Pitch
	s.Fly.FOV, s.Fly.Near, s.Fly.Far = cfg.Camera.FOV, cfg.Camera.Near, cfg.Camera.Far

	centre := cfg.Mode.FixedOrigin()
	var ground entity.Ground
	if cfg.Depth.File != "" {
		buf, err := depth.LoadFile(cfg.Depth.File)
		if err != nil {
			return nil, fmt.Errorf("load depth: %w", err)
		}
		s.static = buf
		ground = terrain.Flat(2, 1, centre.Y)
	} else {
		p := terrain.DefaultParams()
		p.Seed = cfg.Terrain.Seed
		p.Size = cfg.Terrain.Size
		p.CellSize = cfg.Terrain.CellSize
		p.Amplitude = cfg.Terrain.Amplitude
		p.BaseY = cfg.Terrain.BaseY
		s.Map = terrain.Generate(p)
		s.source = &terrain.Source{Map: s.Map, Settings: s.Settings}
		ground = s.Map
	}

	s.Walker = entity.NewWalker(1, "walker", ground, entity.Loop(centre, walkRadius, walkPoints), walkSpeed)
	s.Walker.Offset = walkHeight
	return s, nil
}

// Static reports whether depth comes from a fixed image.
func (s *Scene) Static() bool {
	return s.Map == nil
}

// DepthSize returns the depth buffer size used for a w x h viewport.
func (s *Scene) DepthSize(w, h int) (int, int) {
	if s.Static() {
		return s.static.Width, s.static.Height
	}
	return max(w/s.scale, 1), max(h/s.scale, 1)
}

// Camera returns the camera for a w x h viewport. A static image keeps
// the aspect it was captured with.
func (s *Scene) Camera(w, h int) camera.State {
	dw, dh := s.DepthSize(w, h)
	return s.Fly.Snapshot(float64(dw) / float64(dh))
}

// Update advances the walker.
func (s *Scene) Update(dt float64) {
	s.Walker.Update(dt)
}

// Acquire renders or returns the depth buffer for a w x h viewport.
func (s *Scene) Acquire(w, h int) (depth.Buffer, bool) {
	if s.Static() {
		s.last = s.static
		return s.static, s.static.Valid()
	}
	cam := s.Camera(w, h)
	s.source.Width, s.source.Height = s.DepthSize(w, h)
	s.source.Camera = func() camera.State { return cam }
	buf, ok := s.source.Acquire()
	if ok {
		s.last = buf
	}
	return buf, ok
}

// Frame builds the controller input for a w x h viewport. The depth
// source is acquired lazily by the controller.
func (s *Scene) Frame(index uint64, w, h int) shockwave.FrameContext {
	return shockwave.FrameContext{
		Index:         index,
		Camera:        s.Camera(w, h),
		Width:         w,
		Height:        h,
		Depth:         depth.SourceFunc(func() (depth.Buffer, bool) { return s.Acquire(w, h) }),
		DepthSettings: s.Settings,
	}
}

// Shade renders the last acquired depth buffer as grey terrain under a
// flat sky. The image is reused between calls.
func (s *Scene) Shade(cam camera.State) *image.RGBA {
	buf := s.last
	if !buf.Valid() {
		return nil
	}
	if s.shade == nil || s.shade.Rect.Dx() != buf.Width || s.shade.Rect.Dy() != buf.Height {
		s.shade = image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	}
	rec := reconstruct.New(cam, buf.Width, buf.Height, s.Settings)
	fog := cam.Far
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			d := buf.At(x, y)
			if rec.IsSky(d) {
				s.shade.SetRGBA(x, y, skyColor)
				continue
			}
			t := 1 - min(rec.Distance(d)/fog, 1)
			v := uint8(48 + 160*t)
			s.shade.SetRGBA(x, y, color.RGBA{R: v, G: v, B: uint8(40 + 120*t), A: 255})
		}
	}
	return s.shade
}
