// Package preview runs the interactive SDL window: a fly camera over the
// scene with the ring composited on top.
package preview

import (
	"fmt"
	"image"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/shockwave/internal/config"
	"github.com/Faultbox/shockwave/internal/engine/audio"
	"github.com/Faultbox/shockwave/internal/engine/debug"
	"github.com/Faultbox/shockwave/internal/engine/framebuffer"
	"github.com/Faultbox/shockwave/internal/engine/input"
	"github.com/Faultbox/shockwave/internal/engine/mask"
	"github.com/Faultbox/shockwave/internal/engine/renderer"
	"github.com/Faultbox/shockwave/internal/engine/scene"
	"github.com/Faultbox/shockwave/internal/engine/window"
	"github.com/Faultbox/shockwave/internal/logger"
	"github.com/Faultbox/shockwave/internal/shockwave"
)

// divisorKeys maps number keys to resolution divisors.
var divisorKeys = map[sdl.Scancode]int{
	sdl.SCANCODE_1: 1,
	sdl.SCANCODE_2: 2,
	sdl.SCANCODE_3: 4,
	sdl.SCANCODE_4: 8,
}

// Preview is the interactive window.
type Preview struct {
	cfg      *config.Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	fb       *framebuffer.Framebuffer
	ring     *renderer.RingPass
	audio    *audio.Manager

	scene   *scene.Scene
	ctrl    *shockwave.Controller
	capture *debug.Capture

	width, height int
	frame         uint64
	last          *image.RGBA
}

// New opens the window and GL resources.
func New(cfg *config.Config, sc *scene.Scene, ctrl *shockwave.Controller) (*Preview, error) {
	p := &Preview{
		cfg:     cfg,
		log:     logger.Named("preview"),
		scene:   sc,
		ctrl:    ctrl,
		width:   cfg.Graphics.Width,
		height:  cfg.Graphics.Height,
		capture: debug.NewCapture(cfg.Capture.Dir, "shockwave", debug.Format(cfg.Capture.Format)),
	}
	p.log.Info("initializing preview",
		zap.Int("width", p.width),
		zap.Int("height", p.height),
		zap.Bool("static", sc.Static()),
	)

	var err error
	p.window, err = window.New(window.Config{
		Title:      "shockwave",
		Width:      p.width,
		Height:     p.height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	p.width, p.height = p.window.GetSize()

	// Renderer needs the GL context from the window.
	p.renderer, err = renderer.New(renderer.Config{Width: p.width, Height: p.height})
	if err != nil {
		p.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	dw, dh := sc.DepthSize(p.width, p.height)
	p.fb, err = framebuffer.New(int32(dw), int32(dh))
	if err != nil {
		p.Close()
		return nil, err
	}

	// Uniform output falls back to showing nothing when the ring program
	// does not build on this driver.
	p.ring, err = p.renderer.NewRingPass()
	if err != nil {
		p.log.Warn("ring shader unavailable", zap.Error(err))
	}

	if cfg.Audio.Enabled {
		p.audio = newAudio(cfg.Audio, p.log)
	}

	p.input = input.New()
	return p, nil
}

// Run drives the frame loop until the window closes.
func (p *Preview) Run() error {
	p.running = true
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var frameBudget time.Duration
	if p.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(p.cfg.Graphics.FPSLimit)
	}

	p.log.Info("starting preview loop")
	for p.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if p.input.Update() {
			break
		}
		for _, ev := range p.input.Events() {
			p.handle(ev)
		}
		forward, right, up := p.input.Movement()
		p.scene.Fly.HandleMovement(forward, right, up, dt)
		p.scene.Update(dt)

		if err := p.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		p.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			p.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", time.Duration(dt*float64(time.Second))))
			frameCount = 0
			fpsTimer = time.Now()
		}
		if frameBudget > 0 {
			if spent := time.Since(now); spent < frameBudget {
				time.Sleep(frameBudget - spent)
			}
		}
	}
	return nil
}

func (p *Preview) handle(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		p.width, p.height = p.window.GetSize()
		p.renderer.Resize(p.width, p.height)
	case input.EventMouseDrag:
		p.scene.Fly.HandleDrag(float64(ev.DX), float64(ev.DY))
	case input.EventMouseWheel:
		p.scene.Fly.MoveSpeed = max(p.scene.Fly.MoveSpeed*(1+0.1*float64(ev.Wheel)), 1)
	case input.EventKeyDown:
		p.handleKey(ev.Key)
	}
}

func (p *Preview) handleKey(key sdl.Scancode) {
	if n, ok := divisorKeys[key]; ok {
		p.ctrl.SetResolutionDivisor(n)
		return
	}
	mode := p.ctrl.Mode()
	switch key {
	case sdl.SCANCODE_ESCAPE:
		p.running = false
	case sdl.SCANCODE_SPACE:
		p.ctrl.Trigger()
		if p.audio != nil {
			if err := p.audio.PlayCue(); err != nil {
				p.log.Debug("cue not played", zap.Error(err))
			}
		}
	case sdl.SCANCODE_O:
		p.ctrl.SetOutput((mode.Output + 1) % (shockwave.OutputUniform + 1))
	case sdl.SCANCODE_T:
		p.ctrl.SetOrigin(shockwave.OriginTracked)
	case sdl.SCANCODE_F:
		p.ctrl.SetOrigin(shockwave.OriginFixed)
	case sdl.SCANCODE_H:
		p.ctrl.SetHUD(!mode.HUD)
	case sdl.SCANCODE_G:
		p.ctrl.SetScheme(nextScheme(mode.Scheme))
	case sdl.SCANCODE_C:
		p.saveCapture()
	default:
		return
	}
	p.window.SetTitle("shockwave | " + p.ctrl.Mode().String())
}

func (p *Preview) saveCapture() {
	if p.last == nil {
		p.log.Warn("nothing to capture", zap.Stringer("output", p.ctrl.Mode().Output))
		return
	}
	name, err := p.capture.Save(p.last)
	if err != nil {
		p.log.Error("capture failed", zap.Error(err))
		return
	}
	p.log.Info("frame captured", zap.String("file", name))
}

// render acquires scene depth, routes it through the GL depth attachment
// and draws the controller output over the shaded scene.
func (p *Preview) render() error {
	index := p.frame
	p.frame++
	cam := p.scene.Camera(p.width, p.height)

	fc := shockwave.FrameContext{
		Index:         index,
		Camera:        cam,
		Width:         p.width,
		Height:        p.height,
		DepthSettings: p.scene.Settings,
	}
	if buf, ok := p.scene.Acquire(p.width, p.height); ok {
		if w, h := p.fb.Size(); int(w) != buf.Width || int(h) != buf.Height {
			p.fb.Resize(int32(buf.Width), int32(buf.Height))
		}
		if err := p.fb.UploadDepth(buf); err != nil {
			return err
		}
		fc.Depth = p.fb.DepthSource()
	}

	f, ok := p.ctrl.Render(fc)
	p.renderer.Begin()
	if !ok || f.Mode.Output != shockwave.OutputDiagnostic {
		p.renderer.DrawBackground(p.scene.Shade(cam))
	}
	p.last = nil
	if !ok {
		return nil
	}

	switch f.Mode.Output {
	case shockwave.OutputDiagnostic:
		p.renderer.DrawBackground(f.Image)
		p.last = f.Image
	case shockwave.OutputOverlay:
		p.renderer.DrawOverlay(f.Image)
		p.last = f.Image
	case shockwave.OutputUniform:
		if p.ring != nil {
			return p.renderer.DrawRing(p.ring, f.Uniform, p.fb.DepthTexture())
		}
	}
	return nil
}

// newAudio opens the speaker. Failures only cost the cue.
func newAudio(cfg config.AudioConfig, log *zap.Logger) *audio.Manager {
	m := audio.New()
	if err := m.Init(); err != nil {
		log.Warn("audio disabled", zap.Error(err))
		return nil
	}
	m.SetVolume(cfg.Volume)
	if cfg.Cue != "" {
		if err := m.LoadCue(cfg.Cue); err != nil {
			log.Warn("using synthesized cue", zap.Error(err))
		}
	}
	return m
}

func nextScheme(current string) string {
	names := mask.SchemeNames()
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// Close releases GL and window resources.
func (p *Preview) Close() {
	p.log.Info("closing preview")
	if p.audio != nil {
		p.audio.Close()
	}
	if p.ring != nil {
		p.ring.Destroy()
	}
	if p.fb != nil {
		p.fb.Destroy()
	}
	if p.renderer != nil {
		p.renderer.Close()
	}
	if p.window != nil {
		p.window.Close()
	}
}
