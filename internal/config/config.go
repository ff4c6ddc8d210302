// Package config handles shockwave configuration loading and management.
package config

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/animation"
	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
)

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Effect   EffectConfig   `yaml:"effect"`
	Camera   CameraConfig   `yaml:"camera"`
	Depth    DepthConfig    `yaml:"depth"`
	Mode     ModeConfig     `yaml:"mode"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Capture  CaptureConfig  `yaml:"capture"`
	Audio    AudioConfig    `yaml:"audio"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// EffectConfig holds the ring animation parameters.
type EffectConfig struct {
	Speed      float64 `yaml:"speed"`
	MaxRadius  float64 `yaml:"max_radius"`
	Thickness  float64 `yaml:"thickness"`
	GlowFactor float64 `yaml:"glow_factor"`
	Intensity  float64 `yaml:"intensity"`
}

// CameraConfig is the initial camera pose.
type CameraConfig struct {
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw"`
	Pitch    float64    `yaml:"pitch"`
	FOV      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
}

// DepthConfig describes the depth source and its encoding.
type DepthConfig struct {
	File         string  `yaml:"file"` // EXR, PNG or TGA; empty uses procedural terrain
	ReversedZ    bool    `yaml:"reversed_z"`
	SkyThreshold float64 `yaml:"sky_threshold"`
	Planar       bool    `yaml:"planar"`
	Scale        int     `yaml:"scale"` // terrain depth is rendered at 1/Scale of the viewport
}

// ModeConfig is the initial render mode.
type ModeConfig struct {
	Divisor int        `yaml:"divisor"`
	Origin  string     `yaml:"origin"` // fixed or tracked
	Fixed   [3]float64 `yaml:"fixed"`
	Output  string     `yaml:"output"` // diagnostic, overlay or uniform
	Scheme  string     `yaml:"scheme"`
	HUD     bool       `yaml:"hud"`
}

// TerrainConfig controls the procedural heightmap used without a depth file.
type TerrainConfig struct {
	Seed      int64   `yaml:"seed"`
	Size      int     `yaml:"size"`
	CellSize  float64 `yaml:"cell_size"`
	Amplitude float64 `yaml:"amplitude"`
	BaseY     float64 `yaml:"base_y"`
}

// CaptureConfig controls frame dumps.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png, webp or exr
}

// AudioConfig controls the preview's trigger cue.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
	Cue     string  `yaml:"cue"` // WAV file; empty synthesizes a thump
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Effect: EffectConfig{
			Speed:      20,
			MaxRadius:  100,
			Thickness:  2,
			GlowFactor: 3,
			Intensity:  1,
		},
		Camera: CameraConfig{
			Position: [3]float64{0, 90, -60},
			Pitch:    30,
			FOV:      70,
			Near:     0.05,
			Far:      512,
		},
		Depth: DepthConfig{
			SkyThreshold: reconstruct.DefaultSkyThreshold,
			Scale:        4,
		},
		Mode: ModeConfig{
			Divisor: 1,
			Origin:  "fixed",
			Fixed:   [3]float64{0, 64, 0},
			Output:  "overlay",
			Scheme:  "classic",
		},
		Terrain: TerrainConfig{
			Seed:      1,
			Size:      128,
			CellSize:  2,
			Amplitude: 12,
			BaseY:     60,
		},
		Capture: CaptureConfig{
			Dir:    "captures",
			Format: "png",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.6,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// AnimationOptions converts the effect section for animation.NewClock.
func (e EffectConfig) AnimationOptions() animation.Options {
	return animation.Options{
		Speed:      e.Speed,
		MaxRadius:  e.MaxRadius,
		Thickness:  e.Thickness,
		GlowFactor: e.GlowFactor,
		Intensity:  e.Intensity,
	}
}

// State returns the camera snapshot for a viewport of width x height.
func (c CameraConfig) State(width, height int) camera.State {
	aspect := 1.0
	if width > 0 && height > 0 {
		aspect = float64(width) / float64(height)
	}
	return camera.State{
		Position: vec(c.Position),
		Yaw:      c.Yaw,
		Pitch:    c.Pitch,
		FOV:      c.FOV,
		Near:     c.Near,
		Far:      c.Far,
		Aspect:   aspect,
	}
}

// Settings converts the depth section for reconstruction.
func (d DepthConfig) Settings() reconstruct.Settings {
	return reconstruct.Settings{
		ReversedZ:    d.ReversedZ,
		SkyThreshold: d.SkyThreshold,
		Planar:       d.Planar,
	}
}

// FixedOrigin returns the configured fixed origin.
func (m ModeConfig) FixedOrigin() r3.Vec {
	return vec(m.Fixed)
}

func vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
