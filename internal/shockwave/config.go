package shockwave

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/shockwave/internal/config"
	"github.com/Faultbox/shockwave/internal/engine/animation"
	"github.com/Faultbox/shockwave/internal/engine/mask"
	"github.com/Faultbox/shockwave/internal/engine/ring"
)

// ModeFromConfig converts the mode section. Unknown names are errors;
// numeric values are clamped.
func ModeFromConfig(mc config.ModeConfig) (Mode, error) {
	origin, err := ParseOrigin(mc.Origin)
	if err != nil {
		return Mode{}, err
	}
	output, err := ParseOutput(mc.Output)
	if err != nil {
		return Mode{}, err
	}
	if _, ok := mask.LookupScheme(mc.Scheme); !ok {
		return Mode{}, fmt.Errorf("unknown scheme %q, want one of %v", mc.Scheme, mask.SchemeNames())
	}
	return Mode{
		Divisor: mc.Divisor,
		Origin:  origin,
		Output:  output,
		Scheme:  mc.Scheme,
		Bands:   ring.BandAll,
		HUD:     mc.HUD,
	}.Normalize(), nil
}

// NewFromConfig builds a controller from cfg. now may be nil for wall
// time; tracked may be nil until Track is called.
func NewFromConfig(cfg *config.Config, tracked ring.Locator, now func() time.Time, log *zap.Logger) (*Controller, error) {
	mode, err := ModeFromConfig(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("mode: %w", err)
	}
	opts := cfg.Effect.AnimationOptions()
	opts.Now = now
	return NewController(Options{
		Mode:    mode,
		Clock:   animation.NewClock(opts),
		Fixed:   cfg.Mode.FixedOrigin(),
		Tracked: tracked,
		Logger:  log,
	}), nil
}
