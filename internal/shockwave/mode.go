// Package shockwave coordinates the per-frame ring pipeline: depth
// sampling, reconstruction, classification and output.
package shockwave

import (
	"fmt"
	"strings"

	"github.com/Faultbox/shockwave/internal/engine/mask"
	"github.com/Faultbox/shockwave/internal/engine/ring"
)

// Divisor limits.
const (
	MinDivisor = 1
	MaxDivisor = 16
)

// OriginKind selects where ring distances are measured from.
type OriginKind uint8

const (
	OriginFixed OriginKind = iota
	OriginTracked
)

func (k OriginKind) String() string {
	switch k {
	case OriginFixed:
		return "fixed"
	case OriginTracked:
		return "tracked"
	default:
		return fmt.Sprintf("origin(%d)", uint8(k))
	}
}

// ParseOrigin accepts "fixed" or "tracked".
func ParseOrigin(s string) (OriginKind, error) {
	switch strings.ToLower(s) {
	case "fixed":
		return OriginFixed, nil
	case "tracked", "track", "entity":
		return OriginTracked, nil
	}
	return 0, fmt.Errorf("unknown origin %q (want fixed or tracked)", s)
}

// OutputKind selects the output contract.
type OutputKind uint8

const (
	OutputDiagnostic OutputKind = iota
	OutputOverlay
	OutputUniform
)

func (k OutputKind) String() string {
	switch k {
	case OutputDiagnostic:
		return "diagnostic"
	case OutputOverlay:
		return "overlay"
	case OutputUniform:
		return "uniform"
	default:
		return fmt.Sprintf("output(%d)", uint8(k))
	}
}

// ParseOutput accepts "diagnostic", "overlay" or "uniform".
func ParseOutput(s string) (OutputKind, error) {
	switch strings.ToLower(s) {
	case "diagnostic", "debug":
		return OutputDiagnostic, nil
	case "overlay":
		return OutputOverlay, nil
	case "uniform", "gpu":
		return OutputUniform, nil
	}
	return 0, fmt.Errorf("unknown output %q (want diagnostic, overlay or uniform)", s)
}

// contract maps image outputs onto the compositor contract.
func (k OutputKind) contract() mask.Contract {
	if k == OutputDiagnostic {
		return mask.Diagnostic
	}
	return mask.Overlay
}

// Mode is the full render configuration. Every field is explicit; nothing
// is inferred from the others.
type Mode struct {
	Divisor int
	Origin  OriginKind
	Output  OutputKind
	Scheme  string
	Bands   ring.Band
	HUD     bool
}

// DefaultMode renders a full-resolution overlay around a fixed origin.
func DefaultMode() Mode {
	return Mode{
		Divisor: 1,
		Origin:  OriginFixed,
		Output:  OutputOverlay,
		Scheme:  mask.DefaultScheme,
		Bands:   ring.BandAll,
	}
}

// Normalize clamps the divisor, fills an empty band set and resolves an
// unknown scheme to the default.
func (m Mode) Normalize() Mode {
	m.Divisor = ClampDivisor(m.Divisor)
	if m.Bands&ring.BandAll == 0 {
		m.Bands = ring.BandAll
	}
	if _, ok := mask.LookupScheme(m.Scheme); !ok {
		m.Scheme = mask.DefaultScheme
	}
	return m
}

func (m Mode) String() string {
	return fmt.Sprintf("%s 1/%d %s origin, scheme %s", m.Output, m.Divisor, m.Origin, m.Scheme)
}

// ClampDivisor limits n to [MinDivisor, MaxDivisor].
func ClampDivisor(n int) int {
	if n < MinDivisor {
		return MinDivisor
	}
	if n > MaxDivisor {
		return MaxDivisor
	}
	return n
}
