package shockwave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/animation"
	"github.com/Faultbox/shockwave/internal/engine/ring"
)

func TestConsoleCommands(t *testing.T) {
	tests := []struct {
		line  string
		reply string
		check func(t *testing.T, c *Controller)
	}{
		{"trigger", "triggered", func(t *testing.T, c *Controller) {
			assert.Equal(t, animation.Animating, c.Clock().State())
		}},
		{"radius 10", "ok", func(t *testing.T, c *Controller) {
			assert.Equal(t, 10.0, c.Clock().Radius())
			assert.Equal(t, animation.Stopped, c.Clock().State())
		}},
		{"speed 40", "ok", func(t *testing.T, c *Controller) {
			assert.Equal(t, 40.0, c.Clock().Speed())
		}},
		{"max 250", "ok", func(t *testing.T, c *Controller) {
			assert.Equal(t, 250.0, c.Clock().MaxRadius())
		}},
		{"thickness 4", "ok", func(t *testing.T, c *Controller) {
			assert.Equal(t, 4.0, c.Clock().Snapshot().Ring.Thickness)
		}},
		{"intensity 0.5", "ok", func(t *testing.T, c *Controller) {
			assert.Equal(t, 0.5, c.Clock().Snapshot().Ring.Intensity)
		}},
		{"divisor 4", "divisor 4", func(t *testing.T, c *Controller) {
			assert.Equal(t, 4, c.Mode().Divisor)
		}},
		{"divisor 40", "divisor 16", nil},
		{"output diagnostic", "output diagnostic", func(t *testing.T, c *Controller) {
			assert.Equal(t, OutputDiagnostic, c.Mode().Output)
		}},
		{"scheme ember", "scheme ember", func(t *testing.T, c *Controller) {
			assert.Equal(t, "ember", c.Mode().Scheme)
		}},
		{"origin fixed 1 64 -2", "origin fixed 1 64 -2", func(t *testing.T, c *Controller) {
			assert.Equal(t, OriginFixed, c.Mode().Origin)
			assert.Equal(t, r3.Vec{X: 1, Y: 64, Z: -2}, c.fixed)
		}},
		{"origin tracked", "origin tracked", func(t *testing.T, c *Controller) {
			assert.Equal(t, OriginTracked, c.Mode().Origin)
		}},
		{"bands core", "bands core", func(t *testing.T, c *Controller) {
			assert.Equal(t, ring.BandCore, c.Mode().Bands)
		}},
		{"hud on", "hud on", func(t *testing.T, c *Controller) {
			assert.True(t, c.Mode().HUD)
		}},
		{"  ", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, _ := newTestController(DefaultMode())
			reply, err := Exec(c, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.reply, reply)
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestConsoleErrors(t *testing.T) {
	c, _ := newTestController(DefaultMode())

	_, err := Exec(c, "explode")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Exec(c, "radius")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "radius <blocks>")

	_, err = Exec(c, "radius ten")
	assert.Error(t, err)

	_, err = Exec(c, "origin fixed 1 2")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = Exec(c, "scheme plaid")
	assert.Error(t, err)

	_, err = Exec(c, "output hologram")
	assert.Error(t, err)
}

func TestConsoleStatusAndHelp(t *testing.T) {
	c, _ := newTestController(DefaultMode())
	_, err := Exec(c, "radius 7")
	require.NoError(t, err)

	status, err := Exec(c, "status")
	require.NoError(t, err)
	assert.Contains(t, status, "stopped")
	assert.Contains(t, status, "radius 7.00")
	assert.Contains(t, status, "overlay")

	help, err := Exec(c, "help")
	require.NoError(t, err)
	for _, name := range []string{"trigger", "divisor", "origin fixed", "status"} {
		assert.Contains(t, help, name)
	}
}
