package shockwave

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/mask"
	"github.com/Faultbox/shockwave/internal/engine/ring"
	"github.com/Faultbox/shockwave/internal/logger"
)

// Console errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

type command struct {
	usage string
	run   func(c *Controller, args []string) (string, error)
}

var commands = map[string]command{
	"trigger": {"trigger", func(c *Controller, _ []string) (string, error) {
		c.Trigger()
		return "triggered", nil
	}},
	"radius":    {"radius <blocks>", floatCmd(func(c *Controller, v float64) { c.SetRadius(v) })},
	"thickness": {"thickness <blocks>", floatCmd(func(c *Controller, v float64) { c.SetThickness(v) })},
	"intensity": {"intensity <0..1>", floatCmd(func(c *Controller, v float64) { c.SetIntensity(v) })},
	"speed":     {"speed <blocks/s>", floatCmd(func(c *Controller, v float64) { c.SetSpeed(v) })},
	"max":       {"max <blocks>", floatCmd(func(c *Controller, v float64) { c.SetMaxRadius(v) })},
	"glow":      {"glow <factor>", floatCmd(func(c *Controller, v float64) { c.SetGlowFactor(v) })},
	"divisor": {"divisor <1..16>", func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("divisor: %w", err)
		}
		c.SetResolutionDivisor(n)
		return fmt.Sprintf("divisor %d", c.Mode().Divisor), nil
	}},
	"output": {"output diagnostic|overlay|uniform", func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		k, err := ParseOutput(args[0])
		if err != nil {
			return "", err
		}
		c.SetOutput(k)
		return "output " + k.String(), nil
	}},
	"scheme": {"scheme <name>", func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		if _, ok := mask.LookupScheme(args[0]); !ok {
			return "", fmt.Errorf("unknown scheme %q (have %s)", args[0], strings.Join(mask.SchemeNames(), ", "))
		}
		c.SetScheme(args[0])
		return "scheme " + args[0], nil
	}},
	"origin": {"origin fixed <x> <y> <z> | origin tracked", func(c *Controller, args []string) (string, error) {
		if len(args) == 0 {
			return "", ErrUsage
		}
		k, err := ParseOrigin(args[0])
		if err != nil {
			return "", err
		}
		if k == OriginTracked {
			c.SetOrigin(OriginTracked)
			return "origin tracked", nil
		}
		if len(args) == 1 {
			c.SetOrigin(OriginFixed)
			return "origin fixed", nil
		}
		if len(args) != 4 {
			return "", ErrUsage
		}
		var v [3]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(args[i+1], 64); err != nil {
				return "", fmt.Errorf("origin: %w", err)
			}
		}
		c.SetFixedOrigin(r3.Vec{X: v[0], Y: v[1], Z: v[2]})
		return fmt.Sprintf("origin fixed %g %g %g", v[0], v[1], v[2]), nil
	}},
	"bands": {"bands core|glow|all", func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		var b ring.Band
		switch args[0] {
		case "core":
			b = ring.BandCore
		case "glow":
			b = ring.BandGlow
		case "all":
			b = ring.BandAll
		default:
			return "", ErrUsage
		}
		c.SetBands(b)
		return "bands " + args[0], nil
	}},
	"hud": {"hud on|off", func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return "", err
		}
		c.SetHUD(on)
		return "hud " + args[0], nil
	}},
	"log": {"log debug|info|warn|error", func(_ *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		logger.SetLevel(args[0])
		return "log " + logger.Level().String(), nil
	}},
	"status": {"status", func(c *Controller, _ []string) (string, error) {
		return Status(c), nil
	}},
}

func init() {
	commands["help"] = command{"help", func(*Controller, []string) (string, error) {
		return Help(), nil
	}}
}

// Exec runs one console line against c and returns its reply.
func Exec(c *Controller, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	out, err := cmd.run(c, fields[1:])
	if errors.Is(err, ErrUsage) {
		return "", fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return out, err
}

// Help lists every command's usage.
func Help() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(commands[name].usage)
		b.WriteByte('\n')
	}
	return b.String()
}

// Status summarizes the controller and clock in one line.
func Status(c *Controller) string {
	snap := c.Clock().Snapshot()
	return fmt.Sprintf("%s | %s radius %.2f speed %.2f max %.2f | skipped %d",
		c.Mode(), snap.State, snap.Ring.Radius, c.Clock().Speed(), c.Clock().MaxRadius(), c.Skipped())
}

func floatCmd(set func(c *Controller, v float64)) func(*Controller, []string) (string, error) {
	return func(c *Controller, args []string) (string, error) {
		if len(args) != 1 {
			return "", ErrUsage
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return "", err
		}
		set(c, v)
		return "ok", nil
	}
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", s)
}
