// shockwave renders a terrain-conforming shockwave ring from a depth
// buffer, headless, in a terminal or in an SDL preview window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/shockwave/internal/config"
	"github.com/Faultbox/shockwave/internal/engine/debug"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/scene"
	"github.com/Faultbox/shockwave/internal/engine/terminal"
	"github.com/Faultbox/shockwave/internal/engine/uniform"
	"github.com/Faultbox/shockwave/internal/logger"
	"github.com/Faultbox/shockwave/internal/preview"
	"github.com/Faultbox/shockwave/internal/shockwave"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "render":
		err = cmdRender(args)
	case "gen-depth":
		err = cmdGenDepth(args)
	case "term":
		err = cmdTerm(args)
	case "preview":
		err = cmdPreview(args)
	case "glsl":
		fmt.Print(uniform.ShockwaveLayout.GLSL(uniform.BlockName))
	case "init-config":
		err = cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shockwave - terrain-conforming shockwave ring renderer

Usage:
  shockwave <command> [options]

Commands:
  render       Render frames headless and save them as images
  gen-depth    Write a procedural terrain depth buffer (EXR or PNG)
  term         Interactive terminal view with a command console
  preview      Interactive SDL window
  glsl         Print the uniform block declaration
  init-config  Write the default config file

Common options:
  -config <file>     Config file (default ./shockwave.yaml or user config dir)
  -depth <file>      Depth image instead of procedural terrain
  -output <kind>     diagnostic, overlay or uniform
  -divisor <n>       Depth sampling divisor 1-16
  -debug             Debug logging and HUD

Examples:
  shockwave gen-depth -o depth.exr
  shockwave render -depth depth.exr -frames 30 -output diagnostic
  shockwave term -scheme ember`)
}

// load parses the shared flags plus any registered by the command and
// returns the merged configuration.
func load(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.Config, console bool) error {
	fc := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fc = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fc, console); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	frames := fs.Int("frames", 1, "Number of frames to render")
	fps := fs.Float64("fps", 30, "Simulated frame rate")
	track := fs.Bool("track", false, "Follow the walker instead of the fixed origin")
	radius := fs.Float64("radius", -1, "Render a stopped ring at this radius instead of animating")
	out := fs.String("out", "", "Output directory (default capture.dir)")
	format := fs.String("format", "", "Image format: png, webp or exr")
	cfg, err := load(fs, args)
	if err != nil {
		return err
	}
	if err := initLogger(cfg, true); err != nil {
		return err
	}
	if *out != "" {
		cfg.Capture.Dir = *out
	}
	if *format != "" {
		cfg.Capture.Format = *format
	}
	f, err := debug.ParseFormat(cfg.Capture.Format)
	if err != nil {
		return err
	}
	if *fps <= 0 {
		return errors.New("fps must be positive")
	}

	sc, err := scene.New(cfg)
	if err != nil {
		return err
	}
	// A simulated clock keeps headless output independent of render time.
	start := time.Unix(0, 0)
	sim := time.Duration(0)
	ctrl, err := shockwave.NewFromConfig(cfg, sc.Walker, func() time.Time { return start.Add(sim) }, logger.Named("shockwave"))
	if err != nil {
		return err
	}
	if *track {
		ctrl.SetOrigin(shockwave.OriginTracked)
	}
	if *radius >= 0 {
		ctrl.SetRadius(*radius)
	} else {
		ctrl.Trigger()
	}

	capture := debug.NewCapture(cfg.Capture.Dir, "frame", f)
	step := time.Duration(float64(time.Second) / *fps)
	w, h := cfg.Graphics.Width, cfg.Graphics.Height
	for i := 0; i < *frames; i++ {
		frame, ok := ctrl.Render(sc.Frame(uint64(i), w, h))
		switch {
		case !ok:
			logger.Warn("frame skipped", zap.Int("frame", i))
		case frame.Image == nil:
			name := filepath.Join(cfg.Capture.Dir, fmt.Sprintf("uniform_%04d.bin", i))
			if err := writeBlock(name, frame.Uniform); err != nil {
				return err
			}
			logger.Info("uniform block written", zap.String("file", name), zap.Int("bytes", len(frame.Uniform)))
		default:
			name, err := capture.Save(frame.Image)
			if err != nil {
				return err
			}
			logger.Info("frame rendered",
				zap.String("file", name),
				zap.Stringer("state", frame.Snapshot.State),
				zap.Float64("radius", frame.Snapshot.Ring.Radius),
				zap.Int("ring", frame.Stats.Ring),
				zap.Int("sky", frame.Stats.Sky),
			)
		}
		sim += step
		sc.Update(step.Seconds())
	}
	return nil
}

func writeBlock(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}

func cmdGenDepth(args []string) error {
	fs := flag.NewFlagSet("gen-depth", flag.ExitOnError)
	out := fs.String("o", "depth.exr", "Output file; .exr or .png")
	cfg, err := load(fs, args)
	if err != nil {
		return err
	}
	if err := initLogger(cfg, true); err != nil {
		return err
	}
	cfg.Depth.File = ""
	cfg.Depth.Scale = 1

	sc, err := scene.New(cfg)
	if err != nil {
		return err
	}
	buf, _ := sc.Acquire(cfg.Graphics.Width, cfg.Graphics.Height)

	switch ext := strings.ToLower(filepath.Ext(*out)); ext {
	case ".exr":
		err = depth.WriteEXR(*out, buf)
	case ".png":
		err = depth.WritePNG(*out, buf)
	default:
		return fmt.Errorf("unsupported depth format %q", ext)
	}
	if err != nil {
		return err
	}
	logger.Info("depth written",
		zap.String("file", *out),
		zap.Int("width", buf.Width),
		zap.Int("height", buf.Height),
		zap.Bool("reversed_z", cfg.Depth.ReversedZ),
	)
	return nil
}

func cmdTerm(args []string) error {
	fs := flag.NewFlagSet("term", flag.ExitOnError)
	fps := fs.Int("fps", 20, "Refresh rate")
	cfg, err := load(fs, args)
	if err != nil {
		return err
	}
	// The screen owns the terminal, so logs only go to the file.
	if cfg.Logging.LogFile == "" {
		cfg.Logging.LogFile = "shockwave.log"
	}
	if err := initLogger(cfg, false); err != nil {
		return err
	}
	cfg.Depth.Scale = 1

	sc, err := scene.New(cfg)
	if err != nil {
		return err
	}
	ctrl, err := shockwave.NewFromConfig(cfg, sc.Walker, nil, logger.Named("shockwave"))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tick := time.Second / time.Duration(max(*fps, 1))
	last := time.Now()
	view := terminal.NewView(screen, ctrl, logger.Named("terminal"))
	view.Run(ctx, func(index uint64, w, h int) shockwave.FrameContext {
		now := time.Now()
		sc.Update(now.Sub(last).Seconds())
		last = now
		return sc.Frame(index, w, h)
	}, tick)
	return nil
}

func cmdPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cfg, err := load(fs, args)
	if err != nil {
		return err
	}
	if err := initLogger(cfg, true); err != nil {
		return err
	}
	logger.Info("=== shockwave preview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	sc, err := scene.New(cfg)
	if err != nil {
		return err
	}
	ctrl, err := shockwave.NewFromConfig(cfg, sc.Walker, nil, logger.Named("shockwave"))
	if err != nil {
		return err
	}

	p, err := preview.New(cfg, sc, ctrl)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.Run(); err != nil {
		return err
	}
	logger.Info("preview closed normally")
	return nil
}

func cmdInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	force := fs.Bool("f", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s exists, use -f to overwrite", path)
	}
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
