package config

import "flag"

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	Config    *string
	Debug     *bool
	Width     *int
	Height    *int
	Divisor   *int
	Output    *string
	Scheme    *string
	DepthFile *string
	ReversedZ *bool
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:    fs.String("config", "", "Path to config file"),
		Debug:     fs.Bool("debug", false, "Enable debug logging and the HUD"),
		Width:     fs.Int("width", 0, "Viewport width"),
		Height:    fs.Int("height", 0, "Viewport height"),
		Divisor:   fs.Int("divisor", 0, "Depth sampling divisor (1-16)"),
		Output:    fs.String("output", "", "Output contract: diagnostic, overlay or uniform"),
		Scheme:    fs.String("scheme", "", "Colour scheme"),
		DepthFile: fs.String("depth", "", "Depth image (EXR, PNG or TGA)"),
		ReversedZ: fs.Bool("reversed-z", false, "Depth buffer uses reversed Z"),
	}
}

// ConfigPath returns the explicit config path, if any.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// apply copies set flags over cfg.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Mode.HUD = true
	}
	if *f.Width > 0 {
		cfg.Graphics.Width = *f.Width
	}
	if *f.Height > 0 {
		cfg.Graphics.Height = *f.Height
	}
	if *f.Divisor > 0 {
		cfg.Mode.Divisor = *f.Divisor
	}
	if *f.Output != "" {
		cfg.Mode.Output = *f.Output
	}
	if *f.Scheme != "" {
		cfg.Mode.Scheme = *f.Scheme
	}
	if *f.DepthFile != "" {
		cfg.Depth.File = *f.DepthFile
	}
	if *f.ReversedZ {
		cfg.Depth.ReversedZ = true
	}
}
