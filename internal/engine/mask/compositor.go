// Package mask composites classified ring intensities into an image.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Contract selects how the mask is written.
type Contract uint8

const (
	// Diagnostic replaces the whole frame with a visualization.
	Diagnostic Contract = iota
	// Overlay leaves non-ring pixels fully transparent.
	Overlay
)

func (c Contract) String() string {
	switch c {
	case Diagnostic:
		return "diagnostic"
	case Overlay:
		return "overlay"
	default:
		return fmt.Sprintf("contract(%d)", uint8(c))
	}
}

// SkyDepth marks a pixel with no geometry.
const SkyDepth = -1

// Pixel is one classified sample.
type Pixel struct {
	Core  float32
	Glow  float32
	Alpha float32
	// Depth is linear distance normalized to [0,1] across near..far, or
	// SkyDepth for background.
	Depth float32
}

// Compositor writes mask pixels into a pooled RGBA surface.
type Compositor struct {
	scheme Scheme
	target *image.RGBA
	allocs int
}

// NewCompositor creates a compositor using scheme.
func NewCompositor(scheme Scheme) *Compositor {
	return &Compositor{scheme: scheme}
}

// SetScheme changes the colour scheme.
func (c *Compositor) SetScheme(s Scheme) {
	c.scheme = s
}

// Scheme returns the active colour scheme.
func (c *Compositor) Scheme() Scheme {
	return c.scheme
}

// Target returns the pooled w x h surface, reallocating only on a size change.
func (c *Compositor) Target(w, h int) *image.RGBA {
	if c.target == nil || c.target.Rect.Dx() != w || c.target.Rect.Dy() != h {
		c.target = nil
		c.target = image.NewRGBA(image.Rect(0, 0, w, h))
		c.allocs++
	}
	return c.target
}

// Release drops the pooled surface.
func (c *Compositor) Release() {
	c.target = nil
}

// Allocations returns how many surfaces have been allocated.
func (c *Compositor) Allocations() int {
	return c.allocs
}

// Compose writes pixels (row-major, w x h) under contract and returns the
// surface. The returned image is reused by the next Compose call.
func (c *Compositor) Compose(pixels []Pixel, w, h int, contract Contract) *image.RGBA {
	dst := c.Target(w, h)
	n := w * h
	if len(pixels) < n {
		n = len(pixels)
	}

	pix := dst.Pix
	for i := 0; i < n; i++ {
		p := pixels[i]
		o := i * 4
		var out color.RGBA
		switch contract {
		case Diagnostic:
			out = c.diagnostic(p)
		default:
			out = c.overlay(p)
		}
		pix[o], pix[o+1], pix[o+2], pix[o+3] = out.R, out.G, out.B, out.A
	}
	// Missing samples stay transparent rather than showing last frame.
	for i := n; i < w*h; i++ {
		o := i * 4
		pix[o], pix[o+1], pix[o+2], pix[o+3] = 0, 0, 0, 0
	}
	return dst
}

// ringColor mixes core over glow, weighted by their intensities.
func (c *Compositor) ringColor(p Pixel) (r, g, b float64) {
	core := float64(p.Core)
	glow := float64(p.Glow) * (1 - core)
	sum := core + glow
	if sum <= 0 {
		return 0, 0, 0
	}
	cc, gc := c.scheme.Core, c.scheme.Glow
	r = (float64(cc.R)*core + float64(gc.R)*glow) / sum
	g = (float64(cc.G)*core + float64(gc.G)*glow) / sum
	b = (float64(cc.B)*core + float64(gc.B)*glow) / sum
	return r, g, b
}

// overlay returns a premultiplied pixel that is transparent off the ring.
func (c *Compositor) overlay(p Pixel) color.RGBA {
	a := clamp01(float64(p.Alpha))
	if a == 0 {
		return color.RGBA{}
	}
	r, g, b := c.ringColor(p)
	return color.RGBA{
		R: to8(r * a),
		G: to8(g * a),
		B: to8(b * a),
		A: to8(255 * a),
	}
}

// diagnostic returns an opaque pixel: depth gray or sky, ring blended on top.
func (c *Compositor) diagnostic(p Pixel) color.RGBA {
	var br, bg, bb float64
	if p.Depth < 0 {
		sky := c.scheme.Sky
		br, bg, bb = float64(sky.R), float64(sky.G), float64(sky.B)
	} else {
		d := clamp01(float64(p.Depth))
		gray := float64(c.scheme.NearGray) + (float64(c.scheme.FarGray)-float64(c.scheme.NearGray))*d
		br, bg, bb = gray, gray, gray
	}

	a := clamp01(float64(p.Alpha))
	if a > 0 {
		r, g, b := c.ringColor(p)
		br = br*(1-a) + r*a
		bg = bg*(1-a) + g*a
		bb = bb*(1-a) + b*a
	}
	return color.RGBA{R: to8(br), G: to8(bg), B: to8(bb), A: 255}
}

// Upscale scales src onto dst with nearest-neighbour sampling so reduced
// resolution modes keep their block structure.
func Upscale(dst draw.Image, src image.Image) {
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// DrawHUD prints diagnostic lines in the top-left corner of img.
func DrawHUD(img draw.Image, lines []string, col color.Color) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	b := img.Bounds()
	for i, line := range lines {
		d.Dot = fixed.P(b.Min.X+4, b.Min.Y+(i+1)*lineHeight)
		d.DrawString(line)
	}
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
