// Package debug writes frame captures for inspecting the ring offline.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Format is a capture encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatEXR  Format = "exr"
)

// ErrUnknownFormat is returned for unsupported capture formats.
var ErrUnknownFormat = errors.New("unknown capture format")

// ParseFormat accepts png, webp or exr in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatWebP, FormatEXR:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Capture saves frames as timestamped files in a directory.
type Capture struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
	seq       int
}

// NewCapture creates a capture writer.
func NewCapture(outputDir, prefix string, format Format) *Capture {
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		now:       time.Now,
	}
}

// SetOutputDir changes the output directory.
func (c *Capture) SetOutputDir(dir string) {
	c.outputDir = dir
}

// SetFormat changes the encoding of later captures.
func (c *Capture) SetFormat(f Format) {
	c.format = f
}

// Filename returns the path the next capture will be written to.
func (c *Capture) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("%s_%s_%03d.%s", c.prefix, timestamp, c.seq, c.format)
	if c.outputDir != "" {
		name = filepath.Join(c.outputDir, name)
	}
	return name
}

// Save encodes img in the configured format and returns the file name.
func (c *Capture) Save(img *image.RGBA) (string, error) {
	if img == nil {
		return "", errors.New("no image to capture")
	}
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename()
	c.seq++

	var err error
	switch c.format {
	case FormatPNG:
		err = writeFile(filename, func(f *os.File) error { return png.Encode(f, img) })
	case FormatWebP:
		err = writeFile(filename, func(f *os.File) error { return nativewebp.Encode(f, img, nil) })
	case FormatEXR:
		err = exr.EncodeFile(filename, toEXR(img))
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, c.format)
	}
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", c.format, err)
	}
	return filename, nil
}

// FlipRows converts bottom-up GL pixels into a top-down image.
func FlipRows(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

func writeFile(path string, encode func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// toEXR converts 8-bit premultiplied RGBA into float channels.
func toEXR(img *image.RGBA) *exr.RGBAImage {
	b := img.Bounds()
	out := exr.NewRGBAImage(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			out.SetRGBA(x, y, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
		}
	}
	return out
}
