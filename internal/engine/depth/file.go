package depth

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// TGA depth captures decode through image.Decode.
	_ "github.com/ftrvxmtrx/tga"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/exrutil"
)

// ErrUnsupportedFormat is returned for depth files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported depth file format")

// DepthChannels lists the EXR channels tried, in order, when loading depth.
var DepthChannels = []string{"Z", "depth.Z", "R", "Y"}

// LoadFile reads a depth buffer from an OpenEXR, PNG or TGA file.
// EXR data is taken as-is; 8/16-bit image data is normalized to [0,1].
func LoadFile(path string) (Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exr":
		return loadEXR(path)
	case ".png", ".tga":
		return loadImage(path)
	default:
		return Buffer{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func loadEXR(path string) (Buffer, error) {
	f, err := exr.OpenFile(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := f.Header(0)
	channel := ""
	if cl := h.Channels(); cl != nil {
		for _, name := range DepthChannels {
			if cl.Get(name) != nil {
				channel = name
				break
			}
		}
	}
	if channel == "" {
		return Buffer{}, fmt.Errorf("%s: no depth channel (tried %v)", path, DepthChannels)
	}

	data, err := exrutil.ExtractChannel(f, channel)
	if err != nil {
		return Buffer{}, fmt.Errorf("reading channel %s of %s: %w", channel, path, err)
	}
	return Buffer{Width: h.Width(), Height: h.Height(), Data: data}, nil
}

func loadImage(path string) (Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return Buffer{}, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return Buffer{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := img.Bounds()
	buf := Buffer{Width: b.Dx(), Height: b.Dy(), Data: make([]float32, b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			buf.Data[(y-b.Min.Y)*buf.Width+(x-b.Min.X)] = float32(g.Y) / 0xffff
		}
	}
	return buf, nil
}

// WriteEXR stores buf as a single float "Z" channel EXR.
func WriteEXR(path string, buf Buffer) error {
	if !buf.Valid() {
		return fmt.Errorf("writing %s: invalid %dx%d depth buffer", path, buf.Width, buf.Height)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	h := exr.NewScanlineHeader(buf.Width, buf.Height)
	h.SetCompression(exr.CompressionZIP)
	channels := exr.NewChannelList()
	channels.Add(exr.Channel{Name: "Z", Type: exr.PixelTypeFloat, XSampling: 1, YSampling: 1})
	h.SetChannels(channels)

	fb := exr.NewFrameBuffer()
	fb.Set("Z", exr.NewSliceFromFloat32(buf.Data[:buf.Width*buf.Height], buf.Width, buf.Height))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sw, err := exr.NewScanlineWriter(f, h)
	if err != nil {
		return fmt.Errorf("creating EXR writer: %w", err)
	}
	sw.SetFrameBuffer(fb)
	if err := sw.WritePixels(0, buf.Height-1); err != nil {
		return fmt.Errorf("writing EXR pixels: %w", err)
	}
	return sw.Close()
}

// WritePNG stores buf as a 16-bit grayscale PNG.
func WritePNG(path string, buf Buffer) error {
	if !buf.Valid() {
		return fmt.Errorf("writing %s: invalid %dx%d depth buffer", path, buf.Width, buf.Height)
	}
	img := image.NewGray16(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(buf.At(x, y)*0xffff + 0.5)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
