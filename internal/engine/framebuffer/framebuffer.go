// Package framebuffer provides the offscreen target whose depth attachment
// feeds the ring pipeline.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/shockwave/internal/engine/depth"
)

// Framebuffer is an offscreen render target with an RGBA colour texture
// and a 32-bit float depth texture.
type Framebuffer struct {
	fbo          uint32
	colorTexture uint32
	depthTexture uint32
	width        int32
	height       int32

	depthScratch []float32
	rowScratch   []float32
}

// New creates a framebuffer. Requires a current GL context.
func New(width, height int32) (*Framebuffer, error) {
	fb := &Framebuffer{
		width:  max(width, 1),
		height: max(height, 1),
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.GenTextures(1, &fb.depthTexture)
	fb.allocate()

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, fb.depthTexture, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// allocate (re)specifies both attachments at the current size.
func (fb *Framebuffer) allocate() {
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.BindTexture(gl.TEXTURE_2D, fb.depthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F, fb.width, fb.height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// BindWithViewport binds the framebuffer and returns a func restoring the
// previous binding and viewport.
func (fb *Framebuffer) BindWithViewport() func() {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// Clear clears colour and depth. Depth clears to the far plane (1).
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ColorTexture returns the colour attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// DepthTexture returns the depth attachment texture ID.
func (fb *Framebuffer) DepthTexture() uint32 {
	return fb.depthTexture
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Resize reallocates the attachments when the size changes.
func (fb *Framebuffer) Resize(width, height int32) {
	width, height = max(width, 1), max(height, 1)
	if width == fb.width && height == fb.height {
		return
	}
	fb.width, fb.height = width, height
	fb.depthScratch = nil
	fb.allocate()
}

// UploadDepth writes a top-down depth buffer into the depth attachment.
// The buffer must match the framebuffer size.
func (fb *Framebuffer) UploadDepth(buf depth.Buffer) error {
	w, h := int(fb.width), int(fb.height)
	if buf.Width != w || buf.Height != h || len(buf.Data) < w*h {
		return fmt.Errorf("depth buffer %dx%d does not match framebuffer %dx%d", buf.Width, buf.Height, w, h)
	}
	rows := fb.scratch(w * h)
	flipRows(rows, buf.Data, w, h)

	gl.BindTexture(gl.TEXTURE_2D, fb.depthTexture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, fb.width, fb.height, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(rows))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// ReadDepth reads the depth attachment into a top-down buffer. The
// returned data is reused by the next call.
func (fb *Framebuffer) ReadDepth() depth.Buffer {
	w, h := int(fb.width), int(fb.height)
	rows := fb.scratch(w * h)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(rows))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	if len(fb.depthScratch) != w*h {
		fb.depthScratch = make([]float32, w*h)
	}
	flipRows(fb.depthScratch, rows, w, h)
	return depth.Buffer{Width: w, Height: h, Data: fb.depthScratch}
}

// ReadPixels reads the colour attachment as bottom-up RGBA bytes.
func (fb *Framebuffer) ReadPixels() []byte {
	pixels := make([]byte, fb.width*fb.height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	return pixels
}

// DepthSource exposes the depth attachment as a depth.Source. Each
// Acquire performs a synchronous read-back.
func (fb *Framebuffer) DepthSource() depth.Source {
	return depth.SourceFunc(func() (depth.Buffer, bool) {
		if fb.fbo == 0 {
			return depth.Buffer{}, false
		}
		return fb.ReadDepth(), true
	})
}

func (fb *Framebuffer) scratch(n int) []float32 {
	if cap(fb.rowScratch) < n {
		fb.rowScratch = make([]float32, n)
	}
	return fb.rowScratch[:n]
}

// flipRows copies src into dst with rows reversed; GL is bottom-up.
func flipRows(dst, src []float32, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst[y*w:(y+1)*w], src[(h-1-y)*w:(h-y)*w])
	}
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthTexture != 0 {
		gl.DeleteTextures(1, &fb.depthTexture)
		fb.depthTexture = 0
	}
}
