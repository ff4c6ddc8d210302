// Package renderer presents CPU-composited frames in the GL window.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/shockwave/internal/engine/shader"
	"github.com/Faultbox/shockwave/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer draws textured fullscreen quads: an opaque background layer
// and a premultiplied overlay layer.
type Renderer struct {
	config  Config
	program uint32
	vao     uint32
	texLoc  int32

	background uint32
	overlay    uint32
}

const vertexSrc = `
#version 410 core
out vec2 vUV;
void main() {
    // Fullscreen triangle; image row 0 is the top of the screen.
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = vec2(pos.x, 1.0 - pos.y);
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const fragmentSrc = `
#version 410 core
in vec2 vUV;
uniform sampler2D uImage;
out vec4 FragColor;
void main() {
    FragColor = texture(uImage, vUV);
}
`

// New creates the renderer. Must be called after the GL context exists.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create present program: %w", err)
	}

	r := &Renderer{config: cfg, program: program}
	r.texLoc = shader.GetUniform(program, "uImage")
	gl.GenVertexArrays(1, &r.vao)
	r.background = newTexture()
	r.overlay = newTexture()

	gl.Disable(gl.DEPTH_TEST)
	gl.ClearColor(0, 0, 0, 1)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r, nil
}

func newTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// DrawBackground draws an opaque image over the whole viewport.
func (r *Renderer) DrawBackground(img *image.RGBA) {
	gl.Disable(gl.BLEND)
	r.draw(r.background, img)
}

// DrawOverlay blends a premultiplied image over what is already drawn.
func (r *Renderer) DrawOverlay(img *image.RGBA) {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	r.draw(r.overlay, img)
	gl.Disable(gl.BLEND)
}

func (r *Renderer) draw(tex uint32, img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	b := img.Bounds()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.UseProgram(r.program)
	gl.Uniform1i(r.texLoc, 0)
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	for _, tex := range []*uint32{&r.background, &r.overlay} {
		if *tex != 0 {
			gl.DeleteTextures(1, tex)
		}
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}
