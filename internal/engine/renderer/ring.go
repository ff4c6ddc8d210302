package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/shockwave/internal/engine/shader"
	"github.com/Faultbox/shockwave/internal/engine/uniform"
)

// ringBinding is the uniform buffer binding point of the shockwave block.
const ringBinding = 0

// ringFragment shades the ring on the GPU from the depth texture and the
// packed shockwave block. It mirrors the CPU classifier.
const ringFragment = `
in vec2 vUV;
uniform sampler2D uDepth;
out vec4 FragColor;

void main() {
    vec2 uv = vec2(vUV.x, 1.0 - vUV.y);
    float d = texture(uDepth, uv).r;
    if (uReversedZ != 0) {
        d = 1.0 - d;
    }
    if (d >= 1.0 || uIntensity <= 0.0) {
        discard;
    }
    float eye = uNear * uFar / (uFar - d * (uFar - uNear));

    vec2 ndc = uv * 2.0 - 1.0;
    vec3 dir = normalize(uForward + ndc.x * uTanHalfFov * uAspect * uRight + ndc.y * uTanHalfFov * uUp);
    vec3 world = uCameraPos + eye * dir;
    float off = abs(length(world - uOrigin) - uRadius);

    float core = clamp(1.0 - off / (uThickness * 0.5), 0.0, 1.0);
    float g = clamp(1.0 - off / (uGlowThickness * 0.5), 0.0, 1.0);
    float glow = g * g * (1.0 - core);
    float a = max(core, g * g) * uIntensity;
    if (a <= 0.0) {
        discard;
    }
    vec3 rgb = (uCoreColor.rgb * core + uGlowColor.rgb * glow) / max(core + glow, 1e-6);
    FragColor = vec4(rgb * a, a);
}
`

// RingPass draws the GPU ring from a depth texture.
type RingPass struct {
	program  uint32
	depthLoc int32
	ubo      *shader.UniformBuffer
}

// NewRingPass compiles the ring program and binds its uniform buffer.
func (r *Renderer) NewRingPass() (*RingPass, error) {
	frag := "#version 410 core\n" + uniform.ShockwaveLayout.GLSL(uniform.BlockName) + ringFragment
	program, err := shader.CompileProgram(vertexSrc, frag)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring program: %w", err)
	}
	ubo := shader.NewUniformBuffer(uniform.ShockwaveLayout.Size(), ringBinding)
	if err := ubo.Attach(program, uniform.BlockName); err != nil {
		ubo.Destroy()
		gl.DeleteProgram(program)
		return nil, err
	}
	return &RingPass{
		program:  program,
		depthLoc: shader.GetUniform(program, "uDepth"),
		ubo:      ubo,
	}, nil
}

// DrawRing uploads the packed block and blends the ring over the frame.
func (r *Renderer) DrawRing(p *RingPass, block []byte, depthTex uint32) error {
	if err := p.ubo.Upload(block); err != nil {
		return err
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, depthTex)
	gl.UseProgram(p.program)
	gl.Uniform1i(p.depthLoc, 0)
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
	return nil
}

// Destroy releases the pass.
func (p *RingPass) Destroy() {
	p.ubo.Destroy()
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}
