// Package shader provides OpenGL program compilation and uniform buffers.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// CompileProgram compiles vertex and fragment shaders and links them.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// GetUniform returns the uniform location, or -1 when inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// UniformBuffer is a fixed-size UBO bound to one binding point.
type UniformBuffer struct {
	id      uint32
	size    int
	binding uint32
}

// NewUniformBuffer allocates a dynamic UBO of size bytes at binding.
func NewUniformBuffer(size int, binding uint32) *UniformBuffer {
	ub := &UniformBuffer{size: size, binding: binding}
	gl.GenBuffers(1, &ub.id)
	gl.BindBuffer(gl.UNIFORM_BUFFER, ub.id)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, ub.id)
	return ub
}

// Upload replaces the buffer contents. data must be exactly Size bytes.
func (ub *UniformBuffer) Upload(data []byte) error {
	if len(data) != ub.size {
		return fmt.Errorf("uniform data is %d bytes, buffer is %d", len(data), ub.size)
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, ub.id)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return nil
}

// Size returns the buffer size in bytes.
func (ub *UniformBuffer) Size() int {
	return ub.size
}

// Attach binds the named block of program to this buffer and checks that
// the block's size as reported by the driver matches.
func (ub *UniformBuffer) Attach(program uint32, block string) error {
	index := gl.GetUniformBlockIndex(program, gl.Str(block+"\x00"))
	if index == gl.INVALID_INDEX {
		return fmt.Errorf("uniform block %q not found", block)
	}
	var size int32
	gl.GetActiveUniformBlockiv(program, index, gl.UNIFORM_BLOCK_DATA_SIZE, &size)
	if int(size) != ub.size {
		return fmt.Errorf("uniform block %q is %d bytes, buffer is %d", block, size, ub.size)
	}
	gl.UniformBlockBinding(program, index, ub.binding)
	return nil
}

// Destroy releases the buffer.
func (ub *UniformBuffer) Destroy() {
	if ub.id != 0 {
		gl.DeleteBuffers(1, &ub.id)
		ub.id = 0
	}
}
