package uniform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Packet errors.
var (
	ErrUnknownField = errors.New("unknown uniform field")
	ErrTypeMismatch = errors.New("uniform type mismatch")
	ErrIncomplete   = errors.New("uniform packet incomplete")
)

// Packet accumulates values for one frame against a Layout.
// The backing buffer is reused across frames.
type Packet struct {
	layout *Layout
	buf    []byte
	set    []bool
	frame  uint64
}

// NewPacket allocates a packet sized for l.
func NewPacket(l *Layout) *Packet {
	return &Packet{
		layout: l,
		buf:    make([]byte, l.Size()),
		set:    make([]bool, len(l.fields)),
	}
}

// Layout returns the packet's layout.
func (p *Packet) Layout() *Layout {
	return p.layout
}

// Frame returns the frame index passed to the last Begin.
func (p *Packet) Frame() uint64 {
	return p.frame
}

// Begin clears the packet for a new frame.
func (p *Packet) Begin(frame uint64) {
	p.frame = frame
	clear(p.buf)
	clear(p.set)
}

func (p *Packet) slot(name string, t Type) (int, error) {
	i, ok := p.layout.index[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrUnknownField)
	}
	f := p.layout.fields[i]
	if f.Type != t {
		return 0, fmt.Errorf("%s is %s, not %s: %w", name, f.Type, t, ErrTypeMismatch)
	}
	p.set[i] = true
	return f.Offset, nil
}

func (p *Packet) putFloats(off int, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(p.buf[off+4*i:], math.Float32bits(v))
	}
}

// SetFloat writes a float field.
func (p *Packet) SetFloat(name string, v float32) error {
	off, err := p.slot(name, Float)
	if err != nil {
		return err
	}
	p.putFloats(off, v)
	return nil
}

// SetInt writes an int field.
func (p *Packet) SetInt(name string, v int32) error {
	off, err := p.slot(name, Int)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(p.buf[off:], uint32(v))
	return nil
}

// SetBool writes an int field as 0 or 1.
func (p *Packet) SetBool(name string, v bool) error {
	var i int32
	if v {
		i = 1
	}
	return p.SetInt(name, i)
}

// SetVec2 writes a vec2 field.
func (p *Packet) SetVec2(name string, x, y float32) error {
	off, err := p.slot(name, Vec2)
	if err != nil {
		return err
	}
	p.putFloats(off, x, y)
	return nil
}

// SetVec3 writes a vec3 field from a float64 vector.
func (p *Packet) SetVec3(name string, v r3.Vec) error {
	off, err := p.slot(name, Vec3)
	if err != nil {
		return err
	}
	p.putFloats(off, float32(v.X), float32(v.Y), float32(v.Z))
	return nil
}

// SetVec4 writes a vec4 field.
func (p *Packet) SetVec4(name string, v [4]float32) error {
	off, err := p.slot(name, Vec4)
	if err != nil {
		return err
	}
	p.putFloats(off, v[:]...)
	return nil
}

// SetMat4 writes a column-major mat4 field.
func (p *Packet) SetMat4(name string, m [16]float32) error {
	off, err := p.slot(name, Mat4)
	if err != nil {
		return err
	}
	p.putFloats(off, m[:]...)
	return nil
}

// Missing lists fields not written since Begin.
func (p *Packet) Missing() []string {
	var out []string
	for i, ok := range p.set {
		if !ok {
			out = append(out, p.layout.fields[i].Name)
		}
	}
	return out
}

// Bytes returns the packed buffer. Every field must have been set since
// Begin. The slice aliases the packet and is valid until the next Begin.
func (p *Packet) Bytes() ([]byte, error) {
	if missing := p.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, missing)
	}
	return p.buf, nil
}

// Float reads back a float field; used by diagnostics and tests.
func (p *Packet) Float(name string) (float32, bool) {
	f, ok := p.layout.Lookup(name)
	if !ok || f.Type != Float {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.buf[f.Offset:])), true
}

// Int reads back an int field.
func (p *Packet) Int(name string) (int32, bool) {
	f, ok := p.layout.Lookup(name)
	if !ok || f.Type != Int {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(p.buf[f.Offset:])), true
}
