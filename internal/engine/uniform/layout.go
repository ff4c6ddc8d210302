// Package uniform packs shader parameters into constant-buffer layouts.
//
// Layout rules follow std140 with one conservative change: a vec3 owns a
// full 16-byte slot, so the next field always starts on a 16-byte
// boundary. GLSL generated by Layout.GLSL spells out the padding, so the
// shader side never relies on scalar packing into a vec3 tail.
package uniform

import (
	"errors"
	"fmt"
	"strings"
)

// Type is a shader field type.
type Type uint8

const (
	Float Type = iota
	Int
	Vec2
	Vec3
	Vec4
	Mat4
)

// Size returns the bytes occupied by the field's data.
func (t Type) Size() int {
	switch t {
	case Float, Int:
		return 4
	case Vec2:
		return 8
	case Vec3:
		return 12
	case Vec4:
		return 16
	case Mat4:
		return 64
	}
	return 0
}

// Align returns the required base alignment.
func (t Type) Align() int {
	switch t {
	case Float, Int:
		return 4
	case Vec2:
		return 8
	default:
		return 16
	}
}

// slot is the space reserved before the next field may start.
func (t Type) slot() int {
	if t == Vec3 {
		return 16
	}
	return t.Size()
}

func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat4:
		return "mat4"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Field declares one named member.
type Field struct {
	Name string
	Type Type
}

// Placed is a field with its resolved byte offset.
type Placed struct {
	Field
	Offset int
}

// Layout is an immutable, fully resolved buffer layout.
type Layout struct {
	fields []Placed
	index  map[string]int
	size   int
}

// Layout errors.
var (
	ErrDuplicateField = errors.New("duplicate uniform field")
	ErrEmptyName      = errors.New("uniform field without a name")
	ErrUnknownType    = errors.New("unknown uniform type")
)

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}

// NewLayout resolves offsets for fields in declaration order.
func NewLayout(fields ...Field) (*Layout, error) {
	l := &Layout{
		fields: make([]Placed, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}

	offset := 0
	for _, f := range fields {
		if f.Name == "" {
			return nil, ErrEmptyName
		}
		if f.Type.Size() == 0 {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrUnknownType)
		}
		if _, dup := l.index[f.Name]; dup {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrDuplicateField)
		}

		offset = alignUp(offset, f.Type.Align())
		l.index[f.Name] = len(l.fields)
		l.fields = append(l.fields, Placed{Field: f, Offset: offset})
		offset += f.Type.slot()
	}
	l.size = alignUp(offset, 16)
	if l.size == 0 {
		l.size = 16
	}
	return l, nil
}

// MustLayout is NewLayout for static declarations; it panics on error.
func MustLayout(fields ...Field) *Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the total buffer size, a multiple of 16.
func (l *Layout) Size() int {
	return l.size
}

// Fields returns the placed fields in declaration order.
func (l *Layout) Fields() []Placed {
	out := make([]Placed, len(l.fields))
	copy(out, l.fields)
	return out
}

// Lookup returns the placed field for name.
func (l *Layout) Lookup(name string) (Placed, bool) {
	i, ok := l.index[name]
	if !ok {
		return Placed{}, false
	}
	return l.fields[i], true
}

// Offset returns the byte offset of name, or -1 when absent.
func (l *Layout) Offset(name string) int {
	p, ok := l.Lookup(name)
	if !ok {
		return -1
	}
	return p.Offset
}

// GLSL renders a std140 uniform block matching this layout, including
// explicit padding members.
func (l *Layout) GLSL(block string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout(std140) uniform %s {\n", block)

	pos, pad := 0, 0
	emitPad := func(upTo int) {
		for pos < upTo {
			fmt.Fprintf(&b, "    float _pad%d;\n", pad)
			pad++
			pos += 4
		}
	}
	for _, f := range l.fields {
		emitPad(f.Offset)
		fmt.Fprintf(&b, "    %s %s; // offset %d\n", f.Type, f.Name, f.Offset)
		pos = f.Offset + f.Type.Size()
	}
	emitPad(l.size)
	b.WriteString("};\n")
	return b.String()
}
