package uniform

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/ring"
)

func offsets(l *Layout) map[string]int {
	out := make(map[string]int)
	for _, f := range l.Fields() {
		out[f.Name] = f.Offset
	}
	return out
}

func TestLayoutOffsets(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   map[string]int
		size   int
	}{
		{
			name:   "vec3 then float starts next slot",
			fields: []Field{{"a", Vec3}, {"b", Float}},
			want:   map[string]int{"a": 0, "b": 16},
			size:   32,
		},
		{
			name:   "scalars pack tightly",
			fields: []Field{{"a", Float}, {"b", Int}, {"c", Float}},
			want:   map[string]int{"a": 0, "b": 4, "c": 8},
			size:   16,
		},
		{
			name:   "vec2 aligns to 8",
			fields: []Field{{"a", Float}, {"b", Vec2}, {"c", Float}},
			want:   map[string]int{"a": 0, "b": 8, "c": 16},
			size:   32,
		},
		{
			name:   "vec4 after float aligns to 16",
			fields: []Field{{"a", Float}, {"b", Vec4}},
			want:   map[string]int{"a": 0, "b": 16},
			size:   32,
		},
		{
			name:   "mat4 then vec3",
			fields: []Field{{"m", Mat4}, {"p", Vec3}, {"q", Vec3}},
			want:   map[string]int{"m": 0, "p": 64, "q": 80},
			size:   96,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLayout(tt.fields...)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, offsets(l)); diff != "" {
				t.Errorf("offsets mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.size, l.Size())
			assert.Zero(t, l.Size()%16)
		})
	}
}

func TestLayoutErrors(t *testing.T) {
	_, err := NewLayout(Field{"a", Float}, Field{"a", Int})
	assert.True(t, errors.Is(err, ErrDuplicateField))

	_, err = NewLayout(Field{"", Float})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewLayout(Field{"x", Type(99)})
	assert.ErrorIs(t, err, ErrUnknownType)

	assert.Panics(t, func() { MustLayout(Field{"a", Float}, Field{"a", Float}) })
}

func TestLayoutLookup(t *testing.T) {
	l := MustLayout(Field{"a", Vec3}, Field{"b", Float})
	assert.Equal(t, 16, l.Offset("b"))
	assert.Equal(t, -1, l.Offset("missing"))

	f, ok := l.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, Vec3, f.Type)
}

func TestLayoutGLSLPadding(t *testing.T) {
	l := MustLayout(Field{"a", Vec3}, Field{"b", Float})
	src := l.GLSL("Block")

	assert.Contains(t, src, "layout(std140) uniform Block {")
	assert.Contains(t, src, "vec3 a; // offset 0")
	assert.Contains(t, src, "float _pad0;")
	assert.Contains(t, src, "float b; // offset 16")
	// b ends at 20, three more pad floats reach 32.
	assert.Equal(t, 4, strings.Count(src, "_pad"))
}

func TestPacketWritesLittleEndian(t *testing.T) {
	l := MustLayout(Field{"p", Vec3}, Field{"r", Float}, Field{"mode", Int})
	p := NewPacket(l)
	p.Begin(1)

	require.NoError(t, p.SetVec3("p", r3.Vec{X: 1, Y: 2, Z: 3}))
	require.NoError(t, p.SetFloat("r", 10.5))
	require.NoError(t, p.SetInt("mode", -2))

	b, err := p.Bytes()
	require.NoError(t, err)
	require.Len(t, b, l.Size())

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	assert.Equal(t, float32(1), f(0))
	assert.Equal(t, float32(2), f(4))
	assert.Equal(t, float32(3), f(8))
	assert.Equal(t, float32(10.5), f(16))
	assert.Equal(t, int32(-2), int32(binary.LittleEndian.Uint32(b[20:])))

	r, ok := p.Float("r")
	assert.True(t, ok)
	assert.Equal(t, float32(10.5), r)
}

func TestPacketErrors(t *testing.T) {
	p := NewPacket(MustLayout(Field{"r", Float}, Field{"n", Int}))
	p.Begin(7)

	assert.ErrorIs(t, p.SetFloat("nope", 1), ErrUnknownField)
	assert.ErrorIs(t, p.SetInt("r", 1), ErrTypeMismatch)
	assert.ErrorIs(t, p.SetVec4("n", [4]float32{}), ErrTypeMismatch)

	require.NoError(t, p.SetFloat("r", 1))
	_, err := p.Bytes()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []string{"n"}, p.Missing())

	require.NoError(t, p.SetBool("n", true))
	_, err = p.Bytes()
	assert.NoError(t, err)

	// A new frame must be packed again.
	p.Begin(8)
	_, err = p.Bytes()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, uint64(8), p.Frame())
}

func TestShockwaveLayout(t *testing.T) {
	l := ShockwaveLayout
	assert.Zero(t, l.Size()%16)
	assert.Equal(t, 0, l.Offset(FieldInvViewProj))
	assert.Equal(t, 64, l.Offset(FieldCameraPos))
	assert.Equal(t, 80, l.Offset(FieldOrigin))
	assert.Equal(t, 144, l.Offset(FieldRadius))

	prev := -1
	for _, f := range l.Fields() {
		assert.Greater(t, f.Offset, prev, f.Name)
		assert.Zero(t, f.Offset%f.Type.Align(), f.Name)
		prev = f.Offset
	}
}

func TestPackShockwave(t *testing.T) {
	p := NewPacket(ShockwaveLayout)
	params := Params{
		Camera:     camera.State{FOV: 70, Near: 0.1, Far: 1000, Aspect: 1.5},
		Origin:     r3.Vec{X: 1, Y: 2, Z: 3},
		Ring:       ring.State{Radius: 12, Thickness: 2, GlowThickness: 6, Intensity: 0.5},
		OutputMode: 2,
		Time:       3,
		CoreColor:  [4]float32{1, 1, 1, 1},
	}

	b, err := PackShockwave(p, 1, params)
	require.NoError(t, err)
	assert.Len(t, b, ShockwaveLayout.Size())

	r, _ := p.Float(FieldRadius)
	assert.Equal(t, float32(12), r)
	far, _ := p.Float(FieldFar)
	assert.Equal(t, float32(1000), far)
	mode, _ := p.Int(FieldOutputMode)
	assert.Equal(t, int32(2), mode)
	rev, _ := p.Int(FieldReversedZ)
	assert.Equal(t, int32(0), rev)

	// Forward at yaw 0, pitch 0 is +Z.
	off := ShockwaveLayout.Offset(FieldForward)
	z := math.Float32frombits(binary.LittleEndian.Uint32(b[off+8:]))
	assert.InDelta(t, 1, z, 1e-6)
}
