// Package depth samples per-pixel depth from the active depth source.
package depth

import (
	"math"
)

// Buffer is a read-only single-channel depth image, row-major with the top
// row first. Values are conceptually in [0,1].
type Buffer struct {
	Width  int
	Height int
	Data   []float32
}

// Valid reports whether the buffer dimensions match its data.
func (b Buffer) Valid() bool {
	return b.Width > 0 && b.Height > 0 && len(b.Data) >= b.Width*b.Height
}

// At returns the clamped depth at (x, y). NaN reads as the far plane.
func (b Buffer) At(x, y int) float32 {
	v := b.Data[y*b.Width+x]
	switch {
	case math.IsNaN(float64(v)):
		return 1
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Source provides the depth buffer for the current frame.
// ok is false when no depth is available; the frame is then skipped.
type Source interface {
	Acquire() (buf Buffer, ok bool)
}

// MemorySource serves a fixed in-memory buffer.
type MemorySource struct {
	buf Buffer
}

// NewMemorySource wraps data as a width x height depth source.
func NewMemorySource(width, height int, data []float32) *MemorySource {
	return &MemorySource{buf: Buffer{Width: width, Height: height, Data: data}}
}

// Acquire implements Source.
func (s *MemorySource) Acquire() (Buffer, bool) {
	if s == nil || !s.buf.Valid() {
		return Buffer{}, false
	}
	return s.buf, true
}

// Set replaces the served buffer.
func (s *MemorySource) Set(buf Buffer) {
	s.buf = buf
}

// Fill returns a width x height buffer with every sample set to v.
func Fill(width, height int, v float32) []float32 {
	data := make([]float32, width*height)
	for i := range data {
		data[i] = v
	}
	return data
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Buffer, bool)

// Acquire implements Source.
func (f SourceFunc) Acquire() (Buffer, bool) {
	return f()
}
