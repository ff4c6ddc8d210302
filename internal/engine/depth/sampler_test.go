package depth

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(w, h int) []float32 {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = float32(i) / float32(len(data))
	}
	return data
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		w, h, n int
		wantW   int
		wantH   int
	}{
		{1920, 1080, 1, 1920, 1080},
		{1920, 1080, 2, 960, 540},
		{1921, 1081, 2, 961, 541},
		{10, 7, 3, 4, 3},
		{10, 7, 0, 10, 7},
		{5, 5, 16, 1, 1},
	}
	for _, tt := range tests {
		gw, gh := GridSize(tt.w, tt.h, tt.n)
		assert.Equal(t, tt.wantW, gw, "width for %dx%d/%d", tt.w, tt.h, tt.n)
		assert.Equal(t, tt.wantH, gh, "height for %dx%d/%d", tt.w, tt.h, tt.n)
	}
}

func TestSampleFullResolutionCopies(t *testing.T) {
	data := ramp(6, 4)
	s := NewSampler()

	g, ok := s.Sample(NewMemorySource(6, 4, data), image.Rectangle{}, 1)
	require.True(t, ok)
	assert.Equal(t, 6, g.Width)
	assert.Equal(t, 4, g.Height)
	assert.Equal(t, data, g.Data)
}

func TestSampleDownsampleTakesBlockCentre(t *testing.T) {
	data := ramp(5, 3)
	g, ok := NewSampler().Sample(NewMemorySource(5, 3, data), image.Rectangle{}, 2)
	require.True(t, ok)
	require.Equal(t, 3, g.Width)
	require.Equal(t, 2, g.Height)

	// Block centres sit at offset 1; the ragged last column and row clamp to the edge.
	at := func(x, y int) float32 { return data[y*5+x] }
	assert.Equal(t, at(1, 1), g.At(0, 0))
	assert.Equal(t, at(3, 1), g.At(1, 0))
	assert.Equal(t, at(4, 1), g.At(2, 0))
	assert.Equal(t, at(1, 2), g.At(0, 1))
	assert.Equal(t, at(4, 2), g.At(2, 1))
}

func TestSampleRegion(t *testing.T) {
	data := ramp(8, 8)
	g, ok := NewSampler().Sample(NewMemorySource(8, 8, data), image.Rect(2, 3, 6, 5), 1)
	require.True(t, ok)
	assert.Equal(t, 4, g.Width)
	assert.Equal(t, 2, g.Height)
	assert.Equal(t, data[3*8+2], g.At(0, 0))
	assert.Equal(t, data[4*8+5], g.At(3, 1))

	_, ok = NewSampler().Sample(NewMemorySource(8, 8, data), image.Rect(20, 20, 30, 30), 1)
	assert.False(t, ok, "region outside the buffer")
}

func TestSampleUnavailable(t *testing.T) {
	s := NewSampler()

	_, ok := s.Sample(nil, image.Rectangle{}, 1)
	assert.False(t, ok)

	missing := SourceFunc(func() (Buffer, bool) { return Buffer{}, false })
	g, ok := s.Sample(missing, image.Rectangle{}, 1)
	assert.False(t, ok)
	assert.Empty(t, g.Data)

	short := NewMemorySource(4, 4, make([]float32, 3))
	_, ok = s.Sample(short, image.Rectangle{}, 1)
	assert.False(t, ok, "data shorter than dimensions")
}

func TestSampleClampsValues(t *testing.T) {
	data := []float32{-1, 2, float32(math.NaN()), 0.25}
	g, ok := NewSampler().Sample(NewMemorySource(2, 2, data), image.Rectangle{}, 1)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 1, 1, 0.25}, g.Data)
}

func TestSampleReusesScratch(t *testing.T) {
	src := NewMemorySource(16, 16, ramp(16, 16))
	s := NewSampler()

	for i := 0; i < 5; i++ {
		_, ok := s.Sample(src, image.Rectangle{}, 2)
		require.True(t, ok)
	}
	assert.Equal(t, 1, s.Allocations(), "same grid size must not reallocate")

	_, ok := s.Sample(src, image.Rectangle{}, 4)
	require.True(t, ok)
	assert.Equal(t, 2, s.Allocations(), "new grid size reallocates")

	s.Release()
	_, ok = s.Sample(src, image.Rectangle{}, 4)
	require.True(t, ok)
	assert.Equal(t, 3, s.Allocations())
}

func TestSampleInvalidDivisor(t *testing.T) {
	g, ok := NewSampler().Sample(NewMemorySource(3, 3, ramp(3, 3)), image.Rectangle{}, -4)
	require.True(t, ok)
	assert.Equal(t, 1, g.Divisor)
	assert.Equal(t, 9, len(g.Data))
}

func TestGridTexelMatchesSample(t *testing.T) {
	const w, h = 11, 7
	data := ramp(w, h)
	regions := []image.Rectangle{{}, image.Rect(5, 0, 11, 7), image.Rect(2, 1, 9, 6)}
	for _, region := range regions {
		for n := 1; n <= 4; n++ {
			g, ok := NewSampler().Sample(NewMemorySource(w, h, data), region, n)
			require.True(t, ok)
			assert.Equal(t, image.Rect(0, 0, w, h), g.Bounds)
			for y := 0; y < g.Height; y++ {
				for x := 0; x < g.Width; x++ {
					sx, sy := g.Texel(x, y)
					require.True(t, image.Pt(sx, sy).In(g.Region), "texel (%d,%d) outside %v", sx, sy, g.Region)
					assert.Equal(t, data[sy*w+sx], g.At(x, y), "region %v n=%d cell (%d,%d)", region, n, x, y)
				}
			}
		}
	}
}
