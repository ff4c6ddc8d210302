package depth

import (
	"image"
)

// Grid is a downsampled depth image produced by Sampler.
// Data aliases the sampler's pooled buffer and is valid until the next Sample.
type Grid struct {
	Width   int
	Height  int
	Divisor int
	Region  image.Rectangle
	// Bounds of the whole source buffer the region was clipped to.
	Bounds  image.Rectangle
	Data    []float32
}

// At returns the sample at grid position (x, y).
func (g Grid) At(x, y int) float32 {
	return g.Data[y*g.Width+x]
}

// Texel returns the buffer pixel that grid cell (gx, gy) was read from:
// the centre of its block, clamped to the region's last row and column.
func (g Grid) Texel(gx, gy int) (sx, sy int) {
	return blockCentre(g.Region.Min.X, g.Region.Max.X, gx, g.Divisor),
		blockCentre(g.Region.Min.Y, g.Region.Max.Y, gy, g.Divisor)
}

func blockCentre(lo, hi, i, n int) int {
	c := lo + i*n + n/2
	if c >= hi {
		c = hi - 1
	}
	return c
}

// Sampler reads depth at a chosen resolution into a pooled buffer.
type Sampler struct {
	data   []float32
	allocs int
}

// NewSampler creates a sampler with no scratch allocated.
func NewSampler() *Sampler {
	return &Sampler{}
}

// GridSize returns the grid dimensions for a w x h region at divisor n.
func GridSize(w, h, n int) (gw, gh int) {
	if n < 1 {
		n = 1
	}
	return (w + n - 1) / n, (h + n - 1) / n
}

// Sample reads region from src at divisor n (clamped to >= 1). Each grid
// cell takes the texel at the centre of its n x n block. An empty region
// selects the whole buffer. ok is false when the source is unavailable or
// the region does not overlap the buffer.
func (s *Sampler) Sample(src Source, region image.Rectangle, n int) (Grid, bool) {
	if src == nil {
		return Grid{}, false
	}
	buf, ok := src.Acquire()
	if !ok || !buf.Valid() {
		return Grid{}, false
	}
	if n < 1 {
		n = 1
	}

	bounds := image.Rect(0, 0, buf.Width, buf.Height)
	if region.Empty() {
		region = bounds
	} else {
		region = region.Intersect(bounds)
		if region.Empty() {
			return Grid{}, false
		}
	}

	gw, gh := GridSize(region.Dx(), region.Dy(), n)
	data := s.ensure(gw * gh)

	for gy := 0; gy < gh; gy++ {
		sy := blockCentre(region.Min.Y, region.Max.Y, gy, n)
		row := data[gy*gw : (gy+1)*gw]
		for gx := range row {
			row[gx] = buf.At(blockCentre(region.Min.X, region.Max.X, gx, n), sy)
		}
	}

	return Grid{Width: gw, Height: gh, Divisor: n, Region: region, Bounds: bounds, Data: data}, true
}

// ensure returns a scratch slice of exactly size samples, reallocating only
// when the size changes.
func (s *Sampler) ensure(size int) []float32 {
	if len(s.data) != size {
		s.data = nil
		s.data = make([]float32, size)
		s.allocs++
	}
	return s.data
}

// Release drops the pooled buffer.
func (s *Sampler) Release() {
	s.data = nil
}

// Allocations returns how many times the scratch buffer was (re)allocated.
func (s *Sampler) Allocations() int {
	return s.allocs
}
