// Package terrain generates procedural heightmaps and renders their depth
// so the ring can be exercised without a host game.
package terrain

import (
	"math"
	"math/rand/v2"
)

// Params controls Generate.
type Params struct {
	Seed      int64
	Size      int     // samples per side
	CellSize  float64 // world units between samples
	Amplitude float64 // peak height above BaseY
	BaseY     float64
	Octaves   int
}

// DefaultParams returns rolling hills around y=60.
func DefaultParams() Params {
	return Params{
		Seed:      1,
		Size:      128,
		CellSize:  2,
		Amplitude: 12,
		BaseY:     60,
		Octaves:   4,
	}
}

// Heightmap is a square grid of heights centred on the world origin.
// Heights are indexed [z*Size + x].
type Heightmap struct {
	Size     int
	CellSize float64
	Heights  []float64
	MinY     float64
	MaxY     float64
}

// Generate builds a heightmap from layered value noise.
func Generate(p Params) *Heightmap {
	if p.Size < 2 {
		p.Size = 2
	}
	if !(p.CellSize > 0) {
		p.CellSize = 1
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}

	h := &Heightmap{
		Size:     p.Size,
		CellSize: p.CellSize,
		Heights:  make([]float64, p.Size*p.Size),
	}

	amp, total := 1.0, 0.0
	for o := 0; o < p.Octaves; o++ {
		lattice := newLattice(p.Seed, o, 4<<o)
		for z := 0; z < p.Size; z++ {
			for x := 0; x < p.Size; x++ {
				u := float64(x) / float64(p.Size-1)
				v := float64(z) / float64(p.Size-1)
				h.Heights[z*p.Size+x] += amp * lattice.at(u, v)
			}
		}
		total += amp
		amp *= 0.5
	}

	h.MinY, h.MaxY = math.Inf(1), math.Inf(-1)
	for i, v := range h.Heights {
		y := p.BaseY + p.Amplitude*v/total
		h.Heights[i] = y
		h.MinY = math.Min(h.MinY, y)
		h.MaxY = math.Max(h.MaxY, y)
	}
	return h
}

// Flat returns a level heightmap at y, handy for exact tests.
func Flat(size int, cellSize, y float64) *Heightmap {
	h := &Heightmap{Size: size, CellSize: cellSize, Heights: make([]float64, size*size), MinY: y, MaxY: y}
	for i := range h.Heights {
		h.Heights[i] = y
	}
	return h
}

// Extent returns half the world width covered by the map.
func (h *Heightmap) Extent() float64 {
	return float64(h.Size-1) * h.CellSize / 2
}

// Contains reports whether world (x, z) lies over the map.
func (h *Heightmap) Contains(x, z float64) bool {
	e := h.Extent()
	return x >= -e && x <= e && z >= -e && z <= e
}

// HeightAt returns the bilinearly interpolated height at world (x, z).
// Positions off the map clamp to the nearest edge.
func (h *Heightmap) HeightAt(x, z float64) float64 {
	e := h.Extent()
	fx := (x + e) / h.CellSize
	fz := (z + e) / h.CellSize

	maxCell := float64(h.Size - 2)
	cx := int(clampf(math.Floor(fx), 0, maxCell))
	cz := int(clampf(math.Floor(fz), 0, maxCell))
	tx := clampf(fx-float64(cx), 0, 1)
	tz := clampf(fz-float64(cz), 0, 1)

	i := cz*h.Size + cx
	h00, h10 := h.Heights[i], h.Heights[i+1]
	h01, h11 := h.Heights[i+h.Size], h.Heights[i+h.Size+1]

	south := h00*(1-tx) + h10*tx
	north := h01*(1-tx) + h11*tx
	return south*(1-tz) + north*tz
}

// lattice is one octave of value noise on an n x n grid.
type lattice struct {
	n      int
	values []float64
}

func newLattice(seed int64, octave, n int) lattice {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(octave)))
	values := make([]float64, (n+1)*(n+1))
	for i := range values {
		values[i] = r.Float64()*2 - 1
	}
	return lattice{n: n, values: values}
}

// at samples the lattice at (u, v) in [0,1] with smoothstep blending.
func (l lattice) at(u, v float64) float64 {
	fx, fy := u*float64(l.n), v*float64(l.n)
	x0 := int(clampf(math.Floor(fx), 0, float64(l.n-1)))
	y0 := int(clampf(math.Floor(fy), 0, float64(l.n-1)))
	tx := smooth(fx - float64(x0))
	ty := smooth(fy - float64(y0))

	w := l.n + 1
	a := l.values[y0*w+x0]
	b := l.values[y0*w+x0+1]
	c := l.values[(y0+1)*w+x0]
	d := l.values[(y0+1)*w+x0+1]
	return (a*(1-tx)+b*tx)*(1-ty) + (c*(1-tx)+d*tx)*ty
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func clampf(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
