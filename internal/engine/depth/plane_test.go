package depth

import (
	"fmt"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/reconstruct"
)

const groundY = -5.0

// groundDepth renders the plane y = groundY into a w x h buffer by
// intersecting every pixel-centre ray with it. Misses are sky.
func groundDepth(cam camera.State, w, h int) *MemorySource {
	rec := reconstruct.New(cam, w, h, reconstruct.DefaultSettings())
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dir := rec.Direction(x, y)
			data[y*w+x] = 1
			if dir.Y < 0 {
				t := (groundY - cam.Position.Y) / dir.Y
				data[y*w+x] = float32(reconstruct.DistanceToDepth(t, cam.Near, cam.Far, false))
			}
		}
	}
	return NewMemorySource(w, h, data)
}

func TestSampledGridReconstructsGroundPlane(t *testing.T) {
	tests := []struct {
		w, h   int
		pitch  float64
		region image.Rectangle
	}{
		{10, 10, 60, image.Rectangle{}},
		{10, 10, 60, image.Rect(5, 0, 10, 10)},
		{37, 23, 55, image.Rectangle{}},
		{37, 23, 55, image.Rect(18, 0, 37, 23)},
		{37, 23, 30, image.Rect(3, 12, 31, 23)},
	}
	for _, tt := range tests {
		cam := camera.State{Yaw: 20, Pitch: tt.pitch, FOV: 70, Near: 0.5, Far: 200, Aspect: float64(tt.w) / float64(tt.h)}
		src := groundDepth(cam, tt.w, tt.h)
		for _, n := range []int{1, 2, 3, 4} {
			t.Run(fmt.Sprintf("%dx%d/%v/n%d", tt.w, tt.h, tt.region, n), func(t *testing.T) {
				g, ok := NewSampler().Sample(src, tt.region, n)
				require.True(t, ok)

				rec := reconstruct.New(cam, g.Bounds.Dx(), g.Bounds.Dy(), reconstruct.DefaultSettings())
				hits := 0
				for y := 0; y < g.Height; y++ {
					for x := 0; x < g.Width; x++ {
						sx, sy := g.Texel(x, y)
						p, ok := rec.Point(sx, sy, g.At(x, y))
						if !ok {
							continue
						}
						hits++
						if math.Abs(p.Y-groundY) > 1e-3 {
							t.Errorf("cell (%d,%d) texel (%d,%d): y = %v, want %v", x, y, sx, sy, p.Y, groundY)
						}
					}
				}
				assert.Positive(t, hits)
			})
		}
	}
}
