package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/ring"
)

type slope struct{}

func (slope) HeightAt(x, _ float64) float64 { return x / 2 }

func square() []r3.Vec {
	return []r3.Vec{{X: 0, Z: 0}, {X: 10, Z: 0}, {X: 10, Z: 10}, {X: 0, Z: 10}}
}

func TestWalkerFollowsPath(t *testing.T) {
	w := NewWalker(1, "poring", nil, square(), 5)
	require.Equal(t, StateWalking, w.State())

	w.Update(1)
	p, ok := w.Location()
	require.True(t, ok)
	assert.InDelta(t, 5, p.X, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)

	// 15 more units ends exactly on the second corner.
	w.Update(3)
	p, _ = w.Location()
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 10, p.Z, 1e-9)

	// Full lap of 40 returns to the same spot.
	w.Update(8)
	q, _ := w.Location()
	assert.InDelta(t, p.X, q.X, 1e-9)
	assert.InDelta(t, p.Z, q.Z, 1e-9)
}

func TestWalkerStandsOnGround(t *testing.T) {
	w := NewWalker(1, "poring", slope{}, square(), 5)
	w.Offset = 1
	w.Update(1)

	p, ok := w.Location()
	require.True(t, ok)
	assert.InDelta(t, 3.5, p.Y, 1e-9)
}

func TestWalkerHiddenKeepsTrackedOrigin(t *testing.T) {
	w := NewWalker(1, "poring", nil, square(), 5)
	origin := ring.NewTrackedOrigin(w)

	w.Update(1)
	first, ok := origin.Position()
	require.True(t, ok)

	w.SetVisible(false)
	w.Update(1)
	_, ok = w.Location()
	assert.False(t, ok)

	p, ok := origin.Position()
	require.True(t, ok)
	assert.Equal(t, first, p)
}

func TestWalkerStopAndDegenerate(t *testing.T) {
	w := NewWalker(1, "rock", nil, []r3.Vec{{X: 3}, {X: 3}}, 5)
	w.Update(1)
	p, ok := w.Location()
	require.True(t, ok)
	assert.Equal(t, 3.0, p.X)

	w = NewWalker(2, "poring", nil, square(), 5)
	w.Stop()
	w.Update(1)
	p, _ = w.Location()
	assert.Equal(t, 0.0, p.X)

	single := NewWalker(3, "statue", nil, []r3.Vec{{X: 7, Z: 7}}, 5)
	assert.Equal(t, StateIdle, single.State())
	p, ok = single.Location()
	require.True(t, ok)
	assert.Equal(t, 7.0, p.Z)
}

func TestLoop(t *testing.T) {
	path := Loop(r3.Vec{X: 1, Z: 1}, 10, 8)
	require.Len(t, path, 8)
	assert.InDelta(t, 11, path[0].X, 1e-9)
	assert.InDelta(t, 1, path[0].Z, 1e-9)
	assert.Len(t, Loop(r3.Vec{}, 1, 1), 3)
}

func TestWalkerConcurrentReads(t *testing.T) {
	w := NewWalker(1, "poring", slope{}, square(), 5)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			w.Location()
		}
	}()
	for i := 0; i < 100; i++ {
		w.Update(0.01)
	}
	wg.Wait()
}
