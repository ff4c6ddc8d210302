package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shockwave/internal/config"
	"github.com/Faultbox/shockwave/internal/engine/depth"
	"github.com/Faultbox/shockwave/internal/engine/entity"
	"github.com/Faultbox/shockwave/internal/shockwave"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Terrain.Size = 32
	cfg.Terrain.CellSize = 4
	return cfg
}

func TestTerrainScene(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)
	require.False(t, s.Static())

	w, h := s.DepthSize(32, 24)
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)
	assert.InDelta(t, 8.0/6.0, s.Camera(32, 24).Aspect, 1e-9)

	buf, ok := s.Acquire(32, 24)
	require.True(t, ok)
	assert.Equal(t, 8, buf.Width)
	assert.Equal(t, 6, buf.Height)

	img := s.Shade(s.Camera(32, 24))
	require.NotNil(t, img)
	assert.NotEqual(t, skyColor, img.RGBAAt(4, 5), "camera looks down onto terrain")
}

func TestSceneFeedsController(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)

	ctrl := shockwave.NewController(shockwave.Options{Mode: shockwave.DefaultMode()})
	ctrl.Trigger()
	f, ok := ctrl.Render(s.Frame(7, 32, 24))
	require.True(t, ok)
	assert.Equal(t, uint64(7), f.Index)
	assert.Equal(t, 32, f.Image.Rect.Dx())
	assert.Equal(t, 8*6, f.Stats.Samples)
}

func TestStaticScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depth.png")
	data := depth.Fill(4, 2, 0.5)
	data[0] = 1
	require.NoError(t, depth.WritePNG(path, depth.Buffer{Width: 4, Height: 2, Data: data}))

	cfg := smallConfig()
	cfg.Depth.File = path
	s, err := New(cfg)
	require.NoError(t, err)
	require.True(t, s.Static())

	w, h := s.DepthSize(640, 480)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.InDelta(t, 2.0, s.Camera(640, 480).Aspect, 1e-9)

	_, ok := s.Acquire(640, 480)
	require.True(t, ok)
	img := s.Shade(s.Camera(640, 480))
	assert.Equal(t, skyColor, img.RGBAAt(0, 0))
	assert.NotEqual(t, skyColor, img.RGBAAt(1, 0))
}

func TestStaticSceneMissingFile(t *testing.T) {
	cfg := smallConfig()
	cfg.Depth.File = filepath.Join(t.TempDir(), "missing.exr")
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestWalkerFollowsGround(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)
	assert.Equal(t, entity.StateWalking, s.Walker.State())

	before, ok := s.Walker.Location()
	require.True(t, ok)
	s.Update(1)
	after, ok := s.Walker.Location()
	require.True(t, ok)
	assert.NotEqual(t, before, after)
	assert.InDelta(t, s.Map.HeightAt(after.X, after.Z)+walkHeight, after.Y, 1e-9)
}
