package depth

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEXRRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depth", "frame.exr")
	want := Buffer{Width: 7, Height: 5, Data: ramp(7, 5)}

	require.NoError(t, WriteEXR(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Width, got.Width)
	assert.Equal(t, want.Height, got.Height)
	assert.Equal(t, want.Data, got.Data)
}

func TestPNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	want := Buffer{Width: 4, Height: 3, Data: ramp(4, 3)}

	require.NoError(t, WritePNG(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, got.Width)
	require.Equal(t, 3, got.Height)
	for i := range want.Data {
		assert.InDelta(t, want.Data[i], got.Data[i], 1.0/0xffff, "sample %d", i)
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("depth.bmp")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.exr"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestWriteInvalidBuffer(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, WriteEXR(filepath.Join(dir, "a.exr"), Buffer{}))
	assert.Error(t, WritePNG(filepath.Join(dir, "a.png"), Buffer{Width: 2, Height: 2}))
}
