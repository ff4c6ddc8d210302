package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
)

func TestVolumeExponent(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -100},
	}

	for _, tt := range tests {
		if got := volumeExponent(tt.vol); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("volumeExponent(%f) = %f, want %f", tt.vol, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestSetVolume(t *testing.T) {
	m := New()
	if m.Volume() != 1.0 {
		t.Errorf("default volume = %f, want 1.0", m.Volume())
	}

	m.SetVolume(2.0)
	if m.Volume() != 1.0 {
		t.Errorf("volume = %f, want 1.0 (clamped)", m.Volume())
	}
	m.SetVolume(-1.0)
	if m.Volume() != 0.0 {
		t.Errorf("volume = %f, want 0.0 (clamped)", m.Volume())
	}
}

func TestPlayBeforeInit(t *testing.T) {
	if err := New().PlayCue(); err != ErrNotInitialized {
		t.Errorf("PlayCue() = %v, want ErrNotInitialized", err)
	}
}

func TestLoadCueMissing(t *testing.T) {
	if err := New().LoadCue("does-not-exist.wav"); err == nil {
		t.Error("LoadCue() succeeded for a missing file")
	}
}

func TestThumpLengthAndDecay(t *testing.T) {
	sr := beep.SampleRate(8000)
	th := DefaultThump()
	th.Duration = 500 * time.Millisecond
	s := th.Streamer(sr)

	buf := make([][2]float64, 1000)
	var all [][2]float64
	for {
		n, ok := s.Stream(buf)
		all = append(all, buf[:n]...)
		if !ok {
			break
		}
	}
	if len(all) != sr.N(th.Duration) {
		t.Fatalf("streamed %d samples, want %d", len(all), sr.N(th.Duration))
	}

	peak := func(from, to int) float64 {
		p := 0.0
		for _, smp := range all[from:to] {
			p = math.Max(p, math.Abs(smp[0]))
		}
		return p
	}
	head, tail := peak(0, 400), peak(len(all)-400, len(all))
	if !(tail < head/5) {
		t.Errorf("tail peak %f not well below head peak %f", tail, head)
	}
	for i, smp := range all {
		if smp[0] != smp[1] || math.Abs(smp[0]) > 1 {
			t.Fatalf("sample %d = %v, want mono within [-1,1]", i, smp)
		}
	}
}
