// Package audio plays the shockwave trigger cue.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the playback sample rate.
const DefaultSampleRate = beep.SampleRate(44100)

// ErrNotInitialized is returned when playing before Init.
var ErrNotInitialized = errors.New("audio not initialized")

// Thump describes the synthesized trigger cue: a falling sine sweep with
// a noise burst, both decaying exponentially.
type Thump struct {
	Duration  time.Duration
	StartHz   float64
	EndHz     float64
	Noise     float64 // noise mix in [0,1]
	DecayRate float64 // amplitude e-folds per second
}

// DefaultThump is a short low boom.
func DefaultThump() Thump {
	return Thump{
		Duration:  600 * time.Millisecond,
		StartHz:   110,
		EndHz:     38,
		Noise:     0.25,
		DecayRate: 7,
	}
}

// Streamer renders t at sample rate sr. The noise sequence is seeded so
// every cue sounds the same.
func (t Thump) Streamer(sr beep.SampleRate) beep.Streamer {
	total := sr.N(t.Duration)
	rng := rand.New(rand.NewPCG(1, 2))
	phase := 0.0
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) && i < total {
			secs := float64(i) / float64(sr)
			frac := float64(i) / float64(total)
			hz := t.StartHz + (t.EndHz-t.StartHz)*frac
			phase += 2 * math.Pi * hz / float64(sr)

			env := math.Exp(-t.DecayRate * secs)
			v := env * ((1-t.Noise)*math.Sin(phase) + t.Noise*(rng.Float64()*2-1))
			samples[n] = [2]float64{v, v}
			n++
			i++
		}
		return n, n > 0
	})
}

// Manager owns the speaker and mixes cues.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate
	volume      float64 // 0.0 to 1.0
	thump       Thump
	custom      []byte // WAV replacing the synthesized cue

	mixer *beep.Mixer
}

// New creates a manager at full volume with the default thump.
func New() *Manager {
	return &Manager{
		volume: 1.0,
		thump:  DefaultThump(),
		mixer:  &beep.Mixer{},
	}
}

// Init opens the audio device.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	m.sampleRate = DefaultSampleRate
	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)

	m.initialized = true
	return nil
}

// Close stops playback.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		speaker.Clear()
	}
	m.initialized = false
}

// SetVolume sets the cue volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(vol, 0, 1)
}

// Volume returns the cue volume.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// LoadCue replaces the synthesized thump with a WAV file.
func (m *Manager) LoadCue(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cue: %w", err)
	}
	if _, _, err := wav.Decode(io.NopCloser(bytes.NewReader(data))); err != nil {
		return fmt.Errorf("decode cue %s: %w", path, err)
	}
	m.mu.Lock()
	m.custom = data
	m.mu.Unlock()
	return nil
}

// PlayCue plays the trigger cue over anything already playing.
func (m *Manager) PlayCue() error {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.volume
	custom := m.custom
	thump := m.thump
	m.mu.RUnlock()

	if !initialized {
		return ErrNotInitialized
	}

	var s beep.Streamer
	if custom != nil {
		decoded, format, err := wav.Decode(io.NopCloser(bytes.NewReader(custom)))
		if err != nil {
			return fmt.Errorf("decode wav: %w", err)
		}
		s = decoded
		if format.SampleRate != m.sampleRate {
			s = beep.Resample(4, format.SampleRate, m.sampleRate, decoded)
		}
	} else {
		s = thump.Streamer(m.sampleRate)
	}

	speaker.Lock()
	m.mixer.Add(withVolume(s, vol))
	speaker.Unlock()
	return nil
}

func withVolume(s beep.Streamer, vol float64) *effects.Volume {
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeExponent(vol),
		Silent:   vol <= 0,
	}
}

// volumeExponent converts a 0-1 volume to a base-2 gain exponent:
// 1 -> 0, 0.5 -> -1, 0.25 -> -2.
func volumeExponent(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return math.Log2(vol)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
