// Package audio plays the buzzer tone while the sound timer is running.
package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

const (
	SampleRate    = 44100
	ToneFrequency = 440

	amplitude   = 0.25
	sampleBytes = 4 // float32, mono
)

// squareWave streams float32LE samples of a square wave, or silence when off.
type squareWave struct {
	on    atomic.Bool
	phase float64 // Only touched by Read
	step  float64
}

func newSquareWave(freq, sampleRate int) *squareWave {
	return &squareWave{step: float64(freq) / float64(sampleRate)}
}

func (w *squareWave) Read(p []byte) (int, error) {
	n := len(p) / sampleBytes * sampleBytes
	on := w.on.Load()

	for i := 0; i < n; i += sampleBytes {
		var s float32
		if on {
			s = amplitude
			if w.phase >= 0.5 {
				s = -amplitude
			}
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(s))

		w.phase += w.step
		if w.phase >= 1 {
			w.phase--
		}
	}

	return n, nil
}

// Speaker owns the audio device.
type Speaker struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *squareWave
}

// New opens the default audio device and starts a silent stream.
func New() (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio device")
	}
	<-ready

	wave := newSquareWave(ToneFrequency, SampleRate)
	player := ctx.NewPlayer(wave)
	player.Play()
	slog.Debug("audio: started", "rate", SampleRate, "freq", ToneFrequency)

	return &Speaker{
		ctx:    ctx,
		player: player,
		wave:   wave,
	}, nil
}

// SetTone switches the tone on or off. Safe for concurrent use.
func (s *Speaker) SetTone(on bool) {
	s.wave.on.Store(on)
}

func (s *Speaker) Close() error {
	s.SetTone(false)
	return errors.Wrap(s.player.Close(), "failed to close audio player")
}
