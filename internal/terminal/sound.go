package terminal

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Cue is a game moment with a sound.
type Cue int

const (
	CueMatch Cue = iota
	CueMismatch
	CueOver
)

type tone struct {
	freq float64 // Hz
	dur  time.Duration
}

var cueTones = map[Cue][]tone{
	CueMatch:    {{880, 60 * time.Millisecond}, {1320, 80 * time.Millisecond}},
	CueMismatch: {{220, 120 * time.Millisecond}},
	CueOver:     {{523, 120 * time.Millisecond}, {659, 120 * time.Millisecond}, {784, 120 * time.Millisecond}, {1047, 250 * time.Millisecond}},
}

// Sounds plays short generated tones through a single mixer. A nil *Sounds is silent.
type Sounds struct {
	mixer *beep.Mixer
	Muted bool
}

// NewSounds initializes the speaker. The game runs fine without sound if it fails.
func NewSounds() (*Sounds, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	s := &Sounds{mixer: &beep.Mixer{}}
	speaker.Play(s.mixer)
	return s, nil
}

// Play queues the tones of cue without blocking.
func (s *Sounds) Play(cue Cue) {
	if s == nil || s.Muted || s.mixer == nil {
		return
	}
	streamer, err := cueStreamer(cueTones[cue])
	if err != nil {
		return
	}
	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

// Close drops anything still playing.
func (s *Sounds) Close() {
	if s == nil || s.mixer == nil {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
}

func cueStreamer(tones []tone) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sampleRate.N(t.dur), sine))
	}
	return beep.Seq(parts...), nil
}
