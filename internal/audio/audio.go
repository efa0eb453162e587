// Package audio plays stimuli as sine tones through the system speaker.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/verte-zerg/tuiear/internal/model"
)

// SampleRate is the output rate of the speaker.
const SampleRate beep.SampleRate = 44100

// fadeTime shapes tone edges to avoid clicks.
const fadeTime = 10 * time.Millisecond

// Player renders stimuli to the speaker. A Player whose speaker failed to
// initialize stays silent.
type Player struct {
	mu      sync.Mutex
	log     *slog.Logger
	enabled bool
}

// NewPlayer initializes the speaker. On failure it returns a silent Player and
// the error, so callers can log it and carry on.
func NewPlayer(logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{log: logger}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return p, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	p.enabled = true
	return p, nil
}

// Enabled reports whether the speaker is available.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Play replaces whatever is sounding with s, held for d.
func (p *Player) Play(s model.Stimulus, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	speaker.Clear()
	speaker.Play(Render(s, d))
	p.log.Debug("playing stimulus", "label", s.Label, "notes", len(s.Notes), "duration", d)
}

// Silence stops playback.
func (p *Player) Silence() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		speaker.Clear()
	}
}

// Render returns a streamer of exactly d worth of samples sounding every note
// of s at equal level.
func Render(s model.Stimulus, d time.Duration) beep.Streamer {
	total := SampleRate.N(d)
	notes := s.Notes
	if len(notes) == 0 {
		notes = []model.Note{s.Root}
	}
	tones := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tones = append(tones, tone(n.Frequency(), total))
	}
	mixed := &effects.Gain{
		Streamer: beep.Mix(tones...),
		Gain:     1/float64(len(tones)) - 1,
	}
	return beep.Take(total, mixed)
}

func tone(freq float64, total int) beep.Streamer {
	step := 2 * math.Pi * freq / float64(SampleRate)
	fade := SampleRate.N(fadeTime)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			v := math.Sin(step*float64(pos)) * envelope(pos, total, fade)
			samples[i][0], samples[i][1] = v, v
			pos++
			n++
		}
		return n, true
	})
}

// envelope ramps linearly over fade samples at both ends.
func envelope(pos, total, fade int) float64 {
	if fade <= 0 {
		return 1
	}
	if pos < fade {
		return float64(pos) / float64(fade)
	}
	if left := total - pos; left < fade {
		return float64(left) / float64(fade)
	}
	return 1
}
