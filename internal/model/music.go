package model

import (
	"fmt"
	"math"
	"strings"
)

// Note is a MIDI note number (60 = C4).
type Note int

// PitchClass is a note's position within the octave, 0 (C) through 11 (B).
type PitchClass int

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatAliases = map[string]string{
	"DB": "C#",
	"EB": "D#",
	"GB": "F#",
	"AB": "G#",
	"BB": "A#",
}

// AllPitchClasses lists the twelve pitch classes in ascending order.
func AllPitchClasses() []PitchClass {
	out := make([]PitchClass, 12)
	for i := range out {
		out[i] = PitchClass(i)
	}
	return out
}

// String returns the sharp spelling of the pitch class.
func (p PitchClass) String() string {
	if p < 0 || p > 11 {
		return fmt.Sprintf("PitchClass(%d)", int(p))
	}
	return pitchNames[p]
}

// ParsePitchClass parses names such as "C", "f#" or "Bb".
func ParsePitchClass(name string) (PitchClass, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := flatAliases[key]; ok {
		key = alias
	}
	for i, n := range pitchNames {
		if n == key {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pitch class %q", name)
}

// ParsePitchClasses parses a comma separated list of pitch class names.
func ParsePitchClasses(list string) ([]PitchClass, error) {
	var out []PitchClass
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pc, err := ParsePitchClass(part)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}

// NewNote builds a note from a pitch class and octave.
func NewNote(pc PitchClass, octave int) Note {
	return Note((octave+1)*12 + int(pc))
}

// PitchClass returns the note's pitch class.
func (n Note) PitchClass() PitchClass {
	pc := int(n) % 12
	if pc < 0 {
		pc += 12
	}
	return PitchClass(pc)
}

// Octave returns the scientific pitch octave (C4 = 60).
func (n Note) Octave() int {
	return int(n)/12 - 1
}

// Name returns the scientific pitch name, e.g. "A4".
func (n Note) Name() string {
	if n < 0 {
		return fmt.Sprintf("?%d", int(n))
	}
	return fmt.Sprintf("%s%d", n.PitchClass(), n.Octave())
}

// Frequency returns the equal-tempered frequency with A4 at 440 Hz.
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, float64(int(n)-69)/12)
}

// ChordQuality names a triad shape.
type ChordQuality string

const (
	ChordMajor      ChordQuality = "major"
	ChordMinor      ChordQuality = "minor"
	ChordDiminished ChordQuality = "diminished"
	ChordAugmented  ChordQuality = "augmented"
)

var chordIntervals = map[ChordQuality][]int{
	ChordMajor:      {0, 4, 7},
	ChordMinor:      {0, 3, 7},
	ChordDiminished: {0, 3, 6},
	ChordAugmented:  {0, 4, 8},
}

// Intervals returns the semitone offsets from the root, or nil for an unknown quality.
func (q ChordQuality) Intervals() []int {
	iv, ok := chordIntervals[q]
	if !ok {
		return nil
	}
	out := make([]int, len(iv))
	copy(out, iv)
	return out
}

// ParseChordQualities parses a comma separated list of chord qualities.
func ParseChordQualities(list string) ([]ChordQuality, error) {
	var out []ChordQuality
	for _, part := range strings.Split(list, ",") {
		q := ChordQuality(strings.ToLower(strings.TrimSpace(part)))
		if q == "" {
			continue
		}
		if q.Intervals() == nil {
			return nil, fmt.Errorf("unknown chord quality %q", part)
		}
		out = append(out, q)
	}
	return out, nil
}

// StimulusKind distinguishes single notes from chords.
type StimulusKind int

const (
	KindNote StimulusKind = iota
	KindChord
)

// Stimulus is the note or chord presented for identification.
type Stimulus struct {
	ID      uint64
	Kind    StimulusKind
	Root    Note
	Quality ChordQuality
	Notes   []Note
	Label   string
}

// Matches reports whether the guessed note identifies the stimulus. Identification
// is by pitch class of the root, so any octave is accepted.
func (s Stimulus) Matches(guess Note) bool {
	if len(s.Notes) == 0 {
		return false
	}
	return guess.PitchClass() == s.Root.PitchClass()
}

// Answer is the name revealed to the player.
func (s Stimulus) Answer() string {
	if s.Kind == KindChord {
		return fmt.Sprintf("%s %s", s.Root.PitchClass(), s.Quality)
	}
	return s.Root.PitchClass().String()
}
