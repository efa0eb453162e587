package model

import (
	"errors"
	"fmt"
)

// Octave bounds accepted by NoteFilter.
const (
	MinOctave = 0
	MaxOctave = 8
)

// NoteFilter restricts which stimuli may be generated.
type NoteFilter struct {
	PitchClasses   []PitchClass
	MinOctave      int
	MaxOctave      int
	Chords         bool
	ChordQualities []ChordQuality
}

// DefaultNoteFilter allows the natural notes of octaves 3 to 5.
func DefaultNoteFilter() NoteFilter {
	return NoteFilter{
		PitchClasses: []PitchClass{0, 2, 4, 5, 7, 9, 11},
		MinOctave:    3,
		MaxOctave:    5,
	}
}

// Validate checks that the filter permits at least one stimulus.
func (f NoteFilter) Validate() error {
	if len(f.PitchClasses) == 0 {
		return errors.New("note filter has no pitch classes")
	}
	for _, pc := range f.PitchClasses {
		if pc < 0 || pc > 11 {
			return fmt.Errorf("note filter has invalid pitch class %d", int(pc))
		}
	}
	if f.MinOctave < MinOctave || f.MaxOctave > MaxOctave {
		return fmt.Errorf("note filter octaves must be within %d-%d", MinOctave, MaxOctave)
	}
	if f.MinOctave > f.MaxOctave {
		return fmt.Errorf("note filter min octave %d is above max octave %d", f.MinOctave, f.MaxOctave)
	}
	if f.Chords {
		if len(f.ChordQualities) == 0 {
			return errors.New("note filter enables chords without chord qualities")
		}
		for _, q := range f.ChordQualities {
			if q.Intervals() == nil {
				return fmt.Errorf("note filter has unknown chord quality %q", q)
			}
		}
	}
	return nil
}

// AllowsPitchClass reports whether pc is one of the filter's pitch classes.
func (f NoteFilter) AllowsPitchClass(pc PitchClass) bool {
	for _, allowed := range f.PitchClasses {
		if allowed == pc {
			return true
		}
	}
	return false
}

// Allows reports whether the stimulus could have been produced under the filter.
func (f NoteFilter) Allows(s Stimulus) bool {
	if len(s.Notes) == 0 {
		return false
	}
	if !f.AllowsPitchClass(s.Root.PitchClass()) {
		return false
	}
	oct := s.Root.Octave()
	if oct < f.MinOctave || oct > f.MaxOctave {
		return false
	}
	switch s.Kind {
	case KindNote:
		return len(s.Notes) == 1 && s.Notes[0] == s.Root
	case KindChord:
		if !f.Chords {
			return false
		}
		for _, q := range f.ChordQualities {
			if q == s.Quality {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Clone returns a deep copy so callers cannot alias the slices.
func (f NoteFilter) Clone() NoteFilter {
	out := f
	out.PitchClasses = append([]PitchClass(nil), f.PitchClasses...)
	out.ChordQualities = append([]ChordQuality(nil), f.ChordQualities...)
	return out
}
