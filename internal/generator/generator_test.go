package generator

import (
	"math/rand"
	"testing"

	"github.com/verte-zerg/tuiear/internal/model"
)

func TestGenerateHonorsFilter(t *testing.T) {
	gen := New(rand.NewSource(1))
	filter := model.NoteFilter{
		PitchClasses:   []model.PitchClass{2, 9},
		MinOctave:      3,
		MaxOctave:      4,
		Chords:         true,
		ChordQualities: []model.ChordQuality{model.ChordMinor},
	}
	var lastID uint64
	for i := 0; i < 200; i++ {
		s, err := gen.Generate(filter)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !filter.Allows(s) {
			t.Fatalf("stimulus %+v not allowed by filter", s)
		}
		if s.ID <= lastID {
			t.Fatalf("expected increasing ids, got %d after %d", s.ID, lastID)
		}
		lastID = s.ID
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	filter := model.DefaultNoteFilter()
	a := New(rand.NewSource(42))
	b := New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		sa, _ := a.Generate(filter)
		sb, _ := b.Generate(filter)
		if sa.Root != sb.Root || sa.Kind != sb.Kind {
			t.Fatalf("expected identical sequences, diverged at %d", i)
		}
	}
}

func TestGenerateRejectsEmptyFilter(t *testing.T) {
	gen := New(rand.NewSource(1))
	if _, err := gen.Generate(model.NoteFilter{MinOctave: 4, MaxOctave: 4}); err == nil {
		t.Fatalf("expected error for empty filter")
	}
}

func TestGenerateWeightedBiasesWeakNotes(t *testing.T) {
	gen := New(rand.NewSource(7))
	filter := model.NoteFilter{PitchClasses: []model.PitchClass{0, 7}, MinOctave: 4, MaxOctave: 4}
	weak := map[model.PitchClass]struct{}{7: {}}
	counts := map[model.PitchClass]int{}
	for i := 0; i < 1000; i++ {
		s, err := gen.GenerateWeighted(filter, weak, 9)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		counts[s.Root.PitchClass()]++
	}
	if counts[7] <= counts[0]*3 {
		t.Fatalf("expected weak note to dominate, got %v", counts)
	}
}
