// Package generator builds practice stimuli.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tuiear/internal/model"
)

// Generator produces randomized stimuli. It is not safe for concurrent use.
type Generator struct {
	rnd    *rand.Rand
	nextID uint64

	weakSet map[model.PitchClass]struct{}
	factor  float64
}

// New returns a Generator driven by the given source.
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewSeeded returns a Generator seeded with the current time.
func NewSeeded() *Generator {
	return New(rand.NewSource(time.Now().UnixNano()))
}

// SetFocus makes Next favor the given weak pitch classes. An empty set or a
// non-positive factor restores uniform selection.
func (g *Generator) SetFocus(weakSet map[model.PitchClass]struct{}, factor float64) {
	g.weakSet = weakSet
	g.factor = factor
}

// Next generates a stimulus honoring the configured focus.
func (g *Generator) Next(filter model.NoteFilter) (model.Stimulus, error) {
	return g.GenerateWeighted(filter, g.weakSet, g.factor)
}

// Generate selects a stimulus uniformly from the values the filter permits.
func (g *Generator) Generate(filter model.NoteFilter) (model.Stimulus, error) {
	if err := filter.Validate(); err != nil {
		return model.Stimulus{}, err
	}
	pc := filter.PitchClasses[g.rnd.Intn(len(filter.PitchClasses))]
	return g.build(filter, pc), nil
}

// GenerateWeighted selects a stimulus with a bias toward weak pitch classes.
func (g *Generator) GenerateWeighted(filter model.NoteFilter, weakSet map[model.PitchClass]struct{}, factor float64) (model.Stimulus, error) {
	if err := filter.Validate(); err != nil {
		return model.Stimulus{}, err
	}
	if len(weakSet) == 0 || factor <= 0 {
		return g.Generate(filter)
	}
	weights := make([]float64, len(filter.PitchClasses))
	total := 0.0
	for i, pc := range filter.PitchClasses {
		w := 1.0
		if _, ok := weakSet[pc]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	idx := len(weights) - 1
	for j, w := range weights {
		acc += w
		if r <= acc {
			idx = j
			break
		}
	}
	return g.build(filter, filter.PitchClasses[idx]), nil
}

func (g *Generator) build(filter model.NoteFilter, pc model.PitchClass) model.Stimulus {
	octave := filter.MinOctave
	if span := filter.MaxOctave - filter.MinOctave + 1; span > 1 {
		octave += g.rnd.Intn(span)
	}
	root := model.NewNote(pc, octave)
	g.nextID++

	if filter.Chords && g.rnd.Intn(2) == 0 {
		quality := filter.ChordQualities[g.rnd.Intn(len(filter.ChordQualities))]
		intervals := quality.Intervals()
		notes := make([]model.Note, 0, len(intervals))
		for _, iv := range intervals {
			notes = append(notes, root+model.Note(iv))
		}
		return model.Stimulus{
			ID:      g.nextID,
			Kind:    model.KindChord,
			Root:    root,
			Quality: quality,
			Notes:   notes,
			Label:   root.Name() + " " + string(quality),
		}
	}
	return model.Stimulus{
		ID:    g.nextID,
		Kind:  model.KindNote,
		Root:  root,
		Notes: []model.Note{root},
		Label: root.Name(),
	}
}
