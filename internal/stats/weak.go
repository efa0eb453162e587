package stats

import (
	"sort"

	"github.com/verte-zerg/tuiear/internal/model"
)

// SelectWeakNotes selects the lowest-accuracy pitch classes from aggregates.
// Notes never attempted are not considered weak.
func SelectWeakNotes(aggs []model.NoteAggregate, top int) []model.PitchClass {
	candidates := make([]model.NoteAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect+agg.Timeouts == 0 {
			continue
		}
		if _, err := model.ParsePitchClass(agg.Note); err != nil {
			continue
		}
		candidates = append(candidates, agg)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := NoteAccuracy(candidates[i])
		aj := NoteAccuracy(candidates[j])
		if ai == aj {
			return candidates[i].Note < candidates[j].Note
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	weak := make([]model.PitchClass, 0, top)
	for _, agg := range candidates[:top] {
		pc, _ := model.ParsePitchClass(agg.Note)
		weak = append(weak, pc)
	}
	return weak
}
