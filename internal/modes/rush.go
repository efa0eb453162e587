package modes

import (
	"fmt"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/model"
)

// rerollLimit bounds how often Rush redraws to avoid repeating the previous stimulus.
const rerollLimit = 8

// RushState races toward a number of correct answers.
type RushState struct {
	base
	settings RushSettings
	previous model.Stimulus
}

// NewRush returns a Rush strategy.
func NewRush(settings RushSettings, gen *generator.Generator) *RushState {
	return &RushState{base: base{id: Rush, gen: gen}, settings: settings}
}

// GenerateNote avoids presenting the same root twice in a row when the filter
// offers an alternative.
func (r *RushState) GenerateNote(filter model.NoteFilter) (model.Stimulus, error) {
	s, err := r.gen.Next(filter)
	if err != nil {
		return model.Stimulus{}, err
	}
	for i := 0; i < rerollLimit && r.previous.ID != 0 && s.Root == r.previous.Root; i++ {
		if s, err = r.gen.Next(filter); err != nil {
			return model.Stimulus{}, err
		}
	}
	r.previous = s
	return s, nil
}

func (r *RushState) HandleCorrectGuess(rc model.RoundContext) Result {
	r.hit(rc)
	if r.correct >= r.settings.TargetNotes {
		r.completed = true
		r.feedback = fmt.Sprintf("Done! %d notes in %s", r.correct, r.elapsed.Round(time.Second))
	} else {
		r.feedback = fmt.Sprintf("Correct! %d/%d", r.correct, r.settings.TargetNotes)
	}
	return Result{Feedback: r.feedback, ShouldAdvance: !r.completed, GameCompleted: r.completed}
}

func (r *RushState) HandleIncorrectGuess(rc model.RoundContext) Result {
	r.miss(rc)
	r.feedback = "Not quite, try again"
	return Result{Feedback: r.feedback}
}

func (r *RushState) Tick(elapsed time.Duration) {
	if r.completed {
		return
	}
	r.elapsed = elapsed
}

func (r *RushState) IsGameComplete(model.RoundContext) bool {
	return r.correct >= r.settings.TargetNotes
}

// Progress returns the correct answers so far and the target.
func (r *RushState) Progress() (hit, target int) {
	return r.correct, r.settings.TargetNotes
}

func (r *RushState) Report() Report {
	rep := r.report(Rush)
	rep.Elapsed = r.elapsed
	rep.TargetReached = r.correct >= r.settings.TargetNotes
	rep.Outcome = OutcomeAbandoned
	if rep.TargetReached {
		rep.Outcome = OutcomeWon
	}
	return rep
}
