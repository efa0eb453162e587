package game

import (
	"errors"
	"log/slog"

	"github.com/verte-zerg/tuiear/internal/model"
)

// Poster runs a function on the orchestrator's goroutine.
type Poster interface {
	Post(fn func()) bool
}

// InputAdapter turns note-on events from any source into guesses. It is safe
// to call from the goroutine of an input driver.
type InputAdapter struct {
	loop   Poster
	orch   *Orchestrator
	log    *slog.Logger
	onNote func(GuessResult)
}

// NewInputAdapter returns an adapter that posts guesses to orch through p.
// onNote, if set, runs on the loop after each accepted guess.
func NewInputAdapter(p Poster, orch *Orchestrator, logger *slog.Logger, onNote func(GuessResult)) *InputAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputAdapter{loop: p, orch: orch, log: logger, onNote: onNote}
}

// NoteOn submits note as a guess. It reports false if the loop has stopped.
func (a *InputAdapter) NoteOn(note model.Note) bool {
	return a.loop.Post(func() {
		res, err := a.orch.SubmitGuess(note)
		switch {
		case err == nil:
		case errors.Is(err, ErrRoundClosed), errors.Is(err, ErrInvalidState):
			a.log.Debug("guess ignored", "note", note.Name(), "reason", err)
			return
		default:
			a.log.Error("failed to submit guess", "note", note.Name(), "err", err)
			return
		}
		if a.onNote != nil {
			a.onNote(res)
		}
	})
}
