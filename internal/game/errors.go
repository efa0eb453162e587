package game

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/tuiear/internal/model"
)

var (
	// ErrInvalidState is returned when an operation is not valid in the current session state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrNotConfigured is returned by Start before a mode has been selected.
	ErrNotConfigured = errors.New("no mode configured")
	// ErrRoundClosed is returned by SubmitGuess when the round is not waiting for input.
	ErrRoundClosed = errors.New("round is not accepting guesses")
)

// StateError reports an operation attempted in the wrong session state.
type StateError struct {
	Op    string
	State model.SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed while %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}
