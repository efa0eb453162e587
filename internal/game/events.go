package game

import (
	"time"

	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
)

// StateChange is published on every session or round transition.
type StateChange struct {
	Session  model.SessionState
	Round    model.RoundState
	Feedback string
	Reveal   *model.Stimulus // answer of a timed-out round
	At       time.Time
}

// RoundOutcome is how a round was closed.
type RoundOutcome string

const (
	RoundCorrect  RoundOutcome = "correct"
	RoundTimedOut RoundOutcome = "timeout"
	RoundSkipped  RoundOutcome = "skipped"
)

// RoundEnd is published once per round when it closes.
type RoundEnd struct {
	Round   model.RoundContext
	Outcome RoundOutcome
}

// SessionTime is passed to the session timer callback.
type SessionTime struct {
	Elapsed   time.Duration
	Remaining time.Duration // zero without a time limit
	Limit     time.Duration
}

// GuessResult describes how SubmitGuess scored a guess.
type GuessResult struct {
	Correct   bool
	Feedback  string
	Advanced  bool
	Completed bool
	Stimulus  model.Stimulus
}

// SessionSummary is published when a session ends, either by completion or by Stop.
type SessionSummary struct {
	Report    modes.Report
	StartedAt time.Time
	EndedAt   time.Time
}
