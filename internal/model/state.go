package model

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle of one practice session.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionPlaying
	SessionPaused
	SessionCompleted
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionPlaying:
		return "playing"
	case SessionPaused:
		return "paused"
	case SessionCompleted:
		return "completed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// RoundState is the phase of the current round.
type RoundState int

const (
	RoundWaitingInput RoundState = iota
	RoundCorrectFeedback
	RoundIncorrectFeedback
	RoundTimeoutIntermission
)

func (s RoundState) String() string {
	switch s {
	case RoundWaitingInput:
		return "waiting_input"
	case RoundCorrectFeedback:
		return "correct_feedback"
	case RoundIncorrectFeedback:
		return "incorrect_feedback"
	case RoundTimeoutIntermission:
		return "timeout_intermission"
	default:
		return fmt.Sprintf("RoundState(%d)", int(s))
	}
}

// RoundContext describes the round in progress. A new value is built for every round.
type RoundContext struct {
	Number     int
	Stimulus   Stimulus
	StartedAt  time.Time
	Attempts   int
	AnsweredAt time.Time
}

// Latency returns the time from round start to the latest answer, or zero.
func (rc RoundContext) Latency() time.Duration {
	if rc.AnsweredAt.IsZero() || rc.AnsweredAt.Before(rc.StartedAt) {
		return 0
	}
	return rc.AnsweredAt.Sub(rc.StartedAt)
}
