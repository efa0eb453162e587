package modes

import (
	"fmt"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/model"
)

// SandboxState is free practice. Targets are informational only.
type SandboxState struct {
	base
	settings SandboxSettings
}

// NewSandbox returns a Sandbox strategy.
func NewSandbox(settings SandboxSettings, gen *generator.Generator) *SandboxState {
	return &SandboxState{base: base{id: Sandbox, gen: gen}, settings: settings}
}

func (s *SandboxState) HandleCorrectGuess(rc model.RoundContext) Result {
	s.hit(rc)
	s.feedback = fmt.Sprintf("Correct! Streak %d", s.streak)
	if s.TargetReached() {
		s.feedback += " (target reached)"
	}
	return Result{Feedback: s.feedback, ShouldAdvance: true}
}

func (s *SandboxState) HandleIncorrectGuess(rc model.RoundContext) Result {
	s.miss(rc)
	s.feedback = "Not quite, try again"
	return Result{Feedback: s.feedback}
}

func (s *SandboxState) Tick(elapsed time.Duration) {
	if s.completed {
		return
	}
	s.elapsed = elapsed
	if s.settings.SessionDuration > 0 && elapsed >= s.settings.SessionDuration {
		s.completed = true
		s.feedback = "Session over"
	}
}

func (s *SandboxState) IsGameComplete(model.RoundContext) bool {
	return s.settings.SessionDuration > 0 && s.elapsed >= s.settings.SessionDuration
}

func (s *SandboxState) SessionDuration() time.Duration {
	return s.settings.SessionDuration
}

// TargetStatus describes one configured target.
type TargetStatus struct {
	Name    string
	Current float64
	Goal    float64
	Reached bool
}

// Targets returns the status of every configured target.
func (s *SandboxState) Targets() []TargetStatus {
	var out []TargetStatus
	if s.settings.TargetAccuracy != nil {
		acc := s.accuracy()
		out = append(out, TargetStatus{Name: "accuracy", Current: acc, Goal: *s.settings.TargetAccuracy, Reached: acc >= *s.settings.TargetAccuracy})
	}
	if s.settings.TargetStreak != nil {
		goal := float64(*s.settings.TargetStreak)
		out = append(out, TargetStatus{Name: "streak", Current: float64(s.bestStreak), Goal: goal, Reached: s.bestStreak >= *s.settings.TargetStreak})
	}
	if s.settings.TargetNotes != nil {
		goal := float64(*s.settings.TargetNotes)
		out = append(out, TargetStatus{Name: "notes", Current: float64(s.correct), Goal: goal, Reached: s.correct >= *s.settings.TargetNotes})
	}
	return out
}

// TargetReached reports whether at least one target is configured and all
// configured targets are met.
func (s *SandboxState) TargetReached() bool {
	targets := s.Targets()
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if !t.Reached {
			return false
		}
	}
	return true
}

func (s *SandboxState) Report() Report {
	rep := s.report(Sandbox)
	rep.Elapsed = s.elapsed
	rep.TargetReached = s.TargetReached()
	rep.Outcome = OutcomeAbandoned
	if s.completed {
		rep.Outcome = OutcomeFinished
	}
	return rep
}
