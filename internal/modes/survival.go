package modes

import (
	"fmt"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/model"
)

// Health bounds for Survival.
const (
	MinHealth = 0.0
	MaxHealth = 100.0
)

// SurvivalState keeps health above zero until the clock runs out.
type SurvivalState struct {
	base
	settings SurvivalSettings
	health   float64
	lastTick time.Duration
	ticked   bool
	won      bool
}

// NewSurvival returns a Survival strategy at full health.
func NewSurvival(settings SurvivalSettings, gen *generator.Generator) *SurvivalState {
	return &SurvivalState{
		base:     base{id: Survival, gen: gen},
		settings: settings,
		health:   MaxHealth,
	}
}

func clampHealth(h float64) float64 {
	if h < MinHealth {
		return MinHealth
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}

// Health returns the current health in [0, 100].
func (s *SurvivalState) Health() float64 {
	return s.health
}

func (s *SurvivalState) HandleCorrectGuess(rc model.RoundContext) Result {
	s.hit(rc)
	s.health = clampHealth(s.health + s.settings.HealthRecovery)
	s.feedback = fmt.Sprintf("Correct! +%.0f health", s.settings.HealthRecovery)
	s.evaluate()
	return Result{Feedback: s.feedback, ShouldAdvance: !s.completed, GameCompleted: s.completed}
}

func (s *SurvivalState) HandleIncorrectGuess(rc model.RoundContext) Result {
	s.miss(rc)
	s.health = clampHealth(s.health - s.settings.HealthDamage)
	s.feedback = fmt.Sprintf("Wrong! -%.0f health", s.settings.HealthDamage)
	s.evaluate()
	return Result{Feedback: s.feedback, GameCompleted: s.completed}
}

func (s *SurvivalState) Tick(elapsed time.Duration) {
	if s.completed {
		return
	}
	if s.ticked && elapsed > s.lastTick {
		drain := s.settings.HealthDrainRate * (elapsed - s.lastTick).Seconds()
		s.health = clampHealth(s.health - drain)
	}
	s.ticked = true
	s.lastTick = elapsed
	s.elapsed = elapsed
	s.evaluate()
}

// evaluate applies the win/loss rules. Loss takes precedence when both hold.
func (s *SurvivalState) evaluate() {
	if s.completed {
		return
	}
	switch {
	case s.health <= MinHealth:
		s.completed = true
		s.feedback = "Out of health!"
	case s.elapsed >= s.settings.SessionDuration:
		s.completed = true
		s.won = true
		s.feedback = fmt.Sprintf("Survived %s!", s.settings.SessionDuration)
	}
}

func (s *SurvivalState) IsGameComplete(model.RoundContext) bool {
	return s.health <= MinHealth || s.elapsed >= s.settings.SessionDuration
}

func (s *SurvivalState) SessionDuration() time.Duration {
	return s.settings.SessionDuration
}

func (s *SurvivalState) Report() Report {
	rep := s.report(Survival)
	rep.Elapsed = s.elapsed
	rep.Health = s.health
	switch {
	case !s.completed:
		rep.Outcome = OutcomeAbandoned
	case s.won:
		rep.Outcome = OutcomeWon
		rep.TargetReached = true
	default:
		rep.Outcome = OutcomeLost
	}
	return rep
}
