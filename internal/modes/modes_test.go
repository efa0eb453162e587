package modes

import (
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/model"
)

func roundFor(note model.Note) model.RoundContext {
	start := time.Unix(100, 0)
	return model.RoundContext{
		Number:     1,
		Stimulus:   model.Stimulus{ID: 1, Kind: model.KindNote, Root: note, Notes: []model.Note{note}},
		StartedAt:  start,
		Attempts:   1,
		AnsweredAt: start.Add(700 * time.Millisecond),
	}
}

func TestRushCompletesAfterTarget(t *testing.T) {
	const target = 5
	r := NewRush(RushSettings{TargetNotes: target}, generator.New(rand.NewSource(1)))
	rc := roundFor(60)
	for i := 0; i < target-1; i++ {
		res := r.HandleCorrectGuess(rc)
		if res.GameCompleted || !res.ShouldAdvance {
			t.Fatalf("unexpected result after %d correct: %+v", i+1, res)
		}
	}
	if r.IsGameComplete(rc) {
		t.Fatalf("expected rush incomplete after %d correct", target-1)
	}
	res := r.HandleCorrectGuess(rc)
	if !res.GameCompleted || !r.IsGameComplete(rc) || !r.IsCompleted() {
		t.Fatalf("expected rush complete after %d correct: %+v", target, res)
	}
	if rep := r.Report(); rep.Outcome != OutcomeWon || rep.Correct != target {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestRushIncorrectKeepsCounterResetsStreak(t *testing.T) {
	r := NewRush(RushSettings{TargetNotes: 10}, generator.New(rand.NewSource(1)))
	rc := roundFor(62)
	r.HandleCorrectGuess(rc)
	r.HandleCorrectGuess(rc)
	res := r.HandleIncorrectGuess(rc)
	if res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("incorrect guess should neither advance nor complete: %+v", res)
	}
	hit, _ := r.Progress()
	if hit != 2 {
		t.Fatalf("expected counter to stay at 2, got %d", hit)
	}
	rep := r.Report()
	if rep.Streak != 0 || rep.BestStreak != 2 {
		t.Fatalf("unexpected streaks: %+v", rep)
	}
}

func TestRushAvoidsImmediateRepeat(t *testing.T) {
	r := NewRush(RushSettings{TargetNotes: 10}, generator.New(rand.NewSource(3)))
	filter := model.NoteFilter{PitchClasses: []model.PitchClass{0, 7}, MinOctave: 4, MaxOctave: 4}
	prev, err := r.GenerateNote(filter)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	repeats := 0
	for i := 0; i < 100; i++ {
		s, err := r.GenerateNote(filter)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if s.Root == prev.Root {
			repeats++
		}
		prev = s
	}
	if repeats > 5 {
		t.Fatalf("expected rare repeats, got %d", repeats)
	}
}

func TestSurvivalHealthClamped(t *testing.T) {
	s := NewSurvival(SurvivalSettings{
		SessionDuration: time.Minute,
		HealthDrainRate: 1,
		HealthRecovery:  30,
		HealthDamage:    45,
	}, generator.New(rand.NewSource(1)))
	rc := roundFor(60)
	s.Tick(0)
	s.HandleCorrectGuess(rc)
	if s.Health() != MaxHealth {
		t.Fatalf("expected health clamped at 100, got %f", s.Health())
	}
	s.HandleIncorrectGuess(rc)
	s.HandleIncorrectGuess(rc)
	res := s.HandleIncorrectGuess(rc)
	if s.Health() != MinHealth {
		t.Fatalf("expected health clamped at 0, got %f", s.Health())
	}
	if !res.GameCompleted || !s.IsGameComplete(rc) {
		t.Fatalf("expected zero health to complete the session")
	}
	if rep := s.Report(); rep.Outcome != OutcomeLost {
		t.Fatalf("expected loss, got %q", rep.Outcome)
	}
}

func TestSurvivalDrainPerSecond(t *testing.T) {
	s := NewSurvival(SurvivalSettings{
		SessionDuration: time.Minute,
		HealthDrainRate: 2.5,
	}, generator.New(rand.NewSource(1)))
	s.Tick(0)
	for i := 1; i <= 4; i++ {
		s.Tick(time.Duration(i) * time.Second)
	}
	if got := s.Health(); got != 90 {
		t.Fatalf("expected 90 health after 4s at 2.5/s, got %f", got)
	}
}

func TestSurvivalDrainToZeroLoses(t *testing.T) {
	s := NewSurvival(SurvivalSettings{
		SessionDuration: time.Hour,
		HealthDrainRate: 50,
	}, generator.New(rand.NewSource(1)))
	s.Tick(0)
	s.Tick(3 * time.Second)
	if s.Health() != 0 || !s.IsCompleted() {
		t.Fatalf("expected drained loss, health=%f completed=%v", s.Health(), s.IsCompleted())
	}
}

func TestSurvivalWinsWhenDurationElapses(t *testing.T) {
	s := NewSurvival(SurvivalSettings{
		SessionDuration: 10 * time.Second,
		HealthDrainRate: 1,
	}, generator.New(rand.NewSource(1)))
	s.Tick(0)
	s.Tick(9 * time.Second)
	if s.IsCompleted() {
		t.Fatalf("completed before duration")
	}
	s.Tick(10 * time.Second)
	if !s.IsCompleted() || s.Health() <= 0 {
		t.Fatalf("expected win with health left")
	}
	if rep := s.Report(); rep.Outcome != OutcomeWon {
		t.Fatalf("expected win, got %q", rep.Outcome)
	}
}

func TestSurvivalFirstTickIsBaseline(t *testing.T) {
	s := NewSurvival(SurvivalSettings{
		SessionDuration: time.Hour,
		HealthDrainRate: 1,
	}, generator.New(rand.NewSource(1)))
	s.Tick(30 * time.Second)
	if s.Health() != MaxHealth {
		t.Fatalf("expected no drain on baseline tick, got %f", s.Health())
	}
}

func TestSandboxTargetsAreInformational(t *testing.T) {
	acc := 0.5
	streak := 2
	notes := 3
	s := NewSandbox(SandboxSettings{
		SessionDuration: time.Minute,
		TargetAccuracy:  &acc,
		TargetStreak:    &streak,
		TargetNotes:     &notes,
	}, generator.New(rand.NewSource(1)))
	rc := roundFor(64)
	s.Tick(0)
	for i := 0; i < 3; i++ {
		s.HandleCorrectGuess(rc)
	}
	if !s.TargetReached() {
		t.Fatalf("expected targets reached: %+v", s.Targets())
	}
	if s.IsGameComplete(rc) || s.IsCompleted() {
		t.Fatalf("targets must not force completion")
	}
	s.Tick(time.Minute)
	if !s.IsGameComplete(rc) {
		t.Fatalf("expected completion once the duration elapses")
	}
	rep := s.Report()
	if rep.Outcome != OutcomeFinished || !rep.TargetReached {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestSandboxWithoutTargetsTracksMetrics(t *testing.T) {
	s := NewSandbox(SandboxSettings{}, generator.New(rand.NewSource(1)))
	rc := roundFor(65)
	s.HandleCorrectGuess(rc)
	s.HandleIncorrectGuess(rc)
	s.OnRoundTimeout(rc)
	s.Tick(time.Hour)
	if s.IsGameComplete(rc) {
		t.Fatalf("open-ended sandbox must not complete")
	}
	if s.TargetReached() {
		t.Fatalf("no targets configured, none can be reached")
	}
	rep := s.Report()
	if rep.Correct != 1 || rep.Incorrect != 1 || rep.Timeouts != 1 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if len(rep.Notes) != 1 || rep.Notes[0].Note != "F" || rep.Notes[0].LatencyCount != 1 {
		t.Fatalf("unexpected note stats: %+v", rep.Notes)
	}
	if got := rep.Accuracy(); got < 0.33 || got > 0.34 {
		t.Fatalf("unexpected accuracy %f", got)
	}
}
