// Package modes defines the practice modes and the registry they are selected from.
//
// Each mode is a State strategy owned by the orchestrator for one session. The
// set of modes is closed (Rush, Survival, Sandbox); switch on Mode() for
// mode-specific presentation.
package modes

import (
	"sort"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/model"
)

// ID identifies a mode.
type ID string

const (
	Rush     ID = "rush"
	Survival ID = "survival"
	Sandbox  ID = "sandbox"
)

// TrainingType classifies modes for menus.
type TrainingType string

const (
	Challenge TrainingType = "challenge"
	Practice  TrainingType = "practice"
)

// Outcome values reported when a session ends.
const (
	OutcomeWon       = "won"
	OutcomeLost      = "lost"
	OutcomeFinished  = "finished"
	OutcomeAbandoned = "abandoned"
)

// Result is what a mode decides after a guess.
type Result struct {
	Feedback      string
	ShouldAdvance bool
	GameCompleted bool
}

// Report is the end-of-session summary of a mode.
type Report struct {
	Mode          ID
	Outcome       string
	Rounds        int
	Correct       int
	Incorrect     int
	Timeouts      int
	Streak        int
	BestStreak    int
	Elapsed       time.Duration
	Health        float64
	TargetReached bool
	Notes         []model.NoteStats
}

// Accuracy is correct answers over all answered or timed-out attempts.
func (r Report) Accuracy() float64 {
	den := r.Correct + r.Incorrect + r.Timeouts
	if den == 0 {
		return 0
	}
	return float64(r.Correct) / float64(den)
}

// State is the per-session strategy of a mode. Implementations are not safe
// for concurrent use; the orchestrator calls them from its event loop only.
type State interface {
	Mode() ID
	// GenerateNote returns a stimulus permitted by filter.
	GenerateNote(filter model.NoteFilter) (model.Stimulus, error)
	// OnStartNewRound resets per-round bookkeeping.
	OnStartNewRound(rc model.RoundContext)
	HandleCorrectGuess(rc model.RoundContext) Result
	HandleIncorrectGuess(rc model.RoundContext) Result
	// OnRoundTimeout records an unanswered round.
	OnRoundTimeout(rc model.RoundContext)
	// Tick reports session elapsed time. The first call establishes the
	// baseline for time-based rules.
	Tick(elapsed time.Duration)
	IsGameComplete(rc model.RoundContext) bool
	FeedbackMessage() string
	IsCompleted() bool
	ElapsedTime() time.Duration
	// SessionDuration is the time limit, or zero when the mode has none.
	SessionDuration() time.Duration
	Report() Report
}

type noteTally struct {
	correct      int
	incorrect    int
	timeouts     int
	latencySumMs int64
	latencyCount int64
}

// tally accumulates the metrics every mode reports.
type tally struct {
	rounds     int
	correct    int
	incorrect  int
	timeouts   int
	streak     int
	bestStreak int
	notes      map[model.PitchClass]*noteTally
}

func (t *tally) note(rc model.RoundContext) *noteTally {
	if t.notes == nil {
		t.notes = map[model.PitchClass]*noteTally{}
	}
	pc := rc.Stimulus.Root.PitchClass()
	entry, ok := t.notes[pc]
	if !ok {
		entry = &noteTally{}
		t.notes[pc] = entry
	}
	return entry
}

func (t *tally) hit(rc model.RoundContext) {
	t.correct++
	t.streak++
	if t.streak > t.bestStreak {
		t.bestStreak = t.streak
	}
	entry := t.note(rc)
	entry.correct++
	if lat := rc.Latency(); lat > 0 {
		entry.latencySumMs += lat.Milliseconds()
		entry.latencyCount++
	}
}

func (t *tally) miss(rc model.RoundContext) {
	t.incorrect++
	t.streak = 0
	t.note(rc).incorrect++
}

func (t *tally) timeout(rc model.RoundContext) {
	t.timeouts++
	t.streak = 0
	t.note(rc).timeouts++
}

func (t *tally) accuracy() float64 {
	den := t.correct + t.incorrect + t.timeouts
	if den == 0 {
		return 0
	}
	return float64(t.correct) / float64(den)
}

func (t *tally) report(id ID) Report {
	notes := make([]model.NoteStats, 0, len(t.notes))
	for pc, entry := range t.notes {
		notes = append(notes, model.NoteStats{
			Note:         pc.String(),
			Correct:      entry.correct,
			Incorrect:    entry.incorrect,
			Timeouts:     entry.timeouts,
			LatencySumMs: entry.latencySumMs,
			LatencyCount: entry.latencyCount,
		})
	}
	sort.Slice(notes, func(i, j int) bool {
		pi, _ := model.ParsePitchClass(notes[i].Note)
		pj, _ := model.ParsePitchClass(notes[j].Note)
		return pi < pj
	})
	return Report{
		Mode:       id,
		Rounds:     t.rounds,
		Correct:    t.correct,
		Incorrect:  t.incorrect,
		Timeouts:   t.timeouts,
		Streak:     t.streak,
		BestStreak: t.bestStreak,
		Notes:      notes,
	}
}

// base carries the behavior shared by every mode.
type base struct {
	tally
	id        ID
	gen       *generator.Generator
	elapsed   time.Duration
	completed bool
	feedback  string
}

func (b *base) Mode() ID { return b.id }

func (b *base) GenerateNote(filter model.NoteFilter) (model.Stimulus, error) {
	return b.gen.Next(filter)
}

func (b *base) OnStartNewRound(model.RoundContext) {
	b.rounds++
	b.feedback = ""
}

func (b *base) OnRoundTimeout(rc model.RoundContext) {
	b.timeout(rc)
	b.feedback = "Time's up: it was " + rc.Stimulus.Answer()
}

func (b *base) FeedbackMessage() string        { return b.feedback }
func (b *base) IsCompleted() bool              { return b.completed }
func (b *base) ElapsedTime() time.Duration     { return b.elapsed }
func (b *base) SessionDuration() time.Duration { return 0 }
