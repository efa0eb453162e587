package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiear/internal/audio"
	"github.com/verte-zerg/tuiear/internal/game"
	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
	statsPkg "github.com/verte-zerg/tuiear/internal/stats"
	"github.com/verte-zerg/tuiear/internal/store"
)

const eventBuffer = 256

// Runner executes functions on the orchestrator's event loop.
type Runner interface {
	Post(fn func()) bool
	Do(fn func()) bool
}

// Snapshot is the practice screen's copy of the session, taken on the loop.
type Snapshot struct {
	Mode         modes.ID
	Session      model.SessionState
	Round        model.RoundState
	RoundNum     int
	Feedback     string
	Reveal       string
	RoundElapsed time.Duration
	Timeout      time.Duration
	Clock        game.SessionTime

	Correct   int
	Incorrect int
	Timeouts  int
	Streak    int

	Health  float64
	Hit     int
	Target  int
	Targets []modes.TargetStatus
}

// History holds accuracy figures for the footer.
type History struct {
	HasLast bool
	LastAcc float64
	LastNPM float64
	AllAcc  float64
	AllNPM  float64

	correct    int
	incorrect  int
	timeouts   int
	durationMs int64
}

func (h *History) add(correct, incorrect, timeouts int, durationMs int64) {
	h.LastAcc, h.LastNPM = statsPkg.SessionMetrics(correct, incorrect, timeouts, durationMs)
	h.HasLast = true
	h.correct += correct
	h.incorrect += incorrect
	h.timeouts += timeouts
	h.durationMs += durationMs
	h.AllAcc, h.AllNPM = statsPkg.SessionMetrics(h.correct, h.incorrect, h.timeouts, h.durationMs)
}

type snapshotMsg Snapshot

type guessMsg struct {
	result game.GuessResult
}

type summaryMsg struct {
	report  modes.Report
	history History
}

type historyMsg History

type errMsg struct{ err error }

// SessionOptions configures NewSession.
type SessionOptions struct {
	Runner       Runner
	Orchestrator *game.Orchestrator
	Settings     game.Settings
	Config       model.Config
	// Store and Player are optional.
	Store  *store.Store
	Player *audio.Player
	Logger *slog.Logger
}

// Session connects an orchestrator running on an event loop to the practice
// screen. Exported methods may be called from any goroutine; the handlers run
// on the loop and forward copies of the session state through Events.
type Session struct {
	run      Runner
	orch     *game.Orchestrator
	input    *game.InputAdapter
	settings game.Settings
	cfg      model.Config
	store    *store.Store
	player   *audio.Player
	log      *slog.Logger
	events   chan tea.Msg

	snap        Snapshot
	history     History
	weakNoticed bool
}

// NewSession subscribes to orch and loads the footer history.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		run:      opts.Runner,
		orch:     opts.Orchestrator,
		settings: opts.Settings,
		cfg:      opts.Config,
		store:    opts.Store,
		player:   opts.Player,
		log:      logger,
		events:   make(chan tea.Msg, eventBuffer),
	}
	s.settings.OnTimerUpdate = s.onRoundTimer
	s.settings.OnSessionTimerUpdate = s.onSessionTimer
	s.input = game.NewInputAdapter(opts.Runner, opts.Orchestrator, logger, s.onGuess)

	s.run.Post(func() {
		s.orch.OnStateChange(s.onStateChange)
		s.orch.OnRoundStart(s.onRoundStart)
		s.orch.OnSessionComplete(s.onSessionComplete)
		s.loadHistory()
		s.refreshWeak()
	})
	return s
}

// Events delivers the messages the practice screen renders.
func (s *Session) Events() <-chan tea.Msg {
	return s.events
}

// Start applies the settings and starts a session.
func (s *Session) Start() {
	s.run.Post(s.start)
}

// Restart abandons the current session, if any, and starts a new one.
func (s *Session) Restart() {
	s.run.Post(func() {
		s.orch.Stop()
		s.start()
	})
}

// Guess submits a played note.
func (s *Session) Guess(note model.Note) bool {
	return s.input.NoteOn(note)
}

// TogglePause pauses a running session or resumes a paused one.
func (s *Session) TogglePause() {
	s.run.Post(func() {
		var err error
		switch s.orch.SessionState() {
		case model.SessionPlaying:
			err = s.orch.Pause()
		case model.SessionPaused:
			err = s.orch.Resume()
		}
		if err != nil {
			s.log.Debug("pause toggle ignored", "err", err)
		}
	})
}

// Replay plays the current stimulus again.
func (s *Session) Replay() {
	s.run.Post(func() {
		if rc, ok := s.orch.Round(); ok && s.orch.SessionState() == model.SessionPlaying {
			s.play(rc.Stimulus)
		}
	})
}

// Close stops the session and waits until its summary is recorded.
func (s *Session) Close() {
	s.run.Do(s.orch.Stop)
	if s.player != nil {
		s.player.Silence()
	}
}

func (s *Session) start() {
	if err := s.orch.ApplySettings(s.settings); err != nil {
		s.log.Error("failed to apply settings", "err", err)
		s.push(errMsg{err: err})
		return
	}
	s.snap = Snapshot{Mode: s.settings.Mode, Timeout: s.settings.Timeout}
	if err := s.orch.Start(); err != nil {
		s.log.Error("failed to start session", "err", err)
		s.push(errMsg{err: err})
	}
}

func (s *Session) push(msg tea.Msg) {
	select {
	case s.events <- msg:
	default:
		s.log.Debug("ui event dropped", "type", typeName(msg))
	}
}

func (s *Session) pushSnapshot() {
	snap := s.snap
	snap.Targets = append([]modes.TargetStatus(nil), s.snap.Targets...)
	s.push(snapshotMsg(snap))
}

func (s *Session) refreshMode() {
	st := s.orch.Mode()
	if st == nil {
		return
	}
	rep := st.Report()
	s.snap.Mode = st.Mode()
	s.snap.Correct = rep.Correct
	s.snap.Incorrect = rep.Incorrect
	s.snap.Timeouts = rep.Timeouts
	s.snap.Streak = rep.Streak
	switch m := st.(type) {
	case *modes.SurvivalState:
		s.snap.Health = m.Health()
	case *modes.RushState:
		s.snap.Hit, s.snap.Target = m.Progress()
	case *modes.SandboxState:
		s.snap.Targets = m.Targets()
	}
}

func (s *Session) onStateChange(c game.StateChange) {
	s.snap.Session = c.Session
	s.snap.Round = c.Round
	s.snap.Feedback = c.Feedback
	s.snap.Reveal = ""
	if c.Reveal != nil {
		s.snap.Reveal = c.Reveal.Answer()
	}
	s.refreshMode()
	s.pushSnapshot()
}

func (s *Session) onRoundStart(rc model.RoundContext) {
	s.snap.RoundNum = rc.Number
	s.snap.RoundElapsed = 0
	s.play(rc.Stimulus)
}

func (s *Session) onRoundTimer(elapsed time.Duration) {
	s.snap.RoundElapsed = elapsed
}

func (s *Session) onSessionTimer(st game.SessionTime) {
	s.snap.Clock = st
	s.refreshMode()
	s.pushSnapshot()
}

func (s *Session) onGuess(res game.GuessResult) {
	s.push(guessMsg{result: res})
}

func (s *Session) play(stim model.Stimulus) {
	if s.player == nil {
		return
	}
	s.player.Play(stim, s.orch.NoteDuration())
}

func (s *Session) onSessionComplete(sum game.SessionSummary) {
	rep := sum.Report
	if rep.Rounds > 0 {
		s.record(sum)
	}
	s.push(summaryMsg{report: rep, history: s.history})
}

func (s *Session) record(sum game.SessionSummary) {
	rep := sum.Report
	s.history.add(rep.Correct, rep.Incorrect, rep.Timeouts, rep.Elapsed.Milliseconds())
	if s.store == nil {
		return
	}
	rec := model.SessionRecord{
		StartedAt:     sum.StartedAt,
		EndedAt:       sum.EndedAt,
		Mode:          string(rep.Mode),
		Outcome:       rep.Outcome,
		Rounds:        rep.Rounds,
		Correct:       rep.Correct,
		Incorrect:     rep.Incorrect,
		Timeouts:      rep.Timeouts,
		BestStreak:    rep.BestStreak,
		FinalHealth:   rep.Health,
		TargetReached: rep.TargetReached,
		DurationMs:    rep.Elapsed.Milliseconds(),
	}
	if _, err := s.store.InsertSession(context.Background(), rec, rep.Notes); err != nil {
		s.log.Error("failed to save session", "err", err)
		return
	}
	s.refreshWeak()
}

func (s *Session) loadHistory() {
	if s.store == nil {
		return
	}
	sessions, err := s.store.ListSessions(context.Background(), model.StatsConfig{Mode: s.cfg.Mode})
	if err != nil {
		s.log.Error("failed to load session stats", "err", err)
		return
	}
	for _, agg := range sessions {
		s.history.add(agg.Correct, agg.Incorrect, agg.Timeouts, agg.DurationMs)
	}
	s.push(historyMsg(s.history))
}

func (s *Session) refreshWeak() {
	if !s.cfg.FocusWeak || s.store == nil {
		return
	}
	aggs, err := s.store.GetWeakNotes(context.Background(), s.cfg.WeakWindow, s.cfg.Mode)
	if err != nil {
		s.log.Error("failed to load weak notes", "err", err)
		return
	}
	weak := statsPkg.SelectWeakNotes(aggs, s.cfg.WeakTop)
	if len(weak) == 0 && !s.weakNoticed {
		s.log.Info("no stats available for weak-note focus yet; using uniform selection")
		s.weakNoticed = true
	}
	s.orch.SetWeakNotes(weak, s.cfg.WeakFactor)
}

func typeName(msg tea.Msg) string {
	switch msg.(type) {
	case snapshotMsg:
		return "snapshot"
	case guessMsg:
		return "guess"
	case summaryMsg:
		return "summary"
	case historyMsg:
		return "history"
	default:
		return "other"
	}
}
