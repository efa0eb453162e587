package tui

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiear/internal/game"
	"github.com/verte-zerg/tuiear/internal/loop"
	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
	"github.com/verte-zerg/tuiear/internal/store"
)

type inlineRunner struct{}

func (inlineRunner) Post(fn func()) bool {
	fn()
	return true
}

func (inlineRunner) Do(fn func()) bool {
	fn()
	return true
}

type sessionHarness struct {
	sess  *Session
	orch  *game.Orchestrator
	sched *loop.Manual
	store *store.Store
}

func newHarness(t *testing.T, cfg model.Config, seed func(*store.Store)) *sessionHarness {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tuiear.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if seed != nil {
		seed(st)
	}
	reg := modes.NewRegistry()
	if err := modes.RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := loop.NewManual(time.Unix(1000, 0))
	orch := game.New(game.Options{
		Registry:  reg,
		Scheduler: sched,
		Logger:    logger,
		Source:    rand.NewSource(3),
	})
	settings := game.Settings{
		Mode:         modes.Rush,
		ModeSettings: modes.RushSettings{TargetNotes: 2},
		Filter:       model.DefaultNoteFilter(),
		NoteDuration: time.Second,
		Timeout:      3 * time.Second,
		AutoAdvance:  time.Second,
	}
	sess := NewSession(SessionOptions{
		Runner:       inlineRunner{},
		Orchestrator: orch,
		Settings:     settings,
		Config:       cfg,
		Store:        st,
		Logger:       logger,
	})
	return &sessionHarness{sess: sess, orch: orch, sched: sched, store: st}
}

func drain(s *Session) []tea.Msg {
	var out []tea.Msg
	for {
		select {
		case msg := <-s.Events():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastSnapshot(t *testing.T, msgs []tea.Msg) Snapshot {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if snap, ok := msgs[i].(snapshotMsg); ok {
			return Snapshot(snap)
		}
	}
	t.Fatalf("no snapshot in %d messages", len(msgs))
	return Snapshot{}
}

func findSummary(msgs []tea.Msg) (summaryMsg, bool) {
	for _, msg := range msgs {
		if sum, ok := msg.(summaryMsg); ok {
			return sum, true
		}
	}
	return summaryMsg{}, false
}

func (h *sessionHarness) guessCorrect(t *testing.T) {
	t.Helper()
	rc, ok := h.orch.Round()
	if !ok {
		t.Fatalf("no round in progress")
	}
	if !h.sess.Guess(rc.Stimulus.Root) {
		t.Fatalf("guess rejected by runner")
	}
}

func TestSessionPublishesSnapshots(t *testing.T) {
	h := newHarness(t, model.Config{Mode: "rush"}, nil)
	h.sess.Start()
	snap := lastSnapshot(t, drain(h.sess))
	if snap.Session != model.SessionPlaying || snap.Round != model.RoundWaitingInput {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Mode != modes.Rush || snap.RoundNum != 1 || snap.Target != 2 || snap.Timeout != 3*time.Second {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	h.sched.Advance(3 * time.Second)
	snap = lastSnapshot(t, drain(h.sess))
	if snap.Round != model.RoundTimeoutIntermission || snap.Reveal == "" || snap.Timeouts != 1 {
		t.Fatalf("expected timeout reveal, got %+v", snap)
	}
}

func TestSessionRecordsCompletedSession(t *testing.T) {
	h := newHarness(t, model.Config{Mode: "rush"}, nil)
	h.sess.Start()
	h.guessCorrect(t)
	h.guessCorrect(t)

	msgs := drain(h.sess)
	sum, ok := findSummary(msgs)
	if !ok {
		t.Fatalf("expected a summary")
	}
	if sum.report.Outcome != modes.OutcomeWon || sum.report.Correct != 2 {
		t.Fatalf("unexpected report %+v", sum.report)
	}
	if !sum.history.HasLast || sum.history.LastAcc != 1 {
		t.Fatalf("unexpected history %+v", sum.history)
	}

	sessions, err := h.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Mode != "rush" || sessions[0].Outcome != modes.OutcomeWon {
		t.Fatalf("unexpected stored sessions %+v", sessions)
	}
}

func TestSessionCloseRecordsAbandoned(t *testing.T) {
	h := newHarness(t, model.Config{Mode: "rush"}, nil)
	h.sess.Start()
	h.sess.Close()

	if h.orch.SessionState() != model.SessionIdle {
		t.Fatalf("expected idle after close, got %s", h.orch.SessionState())
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", h.sched.Pending())
	}
	sessions, err := h.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Outcome != modes.OutcomeAbandoned {
		t.Fatalf("unexpected stored sessions %+v", sessions)
	}
}

func TestSessionTogglePauseAndRestart(t *testing.T) {
	h := newHarness(t, model.Config{Mode: "rush"}, nil)
	h.sess.Start()
	h.sess.TogglePause()
	if h.orch.SessionState() != model.SessionPaused {
		t.Fatalf("expected paused, got %s", h.orch.SessionState())
	}
	h.sess.TogglePause()
	if h.orch.SessionState() != model.SessionPlaying {
		t.Fatalf("expected playing, got %s", h.orch.SessionState())
	}

	h.sess.Restart()
	rc, ok := h.orch.Round()
	if !ok || rc.Number != 1 || h.orch.SessionState() != model.SessionPlaying {
		t.Fatalf("expected a fresh session, got round %+v", rc)
	}
}

func TestSessionLoadsHistory(t *testing.T) {
	seed := func(st *store.Store) {
		rec := model.SessionRecord{
			StartedAt:  time.Unix(0, 0).UTC(),
			EndedAt:    time.Unix(60, 0).UTC(),
			Mode:       "rush",
			Outcome:    modes.OutcomeWon,
			Correct:    3,
			Incorrect:  1,
			DurationMs: 60000,
		}
		if _, err := st.InsertSession(context.Background(), rec, []model.NoteStats{{Note: "D", Correct: 1, Incorrect: 1}}); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
	h := newHarness(t, model.Config{Mode: "rush", FocusWeak: true, WeakWindow: 5, WeakTop: 1, WeakFactor: 3}, seed)

	var history History
	for _, msg := range drain(h.sess) {
		if hm, ok := msg.(historyMsg); ok {
			history = History(hm)
		}
	}
	if !history.HasLast || history.LastAcc != 0.75 || history.LastNPM != 3 {
		t.Fatalf("unexpected history %+v", history)
	}
	if h.sess.weakNoticed {
		t.Fatalf("weak notes exist, no notice expected")
	}

	empty := newHarness(t, model.Config{Mode: "rush", FocusWeak: true, WeakWindow: 5}, nil)
	if !empty.sess.weakNoticed {
		t.Fatalf("expected notice when no weak-note stats exist")
	}
}
