package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuiear/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "tuiear.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func insert(t *testing.T, st *Store, mode string, endedAt time.Time, notes []model.NoteStats) int64 {
	t.Helper()
	rec := model.SessionRecord{
		StartedAt:  endedAt.Add(-time.Minute),
		EndedAt:    endedAt,
		Mode:       mode,
		Outcome:    "won",
		Rounds:     10,
		Correct:    8,
		Incorrect:  1,
		Timeouts:   1,
		BestStreak: 5,
		DurationMs: time.Minute.Milliseconds(),
	}
	id, err := st.InsertSession(context.Background(), rec, notes)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return id
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()
	insert(t, st, "rush", base, nil)
	insert(t, st, "survival", base.Add(time.Hour), nil)
	insert(t, st, "rush", base.Add(2*time.Hour), nil)

	all, err := st.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 || !all[0].EndedAt.Equal(base) {
		t.Fatalf("unexpected sessions %+v", all)
	}

	since := base.Add(30 * time.Minute)
	rush, err := st.ListSessions(context.Background(), model.StatsConfig{Mode: "rush", Since: &since})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rush) != 1 || rush[0].Mode != "rush" || rush[0].Timeouts != 1 || rush[0].BestStreak != 5 {
		t.Fatalf("unexpected filtered sessions %+v", rush)
	}
}

func TestGetWeakNotesUsesRecentWindow(t *testing.T) {
	st := openTestStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()
	insert(t, st, "rush", base, []model.NoteStats{{Note: "C", Correct: 0, Incorrect: 9}})
	insert(t, st, "rush", base.Add(time.Hour), []model.NoteStats{{Note: "D", Correct: 1, Incorrect: 3, Timeouts: 1, LatencySumMs: 900, LatencyCount: 1}})
	insert(t, st, "sandbox", base.Add(2*time.Hour), []model.NoteStats{{Note: "E", Correct: 4}})

	aggs, err := st.GetWeakNotes(context.Background(), 1, "rush")
	if err != nil {
		t.Fatalf("get weak notes: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Note != "D" || aggs[0].Timeouts != 1 || aggs[0].LatencySumMs != 900 {
		t.Fatalf("unexpected aggregates %+v", aggs)
	}

	aggs, err = st.GetWeakNotes(context.Background(), 0, "")
	if err != nil || aggs != nil {
		t.Fatalf("expected nothing for empty window, got %+v, %v", aggs, err)
	}
}

func TestListNoteAggregatesForSessions(t *testing.T) {
	st := openTestStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()
	a := insert(t, st, "rush", base, []model.NoteStats{{Note: "A", Correct: 2, Incorrect: 1}})
	b := insert(t, st, "rush", base.Add(time.Minute), []model.NoteStats{{Note: "A", Correct: 3}, {Note: "B", Timeouts: 2}})

	aggs, err := st.ListNoteAggregatesForSessions(context.Background(), []int64{a, b})
	if err != nil {
		t.Fatalf("list aggregates: %v", err)
	}
	byNote := map[string]model.NoteAggregate{}
	for _, agg := range aggs {
		byNote[agg.Note] = agg
	}
	if byNote["A"].Correct != 5 || byNote["A"].Incorrect != 1 || byNote["B"].Timeouts != 2 {
		t.Fatalf("unexpected aggregates %+v", byNote)
	}
}
