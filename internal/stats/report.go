package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	NoteAggsAll      []model.NoteAggregate
	NoteAggsWindow   []model.NoteAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	allIDs := sessionIDs(sessions)
	windowIDs := lastSessionIDs(sessions, cfg.CurveWindow)
	noteAggsAll, err := st.ListNoteAggregatesForSessions(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	noteAggsWindow, err := st.ListNoteAggregatesForSessions(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		NoteAggsAll:      noteAggsAll,
		NoteAggsWindow:   noteAggsWindow,
	}, nil
}

// Render writes the text report. Curves are fitted to width columns.
func (r Report) Render(w io.Writer, window, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCurves(w, r.Sessions, window, width); err != nil {
		return err
	}
	if err := RenderNoteTable(w, "Per-Note (All)", r.NoteAggsAll); err != nil {
		return err
	}
	return RenderNoteTable(w, "Per-Note (Windowed)", r.NoteAggsWindow)
}

type yamlSession struct {
	ID          int64     `yaml:"id"`
	EndedAt     time.Time `yaml:"ended_at"`
	Mode        string    `yaml:"mode"`
	Outcome     string    `yaml:"outcome"`
	Correct     int       `yaml:"correct"`
	Incorrect   int       `yaml:"incorrect"`
	Timeouts    int       `yaml:"timeouts"`
	BestStreak  int       `yaml:"best_streak"`
	Accuracy    float64   `yaml:"accuracy"`
	NotesPerMin float64   `yaml:"notes_per_minute"`
	DurationMs  int64     `yaml:"duration_ms"`
}

type yamlNote struct {
	Note         string  `yaml:"note"`
	Correct      int     `yaml:"correct"`
	Incorrect    int     `yaml:"incorrect"`
	Timeouts     int     `yaml:"timeouts"`
	Accuracy     float64 `yaml:"accuracy"`
	AvgLatencyMs float64 `yaml:"avg_latency_ms,omitempty"`
}

type yamlReport struct {
	Sessions []yamlSession `yaml:"sessions"`
	Notes    []yamlNote    `yaml:"notes"`
	Window   []yamlNote    `yaml:"window_notes"`
}

// WriteYAML exports the report as YAML.
func (r Report) WriteYAML(w io.Writer) error {
	out := yamlReport{
		Sessions: make([]yamlSession, 0, len(r.Sessions)),
		Notes:    yamlNotes(r.NoteAggsAll),
		Window:   yamlNotes(r.NoteAggsWindow),
	}
	for _, s := range r.Sessions {
		acc, npm := SessionMetrics(s.Correct, s.Incorrect, s.Timeouts, s.DurationMs)
		out.Sessions = append(out.Sessions, yamlSession{
			ID:          s.SessionID,
			EndedAt:     s.EndedAt,
			Mode:        s.Mode,
			Outcome:     s.Outcome,
			Correct:     s.Correct,
			Incorrect:   s.Incorrect,
			Timeouts:    s.Timeouts,
			BestStreak:  s.BestStreak,
			Accuracy:    acc,
			NotesPerMin: npm,
			DurationMs:  s.DurationMs,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	return enc.Close()
}

func yamlNotes(aggs []model.NoteAggregate) []yamlNote {
	out := make([]yamlNote, 0, len(aggs))
	for _, agg := range aggs {
		n := yamlNote{
			Note:      agg.Note,
			Correct:   agg.Correct,
			Incorrect: agg.Incorrect,
			Timeouts:  agg.Timeouts,
			Accuracy:  NoteAccuracy(agg),
		}
		if agg.LatencyCount > 0 {
			n.AvgLatencyMs = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		out = append(out, n)
	}
	return out
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
