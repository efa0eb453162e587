package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/tuiear/internal/model"
)

func TestSessionMetricsCountsTimeouts(t *testing.T) {
	acc, npm := SessionMetrics(6, 1, 1, 120000)
	if acc != 0.75 {
		t.Fatalf("expected accuracy 0.75, got %f", acc)
	}
	if npm != 3 {
		t.Fatalf("expected 3 notes/min, got %f", npm)
	}
	acc, npm = SessionMetrics(0, 0, 0, 0)
	if acc != 0 || npm != 0 {
		t.Fatalf("expected zero metrics, got %f %f", acc, npm)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	got := Sparkline([]float64{0, 100})
	if got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestSelectWeakNotes(t *testing.T) {
	aggs := []model.NoteAggregate{
		{Note: "C", Correct: 9, Incorrect: 1},
		{Note: "F#", Correct: 1, Timeouts: 3},
		{Note: "A", Correct: 5, Incorrect: 5},
		{Note: "B"},
		{Note: "bogus", Incorrect: 10},
	}
	weak := SelectWeakNotes(aggs, 2)
	if len(weak) != 2 || weak[0] != model.PitchClass(6) || weak[1] != model.PitchClass(9) {
		t.Fatalf("unexpected weak notes %v", weak)
	}
	if all := SelectWeakNotes(aggs, 0); len(all) != 3 {
		t.Fatalf("expected every attempted note, got %v", all)
	}
	if none := SelectWeakNotes(nil, 3); none != nil {
		t.Fatalf("expected nil, got %v", none)
	}
}

func TestRenderNoteTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	err := RenderNoteTable(&buf, "Per-Note", []model.NoteAggregate{
		{Note: "C", Correct: 4},
		{Note: "E", Correct: 1, Timeouts: 1},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[2], "E ") || !strings.HasPrefix(lines[3], "C ") {
		t.Fatalf("expected E before C:\n%s", buf.String())
	}
}

func TestRenderCurvesFitsWidth(t *testing.T) {
	sessions := make([]model.SessionAggregate, 40)
	for i := range sessions {
		sessions[i] = model.SessionAggregate{Correct: i, Incorrect: 1, DurationMs: 60000}
	}
	var buf bytes.Buffer
	if err := RenderCurves(&buf, sessions, 1, 40); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "Learning Curves" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	acc := lines[1]
	if !strings.HasPrefix(acc, "Accuracy") {
		t.Fatalf("unexpected curve line %q", acc)
	}
	spark := acc[curveLabelWidth+1 : curveLabelWidth+1+sparkWidthFor(40)]
	if len(spark) != 14 || strings.ContainsAny(spark[len(spark)-1:], " .") {
		t.Fatalf("unexpected sparkline %q", spark)
	}
	if !strings.HasSuffix(acc, "97.5%") {
		t.Fatalf("expected latest accuracy, got %q", acc)
	}
}
