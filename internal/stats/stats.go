// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/tuiear/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes accuracy and answered notes per minute for a
// session. Timeouts count against accuracy.
func SessionMetrics(correct, incorrect, timeouts int, durationMs int64) (accuracy, npm float64) {
	den := float64(correct + incorrect + timeouts)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	if durationMs <= 0 {
		return accuracy, 0
	}
	minutes := float64(durationMs) / 60000.0
	npm = float64(correct) / minutes
	return accuracy, npm
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary table for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc, totalNPM float64
	bestStreak := 0
	outcomes := map[string]int{}
	for _, s := range sessions {
		acc, npm := SessionMetrics(s.Correct, s.Incorrect, s.Timeouts, s.DurationMs)
		totalAcc += acc
		totalNPM += npm
		if s.BestStreak > bestStreak {
			bestStreak = s.BestStreak
		}
		outcomes[s.Outcome]++
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Accuracy: %.2f%%", (totalAcc/count)*100),
		fmt.Sprintf("Avg Notes/min: %.2f", totalNPM/count),
		fmt.Sprintf("Best Streak: %d", bestStreak),
		fmt.Sprintf("Outcomes: %s", formatOutcomes(outcomes)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatOutcomes(outcomes map[string]int) string {
	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, outcomes[k])
	}
	return strings.Join(parts, ", ")
}

// NoteAccuracy is the share of correct answers for a note aggregate,
// counting timeouts as misses.
func NoteAccuracy(agg model.NoteAggregate) float64 {
	total := agg.Correct + agg.Incorrect + agg.Timeouts
	if total == 0 {
		return 0
	}
	return float64(agg.Correct) / float64(total)
}

// RenderNoteTable prints per-note aggregates, weakest first.
func RenderNoteTable(w io.Writer, title string, aggs []model.NoteAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No note stats found.")
		return err
	}
	rows := make([]model.NoteAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := NoteAccuracy(rows[i]), NoteAccuracy(rows[j])
		if ai == aj {
			return rows[i].Note < rows[j].Note
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Note", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect", "Timeouts"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		lat := 0.0
		if r.LatencyCount > 0 {
			lat = float64(r.LatencySumMs) / float64(r.LatencyCount)
		}
		tableRows = append(tableRows, []string{
			r.Note,
			fmt.Sprintf("%.2f%%", NoteAccuracy(r)*100),
			fmt.Sprintf("%.1f", lat),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%d", r.Timeouts),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
