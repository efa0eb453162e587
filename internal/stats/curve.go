package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/tuiear/internal/model"
)

const (
	defaultCurveWidth = 60
	curveLabelWidth   = 14
)

// Curve is one named learning curve.
type Curve struct {
	Name   string
	Values []float64
	Unit   string
}

// LearningCurves returns smoothed accuracy (percent) and notes-per-minute
// series for sessions, oldest first.
func LearningCurves(sessions []model.SessionAggregate, window int) []Curve {
	accs := make([]float64, len(sessions))
	npms := make([]float64, len(sessions))
	for i, s := range sessions {
		acc, npm := SessionMetrics(s.Correct, s.Incorrect, s.Timeouts, s.DurationMs)
		accs[i] = acc * 100
		npms[i] = npm
	}
	return []Curve{
		{Name: "Accuracy", Values: MovingAverage(accs, window), Unit: "%"},
		{Name: "Notes/min", Values: MovingAverage(npms, window)},
	}
}

// RenderCurves prints learning curves as sparklines fitted to totalWidth
// columns. Older points are dropped when a curve does not fit.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth int) error {
	if len(sessions) == 0 {
		return nil
	}
	width := sparkWidthFor(totalWidth)
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	for _, c := range LearningCurves(sessions, window) {
		values := c.Values
		if len(values) > width {
			values = values[len(values)-width:]
		}
		last := values[len(values)-1]
		line := fmt.Sprintf("%-*s %s %.1f%s", curveLabelWidth, c.Name, Sparkline(values), last, c.Unit)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// sparkWidthFor leaves room for the label and the trailing value.
func sparkWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return defaultCurveWidth
	}
	width := totalWidth - curveLabelWidth - 12
	if width < 10 {
		return 10
	}
	return width
}

// TerminalWidth reports the width of stdout, or 0 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}
