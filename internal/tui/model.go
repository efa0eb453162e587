// Package tui provides the Bubble Tea practice screen.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
)

const barWidth = 40

// Controller is what the screen drives. *Session implements it.
type Controller interface {
	Events() <-chan tea.Msg
	Guess(note model.Note) bool
	TogglePause()
	Replay()
	Restart()
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	ctrl Controller

	width  int
	height int

	snap      Snapshot
	history   History
	lastGuess string
	report    *modes.Report
	err       error

	bar progress.Model
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	revealStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the practice screen for ctrl.
func NewModel(ctrl Controller) *Model {
	return &Model{
		ctrl: ctrl,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		return <-events
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case snapshotMsg:
		m.snap = Snapshot(msg)
		if m.snap.Session == model.SessionPlaying && m.snap.Round == model.RoundWaitingInput {
			m.report = nil
		}
		return m, m.waitForEvent()
	case guessMsg:
		m.lastGuess = msg.result.Feedback
		return m, m.waitForEvent()
	case summaryMsg:
		report := msg.report
		m.report = &report
		m.history = msg.history
		return m, m.waitForEvent()
	case historyMsg:
		m.history = History(msg)
		return m, m.waitForEvent()
	case errMsg:
		m.err = msg.err
		return m, m.waitForEvent()
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeySpace:
		m.ctrl.TogglePause()
		return nil
	case tea.KeyRunes:
	default:
		return nil
	}
	for _, r := range msg.Runes {
		switch r {
		case 'q':
			return tea.Quit
		case 'r':
			m.ctrl.Replay()
			continue
		case 'n':
			if m.snap.Session != model.SessionPlaying && m.snap.Session != model.SessionPaused {
				m.err = nil
				m.lastGuess = ""
				m.ctrl.Restart()
			}
			continue
		}
		if note, ok := noteForKey(r); ok {
			m.ctrl.Guess(note)
		}
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.report != nil && m.snap.Session != model.SessionPlaying && m.snap.Session != model.SessionPaused {
		content = m.renderSummary()
	} else {
		content = m.renderRound()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderRound() string {
	lines := []string{titleStyle.Render(m.renderTitle())}
	if bar := m.renderModeBar(); bar != "" {
		lines = append(lines, bar)
	}
	lines = append(lines, "", m.renderPrompt(), "")
	if m.snap.Feedback != "" {
		lines = append(lines, m.feedbackStyle().Render(m.snap.Feedback))
	} else if m.lastGuess != "" {
		lines = append(lines, pendingStyle.Render(m.lastGuess))
	}
	if m.err != nil {
		lines = append(lines, incorrectStyle.Render(m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderTitle() string {
	title := strings.ToUpper(string(m.snap.Mode))
	if m.snap.RoundNum > 0 {
		title = fmt.Sprintf("%s · round %d", title, m.snap.RoundNum)
	}
	if m.snap.Session == model.SessionPaused {
		title += " · paused"
	}
	if m.snap.Clock.Limit > 0 {
		title = fmt.Sprintf("%s · %s left", title, formatClock(m.snap.Clock.Remaining))
	} else if m.snap.Clock.Elapsed > 0 {
		title = fmt.Sprintf("%s · %s", title, formatClock(m.snap.Clock.Elapsed))
	}
	return title
}

func (m *Model) renderModeBar() string {
	switch m.snap.Mode {
	case modes.Survival:
		return fmt.Sprintf("%s %3.0f hp", m.bar.ViewAs(m.snap.Health/modes.MaxHealth), m.snap.Health)
	case modes.Rush:
		if m.snap.Target <= 0 {
			return ""
		}
		return fmt.Sprintf("%s %d/%d", m.bar.ViewAs(float64(m.snap.Hit)/float64(m.snap.Target)), m.snap.Hit, m.snap.Target)
	case modes.Sandbox:
		parts := make([]string, 0, len(m.snap.Targets))
		for _, t := range m.snap.Targets {
			mark := pendingStyle.Render("○")
			if t.Reached {
				mark = correctStyle.Render("●")
			}
			if t.Name == "accuracy" {
				parts = append(parts, fmt.Sprintf("%s %s %.0f%%/%.0f%%", mark, t.Name, t.Current*100, t.Goal*100))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %s %.0f/%.0f", mark, t.Name, t.Current, t.Goal))
		}
		return strings.Join(parts, "  ")
	default:
		return ""
	}
}

func (m *Model) renderPrompt() string {
	switch {
	case m.snap.Round == model.RoundTimeoutIntermission && m.snap.Reveal != "":
		return revealStyle.Render("It was " + m.snap.Reveal)
	case m.snap.Session == model.SessionPlaying && m.snap.Round == model.RoundWaitingInput:
		prompt := "♪ ?"
		if m.snap.Timeout > 0 {
			left := m.snap.Timeout - m.snap.RoundElapsed
			if left < 0 {
				left = 0
			}
			prompt = fmt.Sprintf("%s  %.1fs", prompt, left.Seconds())
		}
		return revealStyle.Render(prompt)
	default:
		return pendingStyle.Render("♪")
	}
}

func (m *Model) feedbackStyle() lipgloss.Style {
	switch m.snap.Round {
	case model.RoundCorrectFeedback:
		return correctStyle
	case model.RoundIncorrectFeedback, model.RoundTimeoutIntermission:
		return incorrectStyle
	default:
		return pendingStyle
	}
}

func (m *Model) renderSummary() string {
	r := m.report
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", strings.ToUpper(string(r.Mode)), r.Outcome)),
		"",
		fmt.Sprintf("Accuracy %.1f%%", r.Accuracy()*100),
		fmt.Sprintf("Correct %d · Incorrect %d · Timeouts %d", r.Correct, r.Incorrect, r.Timeouts),
		fmt.Sprintf("Best streak %d · Time %s", r.BestStreak, formatClock(r.Elapsed)),
	}
	if r.Mode == modes.Survival {
		lines = append(lines, fmt.Sprintf("Health %.0f", r.Health))
	}
	if weak := weakest(r.Notes); weak != "" {
		lines = append(lines, "Weakest "+weak)
	}
	lines = append(lines, "", pendingStyle.Render("n new session · q quit"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderFooter() string {
	segments := []string{"a-k play · r replay · space pause"}
	if m.history.HasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%% · %.1f/min", m.history.LastAcc*100, m.history.LastNPM))
		segments = append(segments, fmt.Sprintf("All-time %.1f%% · %.1f/min", m.history.AllAcc*100, m.history.AllNPM))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// weakest names the note with the most misses.
func weakest(notes []model.NoteStats) string {
	best := ""
	worst := 0
	for _, n := range notes {
		misses := n.Incorrect + n.Timeouts
		if misses > worst {
			worst = misses
			best = n.Note
		}
	}
	return best
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
