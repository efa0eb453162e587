// Package main provides the CLI entrypoint for tuiear.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/verte-zerg/tuiear/internal/audio"
	"github.com/verte-zerg/tuiear/internal/config"
	"github.com/verte-zerg/tuiear/internal/game"
	"github.com/verte-zerg/tuiear/internal/loop"
	"github.com/verte-zerg/tuiear/internal/midiin"
	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
	"github.com/verte-zerg/tuiear/internal/stats"
	"github.com/verte-zerg/tuiear/internal/statsui"
	"github.com/verte-zerg/tuiear/internal/store"
	"github.com/verte-zerg/tuiear/internal/tui"
)

const (
	defaultMode            = "rush"
	defaultTimeoutSeconds  = 5.0
	defaultAutoAdvanceMs   = 1500
	defaultNoteDurationMs  = 1000
	defaultFeedbackDelayMs = 600
	defaultNotes           = "C,D,E,F,G,A,B"
	defaultMinOctave       = 3
	defaultMaxOctave       = 5
	defaultChordQualities  = "major,minor"
	defaultWeakTop         = 3
	defaultWeakFactor      = 2.0
	defaultWeakWindow      = 20
	defaultCurveWindow     = 5
	autoMIDIPort           = "auto"

	// uiTickInterval drives the countdown and health bar refresh.
	uiTickInterval = 100 * time.Millisecond
)

var (
	practiceMode           string
	practiceTimeout        float64
	practiceAutoAdvance    int
	practiceNoteDuration   int
	practiceFeedbackDelay  int
	practiceNotes          string
	practiceMinOctave      int
	practiceMaxOctave      int
	practiceChords         bool
	practiceChordQualities string
	practiceFocusWeak      bool
	practiceWeakTop        int
	practiceWeakFactor     float64
	practiceWeakWindow     int
	practiceSound          bool
	practiceMIDIPort       string
	practiceTarget         int
	practiceDuration       int
	practiceDebug          bool

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsFormat      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiear",
		Short:         "TUI ear trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&practiceMode, "mode", defaultMode, "practice mode (rush, survival, sandbox)")
	flags.Float64Var(&practiceTimeout, "timeout", defaultTimeoutSeconds, "seconds to answer a round (0 disables)")
	flags.IntVar(&practiceAutoAdvance, "auto-advance", defaultAutoAdvanceMs, "milliseconds the answer is shown after a timeout")
	flags.IntVar(&practiceNoteDuration, "note-duration", defaultNoteDurationMs, "milliseconds each stimulus sounds")
	flags.IntVar(&practiceFeedbackDelay, "feedback-delay", defaultFeedbackDelayMs, "milliseconds feedback is shown after a guess")
	flags.StringVar(&practiceNotes, "notes", defaultNotes, "comma separated pitch classes to practice")
	flags.IntVar(&practiceMinOctave, "min-octave", defaultMinOctave, "lowest octave played")
	flags.IntVar(&practiceMaxOctave, "max-octave", defaultMaxOctave, "highest octave played")
	flags.BoolVar(&practiceChords, "chords", false, "mix triads into the stimuli")
	flags.StringVar(&practiceChordQualities, "chord-qualities", defaultChordQualities, "comma separated chord qualities")
	flags.BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak notes")
	flags.IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak notes to focus on")
	flags.Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak notes")
	flags.IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak notes")
	flags.BoolVar(&practiceSound, "sound", true, "play stimuli through the speaker")
	flags.StringVar(&practiceMIDIPort, "midi-port", "", "MIDI input port name, or \"auto\" for the first one")
	flags.IntVar(&practiceTarget, "target", 0, "notes to identify (rush) or target notes (sandbox)")
	flags.IntVar(&practiceDuration, "duration", 0, "session length in seconds (survival, sandbox)")
	flags.BoolVar(&practiceDebug, "debug", false, "log debug messages")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newModesCmd())
	rootCmd.AddCommand(newPortsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p := fileCfg.Practice
	applyStringConfig(cmd, "mode", &practiceMode, p.Mode)
	applyFloatConfig(cmd, "timeout", &practiceTimeout, p.TimeoutSeconds)
	applyIntConfig(cmd, "auto-advance", &practiceAutoAdvance, p.AutoAdvanceMs)
	applyIntConfig(cmd, "note-duration", &practiceNoteDuration, p.NoteDurationMs)
	applyIntConfig(cmd, "feedback-delay", &practiceFeedbackDelay, p.FeedbackDelayMs)
	applyStringConfig(cmd, "notes", &practiceNotes, p.Notes)
	applyIntConfig(cmd, "min-octave", &practiceMinOctave, p.MinOctave)
	applyIntConfig(cmd, "max-octave", &practiceMaxOctave, p.MaxOctave)
	applyBoolConfig(cmd, "chords", &practiceChords, p.Chords)
	applyStringConfig(cmd, "chord-qualities", &practiceChordQualities, p.ChordQualities)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, p.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, p.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, p.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, p.WeakWindow)
	applyBoolConfig(cmd, "sound", &practiceSound, p.Sound)
	applyStringConfig(cmd, "midi-port", &practiceMIDIPort, p.MIDIPort)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if err := modes.Init(); err != nil {
		return fmt.Errorf("failed to register modes: %w", err)
	}
	reg := modes.Default()
	id := modes.ID(cfg.Mode)
	if !reg.IsRegistered(id) {
		return fmt.Errorf("unknown mode %q (run: tuiear modes)", cfg.Mode)
	}
	modeSettings, err := fileCfg.ModeSettings(reg, id)
	if err != nil {
		return fmt.Errorf("failed to read %s settings: %w", id, err)
	}
	modeSettings = applyModeFlags(cmd, modeSettings)
	if err := modeSettings.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := initLogger(config.DefaultLogPath(), practiceDebug)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	var player *audio.Player
	if cfg.Sound {
		player, err = audio.NewPlayer(logger)
		if err != nil {
			logger.Warn("sound disabled", "err", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := loop.New()
	go l.Run(ctx)

	orch := game.New(game.Options{
		Registry:     reg,
		Scheduler:    l,
		Logger:       logger,
		TickInterval: uiTickInterval,
		WeakFactor:   cfg.WeakFactor,
	})
	sess := tui.NewSession(tui.SessionOptions{
		Runner:       l,
		Orchestrator: orch,
		Settings: game.Settings{
			Mode:          id,
			ModeSettings:  modeSettings,
			Filter:        cfg.Filter,
			NoteDuration:  cfg.NoteDuration,
			Timeout:       cfg.Timeout,
			AutoAdvance:   cfg.AutoAdvance,
			FeedbackDelay: cfg.FeedbackDelay,
		},
		Config: cfg,
		Store:  st,
		Player: player,
		Logger: logger,
	})

	if cfg.MIDIPort != "" {
		closeMIDI, err := openMIDI(cfg.MIDIPort, logger, func(n model.Note) { sess.Guess(n) })
		if err != nil {
			return err
		}
		defer closeMIDI()
	}

	sess.Start()
	program := tea.NewProgram(tui.NewModel(sess), tea.WithAltScreen())
	_, runErr := program.Run()
	sess.Close()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func buildConfig() (model.Config, error) {
	pcs, err := model.ParsePitchClasses(practiceNotes)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --notes: %w", err)
	}
	var qualities []model.ChordQuality
	if practiceChords {
		qualities, err = model.ParseChordQualities(practiceChordQualities)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --chord-qualities: %w", err)
		}
	}
	port := strings.TrimSpace(practiceMIDIPort)
	return model.Config{
		Mode:          strings.ToLower(strings.TrimSpace(practiceMode)),
		Timeout:       time.Duration(practiceTimeout * float64(time.Second)),
		AutoAdvance:   time.Duration(practiceAutoAdvance) * time.Millisecond,
		NoteDuration:  time.Duration(practiceNoteDuration) * time.Millisecond,
		FeedbackDelay: time.Duration(practiceFeedbackDelay) * time.Millisecond,
		Filter: model.NoteFilter{
			PitchClasses:   pcs,
			MinOctave:      practiceMinOctave,
			MaxOctave:      practiceMaxOctave,
			Chords:         practiceChords,
			ChordQualities: qualities,
		},
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
		Sound:      practiceSound,
		MIDIPort:   port,
	}, nil
}

// applyModeFlags lets --target and --duration override the mode settings.
func applyModeFlags(cmd *cobra.Command, s modes.Settings) modes.Settings {
	target := cmd.Flags().Changed("target")
	duration := cmd.Flags().Changed("duration")
	switch ms := s.(type) {
	case modes.RushSettings:
		if target {
			ms.TargetNotes = practiceTarget
		}
		return ms
	case modes.SurvivalSettings:
		if duration {
			ms.SessionDuration = time.Duration(practiceDuration) * time.Second
		}
		return ms
	case modes.SandboxSettings:
		if target {
			n := practiceTarget
			ms.TargetNotes = &n
		}
		if duration {
			ms.SessionDuration = time.Duration(practiceDuration) * time.Second
		}
		return ms
	default:
		return s
	}
}

func openMIDI(port string, logger *slog.Logger, onNote func(model.Note)) (func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	pattern := port
	if strings.EqualFold(port, autoMIDIPort) {
		pattern = ""
	}
	in := midiin.New(drv, logger, onNote)
	if err := in.Open(pattern); err != nil {
		drv.Close()
		return nil, err
	}
	return func() {
		if cerr := in.Close(); cerr != nil {
			logger.Warn("failed to close MIDI input", "err", cerr)
		}
		drv.Close()
	}, nil
}

// initLogger sends logs to path, since the TUI owns the terminal.
func initLogger(path string, debug bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := newLogger(f, debug)
	slog.SetDefault(logger)
	return logger, func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List practice modes",
		Args:  cobra.NoArgs,
		RunE:  runModesCmd,
	}
}

func runModesCmd(cmd *cobra.Command, _ []string) error {
	if err := modes.Init(); err != nil {
		return fmt.Errorf("failed to register modes: %w", err)
	}
	return writeModes(cmd.OutOrStdout(), modes.Default())
}

func writeModes(w io.Writer, reg *modes.Registry) error {
	for _, t := range []modes.TrainingType{modes.Challenge, modes.Practice} {
		for _, d := range reg.AllByType(t) {
			if _, err := fmt.Fprintf(w, "%-9s %-10s %s\n", d.ID, t, d.Description); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI input ports",
		Args:  cobra.NoArgs,
		RunE:  runPortsCmd,
	}
}

func runPortsCmd(cmd *cobra.Command, _ []string) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()
	in := midiin.New(drv, newLogger(os.Stderr, false), nil)
	names, err := in.Ports()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logErrln("No MIDI input ports found.")
		return midiin.ErrNoPort
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsFormat, "format", "tui", "output format (tui, text, yaml)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig()
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(statsFormat))
	if format != "tui" && format != "text" && format != "yaml" {
		return fmt.Errorf("--format must be tui, text or yaml")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if format == "tui" {
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if format == "yaml" {
		return report.WriteYAML(out)
	}
	return report.Render(out, cfg.CurveWindow, stats.TerminalWidth())
}

func buildStatsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	return model.StatsConfig{
		Mode:        strings.ToLower(strings.TrimSpace(statsMode)),
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuiear configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q               # rush, survival or sandbox
# timeout-seconds = %.1f      # Seconds to answer a round (0 disables)
# auto-advance-ms = %d     # How long a timed-out answer is shown
# note-duration-ms = %d    # How long each stimulus sounds
# feedback-delay-ms = %d    # How long feedback is shown after a guess
# notes = %q  # Pitch classes to practice
# min-octave = %d              # Lowest octave played
# max-octave = %d              # Highest octave played
# chords = false              # Mix triads into the stimuli
# chord-qualities = %q  # major, minor, diminished, augmented
# focus-weak = false          # Bias practice toward weak notes
# weak-top = %d                # Number of weak notes to focus on
# weak-factor = %.1f           # Weight factor for weak notes
# weak-window = %d            # Number of recent sessions to compute weak notes
# sound = true                # Play stimuli through the speaker
# midi-port = "auto"          # MIDI input port name, or "auto"

[rush]
# target-notes = %d

[survival]
# duration-seconds = %d
# health-drain-rate = %.1f    # Health lost per second
# health-recovery = %.1f     # Health gained per correct answer
# health-damage = %.1f       # Health lost per wrong answer

[sandbox]
# duration-seconds = %d      # 0 keeps the session open until you quit
# target-accuracy = 0.9
# target-streak = 10
# target-notes = 50
`,
		defaultMode,
		defaultTimeoutSeconds,
		defaultAutoAdvanceMs,
		defaultNoteDurationMs,
		defaultFeedbackDelayMs,
		defaultNotes,
		defaultMinOctave,
		defaultMaxOctave,
		defaultChordQualities,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		modes.DefaultRushTarget,
		int(modes.DefaultSurvivalDuration/time.Second),
		modes.DefaultHealthDrainRate,
		modes.DefaultHealthRecovery,
		modes.DefaultHealthDamage,
		int(modes.DefaultSandboxDuration/time.Second),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	if cfg.AutoAdvance < 0 || cfg.NoteDuration < 0 || cfg.FeedbackDelay < 0 {
		return fmt.Errorf("--auto-advance, --note-duration and --feedback-delay must be >= 0")
	}
	if err := cfg.Filter.Validate(); err != nil {
		return fmt.Errorf("invalid note filter: %w", err)
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
