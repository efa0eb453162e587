package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuiear/internal/config"
	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if cfg.Practice.Mode != nil {
		t.Fatalf("template values must stay commented out")
	}

	lines := strings.Split(defaultConfigTemplate(), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			lines[i] = strings.TrimPrefix(line, "# ")
		}
	}
	if _, err := toml.Decode(strings.Join(lines, "\n"), &cfg); err != nil {
		t.Fatalf("uncommented template does not decode: %v", err)
	}
	if cfg.Practice.Mode == nil || *cfg.Practice.Mode != defaultMode {
		t.Fatalf("unexpected mode %v", cfg.Practice.Mode)
	}
	if cfg.Survival.DurationSeconds == nil || *cfg.Survival.DurationSeconds != int(modes.DefaultSurvivalDuration/time.Second) {
		t.Fatalf("unexpected survival duration %v", cfg.Survival.DurationSeconds)
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{}
	var mode, notes string
	cmd.Flags().StringVar(&mode, "mode", "rush", "")
	cmd.Flags().StringVar(&notes, "notes", "C", "")
	if err := cmd.Flags().Set("mode", "sandbox"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	fileMode, fileNotes := "survival", "C,G"
	applyStringConfig(cmd, "mode", &mode, &fileMode)
	applyStringConfig(cmd, "notes", &notes, &fileNotes)
	applyStringConfig(cmd, "notes", &notes, nil)
	if mode != "sandbox" || notes != "C,G" {
		t.Fatalf("unexpected values mode=%q notes=%q", mode, notes)
	}
}

func TestApplyModeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&practiceTarget, "target", 0, "")
	cmd.Flags().IntVar(&practiceDuration, "duration", 0, "")
	if err := cmd.Flags().Set("target", "12"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	rush := applyModeFlags(cmd, modes.RushSettings{TargetNotes: 20}).(modes.RushSettings)
	if rush.TargetNotes != 12 {
		t.Fatalf("expected rush target 12, got %d", rush.TargetNotes)
	}
	survival := applyModeFlags(cmd, modes.SurvivalSettings{SessionDuration: time.Minute}).(modes.SurvivalSettings)
	if survival.SessionDuration != time.Minute {
		t.Fatalf("unchanged --duration must keep the file value, got %s", survival.SessionDuration)
	}
	sandbox := applyModeFlags(cmd, modes.SandboxSettings{}).(modes.SandboxSettings)
	if sandbox.TargetNotes == nil || *sandbox.TargetNotes != 12 {
		t.Fatalf("expected sandbox target notes 12, got %v", sandbox.TargetNotes)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := model.Config{Filter: model.DefaultNoteFilter(), Timeout: time.Second}
	if err := validateConfig(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []model.Config{
		{Filter: model.DefaultNoteFilter(), Timeout: -time.Second},
		{Filter: model.NoteFilter{MinOctave: 3, MaxOctave: 5}},
		{Filter: model.DefaultNoteFilter(), WeakTop: -1},
		{Filter: model.DefaultNoteFilter(), FeedbackDelay: -time.Millisecond},
	}
	for i, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestWriteModesListsBuiltins(t *testing.T) {
	reg := modes.NewRegistry()
	if err := modes.RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	var buf bytes.Buffer
	if err := writeModes(&buf, reg); err != nil {
		t.Fatalf("write modes: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected three modes, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "rush") || !strings.HasPrefix(lines[2], "sandbox") {
		t.Fatalf("unexpected order:\n%s", buf.String())
	}
}
