// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tuiear/internal/modes"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Rush     RushConfig     `toml:"rush"`
	Survival SurvivalConfig `toml:"survival"`
	Sandbox  SandboxConfig  `toml:"sandbox"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Mode            *string  `toml:"mode"`
	TimeoutSeconds  *float64 `toml:"timeout-seconds"`
	AutoAdvanceMs   *int     `toml:"auto-advance-ms"`
	NoteDurationMs  *int     `toml:"note-duration-ms"`
	FeedbackDelayMs *int     `toml:"feedback-delay-ms"`
	Notes           *string  `toml:"notes"`
	MinOctave       *int     `toml:"min-octave"`
	MaxOctave       *int     `toml:"max-octave"`
	Chords          *bool    `toml:"chords"`
	ChordQualities  *string  `toml:"chord-qualities"`
	FocusWeak       *bool    `toml:"focus-weak"`
	WeakTop         *int     `toml:"weak-top"`
	WeakFactor      *float64 `toml:"weak-factor"`
	WeakWindow      *int     `toml:"weak-window"`
	Sound           *bool    `toml:"sound"`
	MIDIPort        *string  `toml:"midi-port"`
}

// RushConfig maps Rush settings.
type RushConfig struct {
	TargetNotes *int `toml:"target-notes"`
}

// SurvivalConfig maps Survival settings.
type SurvivalConfig struct {
	DurationSeconds *int     `toml:"duration-seconds"`
	HealthDrainRate *float64 `toml:"health-drain-rate"`
	HealthRecovery  *float64 `toml:"health-recovery"`
	HealthDamage    *float64 `toml:"health-damage"`
}

// SandboxConfig maps Sandbox settings. Absent targets mean no target.
type SandboxConfig struct {
	DurationSeconds *int     `toml:"duration-seconds"`
	TargetAccuracy  *float64 `toml:"target-accuracy"`
	TargetStreak    *int     `toml:"target-streak"`
	TargetNotes     *int     `toml:"target-notes"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ModeSettings builds the settings of mode id, starting from the defaults
// registered in r and overriding whatever the file sets.
func (c FileConfig) ModeSettings(r *modes.Registry, id modes.ID) (modes.Settings, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	switch def := d.Defaults.(type) {
	case modes.RushSettings:
		if c.Rush.TargetNotes != nil {
			def.TargetNotes = *c.Rush.TargetNotes
		}
		return def, nil
	case modes.SurvivalSettings:
		if c.Survival.DurationSeconds != nil {
			def.SessionDuration = time.Duration(*c.Survival.DurationSeconds) * time.Second
		}
		if c.Survival.HealthDrainRate != nil {
			def.HealthDrainRate = *c.Survival.HealthDrainRate
		}
		if c.Survival.HealthRecovery != nil {
			def.HealthRecovery = *c.Survival.HealthRecovery
		}
		if c.Survival.HealthDamage != nil {
			def.HealthDamage = *c.Survival.HealthDamage
		}
		return def, nil
	case modes.SandboxSettings:
		if c.Sandbox.DurationSeconds != nil {
			def.SessionDuration = time.Duration(*c.Sandbox.DurationSeconds) * time.Second
		}
		def.TargetAccuracy = c.Sandbox.TargetAccuracy
		def.TargetStreak = c.Sandbox.TargetStreak
		def.TargetNotes = c.Sandbox.TargetNotes
		return def, nil
	default:
		return nil, fmt.Errorf("unsupported settings type %T for mode %s", def, id)
	}
}
