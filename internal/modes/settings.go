package modes

import "time"

// Settings is the closed set of per-mode settings records.
type Settings interface {
	ModeID() ID
	Validate() error
	isSettings()
}

// RushSettings configures Rush.
type RushSettings struct {
	TargetNotes int
}

// SurvivalSettings configures Survival. Health rates are in points; drain is per second.
type SurvivalSettings struct {
	SessionDuration time.Duration
	HealthDrainRate float64
	HealthRecovery  float64
	HealthDamage    float64
}

// SandboxSettings configures Sandbox. A nil target means no target; a zero
// SessionDuration means the session only ends when stopped.
type SandboxSettings struct {
	SessionDuration time.Duration
	TargetAccuracy  *float64
	TargetStreak    *int
	TargetNotes     *int
}

func (RushSettings) ModeID() ID     { return Rush }
func (SurvivalSettings) ModeID() ID { return Survival }
func (SandboxSettings) ModeID() ID  { return Sandbox }

func (RushSettings) isSettings()     {}
func (SurvivalSettings) isSettings() {}
func (SandboxSettings) isSettings()  {}

// Validate checks RushSettings.
func (s RushSettings) Validate() error {
	if s.TargetNotes <= 0 {
		return &SettingsError{Mode: Rush, Field: "target-notes", Value: s.TargetNotes, Message: "must be > 0"}
	}
	return nil
}

// Validate checks SurvivalSettings.
func (s SurvivalSettings) Validate() error {
	if s.SessionDuration <= 0 {
		return &SettingsError{Mode: Survival, Field: "session-duration", Value: s.SessionDuration, Message: "must be > 0"}
	}
	if s.HealthDrainRate < 0 {
		return &SettingsError{Mode: Survival, Field: "health-drain-rate", Value: s.HealthDrainRate, Message: "must be >= 0"}
	}
	if s.HealthRecovery < 0 || s.HealthRecovery > MaxHealth {
		return &SettingsError{Mode: Survival, Field: "health-recovery", Value: s.HealthRecovery, Message: "must be between 0 and 100"}
	}
	if s.HealthDamage < 0 || s.HealthDamage > MaxHealth {
		return &SettingsError{Mode: Survival, Field: "health-damage", Value: s.HealthDamage, Message: "must be between 0 and 100"}
	}
	return nil
}

// Validate checks SandboxSettings.
func (s SandboxSettings) Validate() error {
	if s.SessionDuration < 0 {
		return &SettingsError{Mode: Sandbox, Field: "session-duration", Value: s.SessionDuration, Message: "must be >= 0"}
	}
	if s.TargetAccuracy != nil && (*s.TargetAccuracy <= 0 || *s.TargetAccuracy > 1) {
		return &SettingsError{Mode: Sandbox, Field: "target-accuracy", Value: *s.TargetAccuracy, Message: "must be within (0, 1]"}
	}
	if s.TargetStreak != nil && *s.TargetStreak <= 0 {
		return &SettingsError{Mode: Sandbox, Field: "target-streak", Value: *s.TargetStreak, Message: "must be > 0"}
	}
	if s.TargetNotes != nil && *s.TargetNotes <= 0 {
		return &SettingsError{Mode: Sandbox, Field: "target-notes", Value: *s.TargetNotes, Message: "must be > 0"}
	}
	return nil
}
