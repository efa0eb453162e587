package modes

import (
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
)

// Built-in defaults.
const (
	DefaultRushTarget       = 20
	DefaultSurvivalDuration = 2 * time.Minute
	DefaultHealthDrainRate  = 1.0
	DefaultHealthRecovery   = 10.0
	DefaultHealthDamage     = 20.0
	DefaultSandboxDuration  = 5 * time.Minute
)

// Builtins returns the descriptors of the built-in modes in menu order.
func Builtins() []Descriptor {
	return []Descriptor{
		{
			ID:          Rush,
			Type:        Challenge,
			Name:        "Rush",
			Description: "Identify a fixed number of notes as fast as you can.",
			Defaults:    RushSettings{TargetNotes: DefaultRushTarget},
			New: func(s Settings, gen *generator.Generator) (State, error) {
				rs, ok := s.(RushSettings)
				if !ok {
					return nil, settingsTypeError(Rush, s)
				}
				return NewRush(rs, gen), nil
			},
		},
		{
			ID:          Survival,
			Type:        Challenge,
			Name:        "Survival",
			Description: "Keep your health up until the clock runs out.",
			Defaults: SurvivalSettings{
				SessionDuration: DefaultSurvivalDuration,
				HealthDrainRate: DefaultHealthDrainRate,
				HealthRecovery:  DefaultHealthRecovery,
				HealthDamage:    DefaultHealthDamage,
			},
			New: func(s Settings, gen *generator.Generator) (State, error) {
				ss, ok := s.(SurvivalSettings)
				if !ok {
					return nil, settingsTypeError(Survival, s)
				}
				return NewSurvival(ss, gen), nil
			},
		},
		{
			ID:          Sandbox,
			Type:        Practice,
			Name:        "Sandbox",
			Description: "Free practice with optional targets and a full report.",
			Defaults:    SandboxSettings{SessionDuration: DefaultSandboxDuration},
			New: func(s Settings, gen *generator.Generator) (State, error) {
				ss, ok := s.(SandboxSettings)
				if !ok {
					return nil, settingsTypeError(Sandbox, s)
				}
				return NewSandbox(ss, gen), nil
			},
		},
	}
}

func settingsTypeError(id ID, s Settings) error {
	return &SettingsError{Mode: id, Field: "settings", Value: fmt.Sprintf("%T", s), Message: "unexpected type"}
}

// RegisterBuiltins adds the built-in modes to r.
func RegisterBuiltins(r *Registry) error {
	for _, d := range Builtins() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultRegistry = NewRegistry()
	initOnce        sync.Once
	initErr         error
)

// Init populates the process-wide registry with the built-in modes. It runs the
// registration once; later calls return the first result.
func Init() error {
	initOnce.Do(func() {
		initErr = RegisterBuiltins(defaultRegistry)
	})
	return initErr
}

// Default returns the process-wide registry. Call Init at startup first.
func Default() *Registry {
	return defaultRegistry
}
