package modes

import (
	"fmt"
	"sync"

	"github.com/verte-zerg/tuiear/internal/generator"
)

// Factory builds a fresh State from settings. A nil settings value selects the
// descriptor defaults.
type Factory func(settings Settings, gen *generator.Generator) (State, error)

// Descriptor is the immutable registration record of a mode.
type Descriptor struct {
	ID          ID
	Type        TrainingType
	Name        string
	Description string
	Defaults    Settings
	New         Factory
}

// Build runs the factory, falling back to the defaults for nil settings and
// rejecting settings that belong to another mode.
func (d Descriptor) Build(settings Settings, gen *generator.Generator) (State, error) {
	if settings == nil {
		settings = d.Defaults
	}
	if settings == nil {
		return nil, &SettingsError{Mode: d.ID, Field: "settings", Message: "missing"}
	}
	if settings.ModeID() != d.ID {
		return nil, &SettingsError{Mode: d.ID, Field: "settings", Value: settings.ModeID(), Message: "belong to another mode"}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		gen = generator.NewSeeded()
	}
	return d.New(settings, gen)
}

// Registry holds mode descriptors in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []ID
	byID  map[ID]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[ID]Descriptor{}}
}

// Register adds d. It fails with ErrDuplicateID when the id is taken.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("register mode: empty id")
	}
	if d.New == nil {
		return fmt.Errorf("register mode %s: nil factory", d.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; ok {
		return fmt.Errorf("register mode %s: %w", d.ID, ErrDuplicateID)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

// Get returns the descriptor for id or ErrNotFound.
func (r *Registry) Get(id ID) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("mode %q: %w", id, ErrNotFound)
	}
	return d, nil
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// AllByType returns the descriptors of one training type in registration order.
func (r *Registry) AllByType(t TrainingType) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Descriptor
	for _, id := range r.order {
		if d := r.byID[id]; d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// IsRegistered reports whether id is present.
func (r *Registry) IsRegistered(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}
