package builder

import (
	"fmt"
	"slices"
	"sync"

	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

// Registry maps builder ids to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering an id twice is an error.
func (registry *Registry) Register(id string, factory Factory) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.factories[id]; ok {
		return errors.Errorf("builder %q is already registered", id)
	}

	registry.factories[id] = factory

	return nil
}

// New creates the builder for a command.
func (registry *Registry) New(cmd workspace.Command) (Builder, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[cmd.BuilderID]
	registry.mu.RUnlock()

	if !ok {
		return nil, errors.New(UnknownBuilderError{ID: cmd.BuilderID})
	}

	b, err := factory(cmd)
	if err != nil {
		return nil, errors.WithPrefix(err, "creating builder %s", cmd.BuilderID)
	}

	return b, nil
}

// IDs returns the registered ids, sorted.
func (registry *Registry) IDs() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	ids := make([]string, 0, len(registry.factories))
	for id := range registry.factories {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// UnknownBuilderError is returned for a build spec command no factory was registered for.
type UnknownBuilderError struct {
	ID string
}

func (err UnknownBuilderError) Error() string {
	return fmt.Sprintf("unknown builder %q", err.ID)
}
