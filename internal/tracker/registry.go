package tracker

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// platformNameRe validates adapter names: alphanumeric characters and
// hyphens only.
var platformNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// ErrNotFound is returned by Registry.Get when no adapter with the requested
// name has been registered.
var ErrNotFound = errors.New("adapter not found")

// ErrDuplicateName is returned by Registry.Register when an adapter with the
// same name is already present in the registry.
var ErrDuplicateName = errors.New("adapter already registered")

// ErrInvalidName is returned by Registry.Register when the adapter name is
// empty or contains invalid characters.
var ErrInvalidName = errors.New("invalid adapter name")

// Registry stores named adapter instances for lookup by platform name.
// Adapters are registered at startup and looked up at command time. The
// registry is safe for concurrent reads after all registrations are complete.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter to the registry under its Name().
// Returns ErrInvalidName if the adapter is nil or has an invalid name.
// Returns ErrDuplicateName if an adapter with the same name is already
// registered.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("register adapter: %w", ErrInvalidName)
	}
	name := a.Name()
	if name == "" || !platformNameRe.MatchString(name) {
		return fmt.Errorf("register adapter %q: %w", name, ErrInvalidName)
	}
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("register adapter %q: %w", name, ErrDuplicateName)
	}
	r.adapters[name] = a
	return nil
}

// Get returns the adapter registered under the given name.
// Returns ErrNotFound if no adapter with that name is registered.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("get adapter %q: %w", name, ErrNotFound)
	}
	return a, nil
}

// List returns the names of all registered adapters, sorted alphabetically.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns true if an adapter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.adapters[name]
	return ok
}
