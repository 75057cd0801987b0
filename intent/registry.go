// Package intent maps intent names to the source locators of activity modules.
package intent

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotRegistered is returned when an intent name has no registered locator.
var ErrNotRegistered = errors.New("intent not registered")

// Registry stores intent name to source locator mappings.
// Registering an existing name overwrites its locator.
type Registry struct {
	mu       sync.RWMutex
	locators map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		locators: make(map[string]string),
	}
}

// Register stores the locator for name, replacing any previous one.
// The locator is not validated.
func (r *Registry) Register(name, locator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locators[name] = locator
}

// Lookup returns the locator registered for name.
func (r *Registry) Lookup(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	locator, ok := r.locators[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return locator, nil
}

// Names returns the registered intent names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.locators))
	for name := range r.locators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the name to locator mapping.
func (r *Registry) All() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make(map[string]string, len(r.locators))
	for name, locator := range r.locators {
		all[name] = locator
	}
	return all
}

// Replace swaps the whole mapping in one step. Used when configuration is
// reloaded so that lookups never observe a half-applied set of intents.
func (r *Registry) Replace(locators map[string]string) {
	fresh := make(map[string]string, len(locators))
	for name, locator := range locators {
		fresh[name] = locator
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.locators = fresh
}
