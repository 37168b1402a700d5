package policy

import (
	"fmt"
	"sort"
	"sync"

	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a policy factory for the provided name. Policy packages call
// this from init(); the CLI pulls them in with blank imports.
func Register(name string, factory Factory) error {
	if factory == nil {
		return agentshifterrors.NewPolicyError(name, fmt.Errorf("factory is nil"))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return agentshifterrors.NewPolicyError(name, fmt.Errorf("policy already registered"))
	}

	registry[name] = factory
	return nil
}

// New builds a fresh policy instance by registry name.
func New(name string, params Params) (Policy, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, agentshifterrors.NewPolicyError(name, fmt.Errorf("no policy registered"))
	}

	return factory(params)
}

// Names lists registered policy names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetRegistry clears policy registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Factory)
}
