// Package problem hosts the built-in GP benchmark problems. A problem
// bundles the grammar, the population delegate (fitness + mutation trees)
// and the population initializer for one task.
package problem

import (
	"fmt"
	"sort"
	"sync"

	"treegp/internal/evo"
	"treegp/internal/grammar"
	"treegp/internal/treegen"
)

// Problem describes one runnable GP task.
type Problem interface {
	Name() string
	Description() string
	Grammar() *grammar.Grammar
	// NewDelegate builds the population delegate. The delegate draws all
	// randomness from the shared parameters RNG.
	NewDelegate(params *evo.Parameters) (evo.Delegate, error)
	// NewInitializer builds the population initializer.
	NewInitializer(params *evo.Parameters) (treegen.Initializer, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Problem{}
)

// Register adds a problem under its name.
func Register(p Problem) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if p == nil || p.Name() == "" {
		return fmt.Errorf("problem: a named problem is required")
	}
	if _, ok := registry[p.Name()]; ok {
		return fmt.Errorf("problem: %q is already registered", p.Name())
	}
	registry[p.Name()] = p
	return nil
}

func mustRegister(p Problem) {
	if err := Register(p); err != nil {
		panic(err)
	}
}

// Resolve returns the problem registered under name.
func Resolve(name string) (Problem, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("problem: unknown problem %q", name)
	}
	return p, nil
}

// Names lists the registered problems in sorted order.
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
