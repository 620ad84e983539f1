// Package dependency resolves named dependencies against a pool of providers
// into a deduplicated, topologically ordered chain.
package dependency

import (
	"sort"

	"github.com/LegacyCodeHQ/kettle/environment"
)

// Provider is anything that can satisfy dependency names, typically a build target.
// Implementations must be comparable; the chain uses providers as map keys.
type Provider interface {
	Name() string
	// Dependencies lists the names this provider requires, in declaration order.
	Dependencies() []string
	Provides(name string) bool
	// Provision returns the configuration fragment offered for name, if any.
	Provision(name string) (Provision, bool)
	// Priority breaks ties between providers of the same name. Higher wins.
	Priority() int
}

// Provision is a configuration fragment a provider contributes to its dependents.
type Provision struct {
	Name     string
	Fragment func(b *environment.Builder)
}

// Environment instantiates the fragment as a standalone environment.
func (p Provision) Environment() *environment.Environment {
	return environment.New().Merge(p.Fragment)
}

// Selection is the set of provider names chosen by the active configuration.
type Selection map[string]bool

// NewSelection creates a selection from provider names.
func NewSelection(names ...string) Selection {
	s := make(Selection, len(names))
	for _, name := range names {
		s[name] = true
	}
	return s
}

// Has reports whether name is selected. A nil selection selects nothing.
func (s Selection) Has(name string) bool {
	return s[name]
}

// Names returns the selected names, sorted.
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
