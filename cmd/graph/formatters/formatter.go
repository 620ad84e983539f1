// Package formatters renders resolved dependency chains.
package formatters

import (
	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/project"
)

// RenderOptions contains optional parameters for rendering a chain.
type RenderOptions struct {
	// Label is an optional title or label for the graph
	Label string
}

// Formatter is the interface that all chain formatters must implement.
type Formatter interface {
	// Format converts a dependency chain to a formatted string representation.
	Format(chain *dependency.Chain, opts RenderOptions) (string, error)
}

// Node describes one provider of a chain as the formatters present it.
type Node struct {
	Name       string
	Dependency string
	Package    string
	Provides   []string
	Action     bool
	Direct     bool
}

// Nodes returns the chain's providers in build order.
func Nodes(chain *dependency.Chain) []Node {
	direct := make(map[dependency.Provider]bool)
	for _, r := range chain.DirectTargets(chain.Ordered) {
		direct[r.Provider] = true
	}

	nodes := make([]Node, 0, len(chain.Ordered))
	for _, r := range chain.Ordered {
		n := Node{
			Name:       r.Provider.Name(),
			Dependency: r.Dependency,
			Direct:     direct[r.Provider],
		}
		if t, ok := r.Provider.(*project.Target); ok {
			if t.Package() != nil {
				n.Package = t.Package().Name
			}
			n.Provides = t.ProvidedNames()
			n.Action = t.HasAction()
		}
		nodes = append(nodes, n)
	}
	return nodes
}
