package dependency

import (
	"errors"

	graphlib "github.com/dominikbraun/graph"
)

// Resolution pairs a resolved provider with the dependency name it satisfied.
type Resolution struct {
	Provider   Provider
	Dependency string
}

// Chain is the resolved, deduplicated and topologically ordered result of
// walking a set of root dependency names.
type Chain struct {
	Selection Selection
	Roots     []string
	// Ordered lists each provider once, dependencies before dependents.
	Ordered []Resolution
	// Provisions are collected in the same post-order as Ordered.
	Provisions []Provision

	edges map[Provider][]Provider
}

// Resolve finds the single provider satisfying name. Several candidates are
// narrowed by the selection, then by the unique highest priority.
func Resolve(selection Selection, name string, providers []Provider) (Provider, error) {
	var candidates []Provider
	for _, p := range providers {
		if p.Provides(name) {
			candidates = append(candidates, p)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, &UnresolvedDependencyError{Name: name}
	case 1:
		return candidates[0], nil
	}

	var selected []Provider
	for _, c := range candidates {
		if selection.Has(c.Name()) {
			selected = append(selected, c)
		}
	}
	pool := candidates
	switch len(selected) {
	case 0:
	case 1:
		return selected[0], nil
	default:
		pool = selected
	}

	var top []Provider
	for _, c := range pool {
		switch {
		case len(top) == 0 || c.Priority() > top[0].Priority():
			top = []Provider{c}
		case c.Priority() == top[0].Priority():
			top = append(top, c)
		}
	}
	if len(top) == 1 {
		return top[0], nil
	}

	names := make([]string, len(top))
	for i, c := range top {
		names[i] = c.Name()
	}
	return nil, &AmbiguousDependencyError{Name: name, Candidates: names}
}

// NewChain resolves roots depth-first against providers.
func NewChain(selection Selection, roots []string, providers []Provider) (*Chain, error) {
	c := &Chain{
		Selection: selection,
		Roots:     append([]string(nil), roots...),
		edges:     make(map[Provider][]Provider),
	}
	w := &walker{
		chain:     c,
		providers: providers,
		visiting:  make(map[Provider]bool),
		visited:   make(map[Provider]bool),
		provided:  make(map[Provider]map[string]bool),
	}

	for _, name := range roots {
		if _, err := w.walk(name, nil); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type walker struct {
	chain     *Chain
	providers []Provider
	visiting  map[Provider]bool
	visited   map[Provider]bool
	provided  map[Provider]map[string]bool
	stack     []Provider
}

func (w *walker) walk(name string, via Provider) (Provider, error) {
	p, err := Resolve(w.chain.Selection, name, w.providers)
	if err != nil {
		return nil, withVia(err, via)
	}

	if w.visiting[p] {
		return nil, &CyclicDependencyError{Cycle: w.cycle(p)}
	}
	if w.visited[p] {
		w.collect(p, name)
		return p, nil
	}

	w.visiting[p] = true
	w.stack = append(w.stack, p)
	for _, dep := range p.Dependencies() {
		d, err := w.walk(dep, p)
		if err != nil {
			return nil, err
		}
		w.chain.addEdge(p, d)
	}
	w.stack = w.stack[:len(w.stack)-1]
	delete(w.visiting, p)

	w.visited[p] = true
	w.chain.Ordered = append(w.chain.Ordered, Resolution{Provider: p, Dependency: name})
	w.collect(p, name)
	return p, nil
}

// collect records the provision p offers for name, once per name.
func (w *walker) collect(p Provider, name string) {
	names := w.provided[p]
	if names == nil {
		names = make(map[string]bool)
		w.provided[p] = names
	}
	if names[name] {
		return
	}
	names[name] = true
	if provision, ok := p.Provision(name); ok {
		w.chain.Provisions = append(w.chain.Provisions, provision)
	}
}

func (w *walker) cycle(p Provider) []string {
	start := 0
	for i, s := range w.stack {
		if s == p {
			start = i
			break
		}
	}
	path := make([]string, 0, len(w.stack)-start+1)
	for _, s := range w.stack[start:] {
		path = append(path, s.Name())
	}
	return append(path, p.Name())
}

func withVia(err error, via Provider) error {
	if via == nil {
		return err
	}
	var unresolved *UnresolvedDependencyError
	if errors.As(err, &unresolved) {
		unresolved.Via = via.Name()
	}
	var ambiguous *AmbiguousDependencyError
	if errors.As(err, &ambiguous) {
		ambiguous.Via = via.Name()
	}
	return err
}

func (c *Chain) addEdge(from, to Provider) {
	for _, existing := range c.edges[from] {
		if existing == to {
			return
		}
	}
	c.edges[from] = append(c.edges[from], to)
}

// DirectTargets keeps the entries of ordered whose dependency is a root name.
func (c *Chain) DirectTargets(ordered []Resolution) []Resolution {
	roots := make(map[string]bool, len(c.Roots))
	for _, name := range c.Roots {
		roots[name] = true
	}
	var direct []Resolution
	for _, r := range ordered {
		if roots[r.Dependency] {
			direct = append(direct, r)
		}
	}
	return direct
}

// DependenciesOf returns the providers p was resolved to depend on, in declaration order.
func (c *Chain) DependenciesOf(p Provider) []Provider {
	return append([]Provider(nil), c.edges[p]...)
}

// Providers returns the ordered providers without their dependency names.
func (c *Chain) Providers() []Provider {
	providers := make([]Provider, len(c.Ordered))
	for i, r := range c.Ordered {
		providers[i] = r.Provider
	}
	return providers
}

// Graph exports the chain as a directed graph of provider names. Edges point
// from a dependent to its dependency.
func (c *Chain) Graph() (graphlib.Graph[string, string], error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.Acyclic())
	for _, r := range c.Ordered {
		if err := g.AddVertex(r.Provider.Name()); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, r := range c.Ordered {
		for _, dep := range c.edges[r.Provider] {
			if err := g.AddEdge(r.Provider.Name(), dep.Name()); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	return g, nil
}
