// Package buildgraph discovers file-level dependencies by scanning sources for
// include directives.
package buildgraph

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	graphlib "github.com/dominikbraun/graph"
	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/environment"
)

// Edge records that From depends on To.
type Edge struct {
	From string
	To   string
}

// Graph is a lazily populated file dependency graph. It is safe for concurrent use.
type Graph struct {
	extractor Extractor
	fs        afero.Fs

	mu      sync.Mutex
	g       graphlib.Graph[string, string]
	scanned map[string][]string
}

// New creates an empty graph populated on demand by extractor.
func New(extractor Extractor, fs afero.Fs) *Graph {
	return &Graph{
		extractor: extractor,
		fs:        fs,
		g:         graphlib.New(graphlib.StringHash, graphlib.Directed()),
		scanned:   make(map[string][]string),
	}
}

// NewGraph creates a graph whose include roots come from the environment's
// buildflags. The optional source_patterns key replaces DefaultPatterns.
func NewGraph(env *environment.Environment, fs afero.Fs) (*Graph, error) {
	var flags []string
	if env.Has("buildflags") {
		var err error
		if flags, err = env.Strings("buildflags"); err != nil {
			return nil, err
		}
	}

	exprs := DefaultPatterns
	if env.Has("source_patterns") {
		var err error
		if exprs, err = env.Strings("source_patterns"); err != nil {
			return nil, err
		}
	}
	patterns, err := CompilePatterns(exprs)
	if err != nil {
		return nil, err
	}

	return New(NewPreprocessorExtractor(fs, patterns, IncludeDirectories(flags)), fs), nil
}

// Extractor returns the extractor the graph scans with.
func (g *Graph) Extractor() Extractor {
	return g.extractor
}

// Dependencies returns the direct dependencies of path. Each file is scanned once.
func (g *Graph) Dependencies(path string) ([]string, error) {
	g.mu.Lock()
	deps, ok := g.scanned[path]
	g.mu.Unlock()
	if ok {
		return append([]string(nil), deps...), nil
	}

	deps, err := g.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(path, deps); err != nil {
		return nil, err
	}
	return append([]string(nil), deps...), nil
}

func (g *Graph) record(path string, deps []string) error {
	if _, ok := g.scanned[path]; ok {
		return nil
	}
	g.scanned[path] = deps

	if err := g.addVertex(path); err != nil {
		return err
	}
	for _, dep := range deps {
		if err := g.addVertex(dep); err != nil {
			return err
		}
		if err := g.g.AddEdge(path, dep); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
			return fmt.Errorf("failed to add edge %s -> %s: %w", path, dep, err)
		}
	}
	return nil
}

func (g *Graph) addVertex(path string) error {
	if err := g.g.AddVertex(path); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add vertex %s: %w", path, err)
	}
	return nil
}

// Closure returns every file reachable from paths, excluding paths themselves, sorted.
func (g *Graph) Closure(paths ...string) ([]string, error) {
	start := make(map[string]bool, len(paths))
	for _, p := range paths {
		start[p] = true
	}

	seen := make(map[string]bool)
	queue := append([]string(nil), paths...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := g.Dependencies(current)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if seen[dep] || start[dep] {
				continue
			}
			seen[dep] = true
			queue = append(queue, dep)
		}
	}

	closure := make([]string, 0, len(seen))
	for p := range seen {
		closure = append(closure, p)
	}
	sort.Strings(closure)
	return closure, nil
}

// Scan extracts every matching file under root.
func (g *Graph) Scan(root string) error {
	return afero.Walk(g.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !g.extractor.Matches(path) {
			return nil
		}
		_, err = g.Dependencies(path)
		return err
	})
}

// Edges returns every recorded edge, sorted.
func (g *Graph) Edges() ([]Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	adjacency, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for from, targets := range adjacency {
		for to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges, nil
}
