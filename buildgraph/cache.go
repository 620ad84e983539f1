package buildgraph

import (
	"github.com/opencontainers/go-digest"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/environment"
)

// Cache memoizes graphs per environment content.
type Cache struct {
	fs     afero.Fs
	graphs *xsync.MapOf[digest.Digest, *cacheEntry]
}

type cacheEntry struct {
	graph *Graph
	err   error
}

// NewCache creates an empty cache whose graphs read from fs.
func NewCache(fs afero.Fs) *Cache {
	return &Cache{
		fs:     fs,
		graphs: xsync.NewMapOf[digest.Digest, *cacheEntry](),
	}
}

// Graph returns the graph for env. Environments with equal content share one
// graph, built once even when requested concurrently.
func (c *Cache) Graph(env *environment.Environment) (*Graph, error) {
	key, err := env.Digest()
	if err != nil {
		return nil, err
	}

	entry, _ := c.graphs.LoadOrCompute(key, func() *cacheEntry {
		g, err := NewGraph(env, c.fs)
		return &cacheEntry{graph: g, err: err}
	})
	return entry.graph, entry.err
}

// Len returns the number of cached graphs.
func (c *Cache) Len() int {
	return c.graphs.Size()
}
