package dependency_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/environment"
)

type fakeTarget struct {
	name     string
	deps     []string
	provides map[string]func(*environment.Builder)
	priority int
}

func target(name string, deps ...string) *fakeTarget {
	return &fakeTarget{name: name, deps: deps, provides: map[string]func(*environment.Builder){}}
}

func (t *fakeTarget) provide(name string, fragment func(*environment.Builder)) *fakeTarget {
	t.provides[name] = fragment
	return t
}

func (t *fakeTarget) withPriority(p int) *fakeTarget {
	t.priority = p
	return t
}

func (t *fakeTarget) Name() string           { return t.name }
func (t *fakeTarget) Dependencies() []string { return t.deps }
func (t *fakeTarget) Priority() int          { return t.priority }

func (t *fakeTarget) Provides(name string) bool {
	if name == t.name {
		return true
	}
	_, ok := t.provides[name]
	return ok
}

func (t *fakeTarget) Provision(name string) (dependency.Provision, bool) {
	fragment, ok := t.provides[name]
	if !ok || fragment == nil {
		return dependency.Provision{}, false
	}
	return dependency.Provision{Name: name, Fragment: fragment}, true
}

func providers(targets ...*fakeTarget) []dependency.Provider {
	out := make([]dependency.Provider, len(targets))
	for i, t := range targets {
		out[i] = t
	}
	return out
}

func orderedNames(chain *dependency.Chain) []string {
	names := make([]string, len(chain.Ordered))
	for i, r := range chain.Ordered {
		names[i] = r.Provider.Name()
	}
	return names
}

func position(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func setFlag(key, value string) func(*environment.Builder) {
	return func(b *environment.Builder) {
		b.Append(key, environment.Value(value))
	}
}

func TestNewChain_OrdersDependenciesFirst(t *testing.T) {
	pool := providers(
		target("app", "net", "log"),
		target("net", "ssl", "log"),
		target("ssl", "zlib"),
		target("zlib"),
		target("log"),
	)

	chain, err := dependency.NewChain(nil, []string{"app"}, pool)

	require.NoError(t, err)
	names := orderedNames(chain)
	assert.Equal(t, []string{"zlib", "ssl", "log", "net", "app"}, names)

	edges := map[string][]string{
		"app": {"net", "log", "ssl", "zlib"},
		"net": {"ssl", "log", "zlib"},
		"ssl": {"zlib"},
	}
	for dependent, deps := range edges {
		for _, dep := range deps {
			assert.Less(t, position(names, dep), position(names, dependent), "%s must precede %s", dep, dependent)
		}
	}
}

func TestNewChain_DeduplicatesDiamond(t *testing.T) {
	pool := providers(
		target("top", "left", "right"),
		target("left", "base"),
		target("right", "base"),
		target("base"),
	)

	chain, err := dependency.NewChain(nil, []string{"top"}, pool)

	require.NoError(t, err)
	assert.Equal(t, []string{"base", "left", "right", "top"}, orderedNames(chain))
}

func TestNewChain_KeepsFirstOccurrenceAcrossRoots(t *testing.T) {
	pool := providers(
		target("a", "c"),
		target("b", "c"),
		target("c"),
	)

	chain, err := dependency.NewChain(nil, []string{"a", "b", "c"}, pool)

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, orderedNames(chain))
	assert.Equal(t, "c", chain.Ordered[0].Dependency)
}

func TestNewChain_ProviderReachedByAnotherNameIsNotRepeated(t *testing.T) {
	zlib := target("zlib").provide("compression", setFlag("linkflags", "-lz"))
	pool := providers(
		target("app", "zlib", "compression"),
		zlib,
	)

	chain, err := dependency.NewChain(nil, []string{"app"}, pool)

	require.NoError(t, err)
	assert.Equal(t, []string{"zlib", "app"}, orderedNames(chain))
	require.Len(t, chain.Provisions, 1)
	assert.Equal(t, "compression", chain.Provisions[0].Name)
}

func TestNewChain_CollectsProvisionsInPostOrder(t *testing.T) {
	pool := providers(
		target("app", "platform").provide("app", setFlag("flags", "-app")),
		target("platform", "compiler").provide("platform", setFlag("flags", "-platform")),
		target("compiler").provide("compiler", setFlag("flags", "-compiler")),
	)

	chain, err := dependency.NewChain(nil, []string{"app"}, pool)

	require.NoError(t, err)
	var names []string
	for _, p := range chain.Provisions {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"compiler", "platform", "app"}, names)

	envs := make([]*environment.Environment, len(chain.Provisions))
	for i, p := range chain.Provisions {
		envs[i] = p.Environment()
	}
	flags, err := environment.Combine(envs...).Strings("flags")
	require.NoError(t, err)
	assert.Equal(t, []string{"-compiler", "-platform", "-app"}, flags)
}

func TestNewChain_DetectsCycle(t *testing.T) {
	pool := providers(
		target("A", "B"),
		target("B", "C"),
		target("C", "A"),
	)

	chain, err := dependency.NewChain(nil, []string{"A"}, pool)

	assert.Nil(t, chain)
	require.ErrorIs(t, err, dependency.ErrCyclicDependency)
	var cyclic *dependency.CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"A", "B", "C", "A"}, cyclic.Cycle)
	assert.EqualError(t, err, "cyclic dependency: A -> B -> C -> A")
}

func TestNewChain_DetectsSelfDependency(t *testing.T) {
	chain, err := dependency.NewChain(nil, []string{"loop"}, providers(target("loop", "loop")))

	assert.Nil(t, chain)
	var cyclic *dependency.CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"loop", "loop"}, cyclic.Cycle)
}

func TestNewChain_CycleBelowRootReportsOnlyTheLoop(t *testing.T) {
	pool := providers(
		target("app", "x"),
		target("x", "y"),
		target("y", "x"),
	)

	_, err := dependency.NewChain(nil, []string{"app"}, pool)

	var cyclic *dependency.CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"x", "y", "x"}, cyclic.Cycle)
}

func TestNewChain_UnresolvedNamesRequiringProvider(t *testing.T) {
	pool := providers(target("app", "missing"))

	_, err := dependency.NewChain(nil, []string{"app"}, pool)

	require.ErrorIs(t, err, dependency.ErrUnresolvedDependency)
	var unresolved *dependency.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "missing", unresolved.Name)
	assert.Equal(t, "app", unresolved.Via)
}

func TestNewChain_UnresolvedRoot(t *testing.T) {
	_, err := dependency.NewChain(nil, []string{"nothing"}, nil)

	assert.EqualError(t, err, `unresolved dependency "nothing"`)
}

func TestResolve_SingleCandidate(t *testing.T) {
	pool := providers(target("gcc").provide("compiler", nil), target("zlib"))

	p, err := dependency.Resolve(nil, "compiler", pool)

	require.NoError(t, err)
	assert.Equal(t, "gcc", p.Name())
}

func TestResolve_SelectionDisambiguates(t *testing.T) {
	pool := providers(
		target("gcc").provide("compiler", nil),
		target("clang").provide("compiler", nil),
	)

	p, err := dependency.Resolve(dependency.NewSelection("clang"), "compiler", pool)

	require.NoError(t, err)
	assert.Equal(t, "clang", p.Name())
}

func TestResolve_PriorityDisambiguates(t *testing.T) {
	pool := providers(
		target("gcc").provide("compiler", nil),
		target("clang").provide("compiler", nil).withPriority(10),
	)

	p, err := dependency.Resolve(nil, "compiler", pool)

	require.NoError(t, err)
	assert.Equal(t, "clang", p.Name())
}

func TestResolve_PriorityAppliesWithinSelection(t *testing.T) {
	pool := providers(
		target("gcc").provide("compiler", nil).withPriority(1),
		target("clang").provide("compiler", nil).withPriority(5),
		target("icc").provide("compiler", nil).withPriority(9),
	)

	p, err := dependency.Resolve(dependency.NewSelection("gcc", "clang"), "compiler", pool)

	require.NoError(t, err)
	assert.Equal(t, "clang", p.Name())
}

func TestResolve_TieIsAmbiguous(t *testing.T) {
	pool := providers(
		target("gcc").provide("compiler", nil),
		target("clang").provide("compiler", nil),
	)

	_, err := dependency.Resolve(nil, "compiler", pool)

	require.ErrorIs(t, err, dependency.ErrAmbiguousDependency)
	var ambiguous *dependency.AmbiguousDependencyError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"gcc", "clang"}, ambiguous.Candidates)
}

func TestNewChain_AmbiguityCarriesRequiringProvider(t *testing.T) {
	pool := providers(
		target("app", "compiler"),
		target("gcc").provide("compiler", nil),
		target("clang").provide("compiler", nil),
	)

	_, err := dependency.NewChain(nil, []string{"app"}, pool)

	var ambiguous *dependency.AmbiguousDependencyError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "app", ambiguous.Via)
	assert.Contains(t, err.Error(), "required by app")
}

func TestChain_DirectTargets(t *testing.T) {
	pool := providers(
		target("A", "C"),
		target("B"),
		target("C"),
	)
	chain, err := dependency.NewChain(nil, []string{"A", "B"}, pool)
	require.NoError(t, err)

	direct := chain.DirectTargets(chain.Ordered)

	var names []string
	for _, r := range direct {
		names = append(names, r.Dependency)
	}
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Equal(t, []string{"C", "A", "B"}, orderedNames(chain))
}

func TestChain_DependenciesOfAndGraph(t *testing.T) {
	app := target("app", "net", "log")
	net := target("net", "log")
	log := target("log")
	chain, err := dependency.NewChain(nil, []string{"app"}, providers(app, net, log))
	require.NoError(t, err)

	deps := chain.DependenciesOf(app)
	require.Len(t, deps, 2)
	assert.Same(t, net, deps[0])
	assert.Same(t, log, deps[1])
	assert.Empty(t, chain.DependenciesOf(log))

	g, err := chain.Graph()
	require.NoError(t, err)
	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, 3, order)
	_, err = g.Edge("app", "net")
	assert.NoError(t, err)
	_, err = g.Edge("net", "log")
	assert.NoError(t, err)
	_, err = g.Edge("log", "net")
	assert.Error(t, err)
}

func TestErrors_AreDistinguishable(t *testing.T) {
	err := error(&dependency.UnresolvedDependencyError{Name: "x"})

	assert.True(t, errors.Is(err, dependency.ErrUnresolvedDependency))
	assert.False(t, errors.Is(err, dependency.ErrCyclicDependency))
	assert.False(t, errors.Is(err, dependency.ErrAmbiguousDependency))
}

func TestSelection_NamesAreSorted(t *testing.T) {
	selection := dependency.NewSelection("gcc", "clang", "gcc")

	assert.Equal(t, []string{"clang", "gcc"}, selection.Names())
	assert.True(t, selection.Has("clang"))
	assert.False(t, selection.Has("msvc"))
}
