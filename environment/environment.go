// Package environment implements layered, lazily evaluated build configuration.
//
// An Environment is an immutable stack of layers. Each layer is an ordered list
// of directives (set, default, append). Reading a key folds every layer from
// the oldest to the newest, evaluating deferred bindings against the composed
// environment being read, so a binding may refer to keys that are only defined
// by layers composed after it.
package environment

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/opencontainers/go-digest"
)

// Scope is the read side of a composed environment, handed to deferred bindings.
type Scope interface {
	Lookup(key string) (any, error)
}

// Environment is a layer of directives on top of an optional parent.
// Environments are never mutated after construction; Merge and Combine
// return new values that share their ancestors.
type Environment struct {
	parent     *Environment
	directives []Directive

	mu    sync.Mutex
	cache map[string]any
}

// New creates a single-layer environment.
func New(directives ...Directive) *Environment {
	return newLayer(nil, slices.Clone(directives))
}

// FromMap creates a single-layer environment that sets every key, in sorted key order.
func FromMap(values map[string]any) *Environment {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	directives := make([]Directive, 0, len(keys))
	for _, key := range keys {
		directives = append(directives, Directive{Op: OpSet, Key: key, Binding: Value(values[key])})
	}
	return newLayer(nil, directives)
}

func newLayer(parent *Environment, directives []Directive) *Environment {
	return &Environment{
		parent:     parent,
		directives: directives,
		cache:      make(map[string]any),
	}
}

// Merge evaluates fn against a fresh Builder and returns a new environment
// layered on top of e. The receiver may be nil.
func (e *Environment) Merge(fn func(b *Builder)) *Environment {
	b := &Builder{}
	if fn != nil {
		fn(b)
	}
	return newLayer(e, b.directives)
}

// Combine folds environments left to right. Later layers override earlier
// sets, a later default never overrides an earlier value, and appends keep
// their relative order. Nil environments are skipped.
func Combine(envs ...*Environment) *Environment {
	var top *Environment
	for _, env := range envs {
		if env == nil {
			continue
		}
		for _, layer := range env.layers() {
			if len(layer.directives) == 0 {
				continue
			}
			top = newLayer(top, layer.directives)
		}
	}
	if top == nil {
		return New()
	}
	return top
}

// layers returns the chain from the root layer to e.
func (e *Environment) layers() []*Environment {
	var chain []*Environment
	for layer := e; layer != nil; layer = layer.parent {
		chain = append(chain, layer)
	}
	slices.Reverse(chain)
	return chain
}

// Has reports whether any layer writes key. It does not evaluate bindings.
func (e *Environment) Has(key string) bool {
	for layer := e; layer != nil; layer = layer.parent {
		for _, d := range layer.directives {
			if d.Key == key {
				return true
			}
		}
	}
	return false
}

// Keys returns every written key in order of first appearance.
func (e *Environment) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, layer := range e.layers() {
		for _, d := range layer.directives {
			if !seen[d.Key] {
				seen[d.Key] = true
				keys = append(keys, d.Key)
			}
		}
	}
	return keys
}

// Lookup resolves key. Deferred bindings are evaluated at most once per
// composed environment and see the whole composition.
func (e *Environment) Lookup(key string) (any, error) {
	r := &resolver{env: e}
	return r.Lookup(key)
}

// Flatten resolves every key.
func (e *Environment) Flatten() (map[string]any, error) {
	values := make(map[string]any)
	for _, key := range e.Keys() {
		v, err := e.Lookup(key)
		if err != nil {
			return nil, err
		}
		values[key] = v
	}
	return values, nil
}

// Digest returns a content hash of the resolved environment. Environments
// that resolve to the same values have the same digest.
func (e *Environment) Digest() (digest.Digest, error) {
	values, err := e.Flatten()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode environment: %w", err)
	}
	return digest.FromBytes(data), nil
}

func (e *Environment) cached(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.cache[key]
	return cloneValue(v), ok
}

func (e *Environment) store(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.cache[key]; !ok {
		e.cache[key] = v
	}
}

// fold applies the directives for key, oldest layer first. Directives before
// the last set are replaced by it and never evaluated.
func (e *Environment) fold(key string, s Scope) (any, bool, error) {
	var directives []Directive
	for _, layer := range e.layers() {
		for _, d := range layer.directives {
			if d.Key != key {
				continue
			}
			if d.Op == OpSet {
				directives = directives[:0]
			}
			directives = append(directives, d)
		}
	}

	var value any
	defined := false
	for _, d := range directives {
		if d.Op == OpDefault && defined {
			continue
		}

		v, err := d.Binding.resolve(s)
		if err != nil {
			return nil, false, fmt.Errorf("%s %q: %w", d.Op, key, err)
		}

		switch d.Op {
		case OpSet, OpDefault:
			value = v
		case OpAppend:
			value, err = appendValue(value, defined, v)
			if err != nil {
				return nil, false, fmt.Errorf("append %q: %w", key, err)
			}
		}
		defined = true
	}

	return value, defined, nil
}

// resolver tracks the keys being resolved by one top-level lookup.
type resolver struct {
	env    *Environment
	active []string
}

func (r *resolver) Lookup(key string) (any, error) {
	if v, ok := r.env.cached(key); ok {
		return v, nil
	}
	if slices.Contains(r.active, key) {
		chain := append(slices.Clone(r.active), key)
		return nil, &CircularConfigurationError{Chain: chain}
	}

	r.active = append(r.active, key)
	v, defined, err := r.env.fold(key, r)
	r.active = r.active[:len(r.active)-1]

	if err != nil {
		return nil, err
	}
	if !defined {
		return nil, &MissingConfigurationError{Key: key}
	}

	r.env.store(key, v)
	return cloneValue(v), nil
}
