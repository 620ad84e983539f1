package project

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/environment"
)

// Action performs a target's build or install step.
type Action func(ctx context.Context, req InstallRequest) error

// InstallRequest is handed to an Action.
type InstallRequest struct {
	Target      *Target
	Environment *environment.Environment
	Context     *Context
}

// Target is a named buildable unit owned by a package.
type Target struct {
	name       string
	pkg        *Package
	deps       []string
	provisions map[string]func(*environment.Builder)
	priority   int
	action     Action
}

// NewTarget creates a target owned by pkg.
func NewTarget(pkg *Package, name string) *Target {
	return &Target{
		name:       name,
		pkg:        pkg,
		provisions: make(map[string]func(*environment.Builder)),
	}
}

func (t *Target) Name() string           { return t.name }
func (t *Target) Package() *Package      { return t.pkg }
func (t *Target) Priority() int          { return t.priority }
func (t *Target) Dependencies() []string { return append([]string(nil), t.deps...) }
func (t *Target) HasAction() bool        { return t.action != nil }

func (t *Target) String() string {
	return fmt.Sprintf("<Target: %s>", t.name)
}

// DependsOn appends dependency names.
func (t *Target) DependsOn(names ...string) *Target {
	t.deps = append(t.deps, names...)
	return t
}

// Provide declares that the target satisfies name, offering fragment to dependents.
// A nil fragment provides the name without configuration.
func (t *Target) Provide(name string, fragment func(*environment.Builder)) *Target {
	t.provisions[name] = fragment
	return t
}

// SetPriority sets the rank used when several targets provide the same name.
func (t *Target) SetPriority(priority int) *Target {
	t.priority = priority
	return t
}

// Install registers the build action, replacing any previous one.
func (t *Target) Install(action Action) *Target {
	t.action = action
	return t
}

// Provides reports whether the target satisfies name, either by its own
// name or through an explicit provision.
func (t *Target) Provides(name string) bool {
	if name == t.name {
		return true
	}
	_, ok := t.provisions[name]
	return ok
}

func (t *Target) Provision(name string) (dependency.Provision, bool) {
	fragment, ok := t.provisions[name]
	if !ok || fragment == nil {
		return dependency.Provision{}, false
	}
	return dependency.Provision{Name: name, Fragment: fragment}, true
}

// ProvidedNames returns the names explicitly provided, sorted.
func (t *Target) ProvidedNames() []string {
	return slices.Sorted(maps.Keys(t.provisions))
}

// Environment composes the effective environment of the target: the base
// configuration, the provisions of its resolved dependencies, the package
// environment, and finally the build path defaults.
func (t *Target) Environment(pctx *Context) (*environment.Environment, error) {
	chain, err := pctx.DependencyChain(t.deps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	envs := []*environment.Environment{pctx.Configuration.Environment}
	for _, provision := range chain.Provisions {
		envs = append(envs, provision.Environment())
	}
	if t.pkg != nil {
		envs = append(envs, t.pkg.Environment)
	}

	return environment.Combine(envs...).Merge(func(b *environment.Builder) {
		b.Default("platforms_path", environment.Value(pctx.Configuration.PlatformsPath))
		b.Default("platform_name", environment.Value(pctx.Platform.String()))
		b.Default("build_prefix", environment.Deferred(func(s environment.Scope) (any, error) {
			return platformPath(s, "cache")
		}))
		b.Default("install_prefix", environment.Deferred(func(s environment.Scope) (any, error) {
			return platformPath(s, "")
		}))
		b.Append("buildflags", environment.Deferred(func(s environment.Scope) (any, error) {
			prefix, err := environment.LookupString(s, "install_prefix")
			if err != nil {
				return nil, err
			}
			return "-I" + filepath.Join(prefix, "include"), nil
		}))
		b.Append("linkflags", environment.Deferred(func(s environment.Scope) (any, error) {
			prefix, err := environment.LookupString(s, "install_prefix")
			if err != nil {
				return nil, err
			}
			return "-L" + filepath.Join(prefix, "lib"), nil
		}))
	}), nil
}

// platformPath returns <platforms_path>/<sub>/<platform_name>-<variant>.
func platformPath(s environment.Scope, sub string) (string, error) {
	root, err := environment.LookupString(s, "platforms_path")
	if err != nil {
		return "", err
	}
	platform, err := environment.LookupString(s, "platform_name")
	if err != nil {
		return "", err
	}
	variant, err := environment.LookupString(s, "variant")
	if err != nil {
		return "", err
	}
	return filepath.Join(root, sub, platform+"-"+variant), nil
}

// InstallNow composes the environment and runs the action. Targets without
// an action do nothing.
func (t *Target) InstallNow(ctx context.Context, pctx *Context) error {
	if t.action == nil {
		return nil
	}
	env, err := t.Environment(pctx)
	if err != nil {
		return err
	}
	if err := t.action(ctx, InstallRequest{Target: t, Environment: env, Context: pctx}); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	return nil
}

