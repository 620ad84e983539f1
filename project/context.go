// Package project models packages, targets and the build context they are
// resolved in.
package project

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/buildgraph"
	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/environment"
	"github.com/LegacyCodeHQ/kettle/toolchain"
)

// Configuration is a named build configuration.
type Configuration struct {
	Name          string
	PlatformsPath string
	// Selection names the targets preferred when several provide the same dependency.
	Selection   dependency.Selection
	Environment *environment.Environment
}

// Context holds every loaded target together with the active configuration.
type Context struct {
	Configuration Configuration
	Platform      toolchain.Platform
	Toolchain     *toolchain.Toolchain
	Graphs        *buildgraph.Cache
	Fs            afero.Fs

	packages []*Package
	targets  []*Target
	byName   map[string]*Target
}

// NewContext creates an empty context. The graph cache and toolchain share fs.
func NewContext(config Configuration, platform toolchain.Platform, fs afero.Fs) *Context {
	return &Context{
		Configuration: config,
		Platform:      platform,
		Toolchain:     toolchain.New(platform, fs),
		Graphs:        buildgraph.NewCache(fs),
		Fs:            fs,
		byName:        make(map[string]*Target),
	}
}

// AddPackage registers the package and its targets. Target names are unique.
func (c *Context) AddPackage(pkg *Package) error {
	for _, t := range pkg.Targets {
		if existing, ok := c.byName[t.Name()]; ok {
			return fmt.Errorf("target %q defined by package %s conflicts with package %s",
				t.Name(), pkg.Name, existing.Package().Name)
		}
	}
	for _, t := range pkg.Targets {
		c.byName[t.Name()] = t
		c.targets = append(c.targets, t)
	}
	c.packages = append(c.packages, pkg)
	return nil
}

// Packages returns the registered packages in registration order.
func (c *Context) Packages() []*Package {
	return append([]*Package(nil), c.packages...)
}

// Targets returns every target in registration order.
func (c *Context) Targets() []*Target {
	return append([]*Target(nil), c.targets...)
}

// Target looks up a target by name.
func (c *Context) Target(name string) (*Target, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Providers returns the targets as dependency providers.
func (c *Context) Providers() []dependency.Provider {
	providers := make([]dependency.Provider, len(c.targets))
	for i, t := range c.targets {
		providers[i] = t
	}
	return providers
}

func (c *Context) Selection() dependency.Selection {
	return c.Configuration.Selection
}

// DependencyChain resolves names against every target under the active selection.
func (c *Context) DependencyChain(names []string) (*dependency.Chain, error) {
	return dependency.NewChain(c.Selection(), names, c.Providers())
}
