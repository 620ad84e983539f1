package project

import (
	"github.com/LegacyCodeHQ/kettle/environment"
)

// Package groups targets that share a directory and an optional environment.
type Package struct {
	Name string
	Path string
	// Environment may be nil.
	Environment *environment.Environment
	Targets     []*Target
}

// NewPackage creates an empty package rooted at path.
func NewPackage(name, path string, env *environment.Environment) *Package {
	return &Package{Name: name, Path: path, Environment: env}
}

// AddTarget creates a target owned by the package.
func (p *Package) AddTarget(name string) *Target {
	t := NewTarget(p, name)
	p.Targets = append(p.Targets, t)
	return t
}
