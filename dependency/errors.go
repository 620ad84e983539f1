package dependency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrAmbiguousDependency  = errors.New("ambiguous dependency")
)

// UnresolvedDependencyError reports a name no provider satisfies.
type UnresolvedDependencyError struct {
	Name string
	// Via is the provider that required Name, empty for root names.
	Via string
}

func (e *UnresolvedDependencyError) Error() string {
	if e.Via != "" {
		return fmt.Sprintf("unresolved dependency %q required by %s", e.Name, e.Via)
	}
	return fmt.Sprintf("unresolved dependency %q", e.Name)
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// AmbiguousDependencyError reports a name several equally ranked providers satisfy.
type AmbiguousDependencyError struct {
	Name       string
	Via        string
	Candidates []string
}

func (e *AmbiguousDependencyError) Error() string {
	msg := fmt.Sprintf("ambiguous dependency %q: provided by %s", e.Name, strings.Join(e.Candidates, ", "))
	if e.Via != "" {
		msg += " (required by " + e.Via + ")"
	}
	return msg
}

func (e *AmbiguousDependencyError) Is(target error) bool {
	return target == ErrAmbiguousDependency
}

// CyclicDependencyError reports a cycle. Cycle starts and ends with the same provider.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}
