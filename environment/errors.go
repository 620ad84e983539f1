package environment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfiguration matches lookups of keys no layer defines.
	ErrMissingConfiguration = errors.New("missing configuration")
	// ErrCircularConfiguration matches deferred computations that read their own key.
	ErrCircularConfiguration = errors.New("circular configuration")
)

// MissingConfigurationError reports an undefined key.
type MissingConfigurationError struct {
	Key string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %q is not defined", e.Key)
}

func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// CircularConfigurationError reports a key that depends on itself.
// Chain lists the keys being resolved, ending with the repeated key.
type CircularConfigurationError struct {
	Chain []string
}

func (e *CircularConfigurationError) Error() string {
	return fmt.Sprintf("circular configuration: %s", strings.Join(e.Chain, " -> "))
}

func (e *CircularConfigurationError) Is(target error) bool {
	return target == ErrCircularConfiguration
}
