package container

import (
	"fmt"
	"strings"
)

// BindingNotFoundError is returned when Make is called for an unknown abstract.
type BindingNotFoundError struct {
	Abstract string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("container: no binding registered for %q", e.Abstract)
}

// InvalidBindingError is returned by the registration methods.
type InvalidBindingError struct {
	Abstract string
	Reason   string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("container: invalid binding %q: %s", e.Abstract, e.Reason)
}

// ResolutionError wraps a factory failure with the abstract being built.
type ResolutionError struct {
	Abstract string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: resolving %s: %v", shortName(e.Abstract), e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// CircularResolutionError is returned when a factory asks, directly or
// transitively, for the abstract it is building.
type CircularResolutionError struct {
	Chain []string
}

func (e *CircularResolutionError) Error() string {
	names := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		names[i] = shortName(k)
	}
	return "container: circular resolution: " + strings.Join(names, " -> ")
}

// ScopeError is returned when a scoped binding is resolved outside a request scope.
type ScopeError struct {
	Abstract string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("container: %s is scoped and must be resolved inside a scope", shortName(e.Abstract))
}

// TypeMismatchError is returned by Resolve when the resolved value is not a T.
type TypeMismatchError struct {
	Abstract string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("container: %q resolved to %s, not %s", e.Abstract, e.Got, e.Expected)
}
