package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBuilderFinalized is recorded when a builder is mutated after Build.
var ErrBuilderFinalized = errors.New("generator: builder already built")

// CircularDependencyError reports mappings that could not be ordered.
type CircularDependencyError struct {
	Entity     string
	Unresolved []Contract

	// contract → unresolved contracts its constructor waits on
	WaitingOn map[Contract][]Contract
}

func (e *CircularDependencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generator: dependency resolution failed for %s, circular dependency suspected:", e.Entity)
	for _, c := range e.Unresolved {
		fmt.Fprintf(&b, " %s", c)
		if deps := e.WaitingOn[c]; len(deps) > 0 {
			names := make([]string, len(deps))
			for i, d := range deps {
				names[i] = d.String()
			}
			fmt.Fprintf(&b, " (needs %s)", strings.Join(names, ", "))
		}
		b.WriteByte(';')
	}
	return strings.TrimSuffix(b.String(), ";")
}

// UnsatisfiedContractError reports an implementation that cannot be adapted
// to a contract.
type UnsatisfiedContractError struct {
	Entity    string
	Signature string
	Contract  Contract
	Produces  string
}

func (e *UnsatisfiedContractError) Error() string {
	return fmt.Sprintf("generator: %s: %s (%s) does not implement %s and no adapter applies",
		e.Entity, e.Signature, e.Produces, e.Contract)
}

// InvalidCustomImplementationError rejects a custom override whose produced
// type is not assignable to its contract.
type InvalidCustomImplementationError struct {
	Implementation string
	Contract       Contract
}

func (e *InvalidCustomImplementationError) Error() string {
	return fmt.Sprintf("cannot use custom configuration %s to implement %s", e.Implementation, e.Contract)
}

// InvalidDeclarationError rejects a malformed constructor, instance or adapter.
type InvalidDeclarationError struct {
	Subject string
	Reason  string
}

func (e *InvalidDeclarationError) Error() string {
	return fmt.Sprintf("generator: invalid declaration %s: %s", e.Subject, e.Reason)
}
