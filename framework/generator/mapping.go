package generator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autocrud/framework/container"
)

var (
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	containerType = reflect.TypeOf((**container.Container)(nil)).Elem()
)

// Implementation describes a constructor, inspected once when it is declared.
//
// Constructors have the shape func(deps...) T or func(deps...) (T, error).
// Each parameter is resolved from the container by container.KeyOf of its
// type, except context.Context (the resolving scope's context) and
// *container.Container (the resolving container itself).
type Implementation struct {
	fn reflect.Value

	Params   []reflect.Type
	Produces reflect.Type
	Fallible bool
}

// NewImplementation inspects ctor.
func NewImplementation(ctor any) (Implementation, error) {
	v := reflect.ValueOf(ctor)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return Implementation{}, &InvalidDeclarationError{Subject: fmt.Sprintf("%T", ctor), Reason: "constructor must be a non-nil function"}
	}
	t := v.Type()
	if t.IsVariadic() {
		return Implementation{}, &InvalidDeclarationError{Subject: t.String(), Reason: "variadic constructors are not supported"}
	}
	impl := Implementation{fn: v}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		impl.Fallible = true
	default:
		return Implementation{}, &InvalidDeclarationError{Subject: t.String(), Reason: "constructor must return T or (T, error)"}
	}
	impl.Produces = t.Out(0)
	impl.Params = make([]reflect.Type, t.NumIn())
	for i := range impl.Params {
		impl.Params[i] = t.In(i)
	}
	return impl, nil
}

// Name is the bare name of the produced type.
func (i Implementation) Name() string { return typeName(i.Produces) }

// construct resolves the parameters from c and calls the constructor.
func (i Implementation) construct(c *container.Container) (reflect.Value, error) {
	args := make([]reflect.Value, len(i.Params))
	for n, p := range i.Params {
		arg, err := resolveParam(c, p)
		if err != nil {
			return reflect.Value{}, err
		}
		args[n] = arg
	}
	out := i.fn.Call(args)
	if i.Fallible && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

func resolveParam(c *container.Container, p reflect.Type) (reflect.Value, error) {
	switch p {
	case contextType:
		return reflect.ValueOf(c.Context()), nil
	case containerType:
		return reflect.ValueOf(c), nil
	}
	v, err := c.Make(container.KeyOf(p))
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "resolving parameter %s", p)
	}
	if v == nil {
		return reflect.Zero(p), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(p) {
		return reflect.Value{}, errors.Errorf("parameter %s: container returned %s", p, rv.Type())
	}
	return rv, nil
}

// Mapping pairs a contract with the implementation that provides it.
type Mapping struct {
	Contract Contract
	Impl     Implementation
	Tags     []string
}

// MappingOption customizes a Mapping at declaration.
type MappingOption func(*Mapping)

// WithTags adds container tags to the mapping's primary contract.
func WithTags(tags ...string) MappingOption {
	return func(m *Mapping) { m.Tags = append(m.Tags, tags...) }
}

// DependsOn reports whether any constructor parameter of m is c's type or
// accepts it.
func (m Mapping) DependsOn(c Contract) bool {
	if c.Type == nil {
		return false
	}
	for _, p := range m.Impl.Params {
		if p == c.Type || c.Type.AssignableTo(p) {
			return true
		}
	}
	return false
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s -> %s", m.Contract, m.Impl.Produces)
}

// InstanceMapping pairs a contract with a pre-built value.
type InstanceMapping struct {
	Contract Contract
	Value    any
}
