package generator

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autocrud/framework/container"
)

// Adapter converts a value of type In into the interface Out. Adapters are
// how a delegate table (e.g. a func type with a method) stands in for a
// concrete type that implements the interface.
type Adapter struct {
	fn  reflect.Value
	In  reflect.Type
	Out reflect.Type
}

// NewAdapter inspects fn, which must have the shape func(In) Out with Out an
// interface.
func NewAdapter(fn any) (Adapter, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return Adapter{}, &InvalidDeclarationError{Subject: fmt.Sprintf("%T", fn), Reason: "adapter must be a non-nil function"}
	}
	t := v.Type()
	if t.NumIn() != 1 || t.NumOut() != 1 || t.IsVariadic() {
		return Adapter{}, &InvalidDeclarationError{Subject: t.String(), Reason: "adapter must have the shape func(In) Out"}
	}
	if t.Out(0).Kind() != reflect.Interface {
		return Adapter{}, &InvalidDeclarationError{Subject: t.String(), Reason: "adapter must return an interface"}
	}
	return Adapter{fn: v, In: t.In(0), Out: t.Out(0)}, nil
}

// adaptation turns a constructed value into the value registered for one contract.
type adaptation func(v reflect.Value) reflect.Value

func direct(v reflect.Value) reflect.Value { return v }

func lift(v reflect.Value) reflect.Value {
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

func (a Adapter) adapt(v reflect.Value) reflect.Value {
	return a.fn.Call([]reflect.Value{v})[0]
}

// Target is one contract a synthesized type is registered against.
type Target struct {
	Contract Contract
	Via      string // "direct", "pointer" or the adapter's signature

	adapt adaptation
}

// Synthesized is the runtime stand-in for a generated type: the base
// implementation of one mapping, named <Entity>_<Impl>, registered against
// each of its targets through the adaptation chosen for that target.
type Synthesized struct {
	Signature string
	Base      Mapping
	Targets   []Target
}

// Synthesize decides how the implementation of m satisfies its contract and,
// for interface contracts, the synthesized interface contract I<Signature>.
// implemented is extended with every contract this mapping is registered
// against.
func Synthesize(entity string, m Mapping, adapters []Adapter, implemented *ContractSet) (*Synthesized, error) {
	s := &Synthesized{
		Signature: entity + "_" + m.Impl.Name(),
		Base:      m,
	}

	var wanted ContractSet
	if !m.Contract.IsZero() {
		wanted.Add(m.Contract)
		if m.Contract.IsInterface() {
			wanted.Add(m.Contract.Named("I" + s.Signature))
		}
	}
	if wanted.Len() == 0 {
		// Still resolvable as itself.
		wanted.Add(Contract{Type: m.Impl.Produces, Name: s.Signature})
	}

	for _, c := range wanted.Contracts() {
		via, fn, ok := chooseAdaptation(m.Impl.Produces, c.Type, adapters)
		if !ok {
			return nil, &UnsatisfiedContractError{
				Entity:    entity,
				Signature: s.Signature,
				Contract:  c,
				Produces:  m.Impl.Produces.String(),
			}
		}
		s.Targets = append(s.Targets, Target{Contract: c, Via: via, adapt: fn})
	}

	implemented.Add(s.Contracts()...)
	return s, nil
}

func chooseAdaptation(produced, want reflect.Type, adapters []Adapter) (string, adaptation, bool) {
	if produced.AssignableTo(want) {
		return "direct", direct, true
	}
	if produced.Kind() != reflect.Pointer && produced.Kind() != reflect.Interface &&
		reflect.PointerTo(produced).AssignableTo(want) {
		return "pointer", lift, true
	}
	for _, a := range adapters {
		if a.Out == want && produced.AssignableTo(a.In) {
			return a.fn.Type().String(), a.adapt, true
		}
	}
	return "", nil, false
}

// Contracts lists the targets' contracts in registration order.
func (s *Synthesized) Contracts() []Contract {
	out := make([]Contract, len(s.Targets))
	for i, t := range s.Targets {
		out[i] = t.Contract
	}
	return out
}

// Factory builds the container factory registered for target t.
func (s *Synthesized) Factory(t Target) container.Factory {
	return func(c *container.Container) (any, error) {
		base, err := s.Base.Impl.construct(c)
		if err != nil {
			return nil, errors.Wrapf(err, "constructing %s", s.Signature)
		}
		out := t.adapt(base)
		if !out.IsValid() || (out.Kind() == reflect.Interface && out.IsNil()) {
			return nil, nil
		}
		return out.Interface(), nil
	}
}
