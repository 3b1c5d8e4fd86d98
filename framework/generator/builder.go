package generator

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/pkg/errors"
)

// TagSchema tags the bindings whose value implements a schema configurer, so
// the host can prepare storage for every generated entity at boot.
const TagSchema = "autocrud.schema"

// Configurer contributes default registrations to a builder when it is built.
// Storage backends and feature packs ship as Configurers.
type Configurer interface {
	Configure(b *EntityBuilder) error
}

// ConfigurerFunc adapts a function to Configurer.
type ConfigurerFunc func(b *EntityBuilder) error

func (f ConfigurerFunc) Configure(b *EntityBuilder) error { return f(b) }

// EntityBuilder accumulates the contract tables of one entity type.
//
// Declarations are collected fluently and validated as they arrive; the
// first declaration error is reported by Build and Err. Build applies the
// deferred configurers, then the custom overrides, and freezes the tables.
//
//	b := generator.ForEntity[int64, *Person]().
//	    With(memory.Crud[int64, *Person]()).
//	    Instance(generator.ContractOf[entity.OrderByProvider](), byName)
type EntityBuilder struct {
	entity  reflect.Type
	keyType reflect.Type

	mappings  []Mapping
	instances []InstanceMapping
	customs   []Mapping
	adapters  []Adapter

	configurers []Configurer
	errs        []error
	built       bool
}

// ForEntity starts a builder for entity type E keyed by K.
func ForEntity[K comparable, E any]() *EntityBuilder {
	return NewEntityBuilder(reflect.TypeOf((*E)(nil)).Elem(), reflect.TypeOf((*K)(nil)).Elem())
}

// NewEntityBuilder starts a builder for the given entity and key types.
func NewEntityBuilder(entityType, keyType reflect.Type) *EntityBuilder {
	return &EntityBuilder{entity: entityType, keyType: keyType}
}

// EntityType returns the entity type.
func (b *EntityBuilder) EntityType() reflect.Type { return b.entity }

// KeyType returns the entity's key type.
func (b *EntityBuilder) KeyType() reflect.Type { return b.keyType }

// EntityName is the bare entity type name used in signatures.
func (b *EntityBuilder) EntityName() string { return typeName(b.entity) }

// Register maps contract to the constructor ctor. Registering a contract
// again replaces the earlier constructor in place.
func (b *EntityBuilder) Register(contract Contract, ctor any, opts ...MappingOption) *EntityBuilder {
	if !b.mutable() {
		return b
	}
	m, err := newMapping(contract, ctor, opts)
	if err != nil {
		b.fail(err)
		return b
	}
	b.mappings = upsert(b.mappings, m)
	return b
}

// RegisterDefault is Register for contracts not mapped yet. Configurers use
// it so that explicit declarations win over backend defaults.
func (b *EntityBuilder) RegisterDefault(contract Contract, ctor any, opts ...MappingOption) *EntityBuilder {
	if b.Has(contract) {
		return b
	}
	return b.Register(contract, ctor, opts...)
}

// Instance maps contract to a pre-built value, registered as a singleton.
func (b *EntityBuilder) Instance(contract Contract, value any) *EntityBuilder {
	if !b.mutable() {
		return b
	}
	if contract.IsZero() {
		b.fail(&InvalidDeclarationError{Subject: fmt.Sprintf("%T", value), Reason: "instance without contract"})
		return b
	}
	if value == nil || !reflect.TypeOf(value).AssignableTo(contract.Type) {
		b.fail(&InvalidDeclarationError{
			Subject: fmt.Sprintf("%T", value),
			Reason:  fmt.Sprintf("instance is not assignable to %s", contract),
		})
		return b
	}
	for i, im := range b.instances {
		if im.Contract == contract {
			b.instances[i].Value = value
			return b
		}
	}
	b.instances = append(b.instances, InstanceMapping{Contract: contract, Value: value})
	return b
}

// Custom overrides contract with ctor once the defaults are in place. The
// produced type must be assignable to the contract.
func (b *EntityBuilder) Custom(contract Contract, ctor any, opts ...MappingOption) *EntityBuilder {
	if !b.mutable() {
		return b
	}
	m, err := newMapping(contract, ctor, opts)
	if err != nil {
		b.fail(err)
		return b
	}
	if !m.Impl.Produces.AssignableTo(contract.Type) {
		b.fail(&InvalidCustomImplementationError{Implementation: m.Impl.Produces.String(), Contract: contract})
		return b
	}
	b.customs = upsert(b.customs, m)
	return b
}

// Adapt adds an adapter func(In) Out used when an implementation does not
// implement its contract itself.
func (b *EntityBuilder) Adapt(fn any) *EntityBuilder {
	if !b.mutable() {
		return b
	}
	a, err := NewAdapter(fn)
	if err != nil {
		b.fail(err)
		return b
	}
	b.adapters = append(b.adapters, a)
	return b
}

// With defers configurers until Build.
func (b *EntityBuilder) With(cs ...Configurer) *EntityBuilder {
	if !b.mutable() {
		return b
	}
	b.configurers = append(b.configurers, cs...)
	return b
}

// Build freezes the tables. It runs once; later calls return the same result.
func (b *EntityBuilder) Build() error {
	if b.built {
		return b.Err()
	}
	// Configurers may add further configurers.
	for i := 0; i < len(b.configurers); i++ {
		if err := b.configurers[i].Configure(b); err != nil {
			b.fail(errors.Wrapf(err, "configuring %s", b.EntityName()))
		}
	}
	for _, m := range b.customs {
		b.mappings = upsert(b.mappings, m)
	}
	b.built = true
	return b.Err()
}

// Built reports whether Build ran.
func (b *EntityBuilder) Built() bool { return b.built }

// Err returns the first declaration error.
func (b *EntityBuilder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return b.errs[0]
}

// Registrations returns a copy of the mapping table.
func (b *EntityBuilder) Registrations() []Mapping { return slices.Clone(b.mappings) }

// InstanceRegistrations returns a copy of the instance table.
func (b *EntityBuilder) InstanceRegistrations() []InstanceMapping {
	return slices.Clone(b.instances)
}

// Adapters returns a copy of the adapter table.
func (b *EntityBuilder) Adapters() []Adapter { return slices.Clone(b.adapters) }

// Has reports whether contract is mapped, by constructor or instance.
func (b *EntityBuilder) Has(contract Contract) bool {
	for _, m := range b.mappings {
		if m.Contract == contract {
			return true
		}
	}
	for _, im := range b.instances {
		if im.Contract == contract {
			return true
		}
	}
	return false
}

func (b *EntityBuilder) mutable() bool {
	if b.built {
		b.fail(ErrBuilderFinalized)
		return false
	}
	return true
}

func (b *EntityBuilder) fail(err error) { b.errs = append(b.errs, err) }

func newMapping(contract Contract, ctor any, opts []MappingOption) (Mapping, error) {
	if contract.IsZero() {
		return Mapping{}, &InvalidDeclarationError{Subject: fmt.Sprintf("%T", ctor), Reason: "mapping without contract"}
	}
	impl, err := NewImplementation(ctor)
	if err != nil {
		return Mapping{}, err
	}
	m := Mapping{Contract: contract, Impl: impl}
	for _, opt := range opts {
		opt(&m)
	}
	return m, nil
}

// upsert replaces the mapping with the same contract in place, or appends.
func upsert(table []Mapping, m Mapping) []Mapping {
	for i := range table {
		if table[i].Contract == m.Contract {
			table[i] = m
			return table
		}
	}
	return append(table, m)
}

// ── Typed helpers ─────────────────────────────────────────────────────────────

// Provide registers ctor for contract C.
//
//	generator.Provide[entity.CreateService[int64, *Person]](b, entity.NewCreateService[int64, *Person])
func Provide[C any](b *EntityBuilder, ctor any, opts ...MappingOption) *EntityBuilder {
	return b.Register(ContractOf[C](), ctor, opts...)
}

// ProvideDefault registers ctor for contract C unless C is mapped already.
func ProvideDefault[C any](b *EntityBuilder, ctor any, opts ...MappingOption) *EntityBuilder {
	return b.RegisterDefault(ContractOf[C](), ctor, opts...)
}

// Supply registers value as the singleton for contract C.
func Supply[C any](b *EntityBuilder, value C) *EntityBuilder {
	return b.Instance(ContractOf[C](), value)
}

// Override registers a custom constructor for contract C.
func Override[C any](b *EntityBuilder, ctor any, opts ...MappingOption) *EntityBuilder {
	return b.Custom(ContractOf[C](), ctor, opts...)
}
