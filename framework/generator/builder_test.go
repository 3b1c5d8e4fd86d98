package generator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autocrud/framework/generator"
)

func TestBuilder_EntityName(t *testing.T) {
	b := generator.ForEntity[int64, *person]()

	assert.Equal(t, "person", b.EntityName())
	assert.Equal(t, "int64", b.KeyType().String())
}

func TestBuilder_LastWriteWinsKeepsPosition(t *testing.T) {
	b := generator.ForEntity[int64, *person]()
	generator.Provide[IValidator](b, newValidatorImpl)
	generator.Provide[ICreate](b, newCreateImpl)
	generator.Provide[IValidator](b, func() IValidator { return validatorImpl{} })
	require.NoError(t, b.Build())

	regs := b.Registrations()
	require.Len(t, regs, 2)
	assert.Equal(t, generator.ContractOf[IValidator](), regs[0].Contract)
	assert.Equal(t, "generator_test.IValidator", regs[0].Impl.Produces.String())
	assert.Equal(t, generator.ContractOf[ICreate](), regs[1].Contract)
}

func TestBuilder_BuildIsIdempotent(t *testing.T) {
	configured := 0
	b := generator.ForEntity[int64, *person]().
		With(generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
			configured++
			generator.Provide[IValidator](b, newValidatorImpl)
			return nil
		}))
	generator.Provide[ICreate](b, newCreateImpl)
	generator.Supply[Greeter](b, greetFunc(func(n string) string { return n }))

	require.NoError(t, b.Build())
	first, firstInstances := b.Registrations(), b.InstanceRegistrations()

	require.NoError(t, b.Build())
	assert.Equal(t, 1, configured)
	assert.Equal(t, contractsOf(first), contractsOf(b.Registrations()))
	assert.Len(t, b.InstanceRegistrations(), len(firstInstances))
	assert.True(t, b.Built())
}

func TestBuilder_MutationAfterBuildRejected(t *testing.T) {
	b := generator.ForEntity[int64, *person]()
	generator.Provide[IValidator](b, newValidatorImpl)
	require.NoError(t, b.Build())

	generator.Provide[ICreate](b, newCreateImpl)

	assert.ErrorIs(t, b.Err(), generator.ErrBuilderFinalized)
	assert.Len(t, b.Registrations(), 1)
}

func TestBuilder_CustomOverridesDefaults(t *testing.T) {
	custom := func() IValidator { return validatorImpl{} }
	b := generator.ForEntity[int64, *person]().
		With(generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
			generator.Provide[ICreate](b, newCreateImpl)
			generator.Provide[IValidator](b, newValidatorImpl)
			return nil
		}))
	generator.Override[IValidator](b, custom)
	require.NoError(t, b.Build())

	regs := b.Registrations()
	require.Len(t, regs, 2)
	assert.Equal(t, generator.ContractOf[IValidator](), regs[1].Contract)
	assert.Equal(t, "generator_test.IValidator", regs[1].Impl.Produces.String())
}

func TestBuilder_CustomNotAssignable(t *testing.T) {
	b := generator.ForEntity[int64, *person]()
	generator.Override[ICreate](b, newValidatorImpl)

	var invalid *generator.InvalidCustomImplementationError
	require.ErrorAs(t, b.Err(), &invalid)
	assert.Equal(t,
		"cannot use custom configuration generator_test.validatorImpl to implement generator_test.ICreate",
		invalid.Error())
	assert.ErrorAs(t, b.Build(), &invalid)
	assert.Empty(t, b.Registrations())
}

func TestBuilder_InvalidDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		declare func(b *generator.EntityBuilder)
	}{
		{"not a function", func(b *generator.EntityBuilder) { generator.Provide[ICreate](b, 42) }},
		{"no result", func(b *generator.EntityBuilder) { generator.Provide[ICreate](b, func() {}) }},
		{"second result not error", func(b *generator.EntityBuilder) {
			generator.Provide[ICreate](b, func() (*createImpl, int) { return nil, 0 })
		}},
		{"variadic", func(b *generator.EntityBuilder) {
			generator.Provide[ICreate](b, func(...IValidator) *createImpl { return nil })
		}},
		{"zero contract", func(b *generator.EntityBuilder) { b.Register(generator.Contract{}, newCreateImpl) }},
		{"instance not assignable", func(b *generator.EntityBuilder) {
			b.Instance(generator.ContractOf[ICreate](), "nope")
		}},
		{"nil instance", func(b *generator.EntityBuilder) { b.Instance(generator.ContractOf[ICreate](), nil) }},
		{"adapter returning concrete", func(b *generator.EntityBuilder) { b.Adapt(func(int) string { return "" }) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := generator.ForEntity[int64, *person]()
			tt.declare(b)

			var invalid *generator.InvalidDeclarationError
			assert.ErrorAs(t, b.Build(), &invalid)
		})
	}
}

func TestBuilder_ConfigurerErrorSurfacesOnBuild(t *testing.T) {
	boom := errors.New("boom")
	b := generator.ForEntity[int64, *person]().
		With(generator.ConfigurerFunc(func(*generator.EntityBuilder) error { return boom }))

	err := b.Build()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "configuring person")
}

func TestBuilder_InstanceLastWriteWins(t *testing.T) {
	b := generator.ForEntity[int64, *person]()
	generator.Supply[IValidator](b, validatorImpl{})
	generator.Supply[IValidator](b, IValidator(nil))
	generator.Supply[Greeter](b, greetFunc(nil))
	generator.Supply[IValidator](b, &validatorImpl{})

	// The nil interface is rejected; the pointer replaces the value.
	var invalid *generator.InvalidDeclarationError
	assert.ErrorAs(t, b.Build(), &invalid)

	instances := b.InstanceRegistrations()
	require.Len(t, instances, 2)
	assert.IsType(t, &validatorImpl{}, instances[0].Value)
	assert.True(t, b.Has(generator.ContractOf[Greeter]()))
}

func TestBuilder_DefaultsDoNotReplaceExplicit(t *testing.T) {
	explicit := func() IValidator { return validatorImpl{} }
	b := generator.ForEntity[int64, *person]().
		With(generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
			generator.ProvideDefault[IValidator](b, newValidatorImpl)
			generator.ProvideDefault[ICreate](b, newCreateImpl)
			return nil
		}))
	generator.Provide[IValidator](b, explicit)
	require.NoError(t, b.Build())

	regs := b.Registrations()
	require.Len(t, regs, 2)
	assert.Equal(t, "generator_test.IValidator", regs[0].Impl.Produces.String())
	assert.Equal(t, generator.ContractOf[ICreate](), regs[1].Contract)
}
