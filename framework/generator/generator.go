package generator

import (
	"context"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dump = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

// Generator runs the pipeline Build → Order → Synthesize → Emit → Apply for
// each entity builder it holds.
type Generator struct {
	log      *zap.Logger
	builders []*EntityBuilder
}

// New returns a generator logging to log (nil disables logging).
func New(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log.Named("generator")}
}

// AddBuilder queues b. Each configure func runs on b before it is built.
func (g *Generator) AddBuilder(b *EntityBuilder, configure ...func(*EntityBuilder)) *Generator {
	for _, fn := range configure {
		fn(b)
	}
	g.builders = append(g.builders, b)
	return g
}

// Builders returns the queued builders.
func (g *Generator) Builders() []*EntityBuilder {
	return append([]*EntityBuilder(nil), g.builders...)
}

// Plan builds b and computes its registrations without applying them.
func (g *Generator) Plan(b *EntityBuilder) (*Plan, error) {
	entity := b.EntityName()
	if err := b.Build(); err != nil {
		return nil, err
	}

	ordered, err := Order(entity, b.Registrations())
	if err != nil {
		return nil, err
	}

	adapters := b.Adapters()
	var implemented ContractSet
	synthesized := make([]*Synthesized, 0, len(ordered))
	for _, m := range ordered {
		s, err := Synthesize(entity, m, adapters, &implemented)
		if err != nil {
			return nil, err
		}
		synthesized = append(synthesized, s)
	}

	plan := Emit(entity, synthesized, b.InstanceRegistrations(), &implemented)
	if ce := g.log.Check(zap.DebugLevel, "planned"); ce != nil {
		ce.Write(zap.String("entity", entity), zap.String("plan", dump.Sdump(plan.Lines())))
	}
	return plan, nil
}

// Generate plans and applies every builder in order. It stops at the first
// failing builder; builders applied before it stay registered.
func (g *Generator) Generate(r Registrar) ([]*Plan, error) {
	plans := make([]*Plan, 0, len(g.builders))
	for _, b := range g.builders {
		plan, err := g.generate(b, r)
		if err != nil {
			return plans, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// GenerateConcurrent plans and applies the builders in parallel. Each
// builder's plan is applied as a unit; the first failure cancels builders
// not yet started. Plans are returned in builder order, nil for builders
// that did not complete.
func (g *Generator) GenerateConcurrent(ctx context.Context, r Registrar) ([]*Plan, error) {
	plans := make([]*Plan, len(g.builders))
	eg, ctx := errgroup.WithContext(ctx)
	for i, b := range g.builders {
		i, b := i, b
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plan, err := g.generate(b, r)
			if err != nil {
				return err
			}
			plans[i] = plan
			return nil
		})
	}
	return plans, eg.Wait()
}

func (g *Generator) generate(b *EntityBuilder, r Registrar) (*Plan, error) {
	plan, err := g.Plan(b)
	if err != nil {
		g.log.Error("generation failed", zap.String("entity", b.EntityName()), zap.Error(err))
		return nil, err
	}
	if err := plan.Apply(r); err != nil {
		err = errors.Wrapf(err, "applying %s", plan.Entity)
		g.log.Error("registration failed", zap.String("entity", plan.Entity), zap.Error(err))
		return nil, err
	}
	g.log.Info("registered",
		zap.String("entity", plan.Entity),
		zap.Int("scoped", len(plan.Scoped)),
		zap.Int("instances", len(plan.Instances)),
	)
	return plan, nil
}
