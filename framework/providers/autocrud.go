package providers

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/config"
	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/events"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/io/export"
	"github.com/km-arc/go-autocrud/framework/routing"
	"github.com/km-arc/go-autocrud/framework/schedule"
	"github.com/km-arc/go-autocrud/framework/web"
)

// CrudEntity is one entity served by the AutoCrudServiceProvider.
type CrudEntity struct {
	Builder *generator.EntityBuilder
	Path    string

	mount func(r *routing.Router, c *container.Container, log *zap.Logger)
}

// Entity declares entity E, configured by cs and served under path. An
// empty path generates the services without routes. Entities configured
// with export.Feature also get GET path/export.
//
//	providers.Entity[int64, *Person]("/api/v1/people", memory.Crud[int64, *Person](), export.Feature[int64, *Person]())
func Entity[K comparable, E entity.Entity[K]](path string, cs ...generator.Configurer) CrudEntity {
	b := generator.ForEntity[K, E]().With(cs...)
	return CrudEntity{
		Builder: b,
		Path:    path,
		mount: func(r *routing.Router, c *container.Container, log *zap.Logger) {
			ec := web.NewEntityController[K, E](c, log)
			if b.Has(generator.ContractOf[export.Service[E]]()) {
				r.Get(path+"/export", ec.Export)
			}
			r.Resource(path, ec)
		},
	}
}

// AutoCrudServiceProvider generates and registers the services of its
// entities. Register resolves the configuration and logger, so it must be
// registered after their providers.
//
// Bound abstracts:
//   - container.KeyFor[*events.Dispatcher]() → *events.Dispatcher
//   - container.KeyFor[entity.DomainEventPublisher]() (alias of the dispatcher)
//   - container.KeyFor[*schedule.Scheduler]() → *schedule.Scheduler
//   - every contract of every entity
type AutoCrudServiceProvider struct {
	container.BaseProvider
	Entities []CrudEntity

	plans []*generator.Plan
}

func (p *AutoCrudServiceProvider) Register(app *container.Container) error {
	cfg, err := container.ResolveType[*config.Config](app)
	if err != nil {
		return err
	}
	log, err := container.ResolveType[*zap.Logger](app)
	if err != nil {
		return err
	}

	dispatcherKey := container.KeyFor[*events.Dispatcher]()
	if err := app.Instance(dispatcherKey, events.NewDispatcher(log)); err != nil {
		return err
	}
	if err := app.Alias(dispatcherKey, container.KeyFor[entity.DomainEventPublisher]()); err != nil {
		return err
	}
	if err := app.Instance(container.KeyFor[*schedule.Scheduler](), schedule.New(log)); err != nil {
		return err
	}

	g := generator.New(log)
	for _, e := range p.Entities {
		g.AddBuilder(e.Builder)
	}
	if cfg.Generator.Concurrent {
		p.plans, err = g.GenerateConcurrent(context.Background(), app)
	} else {
		p.plans, err = g.Generate(app)
	}
	return errors.Wrap(err, "autocrud: generating services")
}

// Boot configures the schema of every entity, schedules the refresh when
// one is configured, and mounts the routes.
func (p *AutoCrudServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.ResolveType[*config.Config](app)
	if err != nil {
		return err
	}
	log, err := container.ResolveType[*zap.Logger](app)
	if err != nil {
		return err
	}

	job := schedule.NewSchemaJob(app, log)
	if err := job.Run(context.Background()); err != nil {
		return errors.Wrap(err, "autocrud: configuring schema")
	}
	if cfg.Schedule.SchemaRefresh != "" {
		s, err := container.ResolveType[*schedule.Scheduler](app)
		if err != nil {
			return err
		}
		if err := job.Schedule(s, cfg.Schedule.SchemaRefresh); err != nil {
			return err
		}
		s.Start()
	}

	router, err := container.ResolveType[*routing.Router](app)
	if err != nil {
		return err
	}
	for _, e := range p.Entities {
		if e.Path != "" && e.mount != nil {
			e.mount(router, app, log)
		}
	}
	return nil
}

// Plans returns the registration plans of the last generation, in entity
// order.
func (p *AutoCrudServiceProvider) Plans() []*generator.Plan {
	return append([]*generator.Plan(nil), p.plans...)
}
