package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/app"
	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/events"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/io/export"
	"github.com/km-arc/go-autocrud/framework/providers"
	"github.com/km-arc/go-autocrud/framework/storage/memory"
	"github.com/km-arc/go-autocrud/framework/storage/sqlstore"
)

// Person is served under /api/v1/people.
type Person struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	NickName  string `json:"nickName,omitempty"`
	entity.Timestamps
}

func (p *Person) GetID() int64   { return p.ID }
func (p *Person) SetID(id int64) { p.ID = id }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "autocrud: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	application, err := app.New() // loads .env automatically
	if err != nil {
		return err
	}
	cfg, log := application.Config(), application.Log()

	backend := sqlstore.Crud[int64, *Person]("people")
	if cfg.DB.InMemory() {
		backend = memory.Crud[int64, *Person]()
	}
	crud := &providers.AutoCrudServiceProvider{Entities: []providers.CrudEntity{
		providers.Entity[int64, *Person]("/api/v1/people",
			backend,
			export.Feature[int64, *Person](),
			generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
				generator.Supply[entity.OrderByProvider[int64, *Person]](b, entity.OrderByFields[int64, *Person]("lastName", "firstName"))
				return nil
			}),
		),
	}}
	if err := application.Register(crud); err != nil {
		return err
	}
	if err := application.Boot(); err != nil {
		return err
	}
	for _, plan := range crud.Plans() {
		log.Debug("registered", zap.String("entity", plan.Entity), zap.Strings("registrations", plan.Lines()))
	}

	dispatcher, err := container.ResolveType[*events.Dispatcher](application.Container)
	if err != nil {
		return err
	}
	dispatcher.Subscribe("", events.Log(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.Debug {
		if err := sample(ctx, application.Scope(ctx), log); err != nil {
			return errors.Wrap(err, "sample")
		}
	}
	return application.Run(ctx)
}

// sample walks one person through create, update, patch and read.
func sample(ctx context.Context, scope *container.Container, log *zap.Logger) error {
	creator, err := container.ResolveType[entity.CreateService[int64, *Person]](scope)
	if err != nil {
		return err
	}
	updater, err := container.ResolveType[entity.UpdateService[int64, *Person]](scope)
	if err != nil {
		return err
	}
	reader, err := container.ResolveType[entity.ReadService[int64, *Person]](scope)
	if err != nil {
		return err
	}

	p, err := creator.Create(ctx, &Person{FirstName: "Bob", LastName: "Bobert"})
	if err != nil {
		return err
	}
	log.Info("created", zap.Any("person", p))

	p.FirstName = "Robert"
	if p, err = updater.Update(ctx, p); err != nil {
		return err
	}
	log.Info("updated", zap.Any("person", p))

	if p, err = updater.Patch(ctx, p.ID, []byte(`{"nickName":"Bobby"}`)); err != nil {
		return err
	}
	log.Info("patched", zap.Any("person", p))

	read, err := reader.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	log.Info("read", zap.Any("person", read))
	return nil
}
