// Package storage holds what the storage backends share: the registration
// of the default entity services on top of a backend's clients.
package storage

import (
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
)

// Clients maps every client contract of E to ctor, whose result must
// implement all of them. The schema client is tagged generator.TagSchema.
func Clients[K comparable, E entity.Entity[K]](b *generator.EntityBuilder, ctor any) {
	generator.ProvideDefault[entity.CreateClient[K, E]](b, ctor)
	generator.ProvideDefault[entity.ReadClient[K, E]](b, ctor)
	generator.ProvideDefault[entity.UpdateClient[K, E]](b, ctor)
	generator.ProvideDefault[entity.DeleteClient[K, E]](b, ctor)
	generator.ProvideDefault[entity.SearchClient[K, E]](b, ctor)
	generator.ProvideDefault[entity.SchemaClient[K, E]](b, ctor, generator.WithTags(generator.TagSchema))
}

// Services maps the service contracts of E to the default services. An
// entity without an OrderByProvider gets an empty default order.
func Services[K comparable, E entity.Entity[K]](b *generator.EntityBuilder) {
	generator.ProvideDefault[entity.CreateService[K, E]](b, entity.NewCreateService[K, E])
	generator.ProvideDefault[entity.ReadService[K, E]](b, entity.NewReadService[K, E])
	generator.ProvideDefault[entity.UpdateService[K, E]](b, entity.NewUpdateService[K, E])
	generator.ProvideDefault[entity.DeleteService[K, E]](b, entity.NewDeleteService[K, E])
	generator.ProvideDefault[entity.SearchService[K, E]](b, entity.NewSearchService[K, E])

	if !b.Has(generator.ContractOf[entity.OrderByProvider[K, E]]()) {
		generator.Supply[entity.OrderByProvider[K, E]](b, entity.DefaultOrder[K, E](nil))
	}
}
