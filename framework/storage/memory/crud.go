package memory

import (
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/storage"
)

// Crud backs E with a fresh Store. The store is a singleton; the clients and
// default services on top of it are resolved per scope.
//
//	generator.ForEntity[int64, *Person]().With(memory.Crud[int64, *Person]())
func Crud[K comparable, E entity.Entity[K]](opts ...Option) generator.Configurer {
	return generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
		generator.Supply[*Store[K, E]](b, NewStore[K, E](opts...))
		storage.Clients[K, E](b, useStore[K, E])
		storage.Services[K, E](b)
		return b.Err()
	})
}

func useStore[K comparable, E entity.Entity[K]](s *Store[K, E]) *Store[K, E] { return s }
