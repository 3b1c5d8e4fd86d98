package sqlstore

import (
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/storage"
)

// Crud backs E with table in the container's *DB. An empty table name
// defaults to the lower-cased entity name. The table is created by the
// schema client, which is tagged generator.TagSchema.
//
//	generator.ForEntity[int64, *Person]().With(sqlstore.Crud[int64, *Person]("people"))
func Crud[K comparable, E entity.Entity[K]](table string, opts ...Option) generator.Configurer {
	return generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
		if _, err := resolveTable[E](table); err != nil {
			return err
		}
		generator.ProvideDefault[*Store[K, E]](b, func(db *DB) (*Store[K, E], error) {
			return NewStore[K, E](db, table, opts...)
		})
		storage.Clients[K, E](b, useStore[K, E])
		storage.Services[K, E](b)
		return b.Err()
	})
}

func useStore[K comparable, E entity.Entity[K]](s *Store[K, E]) *Store[K, E] { return s }
