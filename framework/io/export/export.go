// Package export writes entity records to JSON, CSV or YAML files.
//
//	svc := export.NewExporter[*Person](export.DefaultWriters(), export.NewAutoMapper[*Person]())
//	r, err := svc.Export(ctx, export.CSV, people)
package export

import (
	"context"
	"io"
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
)

// Service exports records of E.
type Service[E any] interface {
	Export(ctx context.Context, fileType FileType, records []E) (io.Reader, error)
}

// Exporter maps records to rows with a FieldMapper and hands them to the
// writer of the requested type.
type Exporter[E any] struct {
	writers WriterFactory
	mapper  FieldMapper[E]
}

func NewExporter[E any](writers WritersFor[E], mapper FieldMapper[E]) *Exporter[E] {
	return &Exporter[E]{writers: writers, mapper: mapper}
}

func (x *Exporter[E]) Export(ctx context.Context, fileType FileType, records []E) (io.Reader, error) {
	w, ok := x.writers.Get(fileType)
	if !ok || w == nil {
		return nil, errors.Errorf("could not find writer for type %s", fileType)
	}
	fields := x.mapper.MapOutput()

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rv := reflect.ValueOf(rec)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				break
			}
			rv = rv.Elem()
		}
		row := make([]any, len(fields))
		if rv.Kind() == reflect.Struct {
			for j, f := range fields {
				row[j] = f.value(rv)
			}
		}
		rows = append(rows, row)
	}
	return w.WriteRecords(ctx, fields, rows)
}

// Feature registers the export Service of E, with an AutoMapper and the
// default writers unless the builder maps its own WritersFor[E].
//
//	generator.ForEntity[int64, *Person]().With(memory.Crud[int64, *Person](), export.Feature[int64, *Person]())
func Feature[K comparable, E entity.Entity[K]]() generator.Configurer {
	return generator.ConfigurerFunc(func(b *generator.EntityBuilder) error {
		if !b.Has(generator.ContractOf[WritersFor[E]]()) {
			generator.Supply[WritersFor[E]](b, DefaultWriters())
		}
		generator.ProvideDefault[FieldMapper[E]](b, NewAutoMapper[E])
		generator.ProvideDefault[Service[E]](b, NewExporter[E])
		return b.Err()
	})
}
