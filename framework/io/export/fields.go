package export

import (
	"reflect"
	"slices"
	"strings"
)

// Field is one output column.
type Field struct {
	Name  string
	index []int
}

// value reads the field from a struct value. Fields behind a nil embedded
// pointer read as nil.
func (f Field) value(v reflect.Value) any {
	fv, err := v.FieldByIndexErr(f.index)
	if err != nil {
		return nil
	}
	if fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil
		}
	}
	return fv.Interface()
}

// FieldMapper lists the columns written for E.
type FieldMapper[E any] interface {
	MapOutput() []Field
}

// AutoMapper maps every exported field of E, named by its json tag. Fields
// of embedded structs are promoted; fields tagged "-" are skipped.
type AutoMapper[E any] struct {
	fields []Field
}

func NewAutoMapper[E any]() *AutoMapper[E] {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	m := &AutoMapper[E]{}
	if t.Kind() == reflect.Struct {
		m.fields = structFields(t)
	}
	return m
}

func (m *AutoMapper[E]) MapOutput() []Field { return slices.Clone(m.fields) }

func structFields(t reflect.Type) []Field {
	var out []Field
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() {
			continue
		}
		name, skip := jsonName(sf)
		if skip {
			continue
		}
		if sf.Anonymous && name == "" && isStruct(sf.Type) {
			// promoted fields follow
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out = append(out, Field{Name: name, index: sf.Index})
	}
	return out
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	return name, false
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
