package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileType names an output format.
type FileType string

const (
	JSON FileType = "json"
	CSV  FileType = "csv"
	YAML FileType = "yaml"
)

// ParseFileType accepts a format name in any case. "yml" is YAML.
func ParseFileType(s string) (FileType, error) {
	switch t := FileType(strings.ToLower(strings.TrimSpace(s))); t {
	case JSON, CSV, YAML:
		return t, nil
	case "yml":
		return YAML, nil
	}
	return "", errors.Errorf("export: unknown file type %q", s)
}

// ContentType is the media type of the written file.
func (t FileType) ContentType() string {
	switch t {
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv"
	case YAML:
		return "application/yaml"
	}
	return "application/octet-stream"
}

// Writer renders rows of field values. rows[i][j] is the value of fields[j].
type Writer interface {
	WriteRecords(ctx context.Context, fields []Field, rows [][]any) (io.Reader, error)
}

// WriterFactory finds the writer for a file type.
type WriterFactory interface {
	Get(t FileType) (Writer, bool)
}

// WritersFor is the WriterFactory the exporter of E uses. Each entity
// resolves its own, so supplying writers for one entity leaves the others
// alone.
type WritersFor[E any] interface {
	WriterFactory
}

// Writers is a WriterFactory backed by a map.
type Writers map[FileType]Writer

func (w Writers) Get(t FileType) (Writer, bool) {
	wr, ok := w[t]
	return wr, ok
}

// DefaultWriters handles JSON, CSV and YAML.
func DefaultWriters() Writers {
	return Writers{
		JSON: jsonWriter{},
		CSV:  csvWriter{},
		YAML: yamlWriter{},
	}
}

// jsonWriter writes an array of objects, keys in field order.
type jsonWriter struct{}

func (jsonWriter) WriteRecords(ctx context.Context, fields []Field, rows [][]any) (io.Reader, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, f := range fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			name, _ := json.Marshal(f.Name)
			val, err := json.Marshal(row[j])
			if err != nil {
				return nil, errors.Wrapf(err, "export: json field %s", f.Name)
			}
			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return &buf, nil
}

// csvWriter writes a header line of field names, then one line per row.
type csvWriter struct{}

func (csvWriter) WriteRecords(ctx context.Context, fields []Field, rows [][]any) (io.Reader, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	line := make([]string, len(fields))
	for j, f := range fields {
		line[j] = f.Name
	}
	if err := w.Write(line); err != nil {
		return nil, errors.Wrap(err, "export: csv header")
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range fields {
			s, err := csvValue(row[j])
			if err != nil {
				return nil, errors.Wrapf(err, "export: csv field %s", fields[j].Name)
			}
			line[j] = s
		}
		if err := w.Write(line); err != nil {
			return nil, errors.Wrap(err, "export: csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "export: csv")
	}
	return &buf, nil
}

func csvValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case time.Time:
		if x.IsZero() {
			return "", nil
		}
		return x.Format(time.RFC3339), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		b, err := json.Marshal(rv.Interface())
		return string(b), err
	}
	return fmt.Sprint(rv.Interface()), nil
}

// yamlWriter writes a sequence of mappings, keys in field order.
type yamlWriter struct{}

func (yamlWriter) WriteRecords(ctx context.Context, fields []Field, rows [][]any) (io.Reader, error) {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for j, f := range fields {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}
			val := &yaml.Node{}
			if err := val.Encode(row[j]); err != nil {
				return nil, errors.Wrapf(err, "export: yaml field %s", f.Name)
			}
			m.Content = append(m.Content, key, val)
		}
		doc.Content = append(doc.Content, m)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "export: yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "export: yaml")
	}
	return &buf, nil
}
