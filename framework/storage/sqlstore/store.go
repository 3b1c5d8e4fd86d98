package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/entity"
)

var (
	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Option configures a Store.
type Option func(*options)

type options struct {
	log   *zap.Logger
	clock func() time.Time
}

// WithLogger logs statements at debug level to log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithClock replaces time.Now for created and modified dates.
func WithClock(clock func() time.Time) Option { return func(o *options) { o.clock = clock } }

// Store keeps the entities of one type in one table. It implements every
// client contract of the entity package.
type Store[K comparable, E entity.Entity[K]] struct {
	db    *DB
	table string
	log   *zap.Logger
	clock func() time.Time
}

// NewStore returns a store over table. An empty table name defaults to the
// lower-cased entity name.
func NewStore[K comparable, E entity.Entity[K]](db *DB, table string, opts ...Option) (*Store[K, E], error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}
	table, err := resolveTable[E](table)
	if err != nil {
		return nil, err
	}
	o := options{log: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, E]{
		db:    db,
		table: table,
		log:   o.log.Named("sqlstore").With(zap.String("table", table)),
		clock: o.clock,
	}, nil
}

func resolveTable[E any](table string) (string, error) {
	if table == "" {
		table = strings.ToLower(entity.Name[E]())
	}
	if !tableName.MatchString(table) {
		return "", errors.Errorf("sqlstore: invalid table name %q", table)
	}
	return table, nil
}

// Table returns the table name.
func (s *Store[K, E]) Table() string { return s.table }

// ConfigureSchema implements entity.SchemaConfigurer with EnsureSchema.
func (s *Store[K, E]) ConfigureSchema(ctx context.Context) error { return s.EnsureSchema(ctx) }

// EnsureSchema creates the table and its created_at index if they do not
// exist.
func (s *Store[K, E]) EnsureSchema(ctx context.Context) error {
	d := s.db.dialect
	key := d.textKey
	if entity.IsIntegerKey[K]() {
		key = d.intKey
	}
	ddl := []string{"CREATE TABLE IF NOT EXISTS " + s.table + " (id " + key +
		", data " + d.doc + ", created_at " + d.stamp + ", modified_at " + d.stamp + ")"}
	if d.index {
		ddl = append(ddl, "CREATE INDEX IF NOT EXISTS "+s.table+"_created_at ON "+s.table+" (created_at)")
	}
	for _, stmt := range ddl {
		s.log.Debug("configuring schema", zap.String("sql", stmt))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "sqlstore: preparing table %s", s.table)
		}
	}
	return nil
}

// Add inserts e. A zero integer key is generated by the database; a zero
// string key is generated randomly.
func (s *Store[K, E]) Add(ctx context.Context, e E) (E, error) {
	var zero E
	now := s.clock().UTC()
	stamp(e, now, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, errors.Wrap(err, "sqlstore: begin")
	}
	defer func() { _ = tx.Rollback() }()

	// Generated integer keys come from inserting a placeholder row first.
	inserted := false
	key := e.GetID()
	switch {
	case !entity.IsZeroKey(key):
	case entity.IsIntegerKey[K]():
		id, err := s.insertGenerated(ctx, tx, now)
		if err != nil {
			return zero, err
		}
		if key, err = entity.NewKey[K](id); err != nil {
			return zero, err
		}
		e.SetID(key)
		inserted = true
	default:
		if key, err = entity.NewKey[K](0); err != nil {
			return zero, err
		}
		e.SetID(key)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return zero, errors.Wrapf(err, "sqlstore: encoding %s", entity.Name[E]())
	}
	st := s.statement()
	if inserted {
		st.write("UPDATE %s SET data = ", s.table).bind(string(data)).write(" WHERE id = ").bind(key)
	} else {
		st.write("INSERT INTO %s (id, data, created_at, modified_at) VALUES (", s.table).
			bind(key).write(", ").bind(string(data)).write(", ").bind(now).write(", ").bind(now).write(")")
	}
	if _, err := tx.ExecContext(ctx, st.String(), st.args...); err != nil {
		return zero, errors.Wrapf(err, "sqlstore: adding %s %v", entity.Name[E](), key)
	}
	if err := tx.Commit(); err != nil {
		return zero, errors.Wrap(err, "sqlstore: commit")
	}
	s.log.Debug("added", zap.Any("key", key))
	return s.decode(data)
}

// GetByKey loads the entity stored under key.
func (s *Store[K, E]) GetByKey(ctx context.Context, key K) (E, error) {
	data, err := s.load(ctx, s.db.DB, key)
	if err != nil {
		var zero E
		return zero, err
	}
	return s.decode(data)
}

// Replace overwrites the stored entity with e, keeping its created date.
func (s *Store[K, E]) Replace(ctx context.Context, e E) (E, error) {
	var zero E
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, errors.Wrap(err, "sqlstore: begin")
	}
	defer func() { _ = tx.Rollback() }()

	key := e.GetID()
	old, err := s.load(ctx, tx, key)
	if err != nil {
		return zero, err
	}
	previous, err := s.decode(old)
	if err != nil {
		return zero, err
	}
	now := s.clock().UTC()
	created := now
	if ts, ok := any(previous).(entity.Timestamped); ok {
		created = ts.CreatedDate()
	}
	stamp(e, created, now)

	data, err := json.Marshal(e)
	if err != nil {
		return zero, errors.Wrapf(err, "sqlstore: encoding %s", entity.Name[E]())
	}
	st := s.statement().write("UPDATE %s SET data = ", s.table).bind(string(data)).
		write(", modified_at = ").bind(now).write(" WHERE id = ").bind(key)
	if _, err := tx.ExecContext(ctx, st.String(), st.args...); err != nil {
		return zero, errors.Wrapf(err, "sqlstore: replacing %s %v", entity.Name[E](), key)
	}
	if err := tx.Commit(); err != nil {
		return zero, errors.Wrap(err, "sqlstore: commit")
	}
	return s.decode(data)
}

// Remove deletes the entity stored under key and returns it.
func (s *Store[K, E]) Remove(ctx context.Context, key K) (E, error) {
	var zero E
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, errors.Wrap(err, "sqlstore: begin")
	}
	defer func() { _ = tx.Rollback() }()

	data, err := s.load(ctx, tx, key)
	if err != nil {
		return zero, err
	}
	st := s.statement().write("DELETE FROM %s WHERE id = ", s.table).bind(key)
	if _, err := tx.ExecContext(ctx, st.String(), st.args...); err != nil {
		return zero, errors.Wrapf(err, "sqlstore: removing %s %v", entity.Name[E](), key)
	}
	if err := tx.Commit(); err != nil {
		return zero, errors.Wrap(err, "sqlstore: commit")
	}
	s.log.Debug("removed", zap.Any("key", key))
	return s.decode(data)
}

// Find filters, orders and pages the table. Search matches the JSON document
// text case-insensitively; date bounds apply to the created_at and
// modified_at columns. Rows without an ordering come in key order. Order
// fields that are not plain identifiers are ignored.
func (s *Store[K, E]) Find(ctx context.Context, q entity.Query) (entity.PagedResponse[E], error) {
	var page entity.PagedResponse[E]

	if q.DoCount {
		st := s.statement().write("SELECT COUNT(*) FROM %s", s.table)
		s.filter(st, q)
		var total int64
		if err := s.db.QueryRowContext(ctx, st.String(), st.args...).Scan(&total); err != nil {
			return page, errors.Wrapf(err, "sqlstore: counting %s", s.table)
		}
		page.TotalRecords = &total
	}

	st := s.statement().write("SELECT data FROM %s", s.table)
	s.filter(st, q)
	st.write(" ORDER BY ")
	for _, ob := range q.OrderBy {
		// field names end up inside a JSON path literal
		if !fieldName.MatchString(ob.Field) {
			s.log.Warn("ignoring order field", zap.String("field", ob.Field))
			continue
		}
		dir := "ASC"
		if !ob.Ascending {
			dir = "DESC"
		}
		st.write("%s %s, ", s.db.dialect.jsonField(ob.Field), dir)
	}
	st.write("id ASC")
	if q.Paged() {
		st.write(" LIMIT %d OFFSET %d", q.PageSize, q.Offset())
		number, size := q.PageNumber, q.PageSize
		page.CurrentPage, page.CurrentPageSize = &number, &size
	}

	s.log.Debug("find", zap.String("sql", st.String()))
	rows, err := s.db.QueryContext(ctx, st.String(), st.args...)
	if err != nil {
		return entity.PagedResponse[E]{}, errors.Wrapf(err, "sqlstore: searching %s", s.table)
	}
	defer rows.Close()

	page.Data = []E{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return entity.PagedResponse[E]{}, errors.Wrapf(err, "sqlstore: scanning %s", s.table)
		}
		e, err := s.decode(data)
		if err != nil {
			return entity.PagedResponse[E]{}, err
		}
		page.Data = append(page.Data, e)
	}
	if err := rows.Err(); err != nil {
		return entity.PagedResponse[E]{}, errors.Wrapf(err, "sqlstore: searching %s", s.table)
	}
	return page, nil
}

func (s *Store[K, E]) filter(st *statement, q entity.Query) {
	n := 0
	where := func(cond string) *statement {
		if n == 0 {
			st.write(" WHERE ")
		} else {
			st.write(" AND ")
		}
		n++
		return st.write("%s", cond)
	}
	if q.Search != "" {
		where("LOWER(data) LIKE ").bind("%"+likeEscaper.Replace(strings.ToLower(q.Search))+"%").write(" ESCAPE '!'")
	}
	if q.CreatedStart != nil {
		where("created_at >= ").bind(q.CreatedStart.UTC())
	}
	if q.CreatedEnd != nil {
		where("created_at <= ").bind(q.CreatedEnd.UTC())
	}
	if q.ModifiedStart != nil {
		where("modified_at >= ").bind(q.ModifiedStart.UTC())
	}
	if q.ModifiedEnd != nil {
		where("modified_at <= ").bind(q.ModifiedEnd.UTC())
	}
}

// likeEscaper quotes LIKE wildcards with '!', which needs no escaping in the
// string literals of any supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store[K, E]) load(ctx context.Context, db queryer, key K) ([]byte, error) {
	st := s.statement().write("SELECT data FROM %s WHERE id = ", s.table).bind(key)
	var data []byte
	err := db.QueryRowContext(ctx, st.String(), st.args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sqlstore: loading %s %v", entity.Name[E](), key)
	}
	return data, nil
}

func (s *Store[K, E]) insertGenerated(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
	st := s.statement().write("INSERT INTO %s (data, created_at, modified_at) VALUES (", s.table).
		bind("{}").write(", ").bind(now).write(", ").bind(now).write(")%s", s.db.dialect.returning)

	var id int64
	if s.db.dialect.returning != "" {
		if err := tx.QueryRowContext(ctx, st.String(), st.args...).Scan(&id); err != nil {
			return 0, errors.Wrapf(err, "sqlstore: adding %s", entity.Name[E]())
		}
		return id, nil
	}
	res, err := tx.ExecContext(ctx, st.String(), st.args...)
	if err != nil {
		return 0, errors.Wrapf(err, "sqlstore: adding %s", entity.Name[E]())
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, errors.Wrapf(err, "sqlstore: reading generated key of %s", entity.Name[E]())
	}
	return id, nil
}

func (s *Store[K, E]) statement() *statement { return &statement{d: s.db.dialect} }

func (s *Store[K, E]) decode(data []byte) (E, error) {
	e := entity.New[E]()
	if err := json.Unmarshal(data, e); err != nil {
		var zero E
		return zero, errors.Wrapf(err, "sqlstore: decoding %s", entity.Name[E]())
	}
	return e, nil
}

func stamp(e any, created, modified time.Time) {
	if ts, ok := e.(entity.Timestamped); ok {
		ts.SetCreatedDate(created)
		ts.SetModifiedDate(modified)
	}
}
