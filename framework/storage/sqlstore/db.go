// Package sqlstore stores entities as JSON documents in SQL tables. One
// table per entity holds (id, data, created_at, modified_at); searches filter
// and order on the document with the dialect's JSON functions.
//
// Supported drivers are sqlite3, mysql and postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB is a database handle that knows its SQL dialect.
type DB struct {
	*sql.DB
	driver  string
	dialect dialect
}

// Open connects to dsn with driver and verifies the connection.
//
//	db, err := sqlstore.Open(ctx, "sqlite3", "file:autocrud.db")
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, errors.Errorf("sqlstore: unsupported driver %q", driver)
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlstore: opening %s", driver)
	}
	if driver == "sqlite3" {
		// Every connection to an in-memory database is a new database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrapf(err, "sqlstore: connecting to %s", driver)
	}
	return &DB{DB: sqlDB, driver: driver, dialect: d}, nil
}

// Driver returns the database driver name.
func (db *DB) Driver() string { return db.driver }

// dialect captures what differs between the supported databases.
type dialect struct {
	placeholder func(n int) string
	// column definitions: integer key, text key, document, timestamp
	intKey, textKey, doc, stamp string
	// jsonField extracts a top-level document field for ordering.
	jsonField func(field string) string
	// returning is appended to inserts that need the generated key back.
	returning string
	// index reports support for CREATE INDEX IF NOT EXISTS.
	index bool
}

var dialects = map[string]dialect{
	"sqlite3": {
		placeholder: func(int) string { return "?" },
		intKey:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		textKey:     "TEXT PRIMARY KEY",
		doc:         "TEXT NOT NULL",
		stamp:       "TIMESTAMP NOT NULL",
		jsonField:   func(f string) string { return "json_extract(data, '$." + f + "')" },
		index:       true,
	},
	"mysql": {
		placeholder: func(int) string { return "?" },
		intKey:      "BIGINT AUTO_INCREMENT PRIMARY KEY",
		textKey:     "VARCHAR(64) PRIMARY KEY",
		doc:         "LONGTEXT NOT NULL",
		stamp:       "DATETIME(6) NOT NULL",
		jsonField:   func(f string) string { return "JSON_EXTRACT(data, '$." + f + "')" },
	},
	"postgres": {
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		intKey:      "BIGSERIAL PRIMARY KEY",
		textKey:     "TEXT PRIMARY KEY",
		doc:         "TEXT NOT NULL",
		stamp:       "TIMESTAMPTZ NOT NULL",
		jsonField:   func(f string) string { return "(data::jsonb -> '" + f + "')" },
		returning:   " RETURNING id",
		index:       true,
	},
}

// statement accumulates SQL text and its arguments, numbering placeholders
// for the dialect.
type statement struct {
	d    dialect
	sql  strings.Builder
	args []any
}

func (s *statement) write(format string, a ...any) *statement {
	fmt.Fprintf(&s.sql, format, a...)
	return s
}

// bind writes a placeholder for v.
func (s *statement) bind(v any) *statement {
	s.args = append(s.args, v)
	s.sql.WriteString(s.d.placeholder(len(s.args)))
	return s
}

func (s *statement) String() string { return s.sql.String() }
