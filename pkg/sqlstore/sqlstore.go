// Package sqlstore defines the SQL embedded-database external collaborator.
// The interpreter and transpiled runtime only ever see the DB interface;
// row values cross the boundary as value.Value so the rest of the system
// never imports database/sql directly.
package sqlstore

import "github.com/rbscript-lang/rbscript/pkg/value"

// Row is one result row, column name to value.
type Row map[string]value.Value

// DB is the SQL wrapper collaborator interface.
type DB interface {
	// Open connects to (and creates, if absent) the database named by dsn.
	Open(dsn string) error
	// Exec runs a statement that returns no rows (CREATE/INSERT/UPDATE/DELETE).
	Exec(query string, args ...value.Value) (rowsAffected int64, err error)
	// Query runs a statement that returns rows.
	Query(query string, args ...value.Value) ([]Row, error)
	// Close releases the underlying connection.
	Close() error
}
