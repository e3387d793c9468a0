// Package rbrtdb is the runtime support module a transpiled program links
// against only when its feature-flag scan (pkg/transpiler) finds a
// db-open/db-exec/db-query/db-close call. Keeping it separate from
// runtime/rbrt means a program that never touches the SQL collaborator
// never pulls sqlstore, gorm, or glebarez/sqlite into its build.
package rbrtdb

import (
	"github.com/rbscript-lang/rbscript/pkg/sqlstore"
	"github.com/rbscript-lang/rbscript/runtime/rbrt"
)

// Handle holds the lazily opened database connection a generated main
// declares at package scope, the transpiled analogue of pkg/interp's
// Interp.db field.
type Handle struct {
	db sqlstore.DB
}

// Open lazily constructs the sqlstore collaborator and opens dsn.
func Open(h *Handle, dsn rbrt.Value) rbrt.Value {
	if h.db == nil {
		h.db = sqlstore.NewGormDB()
	}
	if err := h.db.Open(rbrt.ToString(dsn)); err != nil {
		panic(&rbrt.RuntimeError{Msg: err.Error()})
	}
	return rbrt.IntValue(0)
}

// Exec runs a statement that returns no rows, yielding the affected row count.
func Exec(h *Handle, query rbrt.Value, args ...rbrt.Value) rbrt.Value {
	if h.db == nil {
		panic(&rbrt.RuntimeError{Msg: "db-exec: database not open"})
	}
	n, err := h.db.Exec(rbrt.ToString(query), args...)
	if err != nil {
		panic(&rbrt.RuntimeError{Msg: err.Error()})
	}
	return rbrt.IntValue(n)
}

// Query runs a statement that returns rows, yielding a dynamic array of
// record values, one per row, fields named after the result columns.
func Query(h *Handle, query rbrt.Value, args ...rbrt.Value) rbrt.Value {
	if h.db == nil {
		panic(&rbrt.RuntimeError{Msg: "db-query: database not open"})
	}
	rows, err := h.db.Query(rbrt.ToString(query), args...)
	if err != nil {
		panic(&rbrt.RuntimeError{Msg: err.Error()})
	}
	out := rbrt.NewArray("dyn", len(rows))
	for i, row := range rows {
		rec := rbrt.NewRecord("row")
		for col, v := range row {
			rbrt.FieldSet(&rec, col, v)
		}
		rbrt.ArraySet(&out, rec, int64(i))
	}
	return out
}

// Close releases the connection, if one was ever opened.
func Close(h *Handle) rbrt.Value {
	if h.db == nil {
		return rbrt.IntValue(0)
	}
	err := h.db.Close()
	h.db = nil
	if err != nil {
		panic(&rbrt.RuntimeError{Msg: err.Error()})
	}
	return rbrt.IntValue(0)
}
