package sqlstore

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/rbscript-lang/rbscript/pkg/value"
)

// GormDB is the default DB adapter: gorm.Open over a dialector, wired to
// the pure-Go glebarez/sqlite driver rather than a cgo driver or a remote
// dialector, since rbscript only has a local embedded database in scope.
type GormDB struct {
	conn *gorm.DB
}

// NewGormDB constructs an unopened adapter.
func NewGormDB() *GormDB { return &GormDB{} }

func (g *GormDB) Open(dsn string) error {
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("sqlstore: failed to open %q: %w", dsn, err)
	}
	g.conn = conn
	return nil
}

func (g *GormDB) Exec(query string, args ...value.Value) (int64, error) {
	if g.conn == nil {
		return 0, fmt.Errorf("sqlstore: database not open")
	}
	result := g.conn.Exec(query, toNativeArgs(args)...)
	if result.Error != nil {
		return 0, fmt.Errorf("sqlstore: exec failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (g *GormDB) Query(query string, args ...value.Value) ([]Row, error) {
	if g.conn == nil {
		return nil, fmt.Errorf("sqlstore: database not open")
	}
	var raw []map[string]any
	if err := g.conn.Raw(query, toNativeArgs(args)...).Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: query failed: %w", err)
	}
	rows := make([]Row, len(raw))
	for i, r := range raw {
		row := make(Row, len(r))
		for col, v := range r {
			row[col] = fromNative(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func (g *GormDB) Close() error {
	if g.conn == nil {
		return nil
	}
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toNativeArgs coerces interpreter values to the native Go types
// database/sql drivers expect as bind parameters.
func toNativeArgs(args []value.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch a.Kind {
		case value.Integer:
			out[i] = a.I
		case value.Double:
			out[i] = a.F
		case value.Boolean:
			out[i] = a.B
		case value.NullPointer:
			out[i] = nil
		default:
			out[i] = a.String()
		}
	}
	return out
}

// fromNative coerces a driver-scanned column value back into the value
// model's numeric/string kinds only — SQL rows never carry vectors or
// records.
func fromNative(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.NullPtr()
	case int64:
		return value.Int(t)
	case float64:
		return value.Dbl(t)
	case bool:
		return value.Bool(t)
	case []byte:
		return value.Str(string(t))
	case string:
		return value.Str(t)
	default:
		return value.Str(fmt.Sprintf("%v", t))
	}
}
