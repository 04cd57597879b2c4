package sqlite

import (
	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
)

var dialect = ddl.Dialect{QuoteIdent: sqlIdent, IfNotExists: true}

// MapType maps contract types to SQLite storage classes. Decimals are kept
// as TEXT so their exact digits survive; NUMERIC affinity would turn them
// into REAL.
func MapType(t schema.TypeTag) string {
	switch t {
	case schema.Int, schema.Boolean:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS with double-quoted
// identifiers.
func BuildCreateTableSQL(t ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(t, dialect)
}
