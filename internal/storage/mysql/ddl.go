package mysql

import (
	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
)

var dialect = ddl.Dialect{QuoteIdent: myIdent, IfNotExists: true}

// MapType maps contract types to MySQL column types.
func MapType(t schema.TypeTag) string {
	switch t {
	case schema.Int:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE"
	case schema.Decimal:
		return "DECIMAL(65, 30)"
	case schema.Boolean:
		return "BOOLEAN"
	default:
		return "LONGTEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS with backtick-quoted
// identifiers.
func BuildCreateTableSQL(t ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(t, dialect)
}
