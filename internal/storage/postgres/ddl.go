package postgres

import (
	"strings"

	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
)

var dialect = ddl.Dialect{QuoteIdent: quoteIdent, IfNotExists: true}

// MapType maps contract types to Postgres column types.
func MapType(t schema.TypeTag) string {
	switch t {
	case schema.Int:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
	case schema.Decimal:
		return "NUMERIC"
	case schema.Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement with
// double-quoted identifiers.
func BuildCreateTableSQL(t ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(t, dialect)
}

// quoteIdent quotes a single identifier segment, e.g. `weird"name` becomes
// `"weird""name"`.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
