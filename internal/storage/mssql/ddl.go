package mssql

import (
	"fmt"
	"strings"

	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
)

// SQL Server has no CREATE TABLE IF NOT EXISTS; BuildCreateTableSQL guards
// with OBJECT_ID instead.
var dialect = ddl.Dialect{QuoteIdent: msIdent}

// MapType maps contract types to SQL Server column types.
func MapType(t schema.TypeTag) string {
	switch t {
	case schema.Int:
		return "BIGINT"
	case schema.Float:
		return "FLOAT"
	case schema.Decimal:
		return "DECIMAL(38, 10)"
	case schema.Boolean:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE for t.
func BuildCreateTableSQL(t ddl.TableDef) (string, error) {
	create, err := ddl.BuildCreateTableSQL(t, dialect)
	if err != nil {
		return "", err
	}
	name := strings.ReplaceAll(dialect.QuoteFQN(t.FQN), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", name, create), nil
}
