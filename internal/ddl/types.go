package ddl

// ColumnDef describes one column of a generated table.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	// Default is a raw SQL expression.
	Default string
}

// TableDef is a table name, possibly schema-qualified ("schema.table"), plus
// its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect controls how BuildCreateTableSQL renders identifiers.
type Dialect struct {
	// QuoteIdent quotes one identifier segment. Nil emits names verbatim.
	QuoteIdent func(string) string
	// IfNotExists adds IF NOT EXISTS after CREATE TABLE.
	IfNotExists bool
}

func (d Dialect) quote(s string) string {
	if d.QuoteIdent == nil {
		return s
	}
	return d.QuoteIdent(s)
}

// QuoteFQN quotes every dot-separated segment of name.
func (d Dialect) QuoteFQN(name string) string {
	if d.QuoteIdent == nil {
		return name
	}
	parts := splitFQN(name)
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return joinFQN(parts)
}
