// Package ddl models simple CREATE TABLE statements and derives them from a
// schema contract. Backends supply a Dialect for quoting and their own type
// mapping; anything dialect-specific beyond that stays in the backend.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders t as
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <name> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...
//	  [PRIMARY KEY (<cols>)]
//	);
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	head := "CREATE TABLE "
	if d.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", head, d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

func splitFQN(name string) []string {
	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(name), ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func joinFQN(parts []string) string { return strings.Join(parts, ".") }
