package ddl

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"csvrecord/internal/schema"
)

// TypeMapper maps a field's scalar type to a backend SQL type. It must return
// a usable type for every TypeTag, including Unsupported.
type TypeMapper func(schema.TypeTag) string

// FromContract derives a table definition from a schema contract. Column
// names come from ColumnNames. Only [T, null] fields are nullable; other
// unions never produce a value and are typed as Unsupported.
func FromContract(table string, c schema.Contract, columns []string, mapType TypeMapper) (TableDef, error) {
	if strings.TrimSpace(table) == "" {
		return TableDef{}, fmt.Errorf("ddl: table is required")
	}
	if mapType == nil {
		return TableDef{}, fmt.Errorf("ddl: no type mapper")
	}
	names, err := ColumnNames(c, columns)
	if err != nil {
		return TableDef{}, err
	}

	defs := make([]ColumnDef, len(c.Fields))
	for i, cf := range c.Fields {
		f := cf.Field()
		t, ok := f.Effective()
		if !ok {
			t = schema.Unsupported
		}
		defs[i] = ColumnDef{
			Name:     names[i],
			SQLType:  mapType(t),
			Nullable: f.NilShape(),
		}
	}
	return TableDef{FQN: table, Columns: defs}, nil
}

// ColumnNames returns the storage column for each contract field. Configured
// columns win when given and must match the field count; otherwise contract
// names (or their column overrides) are folded with NormalizeIdent.
func ColumnNames(c schema.Contract, configured []string) ([]string, error) {
	if len(configured) > 0 {
		if len(configured) != len(c.Fields) {
			return nil, fmt.Errorf("ddl: %d columns configured for %d fields", len(configured), len(c.Fields))
		}
		return append([]string(nil), configured...), nil
	}
	out := c.Columns()
	seen := make(map[string]int, len(out))
	for i, name := range out {
		out[i] = NormalizeIdent(name)
		if j, dup := seen[out[i]]; dup {
			return nil, fmt.Errorf("ddl: fields %d and %d both normalize to column %q", j, i, out[i])
		}
		seen[out[i]] = i
	}
	return out, nil
}

// NormalizeIdent folds a human field name into a lower-case ASCII SQL
// identifier: accents are stripped, separators become single underscores and
// anything else is dropped. "Datum 1. registrace" becomes
// "datum_1_registrace". A name with nothing left becomes "col", and a leading
// digit gets a "c_" prefix.
func NormalizeIdent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.' || r == '/':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	switch {
	case name == "":
		return "col"
	case name[0] >= '0' && name[0] <= '9':
		return "c_" + name
	}
	return name
}
