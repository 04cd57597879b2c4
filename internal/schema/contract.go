package schema

import (
	"fmt"
	"strings"
)

// ContractField is the JSON form of a Field.
//
// Type accepts a scalar name ("int", "float", "string", "decimal",
// "boolean"), a trailing "?" for a nullable scalar ("int?"), or a union
// written with "|" ("int|null").
type ContractField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
	// Column overrides the storage column name; defaults to Name.
	Column string `json:"column,omitempty"`
}

// Contract is the JSON schema block of a pipeline file. Field order is the
// positional order of CSV columns.
type Contract struct {
	Name   string          `json:"name"`
	Fields []ContractField `json:"fields"`
}

// Field converts the contract entry into a Field.
func (cf ContractField) Field() Field {
	typ := strings.TrimSpace(cf.Type)
	if strings.Contains(typ, "|") {
		parts := strings.Split(typ, "|")
		members := make([]TypeTag, len(parts))
		for i, p := range parts {
			members[i] = ParseTypeTag(p)
		}
		return Union(cf.Name, members...)
	}
	if strings.HasSuffix(typ, "?") {
		return Optional(cf.Name, ParseTypeTag(strings.TrimSuffix(typ, "?")))
	}
	if cf.Nullable {
		return Optional(cf.Name, ParseTypeTag(typ))
	}
	return Required(cf.Name, ParseTypeTag(typ))
}

// Descriptor builds and validates the Descriptor described by c.
func (c Contract) Descriptor() (Descriptor, error) {
	fields := make([]Field, len(c.Fields))
	for i, cf := range c.Fields {
		fields[i] = cf.Field()
	}
	d := Descriptor{Fields: fields}
	if err := d.Validate(); err != nil {
		if c.Name != "" {
			return Descriptor{}, fmt.Errorf("contract %q: %w", c.Name, err)
		}
		return Descriptor{}, err
	}
	return d, nil
}

// Columns returns the storage column name for each field, honoring Column
// overrides.
func (c Contract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, cf := range c.Fields {
		if cf.Column != "" {
			out[i] = cf.Column
		} else {
			out[i] = cf.Name
		}
	}
	return out
}
