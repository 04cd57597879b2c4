// Package schema describes the target shape of mapped CSV records: an ordered
// list of fields, each with a scalar TypeTag and nullability. Field i of a
// tokenized row maps to Descriptor.Fields[i].
package schema

import (
	"fmt"
	"strings"
)

// Field describes one positional column of the target record.
//
// Members is set when the field was declared as a union. A nullable field
// without explicit Members behaves as the union [Type, Null].
type Field struct {
	Name     string
	Type     TypeTag
	Nullable bool
	Members  []TypeTag
}

// Required returns a non-nullable field of type t.
func Required(name string, t TypeTag) Field {
	return Field{Name: name, Type: t}
}

// Optional returns a nullable field declared as the union [t, Null].
func Optional(name string, t TypeTag) Field {
	return Field{Name: name, Type: t, Nullable: true, Members: []TypeTag{t, Null}}
}

// Union returns a field declared as a union of members, in declaration order.
// The field is nullable when any member is Null.
func Union(name string, members ...TypeTag) Field {
	f := Field{Name: name, Members: append([]TypeTag(nil), members...)}
	if len(members) > 0 {
		f.Type = members[0]
	}
	for _, m := range members {
		if m == Null {
			f.Nullable = true
		}
	}
	return f
}

// shape returns the union members of f, or nil for a plain required field.
func (f Field) shape() []TypeTag {
	if len(f.Members) > 0 {
		return f.Members
	}
	if f.Nullable {
		return []TypeTag{f.Type, Null}
	}
	return nil
}

// IsUnion reports whether f is declared as a union (nullable fields are
// unions with Null).
func (f Field) IsUnion() bool { return f.shape() != nil }

// NilShape reports whether f is exactly the two-member union [T, Null], the
// only union shape that accepts empty text.
func (f Field) NilShape() bool {
	s := f.shape()
	return len(s) == 2 && s[1] == Null
}

// Effective returns the scalar type used to convert non-empty text. ok is
// false for unions whose value member cannot be determined.
func (f Field) Effective() (t TypeTag, ok bool) {
	s := f.shape()
	if s == nil {
		return f.Type, true
	}
	if len(s) == 2 && s[1] == Null {
		return s[0], true
	}
	return Unsupported, false
}

// TypeName renders the declared type, e.g. "int" or "int|null".
func (f Field) TypeName() string {
	s := f.shape()
	if s == nil {
		return f.Type.String()
	}
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

// Descriptor is the ordered schema of one mapping session. It is treated as
// read-only once built.
type Descriptor struct {
	Fields []Field
}

// New builds a Descriptor from fields in positional order.
func New(fields ...Field) Descriptor {
	return Descriptor{Fields: append([]Field(nil), fields...)}
}

// Len returns the number of fields.
func (d Descriptor) Len() int { return len(d.Fields) }

// Names returns the field names in positional order.
func (d Descriptor) Names() []string {
	out := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field named name.
func (d Descriptor) Lookup(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks that the descriptor has at least one field and that names
// are non-empty and unique.
func (d Descriptor) Validate() error {
	if len(d.Fields) == 0 {
		return fmt.Errorf("schema: no fields")
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("schema: field %d has an empty name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("schema: duplicate field %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
