package schema

import "strings"

// TypeTag identifies the scalar kind a field is converted to.
type TypeTag uint8

const (
	// Unsupported marks a declared type the mapper cannot convert. Fields of
	// this type fail at mapping time when a row supplies a value.
	Unsupported TypeTag = iota
	Int
	Float
	String
	Decimal
	Boolean
	// Null only appears as a union member.
	Null
)

var tagNames = [...]string{
	Unsupported: "unsupported",
	Int:         "int",
	Float:       "float",
	String:      "string",
	Decimal:     "decimal",
	Boolean:     "boolean",
	Null:        "null",
}

func (t TypeTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unsupported"
}

// ParseTypeTag maps a type name from a contract to a TypeTag. Matching is
// case-insensitive; unknown names yield Unsupported.
func ParseTypeTag(s string) TypeTag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "bigint", "int64":
		return Int
	case "float", "double", "real", "float64":
		return Float
	case "string", "text":
		return String
	case "decimal", "numeric":
		return Decimal
	case "boolean", "bool":
		return Boolean
	case "null", "nil", "()":
		return Null
	default:
		return Unsupported
	}
}
