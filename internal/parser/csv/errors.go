package csv

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindEmptyLine                Kind = "empty_line"
	KindNonNullableEmptyField    Kind = "non_nullable_empty_field"
	KindUnsupportedNullableShape Kind = "unsupported_nullable_shape"
	KindFieldConversion          Kind = "field_conversion"
	KindUnsupportedFieldType     Kind = "unsupported_field_type"
	KindEndOfStream              Kind = "end_of_stream"
	KindClosedResource           Kind = "closed_resource"
	KindNoSuchElement            Kind = "no_such_element"
)

// Error is the typed error returned by the mapper, reader and iterator.
// Field and Value are set when the error concerns one field.
type Error struct {
	Kind  Kind
	Field string
	Value string
	Err   error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrEmptyLine                = &Error{Kind: KindEmptyLine}
	ErrNonNullableEmptyField    = &Error{Kind: KindNonNullableEmptyField}
	ErrUnsupportedNullableShape = &Error{Kind: KindUnsupportedNullableShape}
	ErrFieldConversion          = &Error{Kind: KindFieldConversion}
	ErrUnsupportedFieldType     = &Error{Kind: KindUnsupportedFieldType}
	ErrEndOfStream              = &Error{Kind: KindEndOfStream}
	ErrClosedResource           = &Error{Kind: KindClosedResource}
	ErrNoSuchElement            = &Error{Kind: KindNoSuchElement}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindEmptyLine:
		msg = "Empty line detected"
	case KindNonNullableEmptyField:
		msg = fmt.Sprintf("Field '%s' does not support nil value.", e.Field)
	case KindUnsupportedNullableShape:
		msg = "Unsupported nillable field : " + e.Field
		if e.Value != "" {
			msg += " for value: " + e.Value
		}
	case KindFieldConversion:
		msg = fmt.Sprintf("Invalid value: %s for the field: '%s'", e.Value, e.Field)
	case KindUnsupportedFieldType:
		msg = "Data mapping support only for int, float, Decimal, boolean and string. " +
			"Unsupported value for the struct field: " + e.Field
	case KindEndOfStream:
		msg = "end of stream"
	case KindClosedResource:
		msg = "channel already closed"
	case KindNoSuchElement:
		msg = "no more records"
	default:
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRowError reports whether err is scoped to a single row, so a streaming
// caller may skip the row and continue.
func IsRowError(err error) bool {
	switch KindOf(err) {
	case KindEmptyLine, KindNonNullableEmptyField, KindUnsupportedNullableShape,
		KindFieldConversion, KindUnsupportedFieldType:
		return true
	}
	return false
}
