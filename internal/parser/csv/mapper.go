package csv

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"csvrecord/internal/schema"
	"csvrecord/pkg/records"
)

// MapRow converts one tokenized row into a record conforming to desc. Field i
// of fields maps to desc.Fields[i]; fields beyond the descriptor are ignored.
//
// Empty or absent text becomes an explicit null for [T, Null] fields and an
// error for everything else. The first failing field aborts the whole row.
func MapRow(fields []string, desc schema.Descriptor) (records.Record, error) {
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == "") {
		return nil, &Error{Kind: KindEmptyLine}
	}

	rec := make(records.Record, len(desc.Fields))
	for i, f := range desc.Fields {
		var v string
		if i < len(fields) {
			v = fields[i]
		}

		if v == "" {
			switch {
			case f.NilShape():
				rec[f.Name] = nil
				continue
			case f.IsUnion():
				return nil, &Error{Kind: KindUnsupportedNullableShape, Field: f.Name}
			default:
				return nil, &Error{Kind: KindNonNullableEmptyField, Field: f.Name}
			}
		}

		typ, ok := f.Effective()
		if !ok {
			return nil, &Error{Kind: KindUnsupportedNullableShape, Field: f.Name, Value: v}
		}

		val, err := convert(typ, strings.TrimSpace(v), f.Name)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = val
	}
	return rec, nil
}

func convert(typ schema.TypeTag, s, field string) (any, error) {
	switch typ {
	case schema.Int:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &Error{Kind: KindFieldConversion, Field: field, Value: s, Err: err}
		}
		return n, nil
	case schema.Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &Error{Kind: KindFieldConversion, Field: field, Value: s, Err: err}
		}
		return f, nil
	case schema.Decimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, &Error{Kind: KindFieldConversion, Field: field, Value: s, Err: err}
		}
		return d, nil
	case schema.Boolean:
		// Anything but "true" is false.
		return strings.EqualFold(s, "true"), nil
	case schema.String:
		return s, nil
	default:
		return nil, &Error{Kind: KindUnsupportedFieldType, Field: field}
	}
}
