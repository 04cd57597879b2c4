package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"

	"csvrecord/pkg/records"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// structField ties a Descriptor field to its struct field index.
type structField struct {
	name  string
	index []int
}

// FromStruct derives a Descriptor from the exported fields of a struct (or
// pointer to struct), in declaration order.
//
// Column names come from the `csv` tag, then the `db` tag, then the Go field
// name. A tag of "-" skips the field. Pointer fields are nullable. Integer
// kinds map to Int, float kinds to Float, decimal.Decimal to Decimal; any
// other type maps to Unsupported.
func FromStruct(v any) (Descriptor, error) {
	t, err := structType(v)
	if err != nil {
		return Descriptor{}, err
	}
	fields, _ := describe(t)
	d := Descriptor{Fields: fields}
	if err := d.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", t, err)
	}
	return d, nil
}

func structType(v any) (reflect.Type, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", t)
	}
	return t, nil
}

func describe(t reflect.Type) ([]Field, []structField) {
	var (
		fields []Field
		plan   []structField
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := columnName(sf)
		if name == "-" {
			continue
		}
		ft := sf.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}
		tag := tagFor(ft)
		if nullable {
			fields = append(fields, Optional(name, tag))
		} else {
			fields = append(fields, Required(name, tag))
		}
		plan = append(plan, structField{name: name, index: sf.Index})
	}
	return fields, plan
}

func columnName(sf reflect.StructField) string {
	for _, key := range []string{"csv", "db"} {
		if tag, ok := sf.Tag.Lookup(key); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name != "" {
				return name
			}
		}
	}
	return sf.Name
}

func tagFor(t reflect.Type) TypeTag {
	if t == decimalType {
		return Decimal
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	default:
		return Unsupported
	}
}

// Populate assigns the values of rec into the struct pointed to by dst, using
// the same column naming as FromStruct. Explicit nulls reset the target field
// to its zero value; names missing from rec are left untouched.
func Populate(dst any, rec records.Record) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("schema: Populate needs a non-nil struct pointer, got %T", dst)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("schema: Populate needs a struct pointer, got %T", dst)
	}
	_, plan := describe(rv.Type())
	for _, p := range plan {
		v, ok := rec[p.name]
		if !ok {
			continue
		}
		fv := rv.FieldByIndex(p.index)
		if v == nil {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		if fv.Kind() == reflect.Pointer {
			elem := reflect.New(fv.Type().Elem())
			if err := assign(elem.Elem(), v); err != nil {
				return fmt.Errorf("field %q: %w", p.name, err)
			}
			fv.Set(elem)
			continue
		}
		if err := assign(fv, v); err != nil {
			return fmt.Errorf("field %q: %w", p.name, err)
		}
	}
	return nil
}

func assign(fv reflect.Value, v any) error {
	if fv.Type() == decimalType {
		d, ok := v.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("cannot assign %T to decimal.Decimal", v)
		}
		fv.Set(reflect.ValueOf(d))
		return nil
	}
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
		}
		if fv.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, fv.Type())
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
		}
		fv.SetFloat(f)
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
		}
		fv.SetString(s)
	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported target type %s", fv.Type())
	}
	return nil
}
