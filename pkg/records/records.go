// Package records defines the record type produced by the CSV mapper and
// consumed by the load pipeline.
package records

// Record is one mapped row keyed by field name. Values are int64, float64,
// decimal.Decimal, bool, string, or an untyped nil for an explicit null.
type Record map[string]any

// Has reports whether name is present in r, including explicit nulls.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// IsNull reports whether name is present and explicitly null.
func (r Record) IsNull(name string) bool {
	v, ok := r[name]
	return ok && v == nil
}

// Values returns the values of r in the order of names. Missing names yield
// nil.
func (r Record) Values(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = r[n]
	}
	return out
}
