package csv

import (
	"csvrecord/internal/linesource"
	"csvrecord/internal/schema"
	"csvrecord/pkg/records"
)

// ReadAll maps every line of src after the first opt.SkipHeaders lines, in
// input order. The first error aborts the read and no records are returned.
// A stream shorter than the header count yields an empty result. ReadAll
// does not close src.
func ReadAll(src linesource.Source, desc schema.Descriptor, opt Options) ([]records.Record, error) {
	it := NewIterator(src, desc, opt)
	out := make([]records.Record, 0)
	for it.HasNext() {
		rec, err := it.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadAllAs is ReadAll with the descriptor derived from T (see
// schema.FromStruct) and each record decoded into a T.
func ReadAllAs[T any](src linesource.Source, opt Options) ([]T, error) {
	desc, err := schema.FromStruct(new(T))
	if err != nil {
		return nil, err
	}
	recs, err := ReadAll(src, desc, opt)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(recs))
	for i, rec := range recs {
		if err := schema.Populate(&out[i], rec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Decode copies rec into a new T.
func Decode[T any](rec records.Record) (T, error) {
	var v T
	err := schema.Populate(&v, rec)
	return v, err
}
