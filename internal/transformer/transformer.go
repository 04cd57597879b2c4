// Package transformer holds the per-record stages that sit between the CSV
// iterator and the storage loader: filters such as Dedup, and the Projector
// that lays a record out as a pooled positional Row.
package transformer

import "csvrecord/pkg/records"

// Transformer inspects or rewrites one record. Returning false drops it.
type Transformer interface {
	Apply(rec records.Record) (records.Record, bool)
}

// Chain applies transformers in order and stops at the first drop.
type Chain []Transformer

func (c Chain) Apply(rec records.Record) (records.Record, bool) {
	for _, t := range c {
		var ok bool
		if rec, ok = t.Apply(rec); !ok {
			return nil, false
		}
	}
	return rec, true
}

// Projector lays records out in a fixed field order.
type Projector struct {
	fields []string
}

// NewProjector returns a Projector emitting fields in the given order.
func NewProjector(fields []string) *Projector {
	return &Projector{fields: append([]string(nil), fields...)}
}

// Width is the number of values per row.
func (p *Projector) Width() int { return len(p.fields) }

// Project copies rec into a pooled Row. Missing fields become nil.
func (p *Projector) Project(rec records.Record, line int) *Row {
	r := GetRow(len(p.fields))
	for i, f := range p.fields {
		r.V[i] = rec[f]
	}
	r.Line = line
	return r
}
