package transformer

import "sync"

// Row is a pooled positional row handed from the projection stage to the
// loader.
//
// The stage that obtains a Row owns it until it sends it on; the loader calls
// Free once the row has been flushed (successfully or not). Nothing may keep
// r or r.V after Free.
type Row struct {
	V []any
	// Line is the 1-based input line the row came from; 0 when unknown.
	Line int
}

var rowPool sync.Pool

// GetRow returns a pooled Row with len(V) == colCount and every slot nil.
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]any, colCount)
		}
		r.V = r.V[:colCount]
		clear(r.V)
		r.Line = 0
		return r
	}
	return &Row{V: make([]any, colCount)}
}

// Free returns r to the pool.
func (r *Row) Free() {
	clear(r.V)
	rowPool.Put(r)
}
