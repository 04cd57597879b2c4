package transformer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"

	"csvrecord/pkg/records"
)

// Dedup drops records whose key tuple was already seen in this run. The
// first occurrence wins. Records missing any key field pass through
// untouched. Only 128-bit fingerprints are retained, so memory stays flat in
// the width of the records.
//
// A Dedup is not safe for concurrent use.
type Dedup struct {
	keys    []string
	seen    map[xxh3.Uint128]struct{}
	buf     []byte
	dropped int64
}

// NewDedup returns a Dedup keyed on the given fields.
func NewDedup(keys []string) *Dedup {
	return &Dedup{
		keys: append([]string(nil), keys...),
		seen: make(map[xxh3.Uint128]struct{}),
	}
}

// Apply implements Transformer.
func (d *Dedup) Apply(rec records.Record) (records.Record, bool) {
	if len(d.keys) == 0 {
		return rec, true
	}
	buf, ok := d.appendKey(d.buf[:0], rec)
	d.buf = buf
	if !ok {
		return rec, true
	}
	h := xxh3.Hash128(buf)
	if _, dup := d.seen[h]; dup {
		d.dropped++
		return nil, false
	}
	d.seen[h] = struct{}{}
	return rec, true
}

// Dropped reports how many records Apply has rejected.
func (d *Dedup) Dropped() int64 { return d.dropped }

// Len reports the number of distinct keys seen.
func (d *Dedup) Len() int { return len(d.seen) }

// appendKey encodes the key tuple with a type tag per value so that, for
// example, int64(1) and "1" never collide.
func (d *Dedup) appendKey(b []byte, rec records.Record) ([]byte, bool) {
	for _, k := range d.keys {
		v, ok := rec[k]
		if !ok {
			return b, false
		}
		switch t := v.(type) {
		case nil:
			b = append(b, 'n')
		case int64:
			b = append(b, 'i')
			b = binary.LittleEndian.AppendUint64(b, uint64(t))
		case float64:
			b = append(b, 'f')
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(t))
		case bool:
			if t {
				b = append(b, 't')
			} else {
				b = append(b, 'F')
			}
		case string:
			b = append(b, 's')
			b = binary.LittleEndian.AppendUint32(b, uint32(len(t)))
			b = append(b, t...)
		case decimal.Decimal:
			s := t.String()
			b = append(b, 'd')
			b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
			b = append(b, s...)
		default:
			s := fmt.Sprint(t)
			b = append(b, '?')
			b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
			b = append(b, s...)
		}
	}
	return b, true
}
