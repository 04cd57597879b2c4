package transformer

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"csvrecord/pkg/records"
)

func TestDedup(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"id": int64(1), "day": "2024-01-01", "v": "a"},
		{"id": int64(1), "day": "2024-01-01", "v": "b"},
		{"id": int64(1), "day": "2024-01-02", "v": "c"},
		{"id": "1", "day": "2024-01-01", "v": "d"},
		{"id": nil, "day": "2024-01-01", "v": "e"},
		{"id": nil, "day": "2024-01-01", "v": "f"},
		{"day": "2024-01-01", "v": "g"},
		{"day": "2024-01-01", "v": "h"},
	}
	d := NewDedup([]string{"id", "day"})

	var kept []string
	for _, r := range in {
		if out, ok := d.Apply(r); ok {
			kept = append(kept, out["v"].(string))
		}
	}
	want := []string{"a", "c", "d", "e", "g", "h"}
	if !reflect.DeepEqual(kept, want) {
		t.Fatalf("kept %v, want %v", kept, want)
	}
	if d.Dropped() != 2 || d.Len() != 4 {
		t.Fatalf("dropped=%d len=%d, want 2 and 4", d.Dropped(), d.Len())
	}
}

func TestDedup_KeyEncodingIsTyped(t *testing.T) {
	t.Parallel()

	d := NewDedup([]string{"k"})
	values := []any{int64(1), 1.0, "1", true, decimal.RequireFromString("1"), nil, false, "", "ab"}
	for _, v := range values {
		if _, ok := d.Apply(records.Record{"k": v}); !ok {
			t.Fatalf("value %#v collided with an earlier key", v)
		}
	}
	if _, ok := d.Apply(records.Record{"k": decimal.RequireFromString("1")}); ok {
		t.Fatal("repeated decimal key not dropped")
	}
}

func TestDedup_NoKeys(t *testing.T) {
	t.Parallel()

	d := NewDedup(nil)
	for i := 0; i < 3; i++ {
		if _, ok := d.Apply(records.Record{"a": int64(1)}); !ok {
			t.Fatal("dedup without keys dropped a record")
		}
	}
}

type dropOdd struct{}

func (dropOdd) Apply(r records.Record) (records.Record, bool) {
	return r, r["n"].(int64)%2 == 0
}

func TestChain(t *testing.T) {
	t.Parallel()

	c := Chain{dropOdd{}, NewDedup([]string{"n"})}
	var got []int64
	for _, n := range []int64{1, 2, 2, 3, 4} {
		if r, ok := c.Apply(records.Record{"n": n}); ok {
			got = append(got, r["n"].(int64))
		}
	}
	if !reflect.DeepEqual(got, []int64{2, 4}) {
		t.Fatalf("chain kept %v", got)
	}
}

func TestProjector(t *testing.T) {
	t.Parallel()

	p := NewProjector([]string{"id", "name", "missing"})
	if p.Width() != 3 {
		t.Fatalf("Width = %d", p.Width())
	}
	r := p.Project(records.Record{"id": int64(7), "name": nil, "extra": "x"}, 12)
	defer r.Free()
	if !reflect.DeepEqual(r.V, []any{int64(7), nil, nil}) || r.Line != 12 {
		t.Fatalf("row = %#v line %d", r.V, r.Line)
	}
}

func TestGetRow_Reuse(t *testing.T) {
	t.Parallel()

	r := GetRow(4)
	for i := range r.V {
		r.V[i] = i
	}
	r.Line = 9
	r.Free()

	r2 := GetRow(2)
	defer r2.Free()
	if len(r2.V) != 2 || r2.V[0] != nil || r2.V[1] != nil || r2.Line != 0 {
		t.Fatalf("pooled row not reset: %#v line %d", r2.V, r2.Line)
	}
	r3 := GetRow(8)
	defer r3.Free()
	if len(r3.V) != 8 {
		t.Fatalf("len = %d, want 8", len(r3.V))
	}
}
