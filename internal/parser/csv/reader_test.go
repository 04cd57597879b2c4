package csv

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"csvrecord/internal/linesource"
	"csvrecord/pkg/records"
)

func lines(t *testing.T, s string, opt Options) *linesource.Reader {
	t.Helper()
	src, err := linesource.FromString(s, opt.lineOptions())
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	return src
}

func TestReadAll_People(t *testing.T) {
	t.Parallel()

	opt := Options{SkipHeaders: 1}
	got, err := ReadAll(lines(t, "id,name,age\n1,Alice,30\n2,,\n", opt), peopleSchema(), opt)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []records.Record{
		{"id": int64(1), "name": "Alice", "age": int64(30)},
		{"id": int64(2), "name": nil, "age": nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadAll = %#v, want %#v", got, want)
	}
}

func TestReadAll_FirstErrorAborts(t *testing.T) {
	t.Parallel()

	opt := Options{SkipHeaders: 1}
	got, err := ReadAll(lines(t, "id,name,age\n1,Alice,30\nx,Bob,thirty\n3,Carol,40\n", opt), peopleSchema(), opt)
	if got != nil {
		t.Fatalf("expected no records on error, got %v", got)
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindFieldConversion || e.Field != "id" {
		t.Fatalf("err = %v, want field_conversion on id", err)
	}
}

func TestReadAll_Skip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		skip  int
		want  int
	}{
		{"skip_exceeds_lines", "h1\nh2\n", 5, 0},
		{"skip_equals_lines", "h1\n", 1, 0},
		{"empty_input", "", 0, 0},
		{"header_with_bad_values_skipped", "not,an,int\n1,a,2\n", 1, 1},
		{"no_skip", "1,a,2\n2,b,3\n", 0, 2},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opt := Options{SkipHeaders: tc.skip}
			got, err := ReadAll(lines(t, tc.input, opt), peopleSchema(), opt)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if got == nil || len(got) != tc.want {
				t.Fatalf("got %d records (%v), want %d", len(got), got, tc.want)
			}
		})
	}
}

func TestReadAll_EmptyLineInBody(t *testing.T) {
	t.Parallel()

	_, err := ReadAll(lines(t, "1,a,2\n\n3,c,4\n", Options{}), peopleSchema(), Options{})
	if !errors.Is(err, ErrEmptyLine) {
		t.Fatalf("err = %v, want empty line", err)
	}
}

func TestReadAll_EmptyRecordWithRowSeparator(t *testing.T) {
	t.Parallel()

	opt := Options{RowSeparator: ";"}
	_, err := ReadAll(lines(t, "1,a,2;;3,c,4;", opt), peopleSchema(), opt)
	if !errors.Is(err, ErrEmptyLine) {
		t.Fatalf("err = %v, want empty line", err)
	}
}

func TestReadAll_ClosedSource(t *testing.T) {
	t.Parallel()

	src := lines(t, "1,a,2\n", Options{})
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := ReadAll(src, peopleSchema(), Options{})
	if !errors.Is(err, ErrClosedResource) {
		t.Fatalf("err = %v, want closed resource", err)
	}
	if !errors.Is(err, linesource.ErrClosed) {
		t.Fatalf("err = %v should wrap linesource.ErrClosed", err)
	}
}

func TestReadAll_CustomSeparators(t *testing.T) {
	t.Parallel()

	opt := Options{FieldSeparator: "|", RowSeparator: ";", SkipHeaders: 1}
	got, err := ReadAll(lines(t, "id|name|age;1|Ann|5;2||", opt), peopleSchema(), opt)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "Ann" || !got[1].IsNull("name") {
		t.Fatalf("unexpected records: %#v", got)
	}
}

type person struct {
	ID   int64   `csv:"id"`
	Name *string `csv:"name"`
	Age  *int    `csv:"age"`
}

func TestReadAllAs(t *testing.T) {
	t.Parallel()

	opt := Options{SkipHeaders: 1}
	got, err := ReadAllAs[person](lines(t, "id,name,age\n1,Alice,30\n2,,\n", opt), opt)
	if err != nil {
		t.Fatalf("ReadAllAs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d people, want 2", len(got))
	}
	if got[0].ID != 1 || got[0].Name == nil || *got[0].Name != "Alice" || got[0].Age == nil || *got[0].Age != 30 {
		t.Fatalf("first person = %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Name != nil || got[1].Age != nil {
		t.Fatalf("second person = %+v", got[1])
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	p, err := Decode[person](records.Record{"id": int64(7), "name": "Zed", "age": nil})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.ID != 7 || p.Name == nil || *p.Name != "Zed" || p.Age != nil {
		t.Fatalf("Decode = %+v", p)
	}
}

func TestFileReadAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte("\uFEFFid;name;age\r\n1;Alice;30\r\n2;;\r\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	opt := Options{FieldSeparator: ";", SkipHeaders: 1}
	got, err := FileReadAll(context.Background(), path, peopleSchema(), opt)
	if err != nil {
		t.Fatalf("FileReadAll: %v", err)
	}
	if len(got) != 2 || got[0]["age"] != int64(30) || !got[1].IsNull("age") {
		t.Fatalf("FileReadAll = %#v", got)
	}
}

func TestFileReadAll_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := FileReadAll(context.Background(), filepath.Join(dir, "missing.csv"), peopleSchema(), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}

	path := filepath.Join(dir, "x.csv")
	if err := os.WriteFile(path, []byte("1,a,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := FileReadAll(context.Background(), path, peopleSchema(), Options{Encoding: "klingon"}); err == nil {
		t.Fatalf("expected unknown encoding error")
	}
}

type stringSource string

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func TestOpenSource(t *testing.T) {
	t.Parallel()

	src, err := OpenSource(context.Background(), stringSource("1,a,2\n"), Options{})
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer src.Close()
	got, err := ReadAll(src, peopleSchema(), Options{})
	if err != nil || len(got) != 1 {
		t.Fatalf("ReadAll = %v, %v", got, err)
	}
}
