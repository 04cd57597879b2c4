package datadog

import (
	"errors"
	"reflect"
	"testing"

	"csvrecord/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls    []call
	flushErr error
	flushed  int
	closed   int
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error { f.flushed++; return f.flushErr }
func (f *fakeClient) Close() error { f.closed++; return nil }

func TestBackend_ForwardsWithSortedTags(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := NewWithClient(fc)

	b.IncCounter(metrics.RecordsTotal, 3.9, metrics.Labels{"kind": "read", "job": "people"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "load"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)

	want := []call{
		{"count", metrics.RecordsTotal, 3, []string{"job:people", "kind:read"}},
		{"histogram", metrics.StepDuration, 0.25, []string{"step:load"}},
		{"count", metrics.BatchesTotal, 1, nil},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %#v\nwant %#v", fc.calls, want)
	}
}

func TestBackend_Flush(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	if err := NewWithClient(fc).Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fc.flushed != 1 || fc.closed != 1 {
		t.Fatalf("flushed=%d closed=%d", fc.flushed, fc.closed)
	}

	boom := errors.New("boom")
	fc = &fakeClient{flushErr: boom}
	if err := NewWithClient(fc).Flush(); !errors.Is(err, boom) {
		t.Fatalf("Flush err = %v", err)
	}
	if fc.closed != 1 {
		t.Fatal("client not closed after failed flush")
	}
}

func TestBackend_NilClient(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("empty Addr accepted")
	}
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "csvrecord.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
