// Package metrics records operational metrics from the load pipeline through
// a small pluggable Backend. The default backend is a no-op, so callers can
// record unconditionally; concrete systems (Pushgateway, DogStatsD) live in
// subpackages and are installed with SetBackend at startup.
package metrics

import "time"

// Metric names emitted by this package.
const (
	StepTotal       = "csvload_step_total"
	StepDuration    = "csvload_step_duration_seconds"
	RecordsTotal    = "csvload_records_total"
	BatchesTotal    = "csvload_batches_total"
	defaultJobLabel = "csvload"
)

// Record kinds used with RecordRow.
const (
	KindRead      = "read"      // lines mapped to records
	KindInvalid   = "invalid"   // lines rejected by the mapper
	KindDuplicate = "duplicate" // records dropped by dedup
	KindInserted  = "inserted"  // rows reported written by the sink
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a latency/duration style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b. A nil b keeps the current backend. It is not safe to
// call concurrently with recording.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// DefaultJob returns job, or "csvload" when it is empty.
func DefaultJob(job string) string {
	if job == "" {
		return defaultJobLabel
	}
	return job
}

// RecordStep counts one pipeline step execution and observes its duration,
// labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta records of the given kind. Non-positive deltas are
// ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches adds delta flushed batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
