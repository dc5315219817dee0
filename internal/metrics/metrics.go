// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a load run.
//
// A global, pluggable Backend defaults to a no-op, so instrumentation is
// always safe to call. Concrete systems (Prometheus Pushgateway, DogStatsD)
// live in subpackages and are installed with SetBackend.
package metrics

import "time"

// Metric names.
const (
	StepTotal           = "jsonload_step_total"
	StepDurationSeconds = "jsonload_step_duration_seconds"
	RecordsTotal        = "jsonload_records_total"
	BatchesTotal        = "jsonload_batches_total"
)

// Steps of a run, used as the "step" label.
const (
	StepRead      = "read"
	StepProvision = "provision"
	StepLoad      = "load"
)

// Record kinds, used as the "kind" label.
const (
	KindRead    = "read"
	KindWritten = "written"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
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

// RecordStep counts one execution of step and observes its duration,
// labeled by success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// StartStep starts timing step; call the returned func with the step's
// error when it finishes.
func StartStep(job, step string) func(error) {
	start := time.Now()
	return func(err error) {
		RecordStep(job, step, err, time.Since(start))
	}
}

// RecordRecords adds delta to the record counter of the given kind and mode.
func RecordRecords(job, kind, mode string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind, "mode": mode})
}

// RecordBatches adds delta committed batches for job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
