package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("jobA", StepRead, nil, 2*time.Second)
	RecordStep("jobB", StepLoad, errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("got %d counters, %d histograms; want 2 and 2", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=1", c0, StepTotal)
	}
	if c0.labels["job"] != "jobA" || c0.labels["step"] != StepRead || c0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %v", c0.labels)
	}
	h0 := fb.histograms[0]
	if h0.name != StepDurationSeconds || h0.value < 1.999 || h0.value > 2.001 {
		t.Fatalf("hist[0] = %#v; want %s ~2.0", h0, StepDurationSeconds)
	}

	c1 := fb.counters[1]
	if c1.labels["status"] != "failure" || c1.labels["step"] != StepLoad {
		t.Fatalf("counter[1].labels = %v; want step=load status=failure", c1.labels)
	}
	if h1 := fb.histograms[1]; h1.value < 1.499 || h1.value > 1.501 {
		t.Fatalf("hist[1].value = %v; want ~1.5", h1.value)
	}
}

func TestStartStep(t *testing.T) {
	fb := install(t)

	done := StartStep("job", StepProvision)
	done(nil)

	if len(fb.counters) != 1 || fb.counters[0].labels["step"] != StepProvision {
		t.Fatalf("counters = %+v", fb.counters)
	}
	if len(fb.histograms) != 1 || fb.histograms[0].value < 0 {
		t.Fatalf("histograms = %+v", fb.histograms)
	}
}

func TestRecordRecordsAndBatches(t *testing.T) {
	fb := install(t)

	RecordRecords("jobX", KindRead, "jsonb", 3)
	RecordRecords("jobX", KindRead, "jsonb", 0) // ignored
	RecordRecords("jobY", KindWritten, "typed", 5)
	RecordBatches("jobZ", 2)
	RecordBatches("jobZ", -1) // ignored

	if len(fb.counters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.counters))
	}
	c0 := fb.counters[0]
	if c0.name != RecordsTotal || c0.delta != 3 || c0.labels["kind"] != KindRead || c0.labels["mode"] != "jsonb" {
		t.Fatalf("counter[0] = %#v", c0)
	}
	c1 := fb.counters[1]
	if c1.name != RecordsTotal || c1.delta != 5 || c1.labels["job"] != "jobY" || c1.labels["kind"] != KindWritten {
		t.Fatalf("counter[1] = %#v", c1)
	}
	c2 := fb.counters[2]
	if c2.name != BatchesTotal || c2.delta != 2 || c2.labels["job"] != "jobZ" {
		t.Fatalf("counter[2] = %#v", c2)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
