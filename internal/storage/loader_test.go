package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"jsonload/pkg/records"
)

func makeRecords(n int) []*records.Record {
	out := make([]*records.Record, n)
	for i := range out {
		r := records.New()
		r.Set("id", records.Number(json.Number(strconv.Itoa(i))))
		out[i] = r
	}
	return out
}

// TestBatches checks the ceil(n/size) count and that the spans cover the
// input contiguously without overlap.
func TestBatches(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 7, 10, 1000, 1001} {
		for _, size := range []int{1, 2, 3, 10, 1000} {
			spans, err := Batches(n, size)
			if err != nil {
				t.Fatalf("Batches(%d, %d) error: %v", n, size, err)
			}
			if want := (n + size - 1) / size; len(spans) != want {
				t.Fatalf("Batches(%d, %d) = %d spans, want %d", n, size, len(spans), want)
			}
			next := 0
			for i, sp := range spans {
				if sp.Start != next {
					t.Fatalf("Batches(%d, %d)[%d].Start = %d, want %d", n, size, i, sp.Start, next)
				}
				if sp.Len() < 1 || sp.Len() > size {
					t.Fatalf("Batches(%d, %d)[%d] has %d records", n, size, i, sp.Len())
				}
				next = sp.End
			}
			if next != n {
				t.Fatalf("Batches(%d, %d) covers %d records, want %d", n, size, next, n)
			}
		}
	}
}

func TestBatches_RejectsBadSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		if _, err := Batches(5, size); err == nil {
			t.Fatalf("Batches(5, %d) error = nil, want non-nil", size)
		}
	}
}

// TestLoadBatches_Basic verifies records are grouped into batches in order
// and that concatenating the batches reproduces the input.
func TestLoadBatches_Basic(t *testing.T) {
	t.Parallel()

	recs := makeRecords(7)
	var seen []*records.Record
	var sizes []int
	fn := func(_ context.Context, batch []*records.Record) (int64, error) {
		sizes = append(sizes, len(batch))
		seen = append(seen, batch...)
		return int64(len(batch)), nil
	}

	stats, err := LoadBatches(context.Background(), recs, 3, fn, nil)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if stats.Rows != 7 || stats.Batches != 3 {
		t.Fatalf("stats = %+v, want 7 rows in 3 batches", stats)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("batch sizes = %v, want [3 3 1]", sizes)
	}
	for i := range recs {
		if seen[i] != recs[i] {
			t.Fatalf("record %d out of order", i)
		}
	}
}

// TestLoadBatches_StopsAtFirstFailure ensures earlier batches count as
// committed, the failing batch is reported, and later batches never run.
func TestLoadBatches_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	recs := makeRecords(5)
	wantErr := errors.New("write failed")
	calls := 0
	fn := func(_ context.Context, batch []*records.Record) (int64, error) {
		calls++
		if calls == 2 {
			return 0, wantErr
		}
		return int64(len(batch)), nil
	}

	stats, err := LoadBatches(context.Background(), recs, 2, fn, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("error %T is not a *BatchError", err)
	}
	if be.Batch != 2 || be.Offset != 2 || be.Size != 2 || be.Committed != 2 {
		t.Fatalf("BatchError = %+v, want batch 2 at offset 2 size 2 after 2 committed", be)
	}
	if calls != 2 {
		t.Fatalf("fn called %d times, want 2", calls)
	}
	if stats.Rows != 2 || stats.Batches != 1 {
		t.Fatalf("stats = %+v, want 2 rows in 1 batch", stats)
	}
	if got, want := be.Error(), "batch 2 (records 3-4, 2 rows committed before it): write failed"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestLoadBatches_EmptyInput(t *testing.T) {
	t.Parallel()

	fn := func(context.Context, []*records.Record) (int64, error) {
		t.Fatal("fn must not be called for empty input")
		return 0, nil
	}
	stats, err := LoadBatches(context.Background(), nil, 10, fn, nil)
	if err != nil || stats.Rows != 0 || stats.Batches != 0 {
		t.Fatalf("LoadBatches(nil) = %+v, %v; want zero stats, nil", stats, err)
	}
}

func TestLoadBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	ok := func(_ context.Context, b []*records.Record) (int64, error) { return int64(len(b)), nil }
	if _, err := LoadBatches(context.Background(), makeRecords(1), 0, ok, nil); err == nil {
		t.Fatal("batch size 0: error = nil, want non-nil")
	}
	if _, err := LoadBatches(context.Background(), makeRecords(1), 1, nil, nil); err == nil {
		t.Fatal("nil fn: error = nil, want non-nil")
	}
}

// TestLoadBatches_ContextCancel checks that no batch starts once the context
// is done.
func TestLoadBatches_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(_ context.Context, b []*records.Record) (int64, error) {
		calls++
		cancel()
		return int64(len(b)), nil
	}

	stats, err := LoadBatches(ctx, makeRecords(4), 2, fn, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if calls != 1 || stats.Rows != 2 {
		t.Fatalf("calls=%d rows=%d, want 1 call and 2 rows", calls, stats.Rows)
	}
}
