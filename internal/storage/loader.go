package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"jsonload/pkg/records"
)

// BatchFn writes one batch as a single commit unit and returns the number of
// rows it reports as written. Implementations must leave nothing applied on
// error.
type BatchFn func(ctx context.Context, batch []*records.Record) (int64, error)

// Span is a half-open [Start, End) range of record indexes.
type Span struct {
	Start, End int
}

// Len returns the number of records in s.
func (s Span) Len() int { return s.End - s.Start }

// Batches partitions n records into consecutive spans of at most size
// records. The final span may be shorter. n == 0 yields no spans.
func Batches(n, size int) ([]Span, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", size)
	}
	if n < 0 {
		return nil, fmt.Errorf("record count must be >= 0, got %d", n)
	}
	out := make([]Span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, Span{Start: start, End: end})
	}
	return out, nil
}

// BatchError reports the batch that failed and how much was committed
// before it. Batches before Batch stay committed.
type BatchError struct {
	Batch     int   // 1-based
	Offset    int   // index of the batch's first record
	Size      int   // records in the failing batch
	Committed int64 // rows committed by earlier batches
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (records %d-%d, %d rows committed before it): %v",
		e.Batch, e.Offset+1, e.Offset+e.Size, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// LoadStats summarizes a LoadBatches call.
type LoadStats struct {
	Rows    int64
	Batches int
	Elapsed time.Duration
}

// LoadBatches splits recs into batches of batchSize and calls fn for each in
// order. It stops at the first failing batch and returns the stats of the
// batches committed so far together with a *BatchError.
//
// Progress is logged at debug level after each committed batch.
func LoadBatches(
	ctx context.Context,
	recs []*records.Record,
	batchSize int,
	fn BatchFn,
	logger *slog.Logger,
) (LoadStats, error) {
	if fn == nil {
		return LoadStats{}, fmt.Errorf("batch function must not be nil")
	}
	spans, err := Batches(len(recs), batchSize)
	if err != nil {
		return LoadStats{}, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		stats     LoadStats
		start     = time.Now()
		lastFlush = start
	)
	for i, sp := range spans {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, &BatchError{Batch: i + 1, Offset: sp.Start, Size: sp.Len(), Committed: stats.Rows, Err: err}
		}

		n, err := fn(ctx, recs[sp.Start:sp.End])
		if err != nil {
			stats.Elapsed = time.Since(start)
			logger.Error("batch failed",
				"batch", i+1,
				"size", sp.Len(),
				"committed", stats.Rows,
				"err", err,
			)
			return stats, &BatchError{Batch: i + 1, Offset: sp.Start, Size: sp.Len(), Committed: stats.Rows, Err: err}
		}
		stats.Rows += n
		stats.Batches++

		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		logger.Debug("batch committed",
			"batch", i+1,
			"of", len(spans),
			"rows", n,
			"total", stats.Rows,
			"rps", int64(rps),
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlush = now
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}
