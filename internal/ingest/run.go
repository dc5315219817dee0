// Package ingest runs one load: read the input file, stamp every record with
// the run timestamp, provision the destination table and write the records
// in committed batches.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"jsonload/internal/config"
	"jsonload/internal/datasource"
	"jsonload/internal/datasource/file"
	"jsonload/internal/datasource/httpds"
	"jsonload/internal/metrics"
	jsonparser "jsonload/internal/parser/json"
	"jsonload/internal/schema"
	"jsonload/internal/storage"
	"jsonload/pkg/records"
)

// TimestampLayout formats the run timestamp: RFC 3339, microsecond precision,
// numeric UTC offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Clock returns the current time.
type Clock func() time.Time

// Opener opens a storage repository.
type Opener func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

// Options configures Run. Only Config is required.
type Options struct {
	Config config.Config
	Logger *slog.Logger
	Now    Clock  // defaults to time.Now
	Open   Opener // defaults to storage.New
}

// Result summarizes a run.
type Result struct {
	RunID     string
	Table     string
	Mode      storage.Mode
	UpsertKey string
	Records   int   // records read from the input
	Rows      int64 // rows committed
	Batches   int
	Elapsed   time.Duration
	StampedAt string
	DryRun    bool
	Plan      []string // statements a dry run would execute
}

// Run executes one load described by opts.Config.
//
// A file with no records returns a zero Result without connecting. On a
// write failure the returned Result still reports the rows committed by
// earlier batches. Every error is a *StageError.
func Run(ctx context.Context, opts Options) (Result, error) {
	cfg := opts.Config
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	open := opts.Open
	if open == nil {
		open = storage.New
	}
	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("run_id", runID)

	res := Result{RunID: runID, Table: cfg.Table, DryRun: cfg.DryRun}

	issues := config.Validate(cfg)
	for _, w := range config.Warnings(issues) {
		logger.Warn("config", "path", w.Path, "msg", w.Message)
	}
	if err := config.Err(issues); err != nil {
		return res, stageErr(StageConfig, err)
	}
	target, err := cfg.Target()
	if err != nil {
		return res, stageErr(StageConfig, err)
	}
	res.Mode, res.UpsertKey = target.Mode, target.UpsertKey
	job := cfg.Metrics.Job

	src := source(cfg.Input)
	done := metrics.StartStep(job, metrics.StepRead)
	recs, err := read(ctx, src)
	done(err)
	if err != nil {
		return res, stageErr(StageInput, err)
	}
	res.Records = len(recs)
	metrics.RecordRecords(job, metrics.KindRead, string(target.Mode), int64(len(recs)))
	logger.Info("input read", "source", src.Name(), "records", len(recs))
	if len(recs) == 0 {
		return res, nil
	}

	res.StampedAt = now().UTC().Format(TimestampLayout)
	stamp(recs, res.StampedAt)

	if cfg.DryRun {
		res.Plan, err = storage.Plan(cfg.DB.Kind, target)
		if err != nil {
			return res, stageErr(StageConfig, err)
		}
		return res, nil
	}

	logger.Debug("connecting", "kind", cfg.DB.Kind, "host", cfg.DB.Host, "port", cfg.DB.Port, "database", cfg.DB.Database)
	repo, err := open(ctx, storage.Config{
		Kind:           cfg.DB.Kind,
		Host:           cfg.DB.Host,
		Port:           cfg.DB.Port,
		Database:       cfg.DB.Database,
		User:           cfg.DB.User,
		Password:       cfg.DB.Password,
		SSLMode:        cfg.DB.SSLMode,
		ConnectTimeout: cfg.DB.ConnectTimeout,
		Logger:         logger,
	})
	if err != nil {
		return res, stageErr(StageConnect, err)
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			logger.Warn("close repository", "err", cerr)
		}
	}()

	done = metrics.StartStep(job, metrics.StepProvision)
	err = repo.Provision(ctx, target)
	done(err)
	if err != nil {
		return res, stageErr(StageProvision, err)
	}
	logger.Debug("table ready", "table", target.Table, "mode", target.Mode, "upsert_key", target.UpsertKey)

	done = metrics.StartStep(job, metrics.StepLoad)
	stats, err := storage.LoadBatches(ctx, recs, cfg.BatchSize, func(ctx context.Context, batch []*records.Record) (int64, error) {
		return repo.WriteBatch(ctx, target, batch)
	}, logger)
	done(err)
	res.Rows, res.Batches, res.Elapsed = stats.Rows, stats.Batches, stats.Elapsed
	metrics.RecordRecords(job, metrics.KindWritten, string(target.Mode), stats.Rows)
	metrics.RecordBatches(job, int64(stats.Batches))
	if err != nil {
		return res, stageErr(StageWrite, err)
	}

	logger.Info("summary",
		"table", target.Table,
		"mode", target.Mode,
		"rows", stats.Rows,
		"batches", stats.Batches,
		"elapsed", stats.Elapsed.Truncate(time.Millisecond),
		"rps", rowsPerSecond(stats.Rows, stats.Elapsed),
	)
	return res, nil
}

// inputRetries is how often a failed HTTP fetch is retried. Only fetching the
// input is retried; database statements never are.
const inputRetries = 3

// inputAccept is sent with HTTP input requests.
const inputAccept = "application/json, application/x-ndjson"

// source selects the Source for input: an http(s) URL, "-" for stdin, or a
// local path.
func source(input string) datasource.Source {
	if httpds.IsURL(input) {
		return httpds.NewSource(input, httpds.Config{
			MaxRetries: inputRetries,
			Header:     http.Header{"Accept": {inputAccept}},
		})
	}
	return file.New(input)
}

func read(ctx context.Context, src datasource.Source) ([]*records.Record, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return jsonparser.DecodeAll(rc)
}

// stamp sets the ingestion timestamp on records that lack one.
func stamp(recs []*records.Record, ts string) {
	v := records.String(ts)
	for _, r := range recs {
		r.SetDefault(schema.IngestedAt, v)
	}
}

func rowsPerSecond(rows int64, d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(float64(rows) / d.Seconds())
}

