// Command jsonload loads a JSON array or NDJSON file into a Postgres table,
// either storing each record whole in a JSONB column or projecting it onto
// declared, typed columns with optional upsert by key.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"jsonload/internal/config"
	"jsonload/internal/ingest"
	"jsonload/internal/metrics"
	"jsonload/internal/metrics/datadog"
	"jsonload/internal/metrics/prompush"
	"jsonload/internal/storage"

	// register all backends with the storage factory.
	_ "jsonload/internal/storage/all"
)

// runIngest is a test seam; it points to ingest.Run.
var runIngest = ingest.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run executes the root command on args, with column declarations kept in
// command-line order.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(config.ExpandColumnArgs(args))
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jsonload --input FILE --table NAME [--mode jsonb|typed] [--columns name:type ...]",
		Short: "Load a JSON or NDJSON file into a Postgres table",
		Long: `jsonload reads a JSON array (or newline-delimited JSON) file and writes every
record into a Postgres table, creating the table when it does not exist.

In jsonb mode each record is stored whole in a "payload" JSONB column. In typed
mode records are projected onto the declared name:type columns, and with
--upsert-key rows with an existing key are updated instead of duplicated.
Every record gets an ingested_at timestamp unless it already carries one.

Connection settings come from PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD,
PGSSLMODE and PGCONNECT_TIMEOUT, or from the db section of --config.`,
		Example: `  jsonload -i events.json -t raw_events
  jsonload -i users.ndjson -t users --mode typed --columns id:int name:text --upsert-key id
  jsonload -i users.ndjson -t users --mode typed --columns id:int --dry-run`,
		Args:          noStrayArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(stderr, cfg.LogLevel)
			flush := setupMetrics(cfg, logger)
			defer flush()

			res, err := runIngest(cmd.Context(), ingest.Options{Config: cfg, Logger: logger})
			if err != nil {
				return err
			}
			report(stdout, res)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// noStrayArgs rejects positional arguments left over after flag parsing.
func noStrayArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q (column declarations follow --columns)", args[0])
	}
	return nil
}

// newLogger builds the process logger. Colors are used only when w is a
// terminal.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// setupMetrics installs the configured metrics backend and returns a func
// that flushes it. A backend that fails to start is logged and skipped.
func setupMetrics(cfg config.Config, logger *slog.Logger) func() {
	m := cfg.Metrics
	var (
		b   metrics.Backend
		err error
	)
	switch strings.ToLower(m.Backend) {
	case "pushgateway":
		b, err = prompush.NewBackend(prompush.Config{
			GatewayURL: m.PushgatewayURL,
			Job:        m.Job,
			Grouping:   map[string]string{"table": cfg.Table},
		})
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr: m.StatsdAddr,
			Tags: []string{"table:" + cfg.Table},
		})
	default:
		logger.Debug("metrics disabled", "backend", m.Backend)
		return func() {}
	}
	if err != nil {
		logger.Warn("metrics backend unavailable; metrics disabled", "backend", m.Backend, "err", err)
		return func() {}
	}
	logger.Debug("metrics enabled", "backend", m.Backend, "job", m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush", "err", err)
		}
	}
}

// report prints the user-facing outcome of a run.
func report(w io.Writer, res ingest.Result) {
	p := message.NewPrinter(language.English)
	switch {
	case res.Records == 0:
		fmt.Fprintln(w, "No records found in input.")
	case res.DryRun:
		for _, stmt := range res.Plan {
			fmt.Fprintln(w, stmt)
		}
		p.Fprintf(w, "-- dry run: %d records read, nothing written to %s (%s mode)\n", res.Records, res.Table, res.Mode)
	default:
		verb := "Inserted"
		if res.Mode == storage.ModeTyped && res.UpsertKey != "" {
			verb = "Upserted"
		}
		p.Fprintf(w, "%s %d rows into %s (%s mode).\n", verb, res.Rows, res.Table, res.Mode)
	}
}
