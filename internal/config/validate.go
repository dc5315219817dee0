package config

import (
	"errors"
	"fmt"
	"strings"

	"jsonload/internal/schema"
	"jsonload/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is the config key (e.g. "columns[1]", "metrics.backend").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var (
	logLevels      = []string{"debug", "info", "warn", "error"}
	metricBackends = []string{"none", "pushgateway", "datadog"}
)

// Validate performs static validation of c without touching the network.
// Connection credentials are not checked here; a missing database, user or
// password is reported when connecting.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Input) == "" {
		add(SeverityError, "input", "input file is required")
	}
	if c.Table == "" {
		add(SeverityError, "table", "table name is required")
	}
	if c.BatchSize < 1 {
		add(SeverityError, "batch_size", "batch size must be >= 1, got %d", c.BatchSize)
	}

	mode, err := storage.ParseMode(c.Mode)
	if err != nil {
		add(SeverityError, "mode", "%v", err)
	}
	switch mode {
	case storage.ModeJSONB:
		if len(c.Columns) > 0 {
			add(SeverityWarning, "columns", "columns are ignored in jsonb mode")
		}
		if c.UpsertKey != "" {
			add(SeverityWarning, "upsert_key", "upsert key is ignored in jsonb mode")
		}
	case storage.ModeTyped:
		issues = append(issues, validateColumns(c.Columns, c.UpsertKey)...)
	}

	if !contains(logLevels, strings.ToLower(c.LogLevel)) {
		add(SeverityError, "log_level", "unknown log level %q (want one of %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if strings.TrimSpace(c.DB.Kind) == "" {
		add(SeverityError, "db.kind", "storage kind is required")
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		add(SeverityError, "db.port", "port must be in 1..65535, got %d", c.DB.Port)
	}
	if c.DB.ConnectTimeout < 0 {
		add(SeverityError, "db.connect_timeout", "connect timeout must not be negative")
	}
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

func validateColumns(entries []string, key string) []Issue {
	if len(entries) == 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "columns",
			Message:  "typed mode requires at least one name:type column",
		}}
	}
	spec, err := schema.ParseColumns(entries)
	if err != nil {
		return []Issue{{Severity: SeverityError, Path: "columns", Message: err.Error()}}
	}
	if _, err := spec.WithIngestedAt().ResolveKey(key); err != nil {
		return []Issue{{Severity: SeverityError, Path: "upsert_key", Message: err.Error()}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	backend := strings.ToLower(m.Backend)
	if !contains(metricBackends, backend) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want one of %s)", m.Backend, strings.Join(metricBackends, ", ")),
		})
		return issues
	}
	switch backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: "metrics.pushgateway_url", Message: "pushgateway backend requires a URL"})
		}
	case "datadog":
		if m.StatsdAddr == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: "metrics.statsd_addr", Message: "datadog backend requires a DogStatsD address"})
		}
	}
	if backend != "none" && m.Job == "" {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "metrics.job", Message: "metrics job is empty; the backend default is used"})
	}
	return issues
}

// Err joins the error-severity issues into one error, or returns nil.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the warning-severity issues.
func Warnings(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityWarning {
			out = append(out, iss)
		}
	}
	return out
}

// Target builds the storage target described by c. Columns and the upsert
// key are dropped in jsonb mode. Call Validate first for readable errors.
func (c Config) Target() (storage.Target, error) {
	mode, err := storage.ParseMode(c.Mode)
	if err != nil {
		return storage.Target{}, err
	}
	t := storage.Target{Table: c.Table, Mode: mode}
	if mode == storage.ModeTyped {
		spec, err := schema.ParseColumns(c.Columns)
		if err != nil {
			return storage.Target{}, err
		}
		t.Columns = spec.WithIngestedAt()
		if t.UpsertKey, err = t.Columns.ResolveKey(c.UpsertKey); err != nil {
			return storage.Target{}, err
		}
	}
	return t, t.Validate()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
