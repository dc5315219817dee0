package config

import (
	"strings"
	"testing"

	"jsonload/internal/storage"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	return Config{
		Input:     "in.json",
		Table:     "events",
		Mode:      "jsonb",
		BatchSize: 1000,
		LogLevel:  "info",
		DB:        DB{Kind: "postgres", Host: "localhost", Port: 5432},
		Metrics:   Metrics{Backend: "none", Job: "jsonload"},
	}
}

/*
TestValidate_ValidMinimal verifies that a well-formed jsonb configuration
produces no issues.
*/
func TestValidate_ValidMinimal(t *testing.T) {
	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
		msg    string
	}{
		{"missing input", func(c *Config) { c.Input = " " }, "input", "required"},
		{"missing table", func(c *Config) { c.Table = "" }, "table", "required"},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, "batch_size", ">= 1"},
		{"unknown mode", func(c *Config) { c.Mode = "csv" }, "mode", "unknown mode"},
		{"typed without columns", func(c *Config) { c.Mode = "typed" }, "columns", "at least one"},
		{"column without colon", func(c *Config) { c.Mode = "typed"; c.Columns = []string{"name"} }, "columns", "missing ':'"},
		{"duplicate column", func(c *Config) { c.Mode = "typed"; c.Columns = []string{"a:int", "a:text"} }, "columns", "declared twice"},
		{"undeclared upsert key", func(c *Config) {
			c.Mode = "typed"
			c.Columns = []string{"id:int"}
			c.UpsertKey = "email"
		}, "upsert_key", "not a declared column"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level", "unknown log level"},
		{"empty kind", func(c *Config) { c.DB.Kind = "" }, "db.kind", "required"},
		{"bad port", func(c *Config) { c.DB.Port = 70000 }, "db.port", "1..65535"},
		{"unknown metrics backend", func(c *Config) { c.Metrics.Backend = "graphite" }, "metrics.backend", "unknown metrics backend"},
		{"pushgateway without url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, "metrics.pushgateway_url", "requires a URL"},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = "datadog" }, "metrics.statsd_addr", "DogStatsD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			issues := Validate(c)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("expected error at %s containing %q; got %+v", tt.path, tt.msg, issues)
			}
			if Err(issues) == nil {
				t.Fatal("Err(issues) = nil, want non-nil")
			}
		})
	}
}

func TestValidate_JSONBIgnoresTypedOptions(t *testing.T) {
	c := validConfig()
	c.Columns = []string{"id:int"}
	c.UpsertKey = "id"

	issues := Validate(c)
	if !hasIssue(t, issues, SeverityWarning, "columns", "ignored") {
		t.Fatalf("expected columns warning; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "upsert_key", "ignored") {
		t.Fatalf("expected upsert_key warning; got %+v", issues)
	}
	if err := Err(issues); err != nil {
		t.Fatalf("warnings must not be fatal: %v", err)
	}
	if got := len(Warnings(issues)); got != 2 {
		t.Fatalf("Warnings() = %d, want 2", got)
	}
}

func TestConfigTarget(t *testing.T) {
	c := validConfig()
	c.Mode = "typed"
	c.Columns = []string{"id:int", "name:text"}
	c.UpsertKey = "id"

	tgt, err := c.Target()
	if err != nil {
		t.Fatalf("Target() error = %v", err)
	}
	if tgt.Mode != storage.ModeTyped || tgt.Table != "events" || tgt.UpsertKey != "id" {
		t.Fatalf("Target() = %+v", tgt)
	}
	if got := strings.Join(tgt.Columns.Names(), ","); got != "id,name,ingested_at" {
		t.Fatalf("columns = %s, want id,name,ingested_at", got)
	}

	c = validConfig()
	c.Columns = []string{"id:int"}
	c.UpsertKey = "id"
	tgt, err = c.Target()
	if err != nil {
		t.Fatalf("Target() jsonb error = %v", err)
	}
	if len(tgt.Columns) != 0 || tgt.UpsertKey != "" {
		t.Fatalf("jsonb target kept typed options: %+v", tgt)
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "table", Message: "table name is required"}
	if got, want := iss.Error(), "error at table: table name is required"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
