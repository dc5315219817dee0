// Package config defines the run configuration and loads it from layered
// sources: built-in defaults, an optional YAML file, PG* environment
// variables, and explicitly set command-line flags (highest precedence).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultMode           = "jsonb"
	DefaultBatchSize      = 1000
	DefaultLogLevel       = "info"
	DefaultKind           = "postgres"
	DefaultHost           = "localhost"
	DefaultPort           = 5432
	DefaultSSLMode        = "prefer"
	DefaultConnectTimeout = 10 * time.Second
	DefaultMetricsBackend = "none"
	DefaultMetricsJob     = "jsonload"
	DefaultPushgatewayURL = "http://localhost:9091"
	DefaultStatsdAddr     = "127.0.0.1:8125"
)

// Config is the complete run configuration.
type Config struct {
	Input     string   `koanf:"input"`
	Table     string   `koanf:"table"`
	Mode      string   `koanf:"mode"`
	Columns   []string `koanf:"columns"`
	UpsertKey string   `koanf:"upsert_key"`
	BatchSize int      `koanf:"batch_size"`
	DryRun    bool     `koanf:"dry_run"`
	LogLevel  string   `koanf:"log_level"`
	Verbose   bool     `koanf:"verbose"`
	DB        DB       `koanf:"db"`
	Metrics   Metrics  `koanf:"metrics"`
}

// DB holds destination connection settings.
type DB struct {
	Kind           string        `koanf:"kind"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	Database       string        `koanf:"database"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	SSLMode        string        `koanf:"sslmode"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend        string `koanf:"backend"`
	Job            string `koanf:"job"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	StatsdAddr     string `koanf:"statsd_addr"`
}

// envKeys maps the libpq environment variables to config keys.
var envKeys = map[string]string{
	"PGHOST":            "db.host",
	"PGPORT":            "db.port",
	"PGDATABASE":        "db.database",
	"PGUSER":            "db.user",
	"PGPASSWORD":        "db.password",
	"PGSSLMODE":         "db.sslmode",
	"PGCONNECT_TIMEOUT": "db.connect_timeout",
}

// flagKeys maps flags whose name does not follow the kebab→snake rule.
var flagKeys = map[string]string{
	"db-kind":         "db.kind",
	"metrics-backend": "metrics.backend",
	"metrics-job":     "metrics.job",
	"pushgateway-url": "metrics.pushgateway_url",
	"statsd-addr":     "metrics.statsd_addr",
}

// skipFlags are flags that select sources rather than carry values.
var skipFlags = map[string]struct{}{
	"config": {},
	"help":   {},
}

// RegisterFlags defines the command-line flags read by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional YAML config file")
	fs.StringP("input", "i", "", "input file (JSON array or NDJSON); - reads standard input")
	fs.StringP("table", "t", "", "destination table name, used verbatim as one identifier")
	fs.String("mode", DefaultMode, "schema mode: jsonb or typed")
	fs.StringArray("columns", nil, "typed mode column declarations name:type (repeatable; bare arguments after it are further declarations)")
	fs.String("upsert-key", "", "typed mode column used for conflict resolution")
	fs.Int("batch-size", DefaultBatchSize, "records per write-and-commit batch")
	fs.Bool("dry-run", false, "print the DDL and write statement without connecting")
	fs.String("log-level", DefaultLogLevel, "log level: debug, info, warn, error")
	fs.BoolP("verbose", "v", false, "shorthand for --log-level=debug")
	fs.String("db-kind", DefaultKind, "storage backend kind")
	fs.String("metrics-backend", DefaultMetricsBackend, "metrics backend: none, pushgateway, datadog")
	fs.String("metrics-job", DefaultMetricsJob, "metrics job name")
	fs.String("pushgateway-url", DefaultPushgatewayURL, "Prometheus Pushgateway URL")
	fs.String("statsd-addr", DefaultStatsdAddr, "DogStatsD address")
}

func defaults() map[string]any {
	return map[string]any{
		"mode":                    DefaultMode,
		"batch_size":              DefaultBatchSize,
		"log_level":               DefaultLogLevel,
		"db.kind":                 DefaultKind,
		"db.host":                 DefaultHost,
		"db.port":                 DefaultPort,
		"db.sslmode":              DefaultSSLMode,
		"db.connect_timeout":      DefaultConnectTimeout,
		"metrics.backend":         DefaultMetricsBackend,
		"metrics.job":             DefaultMetricsJob,
		"metrics.pushgateway_url": DefaultPushgatewayURL,
		"metrics.statsd_addr":     DefaultStatsdAddr,
	}
}

// Load builds a Config. Precedence (highest to lowest): flags > env vars >
// config file > defaults. cfgFile may be empty. Only flags that were
// explicitly set are applied. Command lines should pass through
// ExpandColumnArgs before flags are parsed.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("PG", ".", func(key, value string) (string, any) {
		mapped, ok := envKeys[key]
		if !ok || value == "" {
			return "", nil
		}
		if mapped == "db.connect_timeout" {
			// libpq takes whole seconds.
			if _, err := time.ParseDuration(value); err != nil {
				value += "s"
			}
		}
		return mapped, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			if _, skip := skipFlags[f.Name]; skip {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// ExpandColumnArgs rewrites a command line so that every bare argument
// following --columns becomes its own --columns flag, keeping declarations
// in command-line order: "--columns id:int name:text" is read as
// "--columns id:int --columns name:text". A group ends at the next token
// starting with "-"; "--" ends rewriting.
func ExpandColumnArgs(args []string) []string {
	out := make([]string, 0, len(args))
	inColumns := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return append(out, args[i:]...)
		case a == "--columns":
			out = append(out, a)
			if i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
			inColumns = true
		case strings.HasPrefix(a, "--columns="):
			out = append(out, a)
			inColumns = true
		case strings.HasPrefix(a, "-"):
			out = append(out, a)
			inColumns = false
		case inColumns:
			out = append(out, "--columns", a)
		default:
			out = append(out, a)
		}
	}
	return out
}
