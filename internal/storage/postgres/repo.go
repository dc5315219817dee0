// Package postgres implements storage.Repository on Postgres using pgx v5
// through database/sql. A Repository pins one connection for its lifetime;
// provisioning and every batch run in their own transaction on it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Config holds connection settings. Host and Port have defaults; Database,
// User and Password are required and checked by Open.
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
}

const (
	defaultHost = "localhost"
	defaultPort = 5432
)

// ConnString validates c and renders it as a postgres:// URL.
func (c Config) ConnString() (string, error) {
	var missing []string
	if c.Database == "" {
		missing = append(missing, "database name (PGDATABASE)")
	}
	if c.User == "" {
		missing = append(missing, "user (PGUSER)")
	}
	if c.Password == "" {
		missing = append(missing, "password (PGPASSWORD)")
	}
	if len(missing) > 0 {
		return "", &MissingSettingsError{Missing: missing}
	}

	host := c.Host
	if host == "" {
		host = defaultHost
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		secs := int(c.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// MissingSettingsError reports required connection settings that were not
// provided.
type MissingSettingsError struct {
	Missing []string
}

func (e *MissingSettingsError) Error() string {
	return "postgres: missing connection settings: " + strings.Join(e.Missing, ", ")
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	db     *sql.DB
	conn   *sql.Conn
	logger *slog.Logger
}

// Open validates cfg, connects, and pins a single connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Repository, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, dsn, logger)
}

// OpenDSN connects using a libpq-style DSN or URL.
func OpenDSN(ctx context.Context, dsn string, logger *slog.Logger) (*Repository, error) {
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	db := stdlib.OpenDB(*cc)
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: connect to %s:%d/%s: %w", cc.Host, cc.Port, cc.Database, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	r := newRepository(db, conn, logger)
	r.logger.Debug("connected", "host", cc.Host, "port", cc.Port, "database", cc.Database, "user", cc.User)
	return r, nil
}

func newRepository(db *sql.DB, conn *sql.Conn, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{db: db, conn: conn, logger: logger}
}

// Close returns the pinned connection and closes the pool. Any transaction
// still open on the connection is rolled back by the server when the
// session ends.
func (r *Repository) Close() error {
	var errs []error
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
