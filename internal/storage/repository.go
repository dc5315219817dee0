// Package storage contains storage-agnostic contracts and utilities: the
// destination Target, the Repository interface implemented by backends, a
// small backend registry, and the sequential batch loader.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"jsonload/pkg/records"
)

// Repository is implemented by destination backends.
type Repository interface {
	// Provision idempotently creates the destination described by t,
	// including the uniqueness constraint for an upsert key.
	Provision(ctx context.Context, t Target) error
	// WriteBatch writes recs as one atomic unit and returns the number of
	// rows written. On error nothing from recs is applied.
	WriteBatch(ctx context.Context, t Target, recs []*records.Record) (int64, error)
	// Close releases the connection, rolling back any open work.
	Close() error
}

// Config carries connection settings to a backend factory. Required fields
// are checked by the backend when connecting.
type Config struct {
	Kind           string
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// Planner renders, without connecting, the statements a backend would run
// to provision t and write one record.
type Planner func(t Target) ([]string, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
	planners  = map[string]Planner{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// RegisterPlanner registers (or replaces) the Planner for kind.
func RegisterPlanner(kind string, p Planner) {
	regMu.Lock()
	defer regMu.Unlock()
	planners[kind] = p
}

// Plan renders the statements the backend registered for kind would run
// for t.
func Plan(kind string, t Target) ([]string, error) {
	regMu.RLock()
	p, ok := planners[kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no planner registered for storage.kind=%s", kind)
	}
	return p(t)
}

// ListKinds returns a sorted snapshot of registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
