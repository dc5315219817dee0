package postgres

import (
	"context"

	"jsonload/internal/storage"
	pgddl "jsonload/internal/storage/postgres/ddl"
)

// Kind is the storage kind this package registers.
const Kind = "postgres"

// openRepository is a test hook that points to Open by default.
var openRepository = Open

// Ensure Repository satisfies storage.Repository at compile time.
var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := openRepository(ctx, Config{
			Host:           cfg.Host,
			Port:           cfg.Port,
			Database:       cfg.Database,
			User:           cfg.User,
			Password:       cfg.Password,
			SSLMode:        cfg.SSLMode,
			ConnectTimeout: cfg.ConnectTimeout,
		}, cfg.Logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterPlanner(Kind, Plan)
}

// Plan returns the provisioning DDL followed by the write statement for t.
func Plan(t storage.Target) ([]string, error) {
	p, err := pgddl.PlanFor(t)
	if err != nil {
		return nil, err
	}
	insert, err := InsertSQL(t)
	if err != nil {
		return nil, err
	}
	return append(p.Statements(), insert+";"), nil
}
