package postgres

import (
	"context"
	"database/sql"

	"jsonload/internal/storage"
	pgddl "jsonload/internal/storage/postgres/ddl"
)

const constraintExistsSQL = `SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = $1 AND conrelid = to_regclass($2))`

// Provision creates the table for t if absent and, with an upsert key,
// adds the unique constraint unless a constraint of that name already
// exists on the table. All statements run in one transaction.
func (r *Repository) Provision(ctx context.Context, t storage.Target) error {
	plan, err := pgddl.PlanFor(t)
	if err != nil {
		return err
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("provision: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, plan.CreateTable); err != nil {
		return wrapErr("create table "+pgddl.QuoteIdent(t.Table), err)
	}

	if plan.AddUnique != "" {
		added, err := ensureConstraint(ctx, tx, t.Table, plan)
		if err != nil {
			return err
		}
		r.logger.Debug("unique constraint", "name", plan.Constraint, "added", added)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("provision: commit", err)
	}
	r.logger.Debug("table ready", "table", t.Table, "mode", string(t.Mode))
	return nil
}

func ensureConstraint(ctx context.Context, tx *sql.Tx, table string, plan pgddl.Plan) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, constraintExistsSQL, plan.Constraint, pgddl.QuoteIdent(table)).Scan(&exists); err != nil {
		return false, wrapErr("look up constraint "+plan.Constraint, err)
	}
	if exists {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, plan.AddUnique); err != nil {
		return false, wrapErr("add constraint "+plan.Constraint, err)
	}
	return true, nil
}
