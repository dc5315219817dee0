package postgres

import (
	"context"
	"fmt"

	"jsonload/internal/storage"
	"jsonload/pkg/records"
)

// WriteBatch writes recs in one transaction: the statement is prepared once
// and executed per record in input order, so a key repeated inside the batch
// ends with its last value. Any failure rolls the whole batch back.
func (r *Repository) WriteBatch(ctx context.Context, t storage.Target, recs []*records.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	query, err := InsertSQL(t)
	if err != nil {
		return 0, err
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, wrapErr("prepare", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		args, err := MapRow(t, rec)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			r.logger.Debug("write failed", "table", t.Table, "record", i+1, "sqlstate", SQLState(err))
			return 0, wrapErr(fmt.Sprintf("record %d", i+1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit", err)
	}
	return int64(len(recs)), nil
}
