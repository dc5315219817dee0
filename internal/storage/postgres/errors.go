package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// wrapErr prefixes err with op and, for server errors, appends the detail
// and hint Postgres sent along with the message.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	extra := ""
	if pgErr.Detail != "" {
		extra += "; detail: " + pgErr.Detail
	}
	if pgErr.Hint != "" {
		extra += "; hint: " + pgErr.Hint
	}
	return fmt.Errorf("%s: %w%s", op, err, extra)
}

// SQLState returns the SQLSTATE code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
