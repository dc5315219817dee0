package postgres

import (
	"fmt"
	"strings"

	"jsonload/internal/storage"
	pgddl "jsonload/internal/storage/postgres/ddl"
)

// InsertSQL returns the parameterized single-row write statement for t.
//
// jsonb mode inserts one payload cast to jsonb. Typed mode inserts the
// writable columns; with an upsert key it adds
// ON CONFLICT (key) DO UPDATE SET c = EXCLUDED.c for every other writable
// column, or DO NOTHING when the key is the only one.
func InsertSQL(t storage.Target) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	table := pgddl.QuoteIdent(t.Table)

	if t.Mode == storage.ModeJSONB {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1::jsonb)", table, pgddl.QuoteIdent(pgddl.PayloadColumn)), nil
	}

	cols := t.Columns.Writable()
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = pgddl.QuoteIdent(c.Name)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(params, ", "))
	return stmt + ConflictClause(t), nil
}

// ConflictClause returns the ON CONFLICT suffix for t, or "" without an
// upsert key. The key column itself is never updated.
func ConflictClause(t storage.Target) string {
	if t.Mode != storage.ModeTyped || t.UpsertKey == "" {
		return ""
	}
	key := pgddl.QuoteIdent(t.UpsertKey)

	var sets []string
	for _, c := range t.Columns.Writable() {
		if c.Name == t.UpsertKey {
			continue
		}
		q := pgddl.QuoteIdent(c.Name)
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	if len(sets) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", key)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}
