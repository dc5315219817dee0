// Package ddl contains Postgres-specific helpers for generating DDL.
//
// It binds the generic ddl model to Postgres: identifiers are quoted with
// pgx.Identifier, tables are created with IF NOT EXISTS, and constraint names
// respect the 63-byte identifier limit.
package ddl

import (
	gddl "jsonload/internal/ddl"

	"github.com/jackc/pgx/v5"
)

// Dialect is the Postgres rendering dialect.
var Dialect = gddl.Dialect{QuoteIdent: QuoteIdent, IfNotExists: true}

// QuoteIdent double-quotes a single identifier and escapes embedded quotes.
// Dots are not treated as separators.
func QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for def
// with every identifier quoted.
func BuildCreateTableSQL(def gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(def, Dialect)
}

// BuildAddUniqueSQL returns the ALTER TABLE statement adding a named UNIQUE
// constraint over column.
func BuildAddUniqueSQL(table, constraint, column string) (string, error) {
	return gddl.BuildAddUniqueSQL(table, constraint, []string{column}, Dialect)
}
