// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE and ADD CONSTRAINT statements from that model.
//
// Dialect differences (identifier quoting and IF NOT EXISTS support) are
// supplied by the caller through a Dialect value. Backend packages such as
// internal/storage/postgres/ddl bind a Dialect and re-export thin wrappers.
//
// ColumnDef.Default and ColumnDef.SQLType are treated as raw SQL; the caller is
// responsible for their safety.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the few rendering choices that differ between databases.
type Dialect struct {
	// QuoteIdent quotes a single identifier. Nil means identifiers are
	// emitted as-is.
	QuoteIdent func(string) string
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE.
	IfNotExists bool
}

// Quote applies d.QuoteIdent, or returns name unchanged when it is unset.
func (d Dialect) Quote(name string) string {
	if d.QuoteIdent == nil {
		return name
	}
	return d.QuoteIdent(name)
}

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Each column is rendered as:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// and the statement has the form:
//
//	CREATE TABLE [IF NOT EXISTS] <Name> (
//	  <col1-def>,
//	  <col2-def>
//	);
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", t.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return "", fmt.Errorf("ddl: duplicate column %s in table %s", c.Name, t.Name)
		}
		seen[c.Name] = struct{}{}

		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", c.Name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, d.Quote(t.Name), strings.Join(cols, ",\n  ")), nil
}

// BuildAddUniqueSQL renders ALTER TABLE ... ADD CONSTRAINT ... UNIQUE over the
// given columns.
func BuildAddUniqueSQL(table, constraint string, columns []string, d Dialect) (string, error) {
	if table == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if constraint == "" {
		return "", fmt.Errorf("ddl: constraint name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: unique constraint %s needs at least one column", constraint)
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if c == "" {
			return "", fmt.Errorf("ddl: unique constraint %s has an empty column", constraint)
		}
		quoted[i] = d.Quote(c)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
		d.Quote(table), d.Quote(constraint), strings.Join(quoted, ", ")), nil
}
