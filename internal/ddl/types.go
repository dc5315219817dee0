package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; the Dialect quotes it at render time)
//   - SQLType: SQL type text, emitted verbatim (e.g. TEXT, NUMERIC(12,2), JSONB)
//   - Nullable: whether NULL is allowed
//   - Default: raw default expression (e.g. now())
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
	Default  string
}

// TableDef holds a single table identifier and its ordered columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}
