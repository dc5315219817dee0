package ddl

import (
	"fmt"

	gddl "jsonload/internal/ddl"
	"jsonload/internal/schema"
	"jsonload/internal/storage"
)

// PayloadColumn holds the whole record in jsonb mode.
const PayloadColumn = "payload"

// TableFor builds the table definition for t.
//
// jsonb mode yields a single JSONB NOT NULL payload column. Typed mode yields
// the declared columns in order with the user's type text; the implicit
// ingestion column is NOT NULL DEFAULT now().
func TableFor(t storage.Target) (gddl.TableDef, error) {
	if err := t.Validate(); err != nil {
		return gddl.TableDef{}, fmt.Errorf("postgres ddl: %w", err)
	}

	switch t.Mode {
	case storage.ModeJSONB:
		return gddl.TableDef{
			Name:    t.Table,
			Columns: []gddl.ColumnDef{{Name: PayloadColumn, SQLType: "JSONB"}},
		}, nil

	case storage.ModeTyped:
		defs := make([]gddl.ColumnDef, 0, len(t.Columns))
		for _, c := range t.Columns {
			if c.Implicit {
				defs = append(defs, gddl.ColumnDef{
					Name:    c.Name,
					SQLType: schema.IngestedAtType,
					Default: "now()",
				})
				continue
			}
			defs = append(defs, gddl.ColumnDef{Name: c.Name, SQLType: c.Type, Nullable: true})
		}
		return gddl.TableDef{Name: t.Table, Columns: defs}, nil
	}
	return gddl.TableDef{}, fmt.Errorf("postgres ddl: unknown mode %q", t.Mode)
}

// Plan is the DDL that makes a target write-ready, in execution order.
type Plan struct {
	CreateTable string
	// Constraint and AddUnique are empty when there is no upsert key.
	Constraint string
	AddUnique  string
}

// Statements returns the plan's statements in execution order.
func (p Plan) Statements() []string {
	out := []string{p.CreateTable}
	if p.AddUnique != "" {
		out = append(out, p.AddUnique)
	}
	return out
}

// PlanFor renders the provisioning DDL for t.
func PlanFor(t storage.Target) (Plan, error) {
	def, err := TableFor(t)
	if err != nil {
		return Plan{}, err
	}
	create, err := BuildCreateTableSQL(def)
	if err != nil {
		return Plan{}, fmt.Errorf("postgres ddl: %w", err)
	}
	p := Plan{CreateTable: create}
	if t.UpsertKey == "" {
		return p, nil
	}
	p.Constraint = ConstraintName(t.Table, t.UpsertKey)
	p.AddUnique, err = BuildAddUniqueSQL(t.Table, p.Constraint, t.UpsertKey)
	if err != nil {
		return Plan{}, fmt.Errorf("postgres ddl: %w", err)
	}
	return p, nil
}
