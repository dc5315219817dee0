package postgres

import (
	"testing"

	"jsonload/internal/schema"
	"jsonload/internal/storage"
)

func target(t *testing.T, key string, cols ...string) storage.Target {
	t.Helper()
	spec, err := schema.ParseColumns(cols)
	if err != nil {
		t.Fatalf("ParseColumns(%v): %v", cols, err)
	}
	return storage.Target{Table: "events", Mode: storage.ModeTyped, Columns: spec.WithIngestedAt(), UpsertKey: key}
}

// TestInsertSQL covers the plain insert, the upsert, and the key-only
// degenerate upsert for each mode.
func TestInsertSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target storage.Target
		want   string
	}{
		{
			name:   "jsonb",
			target: storage.Target{Table: "raw", Mode: storage.ModeJSONB},
			want:   `INSERT INTO "raw" ("payload") VALUES ($1::jsonb)`,
		},
		{
			name:   "typed plain insert skips implicit column",
			target: target(t, "", "id:int", "name:text"),
			want:   `INSERT INTO "events" ("id", "name") VALUES ($1, $2)`,
		},
		{
			name:   "typed upsert overwrites non-key columns",
			target: target(t, "id", "id:int", "name:text", "score:float8"),
			want: `INSERT INTO "events" ("id", "name", "score") VALUES ($1, $2, $3)` +
				` ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "score" = EXCLUDED."score"`,
		},
		{
			name:   "key is the only column",
			target: target(t, "id", "id:int"),
			want:   `INSERT INTO "events" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`,
		},
		{
			name:   "declared ingested_at is written and updated",
			target: target(t, "id", "id:int", "ingested_at:timestamptz"),
			want: `INSERT INTO "events" ("id", "ingested_at") VALUES ($1, $2)` +
				` ON CONFLICT ("id") DO UPDATE SET "ingested_at" = EXCLUDED."ingested_at"`,
		},
		{
			name:   "identifiers are quoted",
			target: target(t, "", `we"ird:text`),
			want:   `INSERT INTO "events" ("we""ird") VALUES ($1)`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := InsertSQL(tt.target)
			if err != nil {
				t.Fatalf("InsertSQL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("InsertSQL() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestInsertSQL_RejectsUndeclaredKey(t *testing.T) {
	t.Parallel()

	if _, err := InsertSQL(target(t, "email", "id:int")); err == nil {
		t.Fatal("InsertSQL() error = nil for undeclared key")
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	got, err := storage.Plan(Kind, target(t, "id", "id:int", "name:text"))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Plan() = %d statements, want create, add constraint, insert:\n%v", len(got), got)
	}
	want := `INSERT INTO "events" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name";`
	if got[2] != want {
		t.Fatalf("Plan()[2] = %q, want %q", got[2], want)
	}
}
