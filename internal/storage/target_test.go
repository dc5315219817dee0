package storage

import (
	"testing"

	"jsonload/internal/schema"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		want    Mode
		wantErr bool
	}{
		"jsonb":   {want: ModeJSONB},
		"typed":   {want: ModeTyped},
		" JSONB ": {want: ModeJSONB},
		"json":    {wantErr: true},
		"":        {wantErr: true},
	}
	for in, tt := range tests {
		got, err := ParseMode(in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseMode(%q) error = nil, want non-nil", in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", in, got, err, tt.want)
		}
	}
}

func TestTargetValidate(t *testing.T) {
	t.Parallel()

	cols, err := schema.ParseColumns([]string{"id:int", "name:text"})
	if err != nil {
		t.Fatalf("ParseColumns: %v", err)
	}
	cols = cols.WithIngestedAt()

	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{name: "jsonb", target: Target{Table: "events", Mode: ModeJSONB}},
		{name: "typed", target: Target{Table: "events", Mode: ModeTyped, Columns: cols}},
		{name: "typed with key", target: Target{Table: "events", Mode: ModeTyped, Columns: cols, UpsertKey: "id"}},
		{name: "missing table", target: Target{Mode: ModeJSONB}, wantErr: true},
		{name: "unknown mode", target: Target{Table: "t", Mode: "csv"}, wantErr: true},
		{name: "jsonb with columns", target: Target{Table: "t", Mode: ModeJSONB, Columns: cols}, wantErr: true},
		{name: "typed without columns", target: Target{Table: "t", Mode: ModeTyped}, wantErr: true},
		{name: "undeclared key", target: Target{Table: "t", Mode: ModeTyped, Columns: cols, UpsertKey: "email"}, wantErr: true},
		{name: "implicit key", target: Target{Table: "t", Mode: ModeTyped, Columns: cols, UpsertKey: "ingested_at"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
