package storage

import (
	"fmt"
	"strings"

	"jsonload/internal/schema"
)

// Mode selects how records are projected onto the destination table.
type Mode string

const (
	// ModeJSONB stores each record whole in a single payload column.
	ModeJSONB Mode = "jsonb"
	// ModeTyped projects records onto user-declared columns.
	ModeTyped Mode = "typed"
)

// ParseMode maps the configuration string to a Mode (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeJSONB:
		return ModeJSONB, nil
	case ModeTyped:
		return ModeTyped, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want jsonb or typed)", s)
	}
}

// Target describes the destination table for a run. It is fixed once
// provisioning succeeds.
type Target struct {
	// Table is used verbatim as a single identifier.
	Table string
	Mode  Mode
	// Columns is the typed-mode column spec, including the implicit
	// ingestion timestamp column when the user did not declare one.
	Columns schema.Spec
	// UpsertKey is empty for plain inserts.
	UpsertKey string
}

// Validate checks the internal consistency of t.
func (t Target) Validate() error {
	if t.Table == "" {
		return fmt.Errorf("target: table name is required")
	}
	switch t.Mode {
	case ModeJSONB:
		if len(t.Columns) > 0 || t.UpsertKey != "" {
			return fmt.Errorf("target: jsonb mode takes no columns or upsert key")
		}
	case ModeTyped:
		if len(t.Columns.Writable()) == 0 {
			return fmt.Errorf("target: typed mode requires at least one declared column")
		}
		if t.UpsertKey != "" {
			if _, err := t.Columns.ResolveKey(t.UpsertKey); err != nil {
				return fmt.Errorf("target: %w", err)
			}
		}
	default:
		return fmt.Errorf("target: unknown mode %q", t.Mode)
	}
	return nil
}
