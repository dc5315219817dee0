// Package schema models the destination column declarations used by typed
// mode: the ordered Column Spec parsed from "name:type" entries, the implicit
// ingestion timestamp column, and the upsert key that must name one of the
// declared columns.
package schema

import (
	"fmt"
	"strings"
)

// IngestedAt is the reserved column (and record field) holding the run-wide
// ingestion timestamp.
const IngestedAt = "ingested_at"

// IngestedAtType is the destination type of the implicit timestamp column.
const IngestedAtType = "TIMESTAMPTZ"

// Column is one declared destination column. Type is passed verbatim to the
// destination; it is only checked for being non-empty.
type Column struct {
	Name string
	Type string

	// Implicit marks the ingestion timestamp column appended by WithIngestedAt.
	// Its value comes from the destination default, never from a record.
	Implicit bool
}

// Spec is an ordered list of columns, unique by name.
type Spec []Column

// ParseColumns parses "name:type" declarations in order. Each entry must hold
// exactly one ':' with a non-empty trimmed name and type; names must be
// unique. An empty list is an error.
func ParseColumns(entries []string) (Spec, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("typed mode requires at least one column (name:type)")
	}

	out := make(Spec, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i, raw := range entries {
		name, typ, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("column spec %q missing ':' (use name:type)", raw)
		}
		if strings.Contains(typ, ":") {
			return nil, fmt.Errorf("column spec %q has more than one ':'", raw)
		}
		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		if name == "" || typ == "" {
			return nil, fmt.Errorf("bad column spec %q: name and type must be non-empty", raw)
		}
		if j, dup := seen[name]; dup {
			return nil, fmt.Errorf("column %q declared twice (entries %d and %d)", name, j+1, i+1)
		}
		seen[name] = i
		out = append(out, Column{Name: name, Type: typ})
	}
	return out, nil
}

// WithIngestedAt returns s with the implicit ingestion timestamp column
// appended last, unless a column of that name is already declared.
func (s Spec) WithIngestedAt() Spec {
	if s.Has(IngestedAt) {
		return s
	}
	out := make(Spec, len(s), len(s)+1)
	copy(out, s)
	return append(out, Column{Name: IngestedAt, Type: IngestedAtType, Implicit: true})
}

// Has reports whether a column named name is declared.
func (s Spec) Has(name string) bool {
	return s.Index(name) >= 0
}

// Index returns the position of the named column, or -1.
func (s Spec) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns all column names in order.
func (s Spec) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Writable returns the columns whose values are supplied by records, in
// declared order. Implicit columns are excluded.
func (s Spec) Writable() Spec {
	out := make(Spec, 0, len(s))
	for _, c := range s {
		if !c.Implicit {
			out = append(out, c)
		}
	}
	return out
}

// ResolveKey checks an upsert key against the declared columns. An empty key
// means plain inserts. A key must name a declared, non-implicit column.
func (s Spec) ResolveKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}
	i := s.Index(key)
	if i < 0 {
		return "", fmt.Errorf("upsert key %q is not a declared column (declared: %s)", key, strings.Join(s.Writable().Names(), ", "))
	}
	if s[i].Implicit {
		return "", fmt.Errorf("upsert key %q cannot be the implicit %s column; declare it explicitly", key, IngestedAt)
	}
	return key, nil
}
