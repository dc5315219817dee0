// Package records defines the in-memory form of one ingested JSON object.
//
// A Record keeps its fields in the order they were first encountered so that
// re-serializing it (jsonb mode) reproduces the source layout. Values are
// restricted to the closed JSON variant set modeled by Value.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is an ordered field-name → Value mapping.
type Record struct {
	m *orderedmap.OrderedMap[string, Value]
}

// New returns an empty record.
func New() *Record {
	return &Record{m: orderedmap.New[string, Value]()}
}

func (r *Record) lazy() {
	if r.m == nil {
		r.m = orderedmap.New[string, Value]()
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Get returns the value for field and whether it was present. A present
// field may still hold null.
func (r *Record) Get(field string) (Value, bool) {
	if r == nil || r.m == nil {
		return Value{}, false
	}
	return r.m.Get(field)
}

// Has reports whether field is present.
func (r *Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Set stores v under field. An existing field keeps its position.
func (r *Record) Set(field string, v Value) {
	r.lazy()
	r.m.Set(field, v)
}

// SetDefault stores v only when field is absent and reports whether it did.
func (r *Record) SetDefault(field string, v Value) bool {
	if r.Has(field) {
		return false
	}
	r.Set(field, v)
	return true
}

// Equal reports whether both records hold the same fields with equal values,
// ignoring field order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	if r.Len() == 0 {
		return true
	}
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		ov, ok := o.Get(p.Key)
		if !ok || !p.Value.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the record as a compact JSON object in field order.
// Non-ASCII text is written as UTF-8, not as \u escapes.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.m == nil || r.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return r.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object into r, replacing its contents.
// Duplicate keys keep the position of their first occurrence and the value of
// their last.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("records: expected JSON object, got %s", describeToken(tok))
	}

	m := orderedmap.New[string, Value]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("records: expected object key, got %s", describeToken(tok))
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("records: field %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("records: field %q: %w", key, err)
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("records: trailing data after object")
	}

	r.m = m
	return nil
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return fmt.Sprintf("%q", t.String())
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", t)
	}
}
