package postgres

import (
	"fmt"
	"strings"

	"jsonload/internal/storage"
	"jsonload/pkg/records"
)

// MapRow converts one record into the positional arguments of the write
// statement for t.
//
// jsonb mode yields the record's JSON text. Typed mode yields one value per
// writable column in declared order, always as text so the column type
// decides the conversion: absent and null fields become NULL, booleans bind
// as "true"/"false", numbers as their literal text, strings as-is. Arrays
// bind as a Postgres array literal for array-typed columns ("int[]",
// "text ARRAY") and as compact JSON text otherwise; objects always bind as
// JSON text.
func MapRow(t storage.Target, rec *records.Record) ([]any, error) {
	switch t.Mode {
	case storage.ModeJSONB:
		b, err := rec.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		return []any{string(b)}, nil

	case storage.ModeTyped:
		cols := t.Columns.Writable()
		row := make([]any, len(cols))
		for i, c := range cols {
			v, ok := rec.Get(c.Name)
			if !ok {
				continue
			}
			arg, err := columnValue(v, isArrayType(c.Type))
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			row[i] = arg
		}
		return row, nil
	}
	return nil, fmt.Errorf("unknown mode %q", t.Mode)
}

func columnValue(v records.Value, arrayColumn bool) (any, error) {
	switch v.Kind() {
	case records.KindNull:
		return nil, nil
	case records.KindBool:
		return boolText(v.AsBool()), nil
	case records.KindNumber:
		return v.AsNumber().String(), nil
	case records.KindString:
		return v.AsString(), nil
	case records.KindArray:
		if arrayColumn {
			var sb strings.Builder
			if err := writeArrayLiteral(&sb, v.AsArray()); err != nil {
				return nil, err
			}
			return sb.String(), nil
		}
		return jsonText(v)
	case records.KindObject:
		return jsonText(v)
	}
	return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
}

// isArrayType reports whether a declared column type is a Postgres array.
func isArrayType(sqlType string) bool {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	return strings.HasSuffix(t, "]") || strings.HasSuffix(t, " array")
}

// writeArrayLiteral renders elems in Postgres array input syntax. Nested
// arrays become sub-arrays; strings and objects are double-quoted.
func writeArrayLiteral(sb *strings.Builder, elems []records.Value) error {
	sb.WriteByte('{')
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch e.Kind() {
		case records.KindNull:
			sb.WriteString("NULL")
		case records.KindBool:
			sb.WriteString(boolText(e.AsBool()))
		case records.KindNumber:
			sb.WriteString(e.AsNumber().String())
		case records.KindString:
			writeQuoted(sb, e.AsString())
		case records.KindArray:
			if err := writeArrayLiteral(sb, e.AsArray()); err != nil {
				return err
			}
		case records.KindObject:
			s, err := jsonText(e)
			if err != nil {
				return err
			}
			writeQuoted(sb, s)
		default:
			return fmt.Errorf("unsupported array element kind %s", e.Kind())
		}
	}
	sb.WriteByte('}')
	return nil
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func jsonText(v records.Value) (string, error) {
	b, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
