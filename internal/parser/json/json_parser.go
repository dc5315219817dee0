// Package json implements the record source: it turns a JSON file into an
// ordered, fully materialized slice of records.
//
// Two encodings are accepted and told apart by the first non-whitespace byte:
//
//   - '[': the whole input is one JSON array of objects:
//     [{"id":1,"name":"a"},{"id":2,"name":"b"}]
//   - anything else: newline-delimited JSON (NDJSON), one object per line;
//     blank lines are skipped:
//     {"id":1,"name":"a"}
//     {"id":2,"name":"b"}
//
// A single object (possibly spread over several lines) is accepted as a
// one-record input. Any malformed JSON fails the whole decode; there is no
// skip-and-continue mode.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode"

	"jsonload/pkg/records"
)

// Format identifies the on-disk encoding detected by Detect.
type Format int

const (
	FormatEmpty Format = iota
	FormatArray
	FormatNDJSON
)

func (f Format) String() string {
	switch f {
	case FormatArray:
		return "array"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "empty"
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detect reports the encoding of data from its first non-whitespace byte.
func Detect(data []byte) Format {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	switch {
	case len(trimmed) == 0:
		return FormatEmpty
	case trimmed[0] == '[':
		return FormatArray
	default:
		return FormatNDJSON
	}
}

// DecodeAll reads r to the end and decodes it. It is a convenience wrapper
// over Decode for callers holding a stream.
func DecodeAll(r io.Reader) ([]*records.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json parser: read: %w", err)
	}
	return Decode(data)
}

// Decode parses data as array JSON or NDJSON. Empty or whitespace-only input
// yields (nil, nil).
func Decode(data []byte) ([]*records.Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch Detect(data) {
	case FormatEmpty:
		return nil, nil
	case FormatArray:
		return decodeArray(data)
	default:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			return nil, nil
		}
		// A lone object, pretty-printed or not, is a one-element input.
		if trimmed[0] == '{' && json.Valid(trimmed) {
			rec, err := decodeObject(trimmed)
			if err != nil {
				return nil, fmt.Errorf("json parser: %w", err)
			}
			return []*records.Record{rec}, nil
		}
		return decodeLines(data)
	}
}

func decodeArray(data []byte) ([]*records.Record, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("json parser: decode array: %w", err)
	}

	out := make([]*records.Record, 0, len(elems))
	for i, elem := range elems {
		rec, err := decodeObject(elem)
		if err != nil {
			return nil, fmt.Errorf("json parser: element %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeLines(data []byte) ([]*records.Record, error) {
	var out []*records.Record
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := decodeObject(line)
		if err != nil {
			return nil, fmt.Errorf("json parser: line %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeObject(raw []byte) (*records.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}
	rec := records.New()
	if err := rec.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return rec, nil
}
