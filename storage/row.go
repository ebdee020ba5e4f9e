package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Row is a single record as a column → value map.
// Values follow JSON decoding rules with numbers kept as json.Number.
type Row map[string]any

// String returns the column as a string, or "" when absent or null.
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column as an int, or 0 when absent, null or not numeric.
func (r Row) Int(column string) int {
	switch v := r[column].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}

// Time parses the column as an RFC 3339 timestamp.
func (r Row) Time(column string) (time.Time, bool) {
	switch v := r[column].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	}
	return time.Time{}, false
}

// Floats returns the column as a float32 vector, or nil when it is not a list.
func (r Row) Floats(column string) []float32 {
	switch v := r[column].(type) {
	case []float32:
		return v
	case []any:
		out := make([]float32, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case json.Number:
				f, _ := n.Float64()
				out[i] = float32(f)
			case float64:
				out[i] = float32(n)
			}
		}
		return out
	}
	return nil
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToRow converts a tagged struct into a Row through its JSON encoding.
func ToRow(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return DecodeRow(data)
}

// FromRow decodes row into the struct pointed to by v.
func FromRow(row Row, v any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}

// DecodeRow decodes a JSON object into a Row.
func DecodeRow(data []byte) (Row, error) {
	var row Row
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return row, nil
}

// DecodeRows decodes a JSON array of objects, or a single object, into rows.
func DecodeRows(data []byte) ([]Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '{' {
		var row Row
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		return []Row{row}, nil
	}
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return rows, nil
}
