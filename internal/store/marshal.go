package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// normalizeValue converts driver values to plain Go values. MySQL
// drivers return text columns as []byte.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// MarshalJSON encodes the result with each row as an object whose keys
// are the column aliases in column order. HTML escaping is disabled so
// corpus text is written as is.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"query_id":`)
	if err := encode(&buf, r.QueryID); err != nil {
		return nil, err
	}
	buf.WriteString(`,"columns":`)
	if err := encode(&buf, r.Columns); err != nil {
		return nil, err
	}
	buf.WriteString(`,"rows":[`)
	for i, row := range r.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if len(row) != len(r.Columns) {
			return nil, fmt.Errorf("marshal result: row %d has %d values, expected %d", i, len(row), len(r.Columns))
		}
		buf.WriteByte('{')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := encode(&buf, r.Columns[j].Alias); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := encode(&buf, v); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	// Encoder adds a trailing newline
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
