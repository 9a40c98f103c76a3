package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError describes one failed expectation.
type AssertionError struct {
	Type     string // "sql", "params", "columns", "rows", "count" or "error"
	Expected string
	Actual   string
	SQL      string // compiled SQL for context, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s mismatch\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\n  SQL: %s", e.SQL)
	}
	return buf.String()
}

// checkExpect compares a step trace with its expectations. A step
// without expectations only has to succeed.
func checkExpect(e *ExpectClause, tr StepTrace) []string {
	if e == nil {
		if tr.Error != "" {
			return []string{"unexpected error: " + tr.Error}
		}
		return nil
	}

	if e.Error != "" {
		if !strings.Contains(tr.Error, e.Error) {
			return []string{(&AssertionError{
				Type:     "error",
				Expected: fmt.Sprintf("error containing %q", e.Error),
				Actual:   describeError(tr.Error),
				SQL:      tr.SQL,
			}).Error()}
		}
		return nil
	}
	if tr.Error != "" {
		return []string{"unexpected error: " + tr.Error}
	}

	var errs []*AssertionError
	if e.SQL != "" && e.SQL != tr.SQL {
		errs = append(errs, &AssertionError{Type: "sql", Expected: e.SQL, Actual: tr.SQL})
	}
	if e.Params != nil && !reflect.DeepEqual(normalizeRow(e.Params), normalizeRow(tr.Params)) {
		errs = append(errs, &AssertionError{
			Type:     "params",
			Expected: fmt.Sprint(e.Params),
			Actual:   fmt.Sprint(tr.Params),
			SQL:      tr.SQL,
		})
	}
	if e.Columns != nil && !reflect.DeepEqual(e.Columns, tr.Columns) {
		errs = append(errs, &AssertionError{
			Type:     "columns",
			Expected: strings.Join(e.Columns, ", "),
			Actual:   strings.Join(tr.Columns, ", "),
		})
	}
	if e.Count != nil && *e.Count != len(tr.Rows) {
		errs = append(errs, &AssertionError{
			Type:     "count",
			Expected: fmt.Sprint(*e.Count),
			Actual:   fmt.Sprint(len(tr.Rows)),
			SQL:      tr.SQL,
		})
	}
	if e.Rows != nil && !rowsEqual(e.Rows, tr.Rows, e.Ordered) {
		errs = append(errs, &AssertionError{
			Type:     "rows",
			Expected: fmt.Sprint(e.Rows),
			Actual:   fmt.Sprint(tr.Rows),
			SQL:      tr.SQL,
		})
	}

	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func describeError(msg string) string {
	if msg == "" {
		return "no error"
	}
	return msg
}

// rowsEqual compares rows after normalizing YAML and driver value types.
// Unordered comparison sorts both sides by their printed form.
func rowsEqual(want, got [][]any, ordered bool) bool {
	if len(want) != len(got) {
		return false
	}
	w := normalizeRows(want)
	g := normalizeRows(got)
	if !ordered {
		sortRows(w)
		sortRows(g)
	}
	return reflect.DeepEqual(w, g)
}

func normalizeRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = normalizeRow(row)
	}
	return out
}

func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = normalizeValue(v)
	}
	return out
}

// normalizeValue maps integers to int64 and whole floats to int64, so
// that YAML literals compare equal to SQLite values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case []byte:
		return string(x)
	default:
		return v
	}
}

func sortRows(rows [][]any) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rowKey(rows[i]) < rowKey(rows[j])
	})
}

func rowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			parts[i] = "\x00"
			continue
		}
		parts[i] = fmt.Sprintf("%T:%v", v, v)
	}
	return strings.Join(parts, "\x1f")
}
