package badger

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/poiesic/mailroom/storage"
)

// matches reports whether row satisfies every filter.
func matches(row storage.Row, filters []storage.Filter) bool {
	for _, f := range filters {
		if !matchFilter(row, f) {
			return false
		}
	}
	return true
}

func matchFilter(row storage.Row, f storage.Filter) bool {
	v, present := row[f.Column]
	switch f.Op {
	case storage.OpIs:
		switch f.Value {
		case "null":
			return !present || v == nil
		case "true", "false":
			b, ok := v.(bool)
			return ok && strconv.FormatBool(b) == f.Value
		}
		return false
	case storage.OpIn:
		if !present || v == nil {
			return false
		}
		return slices.Contains(f.Values, row.String(f.Column))
	default:
		if !present || v == nil {
			return false
		}
		return row.String(f.Column) == f.Value
	}
}

// sortRows orders rows by each Order in turn. Nulls sort first.
func sortRows(rows []storage.Row, order []storage.Order) {
	if len(order) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(a, b storage.Row) int {
		for _, o := range order {
			c := compareColumn(a, b, o.Column)
			if o.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// compareColumn compares column of a and b: timestamps chronologically,
// numbers numerically and anything else by its string form.
func compareColumn(a, b storage.Row, column string) int {
	va, vb := a[column], b[column]
	switch {
	case va == nil && vb == nil:
		return 0
	case va == nil:
		return -1
	case vb == nil:
		return 1
	}

	if ta, ok := a.Time(column); ok {
		if tb, ok := b.Time(column); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := asNumber(va); ok {
		if fb, ok := asNumber(vb); ok {
			return cmp.Compare(fa, fb)
		}
	}
	return cmp.Compare(a.String(column), b.String(column))
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// project keeps only the requested columns. Empty columns keeps all.
func project(row storage.Row, columns []string) storage.Row {
	if len(columns) == 0 {
		return row
	}
	out := make(storage.Row, len(columns))
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}
