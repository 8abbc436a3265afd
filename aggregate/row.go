// Package aggregate merges per-sample metric rows into per-group rows
// under a per-call policy of weighted-average, average and sum columns.
package aggregate

// Value is a single metric cell: a number, a string, a bool, or nil for
// an absent value.
type Value interface{}

// Row is one sample's (or one merged group's) metrics.
type Row struct {
	Sample string
	Data   map[string]Value
}

// Num returns the numeric interpretation of v. Integers and floats are
// their value and bools count as 1 or 0; strings and absent values are
// not numeric.
func Num(v Value) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// IsScalar reports whether v is a plain scalar cell: numeric, string,
// bool or nil. Nested structures are not scalars.
func IsScalar(v Value) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(string); ok {
		return true
	}
	_, ok := Num(v)
	return ok
}
