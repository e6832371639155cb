package rules

import (
	"fmt"
	"strconv"

	"github.com/tradewind/tariffflow/internal/model"
)

// coerceString renders any supported value as a string for the text
// operators. Integral floats render without a decimal point so numeric
// context values compare naturally against string rule values.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// coerceFloat converts numeric and numeric-string values to float64.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	}
	return 0, false
}

// toSlice normalizes a condition value into a slice for the membership
// operators. A non-slice value is treated as an empty set, not a singleton.
func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	}
	return nil
}

// toRange normalizes a condition value into inclusive numeric bounds.
func toRange(v any) (model.RangeValue, bool) {
	switch t := v.(type) {
	case model.RangeValue:
		return t, true
	case *model.RangeValue:
		if t == nil {
			return model.RangeValue{}, false
		}
		return *t, true
	case map[string]any:
		minV, okMin := coerceFloat(t["min"])
		maxV, okMax := coerceFloat(t["max"])
		if !okMin || !okMax {
			return model.RangeValue{}, false
		}
		return model.RangeValue{Min: minV, Max: maxV}, true
	case map[string]float64:
		minV, okMin := t["min"]
		maxV, okMax := t["max"]
		if !okMin || !okMax {
			return model.RangeValue{}, false
		}
		return model.RangeValue{Min: minV, Max: maxV}, true
	}
	return model.RangeValue{}, false
}
