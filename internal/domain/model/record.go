// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Class labels produced by the classifier.
const (
	Legitimate = 0
	Fraud      = 1
)

// ClassNames maps a class label to its display name.
var ClassNames = [2]string{"Legitimate", "Fraud"} //nolint:gochecknoglobals // fixed display names

// Record is one transaction keyed by column name. Numeric and temporal
// columns hold float64, categorical columns hold the category label.
// A Record is built by the form, consumed once by the scorer, then dropped.
type Record map[string]any

// Frame is a batch of rows sharing one column order.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Index returns the position of each column name.
func (f Frame) Index() map[string]int {
	idx := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		idx[c] = i
	}
	return idx
}

// AsFloat coerces a cell into a float64. Strings are parsed after trimming.
func AsFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, x)
		}
		return f, nil
	case nil:
		return 0, ErrMissingValue
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// AsLabel coerces a cell into a category label. Numbers use their shortest
// decimal form so 1.0 and "1" name the same category.
func AsLabel(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case float64:
		if math.IsNaN(x) {
			return "", fmt.Errorf("%w: NaN", ErrNotLabel)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "", ErrMissingValue
	default:
		return "", fmt.Errorf("%w: %T", ErrNotLabel, v)
	}
}
