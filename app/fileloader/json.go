package fileloader

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"numviz/app/interfaces"
)

// ReadJSON parses a JSON document and extracts the numeric array at
// opts.JSONPath (DefaultJSONPath when empty). A bare top-level array is
// accepted as the sample itself.
func ReadJSON(data []byte, opts Options) ([]float64, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("data is empty")
	}

	doc, err := oj.Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if arr, ok := doc.([]any); ok && opts.JSONPath == "" {
		values, skipped := Numbers(arr)
		return values, skipped, nil
	}

	path := opts.JSONPath
	if path == "" {
		path = DefaultJSONPath
	}
	return NumbersAt(doc, path)
}

// NumbersAt evaluates a JSONPath expression against a parsed document and
// converts the array it selects into finite numbers.
func NumbersAt(doc any, expression string) ([]float64, int, error) {
	x, err := jp.ParseString(expression)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid JSONPath expression %q: %w", expression, err)
	}

	results := x.Get(doc)
	if len(results) == 0 {
		return nil, 0, &interfaces.DataShapeError{Field: expression, Reason: "no value found"}
	}

	arr, ok := results[0].([]any)
	if !ok {
		return nil, 0, &interfaces.DataShapeError{Field: expression, Reason: fmt.Sprintf("expected an array, got %T", results[0])}
	}

	values, skipped := Numbers(arr)
	return values, skipped, nil
}

// Numbers keeps the finite numeric entries of arr and counts the rest.
// Strings are not numbers, even when they look like one.
func Numbers(arr []any) ([]float64, int) {
	values := make([]float64, 0, len(arr))
	skipped := 0
	for _, item := range arr {
		if v, ok := Number(item); ok {
			values = append(values, v)
		} else {
			skipped++
		}
	}
	return values, skipped
}

// Number converts a parsed JSON scalar into a finite float64.
func Number(item any) (float64, bool) {
	var v float64
	switch n := item.(type) {
	case float64:
		v = n
	case int64:
		v = float64(n)
	case int:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
