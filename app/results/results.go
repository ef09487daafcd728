// Package results turns goodness-of-fit payloads from the test-evaluation
// service into typed rows and a conclusion.
//
// The service returns a matrix: every entry except the last two is a
// column (all of equal length), followed by the calculated statistic and
// the critical value.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"numviz/app/interfaces"
)

// ErrNoResult marks a missing or malformed matrix. Callers log it and
// render nothing.
var ErrNoResult = errors.New("no test result to render")

// Kind identifies a goodness-of-fit test.
type Kind string

const (
	ChiSquare         Kind = "chi-cuadrado"
	KolmogorovSmirnov Kind = "k-s"
)

// ParseKind maps a user supplied name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chi", "chi2", "chi-square", "chi-cuadrado":
		return ChiSquare, nil
	case "ks", "k-s", "kolmogorov-smirnov":
		return KolmogorovSmirnov, nil
	}
	return "", fmt.Errorf("unknown test %q (expected chi-cuadrado or k-s)", name)
}

// Title returns the statistic's display name.
func (k Kind) Title() string {
	if k == KolmogorovSmirnov {
		return "K-S"
	}
	return "Chi-Square"
}

// Cell is one table entry, numeric or textual.
type Cell struct {
	Number   float64 `json:"number,omitempty"`
	Text     string  `json:"text,omitempty"`
	IsNumber bool    `json:"isNumber"`
}

// String formats numbers with four decimals and text verbatim.
func (c Cell) String() string {
	if c.IsNumber {
		return strconv.FormatFloat(c.Number, 'f', 4, 64)
	}
	return c.Text
}

// Conclusion is the outcome of comparing the statistic with the critical value.
type Conclusion int

const (
	DoNotReject Conclusion = iota
	Reject
)

// String returns the string representation of Conclusion
func (c Conclusion) String() string {
	if c == Reject {
		return "reject"
	}
	return "do not reject"
}

// Result is a typed test outcome in row-major form.
type Result struct {
	Rows       [][]Cell `json:"rows"`
	Calculated float64  `json:"calculated"`
	Critical   float64  `json:"critical"`
}

// Conclusion rejects the hypothesis only when the calculated statistic
// exceeds the critical value.
func (r *Result) Conclusion() Conclusion {
	if r.Calculated <= r.Critical {
		return DoNotReject
	}
	return Reject
}

// Columns returns the number of columns per row.
func (r *Result) Columns() int {
	if len(r.Rows) == 0 {
		return 0
	}
	return len(r.Rows[0])
}

// FromMatrix converts the service matrix into a Result, transposing the
// leading columns into rows.
func FromMatrix(matrix []any) (*Result, error) {
	if len(matrix) < 3 {
		return nil, malformed("matrix needs at least one column and two trailing values, got %d entries", len(matrix))
	}

	calculated, ok := scalar(matrix[len(matrix)-2])
	if !ok {
		return nil, malformed("calculated value %v is not numeric", matrix[len(matrix)-2])
	}
	critical, ok := scalar(matrix[len(matrix)-1])
	if !ok {
		return nil, malformed("critical value %v is not numeric", matrix[len(matrix)-1])
	}

	columns := make([][]any, len(matrix)-2)
	for i, entry := range matrix[:len(matrix)-2] {
		col, ok := entry.([]any)
		if !ok {
			return nil, malformed("entry %d is %T, expected a column", i, entry)
		}
		if i > 0 && len(col) != len(columns[0]) {
			return nil, malformed("column %d has %d rows, column 0 has %d", i, len(col), len(columns[0]))
		}
		columns[i] = col
	}

	rows := make([][]Cell, len(columns[0]))
	for i := range rows {
		row := make([]Cell, len(columns))
		for j, col := range columns {
			row[j] = cell(col[i])
		}
		rows[i] = row
	}

	return &Result{Rows: rows, Calculated: calculated, Critical: critical}, nil
}

// Parse reads a service response body and converts its "Test" matrix.
func Parse(body []byte) (*Result, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	return FromDocument(doc)
}

var testPath = jp.MustParseString("$.Test")

// FromDocument converts the "Test" matrix of an already parsed response.
func FromDocument(doc any) (*Result, error) {
	found := testPath.Get(doc)
	if len(found) == 0 || found[0] == nil {
		return nil, malformed("response has no Test field")
	}
	matrix, ok := found[0].([]any)
	if !ok {
		return nil, malformed("Test is %T, expected an array", found[0])
	}
	return FromMatrix(matrix)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrNoResult, &interfaces.DataShapeError{Field: "Test", Reason: fmt.Sprintf(format, args...)})
}

// scalar accepts numbers and numeric strings.
func scalar(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func cell(v any) Cell {
	switch n := v.(type) {
	case float64:
		return Cell{Number: n, IsNumber: true}
	case int64:
		return Cell{Number: float64(n), IsNumber: true}
	case int:
		return Cell{Number: float64(n), IsNumber: true}
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return Cell{Number: f, IsNumber: true}
		}
		return Cell{Text: n.String()}
	case string:
		return Cell{Text: n}
	case nil:
		return Cell{}
	}
	return Cell{Text: fmt.Sprint(v)}
}
