package results

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

var columnHeaders = map[Kind][]string{
	ChiSquare:         {"Observed", "Expected", "Chi-Square"},
	KolmogorovSmirnov: {"Observed", "Expected", "PO", "PE", "Cum PO", "Cum PE", "Difference"},
}

// Headers returns the table header for kind, starting with the interval
// number. Generic names are used when the column count does not match the
// test's layout.
func Headers(kind Kind, columns int) []string {
	headers := []string{"# Interval"}
	if known := columnHeaders[kind]; len(known) == columns {
		return append(headers, known...)
	}
	for i := 0; i < columns; i++ {
		headers = append(headers, "Column "+strconv.Itoa(i+1))
	}
	return headers
}

// Render writes r as an aligned text table followed by the statistic, the
// critical value and the conclusion. A nil result writes nothing.
func Render(w io.Writer, kind Kind, r *Result) error {
	if r == nil {
		return ErrNoResult
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(Headers(kind, r.Columns()), "\t")+"\t")
	for i, row := range r.Rows {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, strconv.Itoa(i+1))
		for _, c := range row {
			cells = append(cells, c.String())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	title := kind.Title()
	_, err := fmt.Fprintf(w, "\n%s calculated: %s\n%s critical: %s\nConclusion: %s the hypothesis that the data follow the theoretical distribution\n",
		title, formatScalar(r.Calculated),
		title, formatScalar(r.Critical),
		r.Conclusion())
	return err
}

func formatScalar(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
