package fileloader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadText parses a delimited text sample, one value per row. The first row
// is a header unless opts.NoHeaderRow is set.
func ReadText(r io.Reader, opts Options) ([]float64, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	col := 0
	first := true
	values := []float64{}
	skipped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read text sample: %w", err)
		}

		if first {
			first = false
			if !opts.NoHeaderRow {
				col, err = columnIndex(record, opts.Column)
				if err != nil {
					return nil, 0, err
				}
				continue
			}
		}

		if col >= len(record) {
			skipped++
			continue
		}
		if v, ok := parseNumber(record[col]); ok {
			values = append(values, v)
		} else {
			skipped++
		}
	}

	return values, skipped, nil
}

// columnIndex finds name in header, case-insensitively. An empty name
// selects the first column.
func columnIndex(header []string, name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in header %v", name, header)
}

// parseNumber accepts finite decimal values only.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
