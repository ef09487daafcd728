package fileloader

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a sample from the first sheet of a workbook. Cell values
// are read raw so numbers keep their full precision.
func ReadXLSX(r io.Reader, opts Options) ([]float64, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	// Get the first sheet name
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	col := 0
	first := true
	values := []float64{}
	skipped := 0

	for rows.Next() {
		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read XLSX row: %w", err)
		}

		if first {
			first = false
			if !opts.NoHeaderRow {
				col, err = columnIndex(row, opts.Column)
				if err != nil {
					return nil, 0, err
				}
				continue
			}
		}

		if col >= len(row) {
			skipped++
			continue
		}
		if v, ok := parseNumber(row[col]); ok {
			values = append(values, v)
		} else {
			skipped++
		}
	}
	if err := rows.Error(); err != nil {
		return nil, 0, err
	}

	return values, skipped, nil
}
