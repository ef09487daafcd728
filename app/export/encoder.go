package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type encoder interface {
	begin() error
	writeBatch(start int, values []float64) error
	finish() ([]byte, error)
	abort()
}

func newEncoder(f Format, rows int) (encoder, error) {
	switch f {
	case FormatText:
		return &textEncoder{}, nil
	case FormatXLSX:
		// header plus one row per value
		if rows+1 > excelize.TotalRows {
			return nil, fmt.Errorf("%d rows exceed the XLSX limit of %d", rows, excelize.TotalRows-1)
		}
		return &xlsxEncoder{}, nil
	}
	return nil, fmt.Errorf("unsupported export format: %v", f)
}

// FormatValue returns the shortest decimal text that parses back to v.
// Exponent notation is used only for very large or very small magnitudes.
func FormatValue(v float64) (string, error) {
	b, err := appendValue(nil, v)
	return string(b), err
}

func appendValue(dst []byte, v float64) ([]byte, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dst, fmt.Errorf("value %v is not finite", v)
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.AppendFloat(dst, v, 'f', -1, 64), nil
	}
	return strconv.AppendFloat(dst, v, 'g', -1, 64), nil
}

// textEncoder writes the header line and one LF-terminated value per line.
// Each batch is assembled in its own chunk before joining the artifact.
type textEncoder struct {
	buf   bytes.Buffer
	chunk []byte
}

func (e *textEncoder) begin() error {
	e.buf.WriteString(Header)
	e.buf.WriteByte('\n')
	return nil
}

func (e *textEncoder) writeBatch(start int, values []float64) error {
	chunk := e.chunk[:0]
	for i, v := range values {
		var err error
		chunk, err = appendValue(chunk, v)
		if err != nil {
			return fmt.Errorf("element %d: %w", start+i, err)
		}
		chunk = append(chunk, '\n')
	}
	e.buf.Write(chunk)
	e.chunk = chunk
	return nil
}

func (e *textEncoder) finish() ([]byte, error) {
	data := e.buf.Bytes()
	e.chunk = nil
	return data, nil
}

func (e *textEncoder) abort() {
	e.buf = bytes.Buffer{}
	e.chunk = nil
}

// xlsxEncoder streams values into the first sheet of a new workbook.
type xlsxEncoder struct {
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

func (e *xlsxEncoder) begin() error {
	e.file = excelize.NewFile()
	sw, err := e.file.NewStreamWriter(e.file.GetSheetName(0))
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	e.stream = sw
	e.row = 1
	return e.stream.SetRow("A1", []any{Header})
}

func (e *xlsxEncoder) writeBatch(start int, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("element %d: value %v is not finite", start+i, v)
		}
		e.row++
		cell, err := excelize.CoordinatesToCellName(1, e.row)
		if err != nil {
			return err
		}
		if err := e.stream.SetRow(cell, []any{v}); err != nil {
			return fmt.Errorf("element %d: %w", start+i, err)
		}
	}
	return nil
}

func (e *xlsxEncoder) finish() ([]byte, error) {
	defer e.file.Close()
	if err := e.stream.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}
	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *xlsxEncoder) abort() {
	if e.file != nil {
		e.file.Close()
	}
	e.file = nil
	e.stream = nil
}
