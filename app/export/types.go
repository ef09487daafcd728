// Package export serialises a sample into a downloadable artifact. Work is
// split into fixed-size batches driven by an explicit Job so callers can
// interleave other work between batches.
package export

import (
	"errors"
	"fmt"
	"strings"

	"numviz/app/fileloader"
	"numviz/app/interfaces"
)

const (
	DefaultBatchSize    = 10000
	DefaultConfirmAbove = 100000
	Header              = "Valor"
)

// ErrDeclined is returned when the user declines a large export.
var ErrDeclined = errors.New("export declined")

// ExportError reports a failure while assembling a batch. The export is
// aborted and every partial buffer discarded.
type ExportError struct {
	Batch int
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed in batch %d: %v", e.Batch, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Mode selects the order of the exported values.
type Mode int

const (
	OriginalOrder Mode = iota
	SortedAscending
)

// String returns the string representation of Mode
func (m Mode) String() string {
	if m == SortedAscending {
		return "sorted"
	}
	return "original"
}

// ParseMode maps a user supplied name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "original":
		return OriginalOrder, nil
	case "sorted", "asc", "ascending":
		return SortedAscending, nil
	}
	return OriginalOrder, fmt.Errorf("unknown export mode %q (expected original or sorted)", name)
}

// Format selects the artifact encoding.
type Format int

const (
	FormatText Format = iota
	FormatXLSX
)

// String returns the string representation of Format
func (f Format) String() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "text"
}

// Extension returns the filename suffix for the format
func (f Format) Extension() string {
	if f == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "csv":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return FormatText, fmt.Errorf("unknown export format %q (expected text or xlsx)", name)
}

// Confirmer is asked before exports larger than Options.ConfirmAbove.
type Confirmer interface {
	Confirm(n int) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(n int) bool

func (f ConfirmFunc) Confirm(n int) bool { return f(n) }

// Options configures an export.
type Options struct {
	Mode        Mode
	Format      Format
	Compression fileloader.CompressionType
	BatchSize   int
	// ConfirmAbove is the sample size above which Confirmer must agree.
	ConfirmAbove int
	// Confirmer is required for large exports; a nil Confirmer declines.
	Confirmer Confirmer
	// Yield runs after every job step. Defaults to runtime.Gosched.
	Yield    func()
	Progress interfaces.ProgressCallback
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ConfirmAbove <= 0 {
		o.ConfirmAbove = DefaultConfirmAbove
	}
	return o
}

// Artifact is a finalised export.
type Artifact struct {
	ID          string
	Data        []byte
	Rows        int
	Batches     int
	Format      Format
	Compression fileloader.CompressionType
}
