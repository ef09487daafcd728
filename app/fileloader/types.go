// Package fileloader reads numeric samples back from files: the text
// artifacts written by the exporter, XLSX workbooks, JSON documents and
// directories of such files. Compressed inputs (.gz, .bz2, .xz) are
// detected by their magic bytes.
package fileloader

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of data file being processed
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeText
	FileTypeXLSX
	FileTypeJSON
)

// String returns the string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeText:
		return "Text"
	case FileTypeXLSX:
		return "XLSX"
	case FileTypeJSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// DefaultJSONPath locates the numbers in a generator response.
const DefaultJSONPath = "$.Numeros"

// Options controls how a sample file is parsed.
type Options struct {
	// Column selects the value column by header name. Empty means the first column.
	Column string
	// NoHeaderRow treats the first row as data.
	NoHeaderRow bool
	// JSONPath selects the numeric array inside JSON documents.
	JSONPath string
	// Pattern is the doublestar glob used when the path is a directory.
	Pattern string
	// ExcludePatterns are matched against base names of discovered files.
	ExcludePatterns []string
	// MaxFiles limits directory discovery (0 = unlimited).
	MaxFiles int
}

// Result is a loaded sample.
type Result struct {
	Values      []float64
	Files       []string
	Type        FileType
	Compression CompressionType
	// Skipped counts entries that were not finite numbers
	Skipped int
}

var compressionExtensions = map[string]CompressionType{
	".gz":  CompressionGzip,
	".bz2": CompressionBzip2,
	".xz":  CompressionXZ,
}

// DetectFileType determines the inner file type from the extension,
// ignoring a trailing compression extension. Unknown extensions are
// read as text.
func DetectFileType(filePath string) FileType {
	if filePath == "" {
		return FileTypeUnknown
	}

	lower := strings.ToLower(filePath)
	if _, ok := compressionExtensions[filepath.Ext(lower)]; ok {
		lower = strings.TrimSuffix(lower, filepath.Ext(lower))
	}

	switch filepath.Ext(lower) {
	case ".xlsx":
		return FileTypeXLSX
	case ".json":
		return FileTypeJSON
	default:
		return FileTypeText
	}
}
