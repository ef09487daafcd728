package fileloader

import (
	"bytes"
	"fmt"
)

// Load reads a sample from a file or, when path is a directory, from every
// file matching opts.Pattern beneath it.
func Load(path string, opts Options) (*Result, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	if IsDirectory(path) {
		return LoadDirectory(path, opts)
	}
	return LoadFile(path, opts)
}

// LoadFile reads a single, possibly compressed, sample file.
func LoadFile(path string, opts Options) (*Result, error) {
	data, ct, err := ReadDecompressed(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := LoadBytes(data, DetectFileType(path), opts)
	if err != nil {
		return nil, err
	}
	result.Files = []string{path}
	result.Compression = ct
	return result, nil
}

// LoadBytes parses an uncompressed in-memory sample of the given type.
func LoadBytes(data []byte, ft FileType, opts Options) (*Result, error) {
	var (
		values  []float64
		skipped int
		err     error
	)

	switch ft {
	case FileTypeXLSX:
		values, skipped, err = ReadXLSX(bytes.NewReader(data), opts)
	case FileTypeJSON:
		values, skipped, err = ReadJSON(data, opts)
	default:
		ft = FileTypeText
		values, skipped, err = ReadText(bytes.NewReader(data), opts)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Values: values, Skipped: skipped, Type: ft}, nil
}
