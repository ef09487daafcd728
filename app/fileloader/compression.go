package fileloader

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression format of a file
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

// String returns the string representation of CompressionType
func (ct CompressionType) String() string {
	switch ct {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

// Extension returns the filename suffix for the compression type
func (ct CompressionType) Extension() string {
	switch ct {
	case CompressionGzip:
		return ".gz"
	case CompressionBzip2:
		return ".bz2"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// ParseCompression maps a user supplied name to a CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "bzip2", "bz2":
		return CompressionBzip2, nil
	case "xz":
		return CompressionXZ, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q (expected none, gzip, bzip2 or xz)", name)
}

// Magic byte signatures for compression detection
var (
	// Gzip magic bytes: 1f 8b
	gzipMagic = []byte{0x1f, 0x8b}
	// Bzip2 magic bytes: 42 5a 68 ("BZh")
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	// XZ magic bytes: fd 37 7a 58 5a 00
	xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// DetectCompression inspects the leading bytes of a stream
func DetectCompression(header []byte) CompressionType {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXZ
	}
	return CompressionNone
}

// DecompressingReader peeks at r and, when it carries a known compression
// signature, wraps it in the matching decompressor.
func DecompressingReader(r io.Reader) (io.Reader, CompressionType, error) {
	br := bufio.NewReader(r)
	// XZ has the longest magic (6 bytes)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, CompressionNone, err
	}

	ct := DetectCompression(header)
	switch ct {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, ct, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, ct, nil
	case CompressionBzip2:
		return bzip2.NewReader(br), ct, nil
	case CompressionXZ:
		xzReader, err := xz.NewReader(br)
		if err != nil {
			return nil, ct, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, ct, nil
	}
	return br, CompressionNone, nil
}

// ReadDecompressed reads a whole file, transparently decompressing it.
func ReadDecompressed(filePath string) ([]byte, CompressionType, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, CompressionNone, err
	}
	defer f.Close()

	reader, ct, err := DecompressingReader(f)
	if err != nil {
		return nil, ct, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ct, fmt.Errorf("decompression failed: %w", err)
	}
	return data, ct, nil
}

// Compress returns data compressed with ct. Bzip2 is read-only.
func Compress(data []byte, ct CompressionType) ([]byte, error) {
	var buf bytes.Buffer

	switch ct {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		gzWriter := gzip.NewWriter(&buf)
		if _, err := gzWriter.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write failed: %w", err)
		}
		if err := gzWriter.Close(); err != nil {
			return nil, fmt.Errorf("gzip close failed: %w", err)
		}

	case CompressionXZ:
		xzWriter, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		if _, err := xzWriter.Write(data); err != nil {
			return nil, fmt.Errorf("xz write failed: %w", err)
		}
		if err := xzWriter.Close(); err != nil {
			return nil, fmt.Errorf("xz close failed: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported compression type for writing: %v", ct)
	}

	return buf.Bytes(), nil
}
