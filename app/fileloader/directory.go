package fileloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// IsDirectory checks if the path is a directory
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DiscoverFiles finds the regular files under dirPath that match
// opts.Pattern, in lexical order so concatenated samples are reproducible.
func DiscoverFiles(dirPath string, opts Options) ([]string, error) {
	// Pattern is required
	if opts.Pattern == "" {
		return nil, fmt.Errorf("file pattern is required (e.g., *.csv, **/*.csv.gz)")
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	// Create the full pattern by combining the root with the user pattern
	matches, err := doublestar.FilepathGlob(filepath.Join(absPath, opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}
	sort.Strings(matches)

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		excluded := false
		for _, excludePattern := range opts.ExcludePatterns {
			if matched, _ := doublestar.Match(excludePattern, filepath.Base(match)); matched {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		files = append(files, match)
		if opts.MaxFiles > 0 && len(files) >= opts.MaxFiles {
			break
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files matching %q in %s", opts.Pattern, absPath)
	}
	return files, nil
}

// LoadDirectory concatenates the samples of every discovered file.
func LoadDirectory(dirPath string, opts Options) (*Result, error) {
	files, err := DiscoverFiles(dirPath, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Values: []float64{}, Files: files}
	for _, file := range files {
		part, err := LoadFile(file, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		result.Values = append(result.Values, part.Values...)
		result.Skipped += part.Skipped
		result.Type = part.Type
	}
	return result, nil
}
