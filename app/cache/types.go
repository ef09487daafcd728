package cache

import (
	"time"

	"numviz/app/results"
)

// Entry is a cached test evaluation.
type Entry struct {
	Key        string
	Result     *results.Result
	Size       int64
	AccessTime int64
	CreateTime time.Time
}

// Stats contains cache statistics
type Stats struct {
	TotalEntries int
	TotalSize    int64
	MaxSize      int64
	UsagePercent float64
	// Entries per test name
	TestStats map[string]TestStats

	Hits    int64
	Misses  int64
	HitRate float64
}

// TestStats contains statistics for one test type
type TestStats struct {
	EntryCount int
	TotalSize  int64
}

// DefaultCacheMaxSize is the default cache size limit (16MB)
const DefaultCacheMaxSize = 16 * 1024 * 1024
