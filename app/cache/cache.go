// Package cache keeps recent goodness-of-fit results so that re-running a test
// with the same sample and parameters does not hit the service again.
package cache

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"numviz/app/interfaces"
	"numviz/app/results"
)

// Cache is a size-bounded LRU of test results.
type Cache struct {
	storage     map[string]*Entry
	maxSize     int64
	currentSize int64
	lru         *LRUList[string]
	mu          sync.RWMutex
	logger      interfaces.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new cache with the specified maximum size in bytes
func NewCache(maxSize int64) *Cache {
	return NewCacheWithLogger(maxSize, nil)
}

// NewCacheWithLogger creates a new cache with a logger
func NewCacheWithLogger(maxSize int64, logger interfaces.Logger) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &Cache{
		storage: make(map[string]*Entry),
		maxSize: maxSize,
		lru:     NewLRUList[string](),
		logger:  logger,
	}
}

// Get returns the cached result for key and marks it as recently used
func (c *Cache) Get(key string) (*results.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.storage[key]
	if !ok {
		c.misses.Add(1)
		c.debug(fmt.Sprintf("[CACHE_MISS] Key: %s", key))
		return nil, false
	}

	c.hits.Add(1)
	entry.AccessTime = time.Now().UnixNano()
	c.lru.Touch(key)
	c.debug(fmt.Sprintf("[CACHE_HIT] Key: %s, Rows: %d, Size: %d bytes", key, len(entry.Result.Rows), entry.Size))
	return entry.Result, true
}

// Store caches result under key. Entries larger than the cache are rejected.
func (c *Cache) Store(key string, result *results.Result) bool {
	if result == nil {
		return false
	}
	size := EntrySize(key, result)

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.maxSize {
		c.warn(fmt.Sprintf("[CACHE_REJECT] Entry too large: %d bytes > %d cache limit", size, c.maxSize))
		return false
	}

	if existing, ok := c.storage[key]; ok {
		c.currentSize -= existing.Size
		delete(c.storage, key)
		c.lru.Remove(key)
	}

	if !c.evictToMakeSpace(size) {
		c.warn(fmt.Sprintf("[CACHE_REJECT] Could not make space for entry: %d bytes needed, %d available", size, c.maxSize-c.currentSize))
		return false
	}

	now := time.Now()
	c.storage[key] = &Entry{
		Key:        key,
		Result:     result,
		Size:       size,
		AccessTime: now.UnixNano(),
		CreateTime: now,
	}
	c.currentSize += size
	c.lru.Touch(key)

	c.debug(fmt.Sprintf("[CACHE_STORE] Key: %s, Rows: %d, Size: %d bytes, Total Cache: %d/%d bytes",
		key, len(result.Rows), size, c.currentSize, c.maxSize))
	return true
}

// Remove removes an entry from the cache
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear removes all entries and resets hit counters
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage = make(map[string]*Entry)
	c.lru = NewLRUList[string]()
	c.currentSize = 0
	c.hits.Store(0)
	c.misses.Store(0)
}

// Size returns the current cache size in bytes
func (c *Cache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentSize
}

// MaxSize returns the maximum cache size in bytes
func (c *Cache) MaxSize() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxSize
}

// EntryCount returns the number of entries in the cache
func (c *Cache) EntryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.storage)
}

// UpdateMaxSize changes the limit and evicts until the cache fits
func (c *Cache) UpdateMaxSize(newMaxSize int64) {
	if newMaxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	oldMaxSize := c.maxSize
	c.maxSize = newMaxSize
	c.info(fmt.Sprintf("[CACHE_RESIZE] Cache size updated from %d to %d bytes", oldMaxSize, newMaxSize))

	evicted := 0
	for c.currentSize > c.maxSize {
		key, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		if entry, exists := c.storage[key]; exists {
			c.currentSize -= entry.Size
			delete(c.storage, key)
			evicted++
		}
	}

	if evicted > 0 {
		c.info(fmt.Sprintf("[CACHE_RESIZE_EVICT] Evicted %d entries due to cache size reduction, Final Cache: %d/%d bytes",
			evicted, c.currentSize, c.maxSize))
	}
}

// InvalidateSample removes every entry computed from the sample with the
// given fingerprint and returns how many were removed.
func (c *Cache) InvalidateSample(fingerprint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []string
	for key := range c.storage {
		if IsSampleKey(key, fingerprint) {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		c.removeLocked(key)
	}

	if len(doomed) > 0 {
		c.debug(fmt.Sprintf("[CACHE_INVALIDATE_SAMPLE] Removed %d entries for sample %s", len(doomed), fingerprint))
	}
	return len(doomed)
}

// InvalidateExpiredEntries removes entries created more than maxAge ago
func (c *Cache) InvalidateExpiredEntries(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var expired []string
	for key, entry := range c.storage {
		if entry.CreateTime.Before(cutoff) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeLocked(key)
	}
	if len(expired) > 0 {
		c.debug(fmt.Sprintf("[CACHE_EXPIRE] Removed %d entries older than %v", len(expired), maxAge))
	}
	return len(expired)
}

// GetCacheStats returns a snapshot of cache usage
func (c *Cache) GetCacheStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalEntries: len(c.storage),
		TotalSize:    c.currentSize,
		MaxSize:      c.maxSize,
		TestStats:    make(map[string]TestStats),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}
	if c.maxSize > 0 {
		stats.UsagePercent = float64(c.currentSize) / float64(c.maxSize) * 100
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	for key, entry := range c.storage {
		name := KindFromKey(key)
		ts := stats.TestStats[name]
		ts.EntryCount++
		ts.TotalSize += entry.Size
		stats.TestStats[name] = ts
	}
	return stats
}

// EntrySize estimates the memory held by one cached result
func EntrySize(key string, r *results.Result) int64 {
	const cellSize = 40 // float64 + string header + bool, padded
	size := int64(len(key)) + 64
	for _, row := range r.Rows {
		size += 24 + int64(len(row))*cellSize
		for _, c := range row {
			size += int64(len(c.Text))
		}
	}
	return size
}

func (c *Cache) removeLocked(key string) {
	if entry, ok := c.storage[key]; ok {
		c.currentSize -= entry.Size
		delete(c.storage, key)
		c.lru.Remove(key)
	}
}

// evictToMakeSpace drops least recently used entries until neededSize fits.
// Caller must hold the write lock.
func (c *Cache) evictToMakeSpace(neededSize int64) bool {
	for c.currentSize+neededSize > c.maxSize {
		key, ok := c.lru.RemoveOldest()
		if !ok {
			return false
		}
		entry, exists := c.storage[key]
		if !exists {
			continue
		}
		c.currentSize -= entry.Size
		delete(c.storage, key)
		if c.logger != nil {
			c.logger.Log("debug", fmt.Sprintf("[CACHE_EVICT] Evicted entry: %s, Size: %d bytes, Remaining Cache: %d/%d bytes",
				key, entry.Size, c.currentSize, c.maxSize))
		} else {
			log.Printf("[CACHE_EVICT] Evicted entry: %s (%d bytes)", key, entry.Size)
		}
	}
	return true
}

func (c *Cache) debug(msg string) {
	if c.logger != nil {
		c.logger.Log("debug", msg)
	}
}

func (c *Cache) info(msg string) {
	if c.logger != nil {
		c.logger.Log("info", msg)
	}
}

func (c *Cache) warn(msg string) {
	if c.logger != nil {
		c.logger.Log("warning", msg)
		return
	}
	log.Print(msg)
}
