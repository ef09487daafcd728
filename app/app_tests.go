package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"numviz/app/cache"
	"numviz/app/remote"
	"numviz/app/results"
	"numviz/app/sample"
)

// TestParams are the user-chosen parameters of a goodness-of-fit test
type TestParams struct {
	Alpha     float64
	Intervals int
	Model     int
	// Refresh drops cached results for the current sample before running
	Refresh bool
}

// CheckHealth probes the service. Callers treat a failure as a warning.
func (a *App) CheckHealth(ctx context.Context) error {
	if err := a.client.Health(ctx); err != nil {
		a.Log("warning", fmt.Sprintf("[HEALTH] Service at %s is not reachable: %v", a.client.BaseURL(), err))
		return err
	}
	a.Log("debug", fmt.Sprintf("[HEALTH] Service at %s is up", a.client.BaseURL()))
	return nil
}

// RunTest evaluates the current sample, reduced to at most 1000 elements,
// with the given test. Results are cached per sample and parameter set.
func (a *App) RunTest(ctx context.Context, kind results.Kind, p TestParams) (*results.Result, error) {
	snap := a.store.Current()
	if snap == nil {
		return nil, sample.ErrEmptySample
	}

	req, err := remote.NewTestRequest(snap.Values, p.Alpha, p.Intervals, p.Model)
	if err != nil {
		return nil, err
	}

	key := cache.TestKey{
		Fingerprint: snap.Fingerprint,
		Test:        string(kind),
		Alpha:       p.Alpha,
		Intervals:   p.Intervals,
		Model:       p.Model,
	}.String()
	if a.resultCache != nil && p.Refresh {
		a.resultCache.InvalidateSample(snap.Fingerprint)
	}
	if a.resultCache != nil && a.cacheMaxAge > 0 {
		a.resultCache.InvalidateExpiredEntries(a.cacheMaxAge)
	}
	if a.resultCache != nil && !p.Refresh {
		if r, ok := a.resultCache.Get(key); ok {
			a.emit(Event{Name: EventTestResult, Version: snap.Version, Data: r})
			return r, nil
		}
	}

	r, err := a.client.RunTest(ctx, kind, req)
	if err != nil {
		if errors.Is(err, results.ErrNoResult) {
			a.Log("warning", fmt.Sprintf("[TEST_RESULT] %s returned no usable result: %v", kind.Title(), err))
		}
		return nil, err
	}

	a.Log("info", fmt.Sprintf("[TEST_RESULT] %s on %d values: calculated=%g critical=%g, %s",
		kind.Title(), len(req.Rnd), r.Calculated, r.Critical, r.Conclusion()))
	if a.resultCache != nil {
		a.resultCache.Store(key, r)
	}
	a.emit(Event{Name: EventTestResult, Version: snap.Version, Data: r})
	return r, nil
}

// RenderResult writes r as a table. A missing result is logged and skipped.
func (a *App) RenderResult(w io.Writer, kind results.Kind, r *results.Result) error {
	err := results.Render(w, kind, r)
	if errors.Is(err, results.ErrNoResult) {
		a.Log("warning", "[TEST_RESULT] Nothing to render")
		return nil
	}
	return err
}

// CacheStatsResponse contains result cache statistics
type CacheStatsResponse struct {
	Enabled      bool    `json:"enabled"`
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	EntryCount   int     `json:"entryCount"`
	HitRate      float64 `json:"hitRate"`
}

// GetCacheStats returns the current result cache statistics
func (a *App) GetCacheStats() CacheStatsResponse {
	if a.resultCache == nil {
		return CacheStatsResponse{}
	}
	stats := a.resultCache.GetCacheStats()
	return CacheStatsResponse{
		Enabled:      true,
		TotalSize:    stats.TotalSize,
		MaxSize:      stats.MaxSize,
		UsagePercent: stats.UsagePercent,
		EntryCount:   stats.TotalEntries,
		HitRate:      stats.HitRate,
	}
}

// ClearResultCache drops every cached test result
func (a *App) ClearResultCache() {
	if a.resultCache != nil {
		a.resultCache.Clear()
		a.Log("info", "[CACHE] Result cache cleared")
	}
}

// UpdateCacheSize applies the cache size from the saved settings
func (a *App) UpdateCacheSize() {
	if a.resultCache == nil || a.svc == nil {
		return
	}
	s, err := a.svc.GetSettings()
	if err != nil {
		a.Log("error", fmt.Sprintf("[CACHE] Failed to read settings: %v", err))
		return
	}
	a.resultCache.UpdateMaxSize(s.CacheSizeBytes())
}
