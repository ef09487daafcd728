package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"numviz/app/cache"
	"numviz/app/fileloader"
	"numviz/app/histogram"
	"numviz/app/interfaces"
	"numviz/app/remote"
	"numviz/app/sample"
	"numviz/app/settings"
	"numviz/app/stats"
)

// View is everything derived from the current sample. It is rebuilt
// wholesale whenever the sample, the bucket count or the selection changes.
type View struct {
	Snapshot  *sample.Snapshot
	Stats     stats.Descriptive
	Histogram *histogram.Histogram
	Selection histogram.Selection
	Intervals int
}

// Config wires an App. Zero values select settings defaults.
type Config struct {
	Settings        settings.Settings
	SettingsService *settings.SettingsService
	// Logger receives every line that passes the level filter; nil logs through the standard logger
	Logger     interfaces.Logger
	HTTPClient *http.Client
	// Offline skips the remote generator entirely
	Offline bool
	// Fallback switches to the local generator when the service is unreachable
	Fallback bool
	Seed     uint64
}

// App struct
type App struct {
	cfg      settings.Settings
	svc      *settings.SettingsService
	logger   interfaces.Logger
	minLevel int

	store     *sample.Store
	selection histogram.SelectionController
	statsCfg  stats.Config
	histOpts  histogram.Options

	// serialises operations that rebuild the view
	opMu      sync.Mutex
	mu        sync.RWMutex
	view      *View
	intervals int

	client   *remote.Client
	local    *remote.LocalGenerator
	offline  bool
	fallback bool

	// in-memory result cache for this session, nil when disabled
	resultCache *cache.Cache
	cacheMaxAge time.Duration

	eventsMu   sync.RWMutex
	handlers   map[int]EventHandler
	nextHandle int

	// clipboard init
	clipOnce sync.Once
	clipOK   bool

	unsubscribe func()
}

// NewApp creates a new App application struct
func NewApp(c Config) *App {
	s := c.Settings
	if s == (settings.Settings{}) {
		s = settings.Defaults()
	}

	a := &App{
		cfg:      s,
		svc:      c.SettingsService,
		logger:   c.Logger,
		minLevel: levelRank(s.LogLevel),
		store:    sample.NewStore(),
		statsCfg: stats.Config{
			StdDevSampleSize: s.StdDevSampleSize,
			ExactMedianLimit: s.ExactMedianLimit,
			MedianSampleSize: s.MedianSampleSize,
		},
		histOpts:  histogram.Options{MaterializeLimit: s.MaterializeLimit},
		intervals: s.DefaultIntervals,
		local:     remote.NewLocalGenerator(c.Seed),
		offline:   c.Offline,
		fallback:  c.Fallback,
		handlers:  make(map[int]EventHandler),
	}
	if a.intervals < histogram.MinBuckets || a.intervals > histogram.MaxBuckets {
		a.intervals = settings.Defaults().DefaultIntervals
	}

	a.client = remote.NewClient(remote.Config{
		BaseURL:         s.BaseURL,
		GenerateTimeout: settings.Seconds(s.GenerateTimeoutSeconds),
		TestTimeout:     settings.Seconds(s.TestTimeoutSeconds),
		HealthTimeout:   settings.Seconds(s.HealthTimeoutSeconds),
		InstanceID:      s.InstanceID,
		Logger:          a,
		HTTPClient:      c.HTTPClient,
	})

	if s.EnableResultCache {
		a.resultCache = cache.NewCacheWithLogger(s.CacheSizeBytes(), a)
		a.cacheMaxAge = s.CacheMaxAge()
	}
	if a.svc != nil {
		a.svc.SetCacheManager(a)
	}

	a.unsubscribe = a.store.Subscribe(a.onSampleReplaced)
	return a
}

// Close detaches the app from its sample store
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Settings returns the settings the app was built with
func (a *App) Settings() settings.Settings {
	return a.cfg
}

// Store exposes the sample store so callers can subscribe to replacements
func (a *App) Store() *sample.Store {
	return a.store
}

// Client returns the remote service client
func (a *App) Client() *remote.Client {
	return a.client
}

var levelRanks = map[string]int{"debug": 0, "info": 1, "warn": 2, "warning": 2, "error": 3}

func levelRank(level string) int {
	if r, ok := levelRanks[strings.ToLower(level)]; ok {
		return r
	}
	return levelRanks["info"]
}

// Log emits message when level is at or above the configured log level
func (a *App) Log(level, message string) {
	if a == nil || levelRank(level) < a.minLevel {
		return
	}
	if a.logger != nil {
		a.logger.Log(level, message)
		return
	}
	log.Printf("%s: %s", strings.ToUpper(level), message)
}

// View returns the current derived view, or nil before the first sample
func (a *App) View() *View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// SetSample replaces the current sample. Statistics and buckets are
// recomputed before it returns.
func (a *App) SetSample(values []float64, source string) (*View, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if _, err := a.store.Replace(values, source); err != nil {
		return nil, err
	}
	return a.View(), nil
}

// Generate draws a new sample from the service, or locally when offline or
// when the service cannot be reached and fallback is enabled.
func (a *App) Generate(ctx context.Context, req interfaces.GenerateRequest) (*View, error) {
	if err := remote.Validate(req); err != nil {
		return nil, err
	}
	if advisory := remote.CountAdvisory(req.Count); advisory != "" {
		a.Log("warning", fmt.Sprintf("[GENERATE] %s", advisory))
	}

	var (
		values []float64
		err    error
		source = string(req.Distribution)
	)
	if a.offline {
		values, err = a.local.Generate(ctx, req)
		source += " (local)"
	} else {
		values, err = a.client.Generate(ctx, req)
		if err != nil && a.fallback && unreachable(err) {
			a.Log("warning", fmt.Sprintf("[GENERATE] Service unavailable, generating locally: %v", err))
			values, err = a.local.Generate(ctx, req)
			source += " (local)"
		}
	}
	if err != nil {
		a.Log("error", fmt.Sprintf("[GENERATE] %s failed: %v", req.Distribution, err))
		return nil, err
	}

	a.Log("info", fmt.Sprintf("[GENERATE] %s produced %d values", req.Distribution, len(values)))
	return a.SetSample(values, source)
}

// unreachable reports whether err means the service could not be contacted
func unreachable(err error) bool {
	var te *interfaces.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == interfaces.TransportNetwork || te.Kind == interfaces.TransportTimeout
}

// Load reads a sample from a file or directory
func (a *App) Load(path string, opts fileloader.Options) (*View, error) {
	res, err := fileloader.Load(path, opts)
	if err != nil {
		a.Log("error", fmt.Sprintf("[LOAD] %s: %v", path, err))
		return nil, err
	}
	if res.Skipped > 0 {
		a.Log("warning", fmt.Sprintf("[LOAD] Skipped %d non-numeric entries in %s", res.Skipped, path))
	}
	a.Log("info", fmt.Sprintf("[LOAD] Read %d values from %d file(s) (%s, %s)", len(res.Values), len(res.Files), res.Type, res.Compression))

	if err := remote.ValidateCount(len(res.Values)); err != nil {
		return nil, err
	}
	return a.SetSample(res.Values, path)
}

// SetIntervals changes the bucket count and rebuilds the histogram. A
// selection beyond the new range is dropped.
func (a *App) SetIntervals(k int) (*View, error) {
	if k < histogram.MinBuckets || k > histogram.MaxBuckets {
		return nil, histogram.ErrBucketCount
	}

	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	a.intervals = k
	a.mu.Unlock()

	if a.selection.ClearIfOutOfRange(k) {
		a.Log("debug", "[SELECTION] Cleared selection outside the new bucket range")
	}
	return a.rebuild(context.Background(), false)
}

// Select toggles the highlighted bucket
func (a *App) Select(id int) (*View, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	v := a.View()
	if v == nil {
		return nil, sample.ErrEmptySample
	}
	if id < 0 || id >= v.Intervals {
		return nil, interfaces.NewValidationError("bucket", "bucket must be between 0 and %d, got %d", v.Intervals-1, id)
	}

	sel := a.selection.Select(id)
	a.emit(Event{Name: EventSelectionChanged, Version: v.Snapshot.Version, Data: sel})
	return a.rebuild(context.Background(), false)
}

// ClearSelection drops the highlighted bucket
func (a *App) ClearSelection() (*View, error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.selection.Clear()
	return a.rebuild(context.Background(), false)
}

// Page returns one page of the current sample and the page count
func (a *App) Page(page int) ([]float64, int) {
	snap := a.store.Current()
	if snap == nil {
		return nil, 0
	}
	per := a.cfg.PageSize
	if per <= 0 {
		per = sample.DefaultPageSize
	}
	return sample.Page(snap.Values, page, per), sample.TotalPages(snap.Len(), per)
}

// onSampleReplaced runs synchronously inside Store.Replace
func (a *App) onSampleReplaced(snap *sample.Snapshot) {
	a.selection.Clear()
	if _, err := a.rebuild(context.Background(), true); err != nil {
		a.Log("error", fmt.Sprintf("[SAMPLE] Failed to recompute view for version %d: %v", snap.Version, err))
	}
}

// rebuild recomputes the view from the current snapshot. Statistics are only
// recomputed when the sample itself changed.
func (a *App) rebuild(ctx context.Context, sampleChanged bool) (*View, error) {
	snap := a.store.Current()
	if snap == nil {
		return nil, sample.ErrEmptySample
	}

	a.mu.RLock()
	k := a.intervals
	prev := a.view
	a.mu.RUnlock()

	next := &View{Snapshot: snap, Intervals: k, Selection: a.selection.Current()}
	if !sampleChanged && prev != nil && prev.Snapshot.Version == snap.Version {
		next.Stats = prev.Stats
	} else {
		desc, err := a.statsCfg.Describe(snap.Values)
		if err != nil {
			return nil, err
		}
		next.Stats = desc
	}

	h, err := histogram.BuildContext(ctx, snap.Values, k, next.Selection, a.histOpts)
	if err != nil {
		a.emit(Event{Name: EventHistogramError, Version: snap.Version, Data: err.Error()})
		return nil, err
	}
	h.Version = snap.Version
	next.Histogram = h

	a.mu.Lock()
	a.view = next
	a.mu.Unlock()

	if sampleChanged {
		a.Log("info", fmt.Sprintf("[SAMPLE] Version %d from %s: n=%d mean=%g stddev=%g",
			snap.Version, snap.Source, next.Stats.N, next.Stats.Mean, next.Stats.StdDev))
		a.emit(Event{Name: EventSampleChanged, Version: snap.Version, Data: next})
	}
	a.emit(Event{Name: EventHistogramReady, Version: snap.Version, Data: h})
	return next, nil
}
