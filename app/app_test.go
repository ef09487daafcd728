package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ohler55/ojg/oj"

	"numviz/app/export"
	"numviz/app/fileloader"
	"numviz/app/histogram"
	"numviz/app/interfaces"
	"numviz/app/results"
	"numviz/app/settings"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Log(level, message string) {
	r.lines = append(r.lines, level+" "+message)
}

func newTestApp(t *testing.T, baseURL string) (*App, *recordingLogger) {
	t.Helper()
	s := settings.Defaults()
	s.LogLevel = "debug"
	if baseURL != "" {
		s.BaseURL = baseURL
	}
	logger := &recordingLogger{}
	a := NewApp(Config{Settings: s, Logger: logger, Seed: 42})
	t.Cleanup(a.Close)
	return a, logger
}

func sequence(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func TestSetSampleBuildsView(t *testing.T) {
	a, _ := newTestApp(t, "")

	var names []string
	a.OnEvent(func(e Event) { names = append(names, e.Name) })

	v, err := a.SetSample(sequence(101), "test")
	if err != nil {
		t.Fatalf("SetSample() error = %v", err)
	}
	if v.Stats.N != 101 || v.Stats.Mean != 50 || v.Stats.Median != 50 {
		t.Errorf("stats = %+v", v.Stats)
	}
	if len(v.Histogram.Buckets) != 10 || v.Intervals != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(v.Histogram.Buckets))
	}
	if v.Histogram.Version != v.Snapshot.Version {
		t.Errorf("histogram version %d != sample version %d", v.Histogram.Version, v.Snapshot.Version)
	}
	total := 0
	for _, b := range v.Histogram.Buckets {
		total += b.Count
	}
	if total != 101 {
		t.Errorf("bucket counts sum to %d, want 101", total)
	}

	want := []string{EventSampleChanged, EventHistogramReady}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", names, want)
	}
	if a.View() != v {
		t.Error("View() should return the latest view")
	}
}

func TestSetSampleRejectsEmpty(t *testing.T) {
	a, _ := newTestApp(t, "")
	if _, err := a.SetSample(nil, "empty"); err == nil {
		t.Fatal("expected error for empty sample")
	}
	if a.View() != nil {
		t.Error("view should stay nil after a rejected sample")
	}
}

func TestSelectToggleAndReset(t *testing.T) {
	a, _ := newTestApp(t, "")
	values := sequence(200000)
	if _, err := a.SetSample(values, "test"); err != nil {
		t.Fatal(err)
	}

	v, err := a.Select(3)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if id, ok := v.Selection.ID(); !ok || id != 3 {
		t.Fatalf("selection = %v, want 3", v.Selection)
	}
	for _, b := range v.Histogram.Buckets {
		if b.HasMembers() != (b.ID == 3) {
			t.Errorf("bucket %d HasMembers = %v", b.ID, b.HasMembers())
		}
	}

	v, _ = a.Select(3)
	if _, ok := v.Selection.ID(); ok {
		t.Error("selecting the same bucket twice should clear the selection")
	}

	a.Select(5)
	v, _ = a.Select(7)
	if id, _ := v.Selection.ID(); id != 7 {
		t.Errorf("selection = %d, want 7", id)
	}

	// A new sample clears the selection
	v, _ = a.SetSample(sequence(50), "other")
	if _, ok := v.Selection.ID(); ok {
		t.Error("selection should be cleared when the sample is replaced")
	}
}

func TestSelectOutOfRange(t *testing.T) {
	a, _ := newTestApp(t, "")
	if _, err := a.Select(0); err == nil {
		t.Fatal("expected error selecting without a sample")
	}
	a.SetSample(sequence(20), "test")

	var ve *interfaces.ValidationError
	if _, err := a.Select(10); !errors.As(err, &ve) {
		t.Fatalf("Select(10) error = %v, want ValidationError", err)
	}
}

func TestSetIntervals(t *testing.T) {
	a, _ := newTestApp(t, "")
	a.SetSample(sequence(1000), "test")
	a.Select(8)
	before := a.View().Stats

	v, err := a.SetIntervals(5)
	if err != nil {
		t.Fatalf("SetIntervals() error = %v", err)
	}
	if len(v.Histogram.Buckets) != 5 {
		t.Errorf("expected 5 buckets, got %d", len(v.Histogram.Buckets))
	}
	if _, ok := v.Selection.ID(); ok {
		t.Error("selection beyond the new range should be cleared")
	}
	if v.Stats != before {
		t.Error("statistics should not change with the bucket count")
	}

	if _, err := a.SetIntervals(1); !errors.Is(err, histogram.ErrBucketCount) {
		t.Errorf("SetIntervals(1) error = %v, want ErrBucketCount", err)
	}
	if _, err := a.SetIntervals(101); !errors.Is(err, histogram.ErrBucketCount) {
		t.Errorf("SetIntervals(101) error = %v, want ErrBucketCount", err)
	}
}

func TestPage(t *testing.T) {
	a, _ := newTestApp(t, "")
	if page, total := a.Page(1); page != nil || total != 0 {
		t.Fatal("expected no pages without a sample")
	}
	a.SetSample(sequence(2500), "test")

	page, total := a.Page(3)
	if total != 3 || len(page) != 500 || page[0] != 2000 {
		t.Errorf("Page(3) = %d values starting at %v of %d pages", len(page), page[0], total)
	}
}

func TestGenerateOffline(t *testing.T) {
	s := settings.Defaults()
	a := NewApp(Config{Settings: s, Offline: true, Seed: 7, Logger: &recordingLogger{}})
	defer a.Close()

	v, err := a.Generate(context.Background(), interfaces.GenerateRequest{
		Distribution: interfaces.Uniform, Count: 1000, A: 2, B: 4,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if v.Stats.N != 1000 || v.Stats.Min < 2 || v.Stats.Max > 4 {
		t.Errorf("unexpected stats %+v", v.Stats)
	}
	if v.Snapshot.Source != "uniforme (local)" {
		t.Errorf("source = %q", v.Snapshot.Source)
	}

	var ve *interfaces.ValidationError
	_, err = a.Generate(context.Background(), interfaces.GenerateRequest{Distribution: interfaces.Uniform, Count: 5, A: 0, B: 1})
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for small count, got %v", err)
	}
}

func TestGenerateRemoteAndFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Numeros": [1, 2, 3, 4, 5, 6, 7, 8, 9, 10, "x"]}`))
	}))
	a, _ := newTestApp(t, srv.URL)

	req := interfaces.GenerateRequest{Distribution: interfaces.Exponential, Count: 10, Lambda: 1}
	v, err := a.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if v.Stats.N != 10 || v.Snapshot.Source != "exponencial" {
		t.Errorf("view = %+v from %q", v.Stats, v.Snapshot.Source)
	}

	srv.Close()

	// Without fallback the transport error surfaces
	var te *interfaces.TransportError
	if _, err := a.Generate(context.Background(), req); !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if a.View().Snapshot.Source != "exponencial" {
		t.Error("a failed generation must leave the sample untouched")
	}

	s := settings.Defaults()
	s.BaseURL = srv.URL
	fb := NewApp(Config{Settings: s, Fallback: true, Seed: 1, Logger: &recordingLogger{}})
	defer fb.Close()
	v, err = fb.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() with fallback error = %v", err)
	}
	if v.Snapshot.Source != "exponencial (local)" {
		t.Errorf("source = %q, want local fallback", v.Snapshot.Source)
	}
}

func TestRunTestUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/tests/k-s" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Test": [[1, 2], [3, 4], 5, 6]}`))
	}))
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	if _, err := a.RunTest(context.Background(), results.KolmogorovSmirnov, TestParams{Alpha: 0.05, Intervals: 10}); err == nil {
		t.Fatal("expected error without a sample")
	}

	a.SetSample(sequence(5000), "test")
	p := TestParams{Alpha: 0.05, Intervals: 10, Model: 1}

	r, err := a.RunTest(context.Background(), results.KolmogorovSmirnov, p)
	if err != nil {
		t.Fatalf("RunTest() error = %v", err)
	}
	if r.Conclusion() != results.DoNotReject || len(r.Rows) != 2 {
		t.Errorf("unexpected result %+v", r)
	}

	again, err := a.RunTest(context.Background(), results.KolmogorovSmirnov, p)
	if err != nil {
		t.Fatal(err)
	}
	if again != r || calls.Load() != 1 {
		t.Errorf("second run should be served from cache, server calls = %d", calls.Load())
	}
	if stats := a.GetCacheStats(); !stats.Enabled || stats.EntryCount != 1 || stats.HitRate != 0.5 {
		t.Errorf("cache stats = %+v", stats)
	}

	p.Refresh = true
	if _, err := a.RunTest(context.Background(), results.KolmogorovSmirnov, p); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("refresh should call the service again, calls = %d", calls.Load())
	}

	var buf bytes.Buffer
	if err := a.RenderResult(&buf, results.KolmogorovSmirnov, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Conclusion: do not reject") {
		t.Errorf("rendered output missing conclusion:\n%s", buf.String())
	}
	buf.Reset()
	if err := a.RenderResult(&buf, results.ChiSquare, nil); err != nil || buf.Len() != 0 {
		t.Errorf("rendering a nil result should be a silent no-op, err = %v, out = %q", err, buf.String())
	}

	a.ClearResultCache()
	if a.GetCacheStats().EntryCount != 0 {
		t.Error("ClearResultCache() left entries behind")
	}
}

func TestRunTestExpiresOldResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Test": [[1, 2], [3, 4], 5, 6]}`))
	}))
	defer srv.Close()

	s := settings.Defaults()
	s.BaseURL = srv.URL
	s.ResultCacheMaxAgeMinutes = 1
	a := NewApp(Config{Settings: s, Logger: &recordingLogger{}})
	defer a.Close()
	if a.cacheMaxAge != time.Minute {
		t.Fatalf("cacheMaxAge = %v, want 1m", a.cacheMaxAge)
	}
	a.SetSample(sequence(500), "test")

	p := TestParams{Alpha: 0.05, Intervals: 10}
	for i := 0; i < 2; i++ {
		if _, err := a.RunTest(context.Background(), results.ChiSquare, p); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("a fresh result should come from the cache, service calls = %d", calls.Load())
	}

	a.cacheMaxAge = time.Millisecond
	time.Sleep(5 * time.Millisecond)
	if _, err := a.RunTest(context.Background(), results.ChiSquare, p); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("an expired result should be fetched again, service calls = %d", calls.Load())
	}
}

func TestRunTestInvalidParams(t *testing.T) {
	a, _ := newTestApp(t, "http://127.0.0.1:1")
	a.SetSample(sequence(100), "test")

	var ve *interfaces.ValidationError
	_, err := a.RunTest(context.Background(), results.ChiSquare, TestParams{Alpha: 1.5, Intervals: 10})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExportToDir(t *testing.T) {
	dir := t.TempDir()
	a := NewApp(Config{Settings: settings.Defaults(), Offline: true, Seed: 3, Logger: &recordingLogger{}})
	defer a.Close()

	if _, _, err := a.ExportToDir(context.Background(), dir, export.Options{}); err == nil {
		t.Fatal("expected error exporting without a sample")
	}

	v, err := a.Generate(context.Background(), interfaces.GenerateRequest{
		Distribution: interfaces.NormalBoxMuller, Count: 2500, Mean: 0, StdDev: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	var progress int
	a.OnEvent(func(e Event) {
		if e.Name == EventExportProgress {
			progress++
		}
	})

	path, artifact, err := a.ExportToDir(context.Background(), dir, export.Options{BatchSize: 1000})
	if err != nil {
		t.Fatalf("ExportToDir() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "numeros_normal_boxmuller_") || !strings.HasSuffix(path, ".csv") {
		t.Errorf("unexpected export path %s", path)
	}
	if artifact.Batches != 3 || progress != 3 {
		t.Errorf("batches = %d, progress events = %d, want 3", artifact.Batches, progress)
	}

	res, err := fileloader.LoadFile(path, fileloader.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Values) != len(v.Snapshot.Values) {
		t.Fatalf("reloaded %d values, want %d", len(res.Values), len(v.Snapshot.Values))
	}
	for i := range res.Values {
		if res.Values[i] != v.Snapshot.Values[i] {
			t.Fatalf("value %d = %v, want %v", i, res.Values[i], v.Snapshot.Values[i])
		}
	}

	loaded, err := a.Load(path, fileloader.Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Snapshot.Fingerprint != v.Snapshot.Fingerprint {
		t.Error("reloading an export should reproduce the sample fingerprint")
	}
}

func TestLoadRejectsTinySample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "few.csv")
	os.WriteFile(path, []byte("Valor\n1\n2\n3\n"), 0o644)

	a, _ := newTestApp(t, "")
	var ve *interfaces.ValidationError
	if _, err := a.Load(path, fileloader.Options{}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLogLevelFilter(t *testing.T) {
	s := settings.Defaults()
	s.LogLevel = "warning"
	logger := &recordingLogger{}
	a := NewApp(Config{Settings: s, Logger: logger})
	defer a.Close()

	a.Log("debug", "hidden")
	a.Log("info", "hidden")
	a.Log("warn", "shown")
	a.Log("error", "shown")
	if len(logger.lines) != 2 {
		t.Errorf("logged %v, want 2 lines", logger.lines)
	}
}

func TestBucketClipboardData(t *testing.T) {
	b := histogram.Bucket{ID: 0, Members: []float64{1.5, 2, 1e-7}}

	text, err := bucketClipboardData(b, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(text), "Valor\n1.5\n2\n1e-07\n"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}

	js, err := bucketClipboardData(b, true)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := oj.Parse(js)
	if err != nil {
		t.Fatalf("clipboard JSON does not parse: %v", err)
	}
	if list, ok := parsed.([]any); !ok || len(list) != 3 || list[0] != 1.5 {
		t.Errorf("json = %s", js)
	}
}

func TestDistributionOf(t *testing.T) {
	tests := []struct {
		source, want string
	}{
		{"uniforme", "uniforme"},
		{"normal/convolucion (local)", "normal/convolucion"},
		{"/tmp/sample.csv", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := distributionOf(tt.source); got != tt.want {
			t.Errorf("distributionOf(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
