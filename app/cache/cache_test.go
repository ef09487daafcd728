package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"numviz/app/results"
)

func testResult(rows int) *results.Result {
	r := &results.Result{Calculated: 1, Critical: 2}
	for i := 0; i < rows; i++ {
		r.Rows = append(r.Rows, []results.Cell{
			{Number: float64(i), IsNumber: true},
			{Number: float64(i) * 2, IsNumber: true},
		})
	}
	return r
}

func TestLRUListOrder(t *testing.T) {
	l := NewLRUList[string]()
	l.Touch("a")
	l.Touch("b")
	l.Touch("c")
	l.Touch("a")

	want := []string{"a", "c", "b"}
	got := l.Keys()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	oldest, ok := l.RemoveOldest()
	if !ok || oldest != "b" {
		t.Fatalf("RemoveOldest() = %q, %v, want b, true", oldest, ok)
	}
	l.Remove("c")
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	l.Remove("a")
	if _, ok := l.RemoveOldest(); ok {
		t.Fatal("RemoveOldest() on empty list should report false")
	}
}

func TestTestKey(t *testing.T) {
	k := TestKey{Fingerprint: "abc", Test: "k-s", Alpha: 0.05, Intervals: 10, Model: 2}
	want := "sample:abc|test:k-s|a:0.05|i:10|mo:2"
	if got := k.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if !IsSampleKey(want, "abc") {
		t.Error("IsSampleKey should match its own fingerprint")
	}
	if IsSampleKey(want, "ab") {
		t.Error("IsSampleKey should not match a fingerprint prefix")
	}
	if got := KindFromKey(want); got != "k-s" {
		t.Errorf("KindFromKey() = %q, want k-s", got)
	}
}

func TestCacheGetStore(t *testing.T) {
	c := NewCache(1 << 20)
	key := TestKey{Fingerprint: "f1", Test: "chi-cuadrado", Alpha: 0.05, Intervals: 10}.String()

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	r := testResult(10)
	if !c.Store(key, r) {
		t.Fatal("Store() rejected a small entry")
	}
	got, ok := c.Get(key)
	if !ok || got != r {
		t.Fatalf("Get() = %v, %v, want stored result", got, ok)
	}

	stats := c.GetCacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.HitRate != 0.5 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", stats)
	}
	if stats.TestStats["chi-cuadrado"].EntryCount != 1 {
		t.Errorf("TestStats = %+v", stats.TestStats)
	}
	if c.Size() != EntrySize(key, r) {
		t.Errorf("Size() = %d, want %d", c.Size(), EntrySize(key, r))
	}
}

func TestCacheReplaceKeepsSize(t *testing.T) {
	c := NewCache(1 << 20)
	c.Store("sample:x|test:k-s", testResult(5))
	c.Store("sample:x|test:k-s", testResult(5))
	if c.EntryCount() != 1 {
		t.Fatalf("EntryCount() = %d, want 1", c.EntryCount())
	}
	if c.Size() != EntrySize("sample:x|test:k-s", testResult(5)) {
		t.Errorf("Size() = %d after replace", c.Size())
	}
}

func TestCacheEviction(t *testing.T) {
	r := testResult(4)
	size := EntrySize("sample:0|test:k-s", r)
	c := NewCache(size * 2)

	for i := 0; i < 3; i++ {
		if !c.Store(fmt.Sprintf("sample:%d|test:k-s", i), testResult(4)) {
			t.Fatalf("Store(%d) rejected", i)
		}
	}
	if c.EntryCount() != 2 {
		t.Fatalf("EntryCount() = %d, want 2", c.EntryCount())
	}
	if _, ok := c.Get("sample:0|test:k-s"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if c.Size() > c.MaxSize() {
		t.Errorf("Size() %d exceeds MaxSize() %d", c.Size(), c.MaxSize())
	}
}

func TestCacheRejectsOversized(t *testing.T) {
	c := NewCache(100)
	if c.Store("big", testResult(100)) {
		t.Fatal("Store() accepted an entry larger than the cache")
	}
	if c.Store("nil", nil) {
		t.Fatal("Store() accepted a nil result")
	}
	if c.EntryCount() != 0 {
		t.Errorf("EntryCount() = %d, want 0", c.EntryCount())
	}
}

func TestCacheInvalidateSample(t *testing.T) {
	c := NewCache(1 << 20)
	c.Store(TestKey{Fingerprint: "aa", Test: "k-s"}.String(), testResult(1))
	c.Store(TestKey{Fingerprint: "aa", Test: "chi-cuadrado"}.String(), testResult(1))
	c.Store(TestKey{Fingerprint: "aab", Test: "k-s"}.String(), testResult(1))

	if n := c.InvalidateSample("aa"); n != 2 {
		t.Fatalf("InvalidateSample() = %d, want 2", n)
	}
	if c.EntryCount() != 1 {
		t.Errorf("EntryCount() = %d, want 1", c.EntryCount())
	}
}

func TestCacheUpdateMaxSize(t *testing.T) {
	c := NewCache(1 << 20)
	for i := 0; i < 5; i++ {
		c.Store(fmt.Sprintf("sample:%d|test:k-s", i), testResult(3))
	}
	one := EntrySize("sample:0|test:k-s", testResult(3))
	c.UpdateMaxSize(one)
	if c.EntryCount() != 1 {
		t.Fatalf("EntryCount() = %d, want 1", c.EntryCount())
	}
	if _, ok := c.Get("sample:4|test:k-s"); !ok {
		t.Error("most recent entry should survive a resize")
	}
}

type lineLogger []string

func (l *lineLogger) Log(level, message string) { *l = append(*l, level+" "+message) }

func TestCacheExpiredAndClear(t *testing.T) {
	var lines lineLogger
	c := NewCacheWithLogger(1<<20, &lines)
	c.Store("sample:a|test:k-s", testResult(1))
	c.storage["sample:a|test:k-s"].CreateTime = time.Now().Add(-time.Hour)
	c.Store("sample:b|test:k-s", testResult(1))

	if n := c.InvalidateExpiredEntries(time.Minute); n != 1 {
		t.Fatalf("InvalidateExpiredEntries() = %d, want 1", n)
	}
	if _, ok := c.Get("sample:b|test:k-s"); !ok {
		t.Error("fresh entry should survive expiry")
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line, "[CACHE_EXPIRE] Removed 1 entries") {
			found = true
		}
	}
	if !found {
		t.Errorf("expiry not logged: %v", lines)
	}

	c.Get("sample:b|test:k-s")
	c.Clear()
	stats := c.GetCacheStats()
	if stats.TotalEntries != 0 || stats.TotalSize != 0 || stats.Hits != 0 {
		t.Errorf("stats after Clear() = %+v", stats)
	}
}
