package histogram

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"numviz/app/interfaces"
)

func uniformish(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Mod(float64(i)*0.6180339887, 1) * 50
	}
	return xs
}

// TestBuildCountsPartitionSample checks sum(count) == N for every allowed K.
func TestBuildCountsPartitionSample(t *testing.T) {
	xs := uniformish(5000)
	xs = append(xs, 50, -3)

	for k := MinBuckets; k <= MaxBuckets; k++ {
		h, err := Build(xs, k, NoSelection, Options{})
		if err != nil {
			t.Fatalf("K=%d: %v", k, err)
		}
		if len(h.Buckets) != k {
			t.Fatalf("K=%d: got %d buckets", k, len(h.Buckets))
		}

		total := 0
		members := 0
		pct := 0.0
		for i, b := range h.Buckets {
			if b.ID != i {
				t.Fatalf("K=%d: bucket %d has id %d", k, i, b.ID)
			}
			total += b.Count
			members += len(b.Members)
			pct += b.Percentage
			if want := float64(b.Count) / float64(len(xs)) * 100; b.Percentage != want {
				t.Errorf("K=%d bucket %d: percentage %v, want %v", k, i, b.Percentage, want)
			}
		}
		if total != len(xs) {
			t.Errorf("K=%d: counts sum to %d, want %d", k, total, len(xs))
		}
		if members != len(xs) {
			t.Errorf("K=%d: members sum to %d, want %d", k, members, len(xs))
		}
		if math.Abs(pct-100) > 1e-9 {
			t.Errorf("K=%d: percentages sum to %v", k, pct)
		}
		if h.Buckets[k-1].UpperBound != h.Max {
			t.Errorf("K=%d: last upper bound %v, want max %v", k, h.Buckets[k-1].UpperBound, h.Max)
		}
	}
}

func TestBuildMaxLandsInLastBucket(t *testing.T) {
	xs := []float64{0, 10, 25, 99.999, 100}
	h, err := Build(xs, 10, NoSelection, Options{})
	if err != nil {
		t.Fatal(err)
	}

	expectedCounts := []int{1, 1, 1, 0, 0, 0, 0, 0, 0, 2}
	var counts []int
	for _, b := range h.Buckets {
		counts = append(counts, b.Count)
	}
	if !reflect.DeepEqual(counts, expectedCounts) {
		t.Errorf("counts %v, want %v", counts, expectedCounts)
	}
	if !reflect.DeepEqual(h.Buckets[9].Members, []float64{99.999, 100}) {
		t.Errorf("bucket 9 members %v", h.Buckets[9].Members)
	}
	if h.Buckets[2].Label() != "20.00 - 30.00" {
		t.Errorf("label %q", h.Buckets[2].Label())
	}
	if got := h.Buckets[0].Density; got != 1.0/(5*10) {
		t.Errorf("density %v", got)
	}
}

func TestBuildExtremeRange(t *testing.T) {
	xs := []float64{-1e308, -5e307, 0, 5e307, 1e308}
	h, err := Build(xs, 4, NoSelection, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.IsInf(h.Width, 0) || math.IsNaN(h.Width) || h.Width <= 0 {
		t.Fatalf("width %v", h.Width)
	}

	expectedCounts := []int{1, 1, 1, 2}
	var counts []int
	for _, b := range h.Buckets {
		counts = append(counts, b.Count)
		if math.IsNaN(b.LowerBound) || math.IsNaN(b.UpperBound) || math.IsInf(b.LowerBound, 0) || math.IsInf(b.UpperBound, 0) {
			t.Errorf("bucket %d bounds [%v, %v]", b.ID, b.LowerBound, b.UpperBound)
		}
	}
	if !reflect.DeepEqual(counts, expectedCounts) {
		t.Errorf("counts %v, want %v", counts, expectedCounts)
	}
	if h.Buckets[0].LowerBound != -1e308 || h.Buckets[3].UpperBound != 1e308 {
		t.Errorf("range [%v, %v]", h.Buckets[0].LowerBound, h.Buckets[3].UpperBound)
	}
	if !reflect.DeepEqual(h.Buckets[3].Members, []float64{5e307, 1e308}) {
		t.Errorf("maximum landed outside the last bucket: %v", h.Buckets[3].Members)
	}

	h, err = Build([]float64{-math.MaxFloat64, 0, math.MaxFloat64}, 2, NoSelection, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if h.Buckets[0].Count != 1 || h.Buckets[1].Count != 2 {
		t.Errorf("counts %d, %d, want 1, 2", h.Buckets[0].Count, h.Buckets[1].Count)
	}
}

func TestBuildRejectsBucketCount(t *testing.T) {
	for _, k := range []int{-1, 0, 1, 101} {
		_, err := Build([]float64{1, 2, 3}, k, NoSelection, Options{})
		if !errors.Is(err, ErrBucketCount) {
			t.Errorf("K=%d: expected ErrBucketCount, got %v", k, err)
		}
		var ve *interfaces.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("K=%d: expected a ValidationError", k)
		}
	}
}

func TestBuildDegenerateSample(t *testing.T) {
	xs := []float64{4, 4, 4, 4}
	h, err := Build(xs, 5, NoSelection, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if h.Width != 0 || h.Buckets[0].Count != 4 {
		t.Fatalf("expected all values in bucket 0, got %+v", h.Buckets)
	}
	for _, b := range h.Buckets {
		if b.LowerBound != 4 || b.UpperBound != 4 || b.Density != 0 {
			t.Errorf("bucket %d bounds [%v, %v] density %v", b.ID, b.LowerBound, b.UpperBound, b.Density)
		}
	}
}

func TestBuildMaterialisationPolicy(t *testing.T) {
	xs := uniformish(20000)

	h, err := Build(xs, 10, NoSelection, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range h.Buckets {
		if b.HasMembers() {
			t.Fatalf("bucket %d materialised without selection above the limit", b.ID)
		}
	}

	h, err = Build(xs, 10, SelectionOf(3), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range h.Buckets {
		if b.ID == 3 {
			if len(b.Members) != b.Count {
				t.Errorf("selected bucket has %d members, count %d", len(b.Members), b.Count)
			}
			continue
		}
		if b.HasMembers() {
			t.Errorf("unselected bucket %d materialised", b.ID)
		}
	}

	// lowering the limit disables materialisation for small samples
	h, err = Build(uniformish(100), 4, NoSelection, Options{MaterializeLimit: 50})
	if err != nil {
		t.Fatal(err)
	}
	if h.Buckets[0].HasMembers() {
		t.Error("members present above a custom limit")
	}
}

func TestBuildDeterministic(t *testing.T) {
	xs := uniformish(3000)
	a, _ := Build(xs, 17, SelectionOf(2), Options{})
	b, _ := Build(xs, 17, SelectionOf(2), Options{})
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different histograms")
	}
}

func TestBuildEmptyAndCanceled(t *testing.T) {
	h, err := Build(nil, 10, NoSelection, Options{})
	if err != nil || len(h.Buckets) != 0 {
		t.Errorf("empty sample: %v %+v", err, h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := BuildContext(ctx, uniformish(10), 10, NoSelection, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSelectionToggle(t *testing.T) {
	var c SelectionController

	c.Select(3)
	c.Select(3)
	if _, ok := c.Selected(); ok {
		t.Error("select(3), select(3) should leave nothing selected")
	}

	c.Select(3)
	c.Select(5)
	if id, ok := c.Selected(); !ok || id != 5 {
		t.Errorf("select(3), select(5) should select 5, got %d %v", id, ok)
	}

	if !c.ClearIfOutOfRange(5) {
		t.Error("id 5 is out of range for 5 buckets")
	}
	if c.Current() != NoSelection {
		t.Error("selection not cleared")
	}

	c.Select(0)
	if c.ClearIfOutOfRange(2) {
		t.Error("id 0 is in range")
	}
	c.Clear()
	if _, ok := c.Selected(); ok {
		t.Error("Clear left a selection")
	}
}
