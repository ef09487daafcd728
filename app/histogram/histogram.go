package histogram

import (
	"context"
	"fmt"
	"math"

	"numviz/app/interfaces"
)

const (
	MinBuckets = 2
	MaxBuckets = 100

	// DefaultMaterializeLimit is the largest sample for which every
	// bucket carries its members.
	DefaultMaterializeLimit = 10000
)

// ErrBucketCount is returned for a bucket count outside [MinBuckets, MaxBuckets].
var ErrBucketCount = &interfaces.ValidationError{
	Field:   "intervals",
	Message: fmt.Sprintf("bucket count must be between %d and %d", MinBuckets, MaxBuckets),
}

// Options controls member materialisation.
type Options struct {
	MaterializeLimit int
}

// Build partitions xs into k equal-width buckets.
func Build(xs []float64, k int, sel Selection, opts Options) (*Histogram, error) {
	return BuildContext(context.Background(), xs, k, sel, opts)
}

// BuildContext partitions xs into k equal-width buckets spanning [min, max].
// Counts and percentages always cover the full sample. Members are collected
// for the selected bucket, or for every bucket when len(xs) is at most
// opts.MaterializeLimit.
func BuildContext(ctx context.Context, xs []float64, k int, sel Selection, opts Options) (*Histogram, error) {
	if k < MinBuckets || k > MaxBuckets {
		return nil, ErrBucketCount
	}
	if opts.MaterializeLimit <= 0 {
		opts.MaterializeLimit = DefaultMaterializeLimit
	}

	n := len(xs)
	if n == 0 {
		return &Histogram{Buckets: []Bucket{}}, nil
	}

	lo, hi := xs[0], xs[0]
	for _, v := range xs {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(k)
	if math.IsInf(width, 0) {
		// hi-lo overflows; each term on its own stays finite
		width = hi/float64(k) - lo/float64(k)
	}

	buckets := make([]Bucket, k)
	for i := range buckets {
		buckets[i].ID = i
		buckets[i].LowerBound = edge(lo, width, i)
		buckets[i].UpperBound = edge(lo, width, i+1)
		if n <= opts.MaterializeLimit || sel.Is(i) {
			buckets[i].Members = []float64{}
		}
	}
	buckets[0].LowerBound = lo
	buckets[k-1].UpperBound = hi

	for i, v := range xs {
		// Check for cancellation every 1000 values
		if i%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		idx := Index(v, lo, width, k)
		if v == hi && width > 0 {
			idx = k - 1
		}
		b := &buckets[idx]
		b.Count++
		if b.Members != nil {
			b.Members = append(b.Members, v)
		}
	}

	for i := range buckets {
		b := &buckets[i]
		b.Percentage = float64(b.Count) / float64(n) * 100
		if width > 0 {
			b.Density = float64(b.Count) / (float64(n) * width)
		}
	}

	return &Histogram{Buckets: buckets, Min: lo, Max: hi, Width: width, Total: n}, nil
}

// Index returns the bucket for v: floor((v-lo)/width) clamped to [0, k-1].
// A zero width maps every value to bucket 0.
func Index(v, lo, width float64, k int) int {
	if width <= 0 {
		return 0
	}
	pos := (v - lo) / width
	if math.IsInf(v-lo, 0) {
		pos = (v/2 - lo/2) / (width / 2)
	}
	idx := int(pos)
	if idx >= k {
		idx = k - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// edge returns lo + i*width, halving the operands when the sum would
// overflow. The result always lies within the sample range.
func edge(lo, width float64, i int) float64 {
	b := lo + float64(i)*width
	if math.IsInf(b, 0) || math.IsNaN(b) {
		b = 2 * (lo/2 + float64(i)*(width/2))
	}
	return b
}
