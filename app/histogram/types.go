package histogram

import "fmt"

// Bucket is one equal-width interval of the histogram. Buckets are half-open
// [LowerBound, UpperBound) except the last one, which is closed.
type Bucket struct {
	ID         int     `json:"id"`
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	// Density is Count / (N * width), 0 for a degenerate histogram
	Density float64 `json:"density"`
	// Members holds the values in this bucket, in sample order. Only
	// populated when the bucket is selected or the sample is small.
	Members []float64 `json:"members,omitempty"`
}

// Label returns the interval as shown in tables and charts.
func (b Bucket) Label() string {
	return fmt.Sprintf("%.2f - %.2f", b.LowerBound, b.UpperBound)
}

// HasMembers reports whether member values were materialised.
func (b Bucket) HasMembers() bool {
	return b.Members != nil
}

// Histogram is the result of Build.
type Histogram struct {
	Buckets []Bucket `json:"buckets"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Width   float64  `json:"width"`
	Total   int      `json:"total"`
	// Version is the sample version the histogram was built from
	Version int64 `json:"version"`
}

// Bucket returns the bucket with the given id.
func (h *Histogram) Bucket(id int) (Bucket, bool) {
	if h == nil || id < 0 || id >= len(h.Buckets) {
		return Bucket{}, false
	}
	return h.Buckets[id], true
}
