// Package stats computes descriptive statistics over a sample. Inputs above
// configurable thresholds are approximated with deterministic stride
// subsamples so the cost stays bounded for very large samples.
package stats

import (
	"errors"
	"math"
	"slices"

	"numviz/app/sample"
)

// ErrEmptySample is returned when statistics are requested for N=0.
var ErrEmptySample = errors.New("statistics undefined for an empty sample")

// Config holds the sampling thresholds.
type Config struct {
	// StdDevSampleSize is both the N above which stddev is approximated and
	// the size of the subsample used to approximate it.
	StdDevSampleSize int `yaml:"stddev_sample_size"`
	// ExactMedianLimit is the largest N for which the median is exact.
	ExactMedianLimit int `yaml:"exact_median_limit"`
	// MedianSampleSize is the subsample size for an approximate median.
	MedianSampleSize int `yaml:"median_sample_size"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StdDevSampleSize: 100000,
		ExactMedianLimit: 100000,
		MedianSampleSize: 10000,
	}
}

// Descriptive is the result of Describe.
type Descriptive struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`

	// Set when the value was computed from a stride subsample
	StdDevSampled bool `json:"stddevSampled"`
	MedianSampled bool `json:"medianSampled"`
}

// Describe computes statistics with the default thresholds.
func Describe(xs []float64) (Descriptive, error) {
	return DefaultConfig().Describe(xs)
}

// Describe computes min, max, mean, population standard deviation and
// median of xs. xs is never modified.
func (c Config) Describe(xs []float64) (Descriptive, error) {
	c = c.withDefaults()
	n := len(xs)
	if n == 0 {
		return Descriptive{}, ErrEmptySample
	}

	d := Descriptive{N: n, Min: xs[0], Max: xs[0]}
	sum := 0.0
	for _, v := range xs {
		if v < d.Min {
			d.Min = v
		}
		if v > d.Max {
			d.Max = v
		}
		sum += v
	}
	d.Mean = sum / float64(n)

	d.StdDev, d.StdDevSampled = c.stdDev(xs, d.Mean)
	d.Median, d.MedianSampled = c.median(xs)
	return d, nil
}

// stdDev uses the full-sample mean even when the squared deviations come
// from a subsample; the divisor is the number of deviations summed.
func (c Config) stdDev(xs []float64, mean float64) (float64, bool) {
	n := len(xs)
	if n <= c.StdDevSampleSize {
		acc := 0.0
		for _, v := range xs {
			d := v - mean
			acc += d * d
		}
		return math.Sqrt(acc / float64(n)), false
	}

	m := c.StdDevSampleSize
	acc := 0.0
	for i := 0; i < m; i++ {
		d := xs[sample.StrideIndex(i, n, m)] - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(m)), true
}

func (c Config) median(xs []float64) (float64, bool) {
	if len(xs) <= c.ExactMedianLimit {
		sorted := slices.Clone(xs)
		slices.Sort(sorted)
		return middle(sorted), false
	}

	sub := sample.Stride(xs, c.MedianSampleSize)
	slices.Sort(sub)
	return middle(sub), true
}

func middle(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StdDevSampleSize <= 0 {
		c.StdDevSampleSize = def.StdDevSampleSize
	}
	if c.ExactMedianLimit <= 0 {
		c.ExactMedianLimit = def.ExactMedianLimit
	}
	if c.MedianSampleSize <= 0 {
		c.MedianSampleSize = def.MedianSampleSize
	}
	return c
}
