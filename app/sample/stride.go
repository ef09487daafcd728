package sample

// StrideIndex returns the source index of the i-th element of an m-element
// stride subsample taken from n elements: floor(i*n/m).
func StrideIndex(i, n, m int) int {
	return int(int64(i) * int64(n) / int64(m))
}

// Stride returns a deterministic m-element subsample of xs in increasing
// source-index order. When m >= len(xs) a copy of xs is returned.
func Stride(xs []float64, m int) []float64 {
	n := len(xs)
	if m <= 0 || n == 0 {
		return []float64{}
	}
	if m >= n {
		out := make([]float64, n)
		copy(out, xs)
		return out
	}

	out := make([]float64, m)
	for i := range out {
		out[i] = xs[StrideIndex(i, n, m)]
	}
	return out
}
