package sample

// DefaultPageSize is the number of values shown per listing page.
const DefaultPageSize = 1000

// TotalPages returns how many pages of perPage values n elements occupy.
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Page returns the values on the given 1-based page. Out of range pages
// return an empty slice. The result aliases xs.
func Page(xs []float64, page, perPage int) []float64 {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if page < 1 {
		return []float64{}
	}
	start := (page - 1) * perPage
	if start >= len(xs) {
		return []float64{}
	}
	end := start + perPage
	if end > len(xs) {
		end = len(xs)
	}
	return xs[start:end]
}
